package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"VIBE_VOICE_ASSISTANT_NAMES", "VIBE_VOICE_SUBMIT", "VIBE_VOICE_PROCESS_DEPTH",
		"VIBE_VOICE_MAX_UPLOAD", "VIBE_VOICE_REFINE_MAX_TOKENS",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "AZURE_OPENAI_API_KEY", "AZURE_RESOURCE_NAME",
	}
	for key := range envStrings(&Config{}) {
		keys = append(keys, key)
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

// inEmptyDir runs the test from a directory without a config file and with
// HOME pointing at an empty directory.
func inEmptyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	return dir
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Listen != "0.0.0.0:8000" {
		t.Errorf("Listen: got %q, want %q", cfg.Listen, "0.0.0.0:8000")
	}
	if !reflect.DeepEqual(cfg.AssistantNames, []string{"claude"}) {
		t.Errorf("AssistantNames: got %v, want [claude]", cfg.AssistantNames)
	}
	if cfg.ProcessDepth != 3 {
		t.Errorf("ProcessDepth: got %d, want %d", cfg.ProcessDepth, 3)
	}
	if cfg.ShouldSubmit() {
		t.Error("Submit: text should be left at the prompt by default")
	}
	if cfg.TranscribeBackend != "whisper" {
		t.Errorf("TranscribeBackend: got %q, want %q", cfg.TranscribeBackend, "whisper")
	}
	if cfg.MaxUpload != 25<<20 {
		t.Errorf("MaxUpload: got %d, want %d", cfg.MaxUpload, 25<<20)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	inEmptyDir(t)
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile: got %q, want empty", cfg.ConfigFile)
	}
	if cfg.Listen != Defaults().Listen {
		t.Errorf("Listen: got %q, want default", cfg.Listen)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := inEmptyDir(t)
	clearEnv(t)

	content := `listen: 127.0.0.1:9000
tmux_socket: voice
assistant_names:
  - claude
  - aider
process_depth: 5
submit: true
transcribe_backend: whisper-server
whisper_server_url: http://127.0.0.1:8080
language: en
refine_provider: anthropic
refine_model: claude-haiku-4-5
log_format: json
`
	if err := os.WriteFile(filepath.Join(dir, ".vibe-voice.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ConfigFile != ".vibe-voice.yaml" {
		t.Errorf("ConfigFile: got %q", cfg.ConfigFile)
	}
	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("Listen: got %q", cfg.Listen)
	}
	if cfg.TmuxSocket != "voice" {
		t.Errorf("TmuxSocket: got %q", cfg.TmuxSocket)
	}
	if !reflect.DeepEqual(cfg.AssistantNames, []string{"claude", "aider"}) {
		t.Errorf("AssistantNames: got %v", cfg.AssistantNames)
	}
	if cfg.ProcessDepth != 5 {
		t.Errorf("ProcessDepth: got %d, want 5", cfg.ProcessDepth)
	}
	if !cfg.ShouldSubmit() {
		t.Error("Submit: got false, want true")
	}
	if cfg.TranscribeBackend != "whisper-server" || cfg.WhisperServerURL != "http://127.0.0.1:8080" {
		t.Errorf("transcription: got %q %q", cfg.TranscribeBackend, cfg.WhisperServerURL)
	}
	if cfg.RefineAPIKey != "sk-ant-test" {
		t.Errorf("RefineAPIKey: got %q, want ANTHROPIC_API_KEY fallback", cfg.RefineAPIKey)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: got %q", cfg.LogFormat)
	}
	// Unset keys keep their defaults
	if cfg.MaxUpload != 25<<20 {
		t.Errorf("MaxUpload: got %d, want default", cfg.MaxUpload)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	inEmptyDir(t)
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "voice.yaml")
	if err := os.WriteFile(path, []byte("mux: tmux\ntmux_socket_path: /tmp/t.sock\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ConfigFile != path || cfg.Mux != "tmux" || cfg.TmuxSocketPath != "/tmp/t.sock" {
		t.Errorf("got file=%q mux=%q socket=%q", cfg.ConfigFile, cfg.Mux, cfg.TmuxSocketPath)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicit missing config file should fail")
	}
}

func TestSubmitFalseInFileOverridesNothing(t *testing.T) {
	dir := inEmptyDir(t)
	clearEnv(t)

	if err := os.WriteFile(filepath.Join(dir, ".vibe-voice.yaml"), []byte("submit: false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VIBE_VOICE_SUBMIT", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.ShouldSubmit() {
		t.Error("VIBE_VOICE_SUBMIT=true should override submit: false")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := inEmptyDir(t)
	clearEnv(t)

	content := `listen: 127.0.0.1:9000
transcribe_backend: openai
openai_api_key: file-key
process_depth: 2
`
	if err := os.WriteFile(filepath.Join(dir, ".vibe-voice.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("VIBE_VOICE_LISTEN", ":8123")
	t.Setenv("VIBE_VOICE_OPENAI_API_KEY", "env-key")
	t.Setenv("VIBE_VOICE_PROCESS_DEPTH", "4")
	t.Setenv("VIBE_VOICE_ASSISTANT_NAMES", "claude, codex ,")
	t.Setenv("OPENAI_API_KEY", "fallback-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Listen != ":8123" {
		t.Errorf("Listen: got %q, want %q (env should override file)", cfg.Listen, ":8123")
	}
	if cfg.OpenAIAPIKey != "env-key" {
		t.Errorf("OpenAIAPIKey: got %q, want %q (fallback must not win)", cfg.OpenAIAPIKey, "env-key")
	}
	if cfg.ProcessDepth != 4 {
		t.Errorf("ProcessDepth: got %d, want 4", cfg.ProcessDepth)
	}
	if !reflect.DeepEqual(cfg.AssistantNames, []string{"claude", "codex"}) {
		t.Errorf("AssistantNames: got %v", cfg.AssistantNames)
	}
}

func TestInvalidEnv(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"VIBE_VOICE_SUBMIT", "maybe", "VIBE_VOICE_SUBMIT"},
		{"VIBE_VOICE_PROCESS_DEPTH", "deep", "VIBE_VOICE_PROCESS_DEPTH"},
		{"VIBE_VOICE_PROCESS_DEPTH", "0", "process_depth"},
		{"VIBE_VOICE_LOG_FORMAT", "xml", "log_format"},
		{"VIBE_VOICE_LOG_LEVEL", "loud", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			inEmptyDir(t)
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestAzureFallbacks(t *testing.T) {
	inEmptyDir(t)
	clearEnv(t)
	t.Setenv("VIBE_VOICE_REFINE_PROVIDER", "openai")
	t.Setenv("AZURE_OPENAI_API_KEY", "azure-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("AZURE_RESOURCE_NAME", "myres")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.RefineAPIKey != "azure-key" {
		t.Errorf("RefineAPIKey: got %q, want %q", cfg.RefineAPIKey, "azure-key")
	}
	if cfg.RefineBaseURL != "https://myres.openai.azure.com/openai/v1" {
		t.Errorf("RefineBaseURL: got %q", cfg.RefineBaseURL)
	}
	if cfg.OpenAIAPIKey != "openai-key" {
		t.Errorf("OpenAIAPIKey: got %q, want OPENAI_API_KEY fallback", cfg.OpenAIAPIKey)
	}
}

func TestIsAzureEndpoint(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://myres.services.ai.azure.com/anthropic/", true},
		{"https://myres.openai.azure.us/openai/v1", true},
		{"https://api.anthropic.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAzureEndpoint(tt.url); got != tt.want {
			t.Errorf("IsAzureEndpoint(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
