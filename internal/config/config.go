// Package config loads vibe-voice configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (VIBE_VOICE_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. the path given with --config
//  2. .vibe-voice.yaml in current directory
//  3. ~/.config/vibe-voice/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all vibe-voice configuration.
type Config struct {
	// HTTP
	Listen    string `yaml:"listen"`
	MaxUpload int64  `yaml:"max_upload"` // request body limit in bytes

	// Multiplexer
	Mux            string `yaml:"mux"`              // "tmux" or empty for auto-detect
	TmuxSocket     string `yaml:"tmux_socket"`      // tmux -L
	TmuxSocketPath string `yaml:"tmux_socket_path"` // tmux -S, wins over tmux_socket

	// Pane resolution and injection
	AssistantNames []string `yaml:"assistant_names"`
	ProcessDepth   int      `yaml:"process_depth"`
	Submit         *bool    `yaml:"submit"` // press Enter after the text

	// Logging
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text or json

	// Transcription
	TranscribeBackend string `yaml:"transcribe_backend"` // whisper, whisper-server, openai
	WhisperModel      string `yaml:"whisper_model"`      // ggml model file for the whisper backend
	WhisperServerURL  string `yaml:"whisper_server_url"`
	Language          string `yaml:"language"`
	TranscribeModel   string `yaml:"transcribe_model"`
	OpenAIBaseURL     string `yaml:"openai_base_url"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`

	// Transcript refinement (disabled when provider is empty)
	RefineProvider  string `yaml:"refine_provider"`
	RefineModel     string `yaml:"refine_model"`
	RefineBaseURL   string `yaml:"refine_base_url"`
	RefineAPIKey    string `yaml:"refine_api_key"`
	RefineMaxTokens int64  `yaml:"refine_max_tokens"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs, e.g. "Authorization=Basic abc123"

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	submit := false
	return &Config{
		Listen:            "0.0.0.0:8000",
		MaxUpload:         25 << 20,
		AssistantNames:    []string{"claude"},
		ProcessDepth:      3,
		Submit:            &submit,
		LogLevel:          "info",
		LogFormat:         "text",
		TranscribeBackend: "whisper",
		RefineMaxTokens:   1024,
	}
}

// ShouldSubmit reports whether Enter is pressed after injected text.
func (c *Config) ShouldSubmit() bool {
	return c.Submit != nil && *c.Submit
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values. A non-empty path must
// exist; otherwise the default locations are searched.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	path, data, err := findConfigFile(path)
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	case !errors.Is(err, errNoConfigFile):
		return nil, err
	}

	// Environment variables override everything
	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var errNoConfigFile = errors.New("no config file found")

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile(explicit string) (string, []byte, error) {
	if explicit != "" {
		data, err := os.ReadFile(explicit)
		if err != nil {
			return "", nil, fmt.Errorf("reading config file: %w", err)
		}
		return explicit, data, nil
	}

	// 1. Current directory
	if data, err := os.ReadFile(".vibe-voice.yaml"); err == nil {
		return ".vibe-voice.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "vibe-voice", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, errNoConfigFile
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	setString(&cfg.Listen, file.Listen)
	if file.MaxUpload > 0 {
		cfg.MaxUpload = file.MaxUpload
	}
	setString(&cfg.Mux, file.Mux)
	setString(&cfg.TmuxSocket, file.TmuxSocket)
	setString(&cfg.TmuxSocketPath, file.TmuxSocketPath)
	if len(file.AssistantNames) > 0 {
		cfg.AssistantNames = file.AssistantNames
	}
	if file.ProcessDepth > 0 {
		cfg.ProcessDepth = file.ProcessDepth
	}
	if file.Submit != nil {
		cfg.Submit = file.Submit
	}
	setString(&cfg.LogLevel, file.LogLevel)
	setString(&cfg.LogFormat, file.LogFormat)
	setString(&cfg.TranscribeBackend, file.TranscribeBackend)
	setString(&cfg.WhisperModel, file.WhisperModel)
	setString(&cfg.WhisperServerURL, file.WhisperServerURL)
	setString(&cfg.Language, file.Language)
	setString(&cfg.TranscribeModel, file.TranscribeModel)
	setString(&cfg.OpenAIBaseURL, file.OpenAIBaseURL)
	setString(&cfg.OpenAIAPIKey, file.OpenAIAPIKey)
	setString(&cfg.RefineProvider, file.RefineProvider)
	setString(&cfg.RefineModel, file.RefineModel)
	setString(&cfg.RefineBaseURL, file.RefineBaseURL)
	setString(&cfg.RefineAPIKey, file.RefineAPIKey)
	if file.RefineMaxTokens > 0 {
		cfg.RefineMaxTokens = file.RefineMaxTokens
	}
	setString(&cfg.OTELEndpoint, file.OTELEndpoint)
	setString(&cfg.OTELHeaders, file.OTELHeaders)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// envStrings maps plain string settings to their environment variables.
func envStrings(cfg *Config) map[string]*string {
	return map[string]*string{
		"VIBE_VOICE_LISTEN":             &cfg.Listen,
		"VIBE_VOICE_MUX":                &cfg.Mux,
		"VIBE_VOICE_TMUX_SOCKET":        &cfg.TmuxSocket,
		"VIBE_VOICE_TMUX_SOCKET_PATH":   &cfg.TmuxSocketPath,
		"VIBE_VOICE_LOG_LEVEL":          &cfg.LogLevel,
		"VIBE_VOICE_LOG_FORMAT":         &cfg.LogFormat,
		"VIBE_VOICE_TRANSCRIBE_BACKEND": &cfg.TranscribeBackend,
		"VIBE_VOICE_WHISPER_MODEL":      &cfg.WhisperModel,
		"VIBE_VOICE_WHISPER_SERVER_URL": &cfg.WhisperServerURL,
		"VIBE_VOICE_LANGUAGE":           &cfg.Language,
		"VIBE_VOICE_TRANSCRIBE_MODEL":   &cfg.TranscribeModel,
		"VIBE_VOICE_OPENAI_BASE_URL":    &cfg.OpenAIBaseURL,
		"VIBE_VOICE_OPENAI_API_KEY":     &cfg.OpenAIAPIKey,
		"VIBE_VOICE_REFINE_PROVIDER":    &cfg.RefineProvider,
		"VIBE_VOICE_REFINE_MODEL":       &cfg.RefineModel,
		"VIBE_VOICE_REFINE_BASE_URL":    &cfg.RefineBaseURL,
		"VIBE_VOICE_REFINE_API_KEY":     &cfg.RefineAPIKey,
		"OTEL_EXPORTER_OTLP_ENDPOINT":   &cfg.OTELEndpoint,
		"OTEL_EXPORTER_OTLP_HEADERS":    &cfg.OTELHeaders,
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) error {
	for key, dst := range envStrings(cfg) {
		setString(dst, os.Getenv(key))
	}

	if v := os.Getenv("VIBE_VOICE_ASSISTANT_NAMES"); v != "" {
		cfg.AssistantNames = splitList(v)
	}
	if v := os.Getenv("VIBE_VOICE_SUBMIT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid VIBE_VOICE_SUBMIT %q: %w", v, err)
		}
		cfg.Submit = &b
	}

	ints := []struct {
		key string
		set func(int64)
	}{
		{"VIBE_VOICE_PROCESS_DEPTH", func(n int64) { cfg.ProcessDepth = int(n) }},
		{"VIBE_VOICE_MAX_UPLOAD", func(n int64) { cfg.MaxUpload = n }},
		{"VIBE_VOICE_REFINE_MAX_TOKENS", func(n int64) { cfg.RefineMaxTokens = n }},
	}
	for _, i := range ints {
		v := os.Getenv(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", i.key, v, err)
		}
		i.set(n)
	}

	// API key fallbacks
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.RefineAPIKey == "" {
		switch cfg.RefineProvider {
		case "anthropic":
			cfg.RefineAPIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
				cfg.RefineAPIKey = v
			} else {
				cfg.RefineAPIKey = os.Getenv("OPENAI_API_KEY")
			}
		}
	}

	// Azure base URL fallback
	if cfg.RefineBaseURL == "" {
		if rn := os.Getenv("AZURE_RESOURCE_NAME"); rn != "" {
			switch cfg.RefineProvider {
			case "anthropic":
				cfg.RefineBaseURL = fmt.Sprintf("https://%s.services.ai.azure.com/anthropic/", rn)
			case "openai":
				cfg.RefineBaseURL = fmt.Sprintf("https://%s.openai.azure.com/openai/v1", rn)
			}
		}
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (valid: text, json)", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q (valid: debug, info, warn, error)", c.LogLevel)
	}
	if c.ProcessDepth < 1 {
		return fmt.Errorf("invalid process_depth %d (must be at least 1)", c.ProcessDepth)
	}
	if c.MaxUpload < 1 {
		return fmt.Errorf("invalid max_upload %d (must be positive)", c.MaxUpload)
	}
	return nil
}

// IsAzureEndpoint returns true if the URL is an Azure endpoint.
func IsAzureEndpoint(url string) bool {
	return strings.Contains(url, ".azure.com") || strings.Contains(url, ".azure.us")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
