package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/glebglazov/vibe-coding-done-right/internal/model"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info", "json").Info("hello", "target", "work:0.1")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"target":"work:0.1"`) {
		t.Errorf("json logger output: %q", buf.String())
	}

	buf.Reset()
	logger := newLogger(&buf, "warn", "text")
	logger.Info("dropped")
	logger.Warn("kept", "target", "work:0.1")
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=kept") || !strings.Contains(out, "target=work:0.1") {
		t.Errorf("text logger output: %q", out)
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("VIBE_VOICE_TEST_KEY", "")
	if got := envOrDefault("VIBE_VOICE_TEST_KEY", "fallback"); got != "fallback" {
		t.Errorf("empty env: got %q, want %q", got, "fallback")
	}
	t.Setenv("VIBE_VOICE_TEST_KEY", "set")
	if got := envOrDefault("VIBE_VOICE_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("set env: got %q, want %q", got, "set")
	}
}

func TestPaneTable(t *testing.T) {
	panes := []model.Pane{
		{Target: "work:0.0", PID: 100, Command: "zsh", Title: "host", Active: true},
		{Target: "work:0.1", PID: 110, Command: "node", Title: "Claude Code"},
	}
	out := paneTable(panes, map[string]model.MatchKind{"work:0.1": model.MatchTitle})

	for _, want := range []string{"TARGET", "ASSISTANT", "work:0.0", "work:0.1", "110", "Claude Code", "title"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

type pingMux struct {
	err error
}

func (p *pingMux) Name() string { return "tmux" }
func (p *pingMux) ListClients(context.Context) ([]model.Client, error) {
	return nil, p.err
}
func (p *pingMux) ActivePane(context.Context, string) (model.Pane, error) {
	return model.Pane{}, nil
}
func (p *pingMux) ListPanes(context.Context, string) ([]model.Pane, error) { return nil, nil }
func (p *pingMux) SendText(context.Context, string, string) error           { return nil }
func (p *pingMux) SendKey(context.Context, string, string) error            { return nil }

func TestMuxChecker(t *testing.T) {
	c := muxChecker(&pingMux{})
	if c.Name != "tmux" {
		t.Errorf("Name: got %q, want %q", c.Name, "tmux")
	}
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("reachable server: got %v", err)
	}

	down := errors.New("no server running")
	if err := muxChecker(&pingMux{err: down}).Check(context.Background()); !errors.Is(err, down) {
		t.Errorf("unreachable server: got %v, want %v", err, down)
	}
}
