package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glebglazov/vibe-coding-done-right/internal/config"
	"github.com/glebglazov/vibe-coding-done-right/internal/match"
	"github.com/glebglazov/vibe-coding-done-right/internal/mux"
	ppotel "github.com/glebglazov/vibe-coding-done-right/internal/otel"
	"github.com/glebglazov/vibe-coding-done-right/internal/procs"
	"github.com/glebglazov/vibe-coding-done-right/internal/resolver"
)

// Version is set at build time via -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	// Global flags.
	flagConfig    string
	flagMux       string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "vibe-voice",
	Short: "Talk to Claude Code running in tmux",
	Long: `vibe-voice turns speech into prompts for a coding assistant running in tmux.

The service accepts recorded audio over HTTP, transcribes it and types the
text into the tmux pane running Claude Code in the session you used last.
The text is left at the prompt for review unless submit is enabled.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", envOrDefault("VIBE_VOICE_CONFIG", ""), "config file (default: .vibe-voice.yaml, then ~/.config/vibe-voice/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagMux, "mux", "", "terminal multiplexer: tmux (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text, json (default: text)")
}

// loadConfig loads the configuration, applies the global flags on top and
// installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if flagMux != "" {
		cfg.Mux = flagMux
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	if cfg.ConfigFile != "" {
		logger.Debug("config loaded", "file", cfg.ConfigFile)
	}
	return cfg, nil
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getMultiplexer returns the configured or auto-detected multiplexer.
func getMultiplexer(cfg *config.Config) (mux.Multiplexer, error) {
	opts := mux.Options{
		SocketName: cfg.TmuxSocket,
		SocketPath: cfg.TmuxSocketPath,
	}
	if cfg.Mux != "" {
		return mux.FromName(cfg.Mux, opts)
	}
	return mux.Detect(opts)
}

// newResolver builds the pane resolver. The running binary is excluded from
// process matching so vibe-voice never resolves to itself.
func newResolver(cfg *config.Config, m mux.Multiplexer, metrics *ppotel.Metrics) *resolver.Resolver {
	return &resolver.Resolver{
		Mux:     m,
		Procs:   procs.PS{},
		Match:   match.New(cfg.AssistantNames, selfName()),
		Depth:   cfg.ProcessDepth,
		Metrics: metrics,
		Logger:  slog.Default(),
	}
}

func selfName() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Base(exe)
	}
	return filepath.Base(os.Args[0])
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
