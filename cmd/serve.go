package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glebglazov/vibe-coding-done-right/internal/mux"
	ppotel "github.com/glebglazov/vibe-coding-done-right/internal/otel"
	"github.com/glebglazov/vibe-coding-done-right/internal/server"
	"github.com/glebglazov/vibe-coding-done-right/internal/transcribe"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the voice relay HTTP service",
	Long: `Run the HTTP service.

POST /transcribe accepts an audio upload, transcribes it and types the text
into the Claude Code pane of the most recently used tmux session.
POST /send-to-claude does the same for text. GET / serves a recorder page.

The transcription model is loaded once at startup. The default backend,
whisper, runs whisper.cpp in-process and is only available in binaries built
with -tags whisper. Other builds must set transcribe_backend to
whisper-server or openai, or serve refuses to start.

The tmux server does not need to be running at startup. Until it is,
requests report that no Claude Code session was found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (default: 0.0.0.0:8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagListen != "" {
		cfg.Listen = flagListen
	}
	logger := slog.Default()

	// Wire build version into OTEL service metadata
	ppotel.Version = Version

	tel, err := ppotel.Init(ctx, ppotel.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		logger.Warn("otel init failed, continuing without telemetry", "err", err)
	}
	var metrics *ppotel.Metrics
	if tel != nil {
		metrics = tel.Metrics
		defer func() {
			// ctx is already cancelled on shutdown
			if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("otel shutdown failed", "err", err)
			}
		}()
	}

	m, err := getMultiplexer(cfg)
	if err != nil {
		return err
	}

	logger.Info("loading transcription backend", "backend", cfg.TranscribeBackend)
	t, err := newTranscriber(cfg, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := transcribe.Close(t); err != nil {
			logger.Warn("closing transcriber failed", "err", err)
		}
	}()

	r, err := newRelay(cfg, m, t, metrics)
	if err != nil {
		return err
	}

	opts := server.Options{
		Relay:     r,
		Checkers:  []server.Checker{muxChecker(m)},
		Metrics:   metrics,
		MaxUpload: cfg.MaxUpload,
		Logger:    logger,
	}
	if tel != nil {
		opts.MetricsHandler = tel.MetricsHandler()
	}

	if err := server.New(opts).ListenAndServe(ctx, cfg.Listen); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// muxChecker reports ready when the multiplexer server answers.
func muxChecker(m mux.Multiplexer) server.Checker {
	return server.Checker{
		Name: m.Name(),
		Check: func(ctx context.Context) error {
			_, err := m.ListClients(ctx)
			return err
		},
	}
}
