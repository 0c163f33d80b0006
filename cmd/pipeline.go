package cmd

import (
	"fmt"
	"log/slog"

	"github.com/glebglazov/vibe-coding-done-right/internal/config"
	"github.com/glebglazov/vibe-coding-done-right/internal/inject"
	"github.com/glebglazov/vibe-coding-done-right/internal/mux"
	ppotel "github.com/glebglazov/vibe-coding-done-right/internal/otel"
	"github.com/glebglazov/vibe-coding-done-right/internal/refine"
	"github.com/glebglazov/vibe-coding-done-right/internal/relay"
	"github.com/glebglazov/vibe-coding-done-right/internal/transcribe"
)

// newTranscriber builds the configured transcription backend. The caller
// owns it and must release it with transcribe.Close.
func newTranscriber(cfg *config.Config, metrics *ppotel.Metrics) (transcribe.Transcriber, error) {
	t, err := transcribe.New(transcribe.Config{
		Backend:   cfg.TranscribeBackend,
		Language:  cfg.Language,
		ModelPath: cfg.WhisperModel,
		ServerURL: cfg.WhisperServerURL,
		Model:     cfg.TranscribeModel,
		BaseURL:   cfg.OpenAIBaseURL,
		APIKey:    cfg.OpenAIAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("transcriber: %w", err)
	}
	return transcribe.Instrument(t, metrics), nil
}

// newRefiner returns the configured refiner, or nil when refinement is off.
func newRefiner(cfg *config.Config) (refine.Refiner, error) {
	extraHeaders := map[string]string{}
	// Azure needs "api-key" in addition to the SDK's default auth header.
	if config.IsAzureEndpoint(cfg.RefineBaseURL) {
		extraHeaders["api-key"] = cfg.RefineAPIKey
	}
	return refine.New(refine.Config{
		Provider:     cfg.RefineProvider,
		BaseURL:      cfg.RefineBaseURL,
		APIKey:       cfg.RefineAPIKey,
		Model:        cfg.RefineModel,
		MaxTokens:    cfg.RefineMaxTokens,
		ExtraHeaders: extraHeaders,
	})
}

// newRelay wires resolution and injection around an optional transcriber.
func newRelay(cfg *config.Config, m mux.Multiplexer, t transcribe.Transcriber, metrics *ppotel.Metrics) (*relay.Relay, error) {
	r := &relay.Relay{
		Resolver: newResolver(cfg, m, metrics),
		Injector: &inject.Injector{
			Mux:     m,
			Submit:  cfg.ShouldSubmit(),
			Metrics: metrics,
			Logger:  slog.Default(),
		},
		Transcriber: t,
		Metrics:     metrics,
		Logger:      slog.Default(),
	}

	refiner, err := newRefiner(cfg)
	if err != nil {
		return nil, err
	}
	if refiner != nil {
		r.Refiner = refiner
		slog.Info("transcript refinement enabled", "provider", refiner.Provider(), "model", refiner.Model())
	}
	return r, nil
}
