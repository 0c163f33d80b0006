// Package relay glues the pipeline together: transcribe, optionally refine,
// resolve the assistant pane and type the text into it.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/glebglazov/vibe-coding-done-right/internal/model"
	ppotel "github.com/glebglazov/vibe-coding-done-right/internal/otel"
	"github.com/glebglazov/vibe-coding-done-right/internal/refine"
	"github.com/glebglazov/vibe-coding-done-right/internal/transcribe"
)

// Messages reported to clients when a transcription could not be delivered.
const (
	MsgNoPane     = "No Claude Code session found in current tmux session"
	MsgEmpty      = "Transcription is empty"
	msgSendFailed = "Failed to send to Claude session %s"
)

// Resolver finds the pane to type into.
type Resolver interface {
	Resolve(ctx context.Context) (*model.Resolution, error)
}

// Injector types text into a pane.
type Injector interface {
	Inject(ctx context.Context, target, text string) error
}

// Result is the outcome of a transcription. Delivery problems are reported
// here, never as an error: the caller always gets the text back.
type Result struct {
	Transcription    string `json:"transcription"`
	RawTranscription string `json:"raw_transcription,omitempty"`
	SentToClaude     bool   `json:"sent_to_claude"`
	Session          string `json:"session,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Relay runs the pipeline. Refiner may be nil.
type Relay struct {
	Resolver    Resolver
	Injector    Injector
	Transcriber transcribe.Transcriber
	Refiner     refine.Refiner
	Metrics     *ppotel.Metrics
	Logger      *slog.Logger
}

// Send resolves the assistant pane and types text into it.
//
// A resolution failure returns a nil Delivery and an error matching
// resolver.IsNotFound. An injection failure returns the attempted Delivery
// together with an error wrapping inject.ErrInjection.
func (r *Relay) Send(ctx context.Context, text string) (*model.Delivery, error) {
	res, err := r.Resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	d := &model.Delivery{Session: res.Target, Text: text}
	if err := r.Injector.Inject(ctx, res.Target, text); err != nil {
		return d, err
	}
	return d, nil
}

// Transcribe turns the audio file at path into text and forwards it to the
// assistant. Only a transcription failure is returned as an error.
func (r *Relay) Transcribe(ctx context.Context, path string) (*Result, error) {
	raw, err := r.Transcriber.Transcribe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	log := r.logger()
	log.Info("transcribed audio", "backend", r.Transcriber.Name(), "chars", len(raw))

	result := &Result{Transcription: raw}
	if strings.TrimSpace(raw) == "" {
		result.Error = MsgEmpty
		return result, nil
	}

	text := r.refine(ctx, raw)
	if text != raw {
		result.Transcription = text
		result.RawTranscription = raw
	}

	delivery, err := r.Send(ctx, text)
	switch {
	case err == nil:
		result.SentToClaude = true
		result.Session = delivery.Session
	case delivery == nil:
		log.Warn("assistant pane not found", "err", err)
		result.Error = MsgNoPane
	default:
		log.Error("failed to send transcription", "target", delivery.Session, "err", err)
		result.Error = fmt.Sprintf(msgSendFailed, delivery.Session)
	}
	return result, nil
}

// refine returns the refined transcript, or raw when refinement is off or fails.
func (r *Relay) refine(ctx context.Context, raw string) string {
	if r.Refiner == nil {
		return raw
	}
	text, err := r.Refiner.Refine(ctx, raw)
	r.Metrics.RecordRefinement(ctx, r.Refiner.Provider(), err == nil)
	if err != nil {
		r.logger().Warn("refinement failed, using raw transcription",
			"provider", r.Refiner.Provider(), "model", r.Refiner.Model(), "err", err)
		return raw
	}
	return text
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
