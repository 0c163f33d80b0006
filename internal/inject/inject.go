// Package inject types text into a multiplexer pane.
//
// Text is always sent in literal mode so that words like "Enter" or "C-c"
// inside a transcription are typed rather than interpreted as keys. By
// default the text is left at the prompt for review; Submit presses Enter
// after it.
package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/glebglazov/vibe-coding-done-right/internal/mux"
	ppotel "github.com/glebglazov/vibe-coding-done-right/internal/otel"
)

// ErrInjection means the keystrokes could not be delivered to the pane.
var ErrInjection = errors.New("keystroke injection failed")

var tracer = otel.Tracer("vibe-voice/inject")

// Injector sends text to a pane. It never retries: a second call is a
// second submission.
type Injector struct {
	Mux     mux.Multiplexer
	Submit  bool // press Enter after the text
	Metrics *ppotel.Metrics
	Logger  *slog.Logger
}

// Inject types text into target.
func (i *Injector) Inject(ctx context.Context, target, text string) error {
	ctx, span := tracer.Start(ctx, "inject")
	defer span.End()
	span.SetAttributes(
		attribute.String("pane.target", target),
		attribute.Int("inject.length", len(text)),
		attribute.Bool("inject.submit", i.Submit),
	)

	err := i.send(ctx, target, text)
	i.Metrics.RecordInjection(ctx, err == nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		i.logger().Error("injection failed", "target", target, "err", err)
		return err
	}
	i.logger().Info("text sent to pane", "target", target, "chars", len(text), "submit", i.Submit)
	return nil
}

func (i *Injector) send(ctx context.Context, target, text string) error {
	if err := i.Mux.SendText(ctx, target, text); err != nil {
		return fmt.Errorf("%w: send text to %s: %v", ErrInjection, target, err)
	}
	if !i.Submit {
		return nil
	}
	if err := i.Mux.SendKey(ctx, target, "Enter"); err != nil {
		return fmt.Errorf("%w: send Enter to %s: %v", ErrInjection, target, err)
	}
	return nil
}

func (i *Injector) logger() *slog.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return slog.Default()
}
