//go:build whisper

// The whisper backend links against the whisper.cpp static library
// (libwhisper.a) and headers (whisper.h), found via LIBRARY_PATH and
// C_INCLUDE_PATH at build time.

package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Native runs whisper.cpp in-process.
type Native struct {
	model    whisperlib.Model
	language string
}

func newNative(cfg Config) (Transcriber, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("%w: whisper backend needs whisper_model (path to a ggml model file)", ErrUnsupported)
	}
	model, err := whisperlib.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", cfg.ModelPath, err)
	}
	lang := cfg.Language
	if autoLanguage(lang) {
		lang = "auto"
	}
	return &Native{model: model, language: lang}, nil
}

// Name returns "whisper".
func (n *Native) Name() string { return BackendWhisper }

// Close releases the model.
func (n *Native) Close() error {
	return n.model.Close()
}

// Transcribe decodes the file with ffmpeg and runs inference on a fresh
// context. Contexts are not thread-safe; the model is.
func (n *Native) Transcribe(ctx context.Context, path string) (string, error) {
	pcm, err := decodePCM(ctx, path)
	if err != nil {
		return "", err
	}
	samples := pcmToFloat32(pcm)

	wctx, err := n.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(n.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", n.language, "err", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var b strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		b.WriteString(segment.Text)
	}
	return b.String(), nil
}
