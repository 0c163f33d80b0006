// Package transcribe turns recorded audio files into text.
//
// Three backends are available, chosen by name:
//
//   - "whisper": whisper.cpp linked in through its Go bindings. The model is
//     loaded once and shared; every call gets its own inference context.
//     Needs the "whisper" build tag (cgo).
//   - "whisper-server": a whisper.cpp whisper-server reached over HTTP.
//   - "openai": any OpenAI-compatible /audio/transcriptions endpoint.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	ppotel "github.com/glebglazov/vibe-coding-done-right/internal/otel"
)

// Backend names accepted by New.
const (
	BackendWhisper       = "whisper"
	BackendWhisperServer = "whisper-server"
	BackendOpenAI        = "openai"
)

// ErrUnsupported means the requested backend is not available in this build
// or is not configured well enough to be constructed.
var ErrUnsupported = errors.New("transcription backend unsupported")

// Transcriber converts an audio file to text.
// Implementations are safe for concurrent use.
type Transcriber interface {
	// Name returns the backend name (e.g., "whisper").
	Name() string

	// Transcribe returns the text spoken in the audio file at path.
	// Engine errors are returned as-is; nothing is retried.
	Transcribe(ctx context.Context, path string) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend string

	// Language is an ISO 639-1 hint. Empty or "auto" lets the engine detect it.
	Language string

	// ModelPath is the ggml model file for the whisper backend.
	ModelPath string

	// ServerURL is the whisper-server base URL (e.g., "http://127.0.0.1:8080").
	ServerURL string

	// Model is the model name for whisper-server or openai (default "whisper-1").
	Model string

	// BaseURL and APIKey configure the openai backend.
	BaseURL string
	APIKey  string
}

// New constructs the configured backend.
func New(cfg Config) (Transcriber, error) {
	switch cfg.Backend {
	case BackendWhisper, "":
		return newNative(cfg)
	case BackendWhisperServer:
		return NewWhisperServer(cfg)
	case BackendOpenAI:
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q (valid: %s, %s, %s)",
			ErrUnsupported, cfg.Backend, BackendWhisper, BackendWhisperServer, BackendOpenAI)
	}
}

// Close releases the backend's resources if it holds any.
func Close(t Transcriber) error {
	if inst, ok := t.(*instrumented); ok {
		t = inst.next
	}
	if c, ok := t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var tracer = otel.Tracer("vibe-voice/transcribe")

// Instrument wraps t with a span and transcription metrics per call.
func Instrument(t Transcriber, metrics *ppotel.Metrics) Transcriber {
	return &instrumented{next: t, metrics: metrics}
}

type instrumented struct {
	next    Transcriber
	metrics *ppotel.Metrics
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Transcribe(ctx context.Context, path string) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe "+i.next.Name())
	defer span.End()

	start := time.Now()
	text, err := i.next.Transcribe(ctx, path)
	i.metrics.RecordTranscription(ctx, i.next.Name(), err == nil, time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("transcribe.length", len(text)))
	return text, nil
}

// autoLanguage reports whether lang asks for language detection.
func autoLanguage(lang string) bool {
	return lang == "" || lang == "auto"
}
