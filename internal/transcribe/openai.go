package transcribe

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no transcription model is configured.
const DefaultOpenAIModel = "whisper-1"

// OpenAI transcribes through an OpenAI-compatible Audio API.
// Works with OpenAI, Azure OpenAI, Groq and local servers speaking the same API.
type OpenAI struct {
	client   openai.Client
	model    string
	language string
}

// NewOpenAI creates the openai backend.
func NewOpenAI(cfg Config) *OpenAI {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{
		client:   openai.NewClient(opts...),
		model:    model,
		language: cfg.Language,
	}
}

// Name returns "openai".
func (o *OpenAI) Name() string { return BackendOpenAI }

// Transcribe uploads the file. The file name is sent along so the API can
// tell the container format from its extension.
func (o *OpenAI) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("openai: open audio: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(o.model),
	}
	if !autoLanguage(o.language) {
		params.Language = openai.String(o.language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return resp.Text, nil
}
