package refine

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
)

// OpenAIRefiner refines transcripts using an OpenAI-compatible Chat Completions API.
// Works with OpenAI, Azure OpenAI, and any OpenAI-compatible endpoint.
type OpenAIRefiner struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewOpenAIRefiner creates a new OpenAI-compatible refiner.
func NewOpenAIRefiner(cfg Config) *OpenAIRefiner {
	var opts []option.RequestOption

	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	for k, v := range cfg.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}

	return &OpenAIRefiner{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens(cfg.MaxTokens),
	}
}

// Provider returns "openai".
func (r *OpenAIRefiner) Provider() string {
	return ProviderOpenAI
}

// Model returns the model name.
func (r *OpenAIRefiner) Model() string {
	return r.model
}

// Refine sends the transcript to an OpenAI-compatible API.
func (r *OpenAIRefiner) Refine(ctx context.Context, transcript string) (string, error) {
	user := userMessage(transcript)
	ctx, span := startGeneration(ctx, ProviderOpenAI, r.model, r.maxTokens, user)
	defer span.End()

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(user),
		},
		MaxCompletionTokens: openai.Int(r.maxTokens),
	})
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "api_error"))
		return "", fmt.Errorf("openai API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		span.SetAttributes(attribute.String("error.type", "empty_response"))
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	raw := resp.Choices[0].Message.Content
	span.SetAttributes(
		attribute.String("gen_ai.response.model", resp.Model),
		attribute.String("gen_ai.response.id", resp.ID),
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.CompletionTokens),
	)
	if resp.Choices[0].FinishReason != "" {
		span.SetAttributes(attribute.StringSlice("gen_ai.response.finish_reasons", []string{string(resp.Choices[0].FinishReason)}))
	}
	recordOutput(span, raw)

	text := cleanOutput(raw)
	if text == "" {
		span.SetAttributes(attribute.String("error.type", "empty_response"))
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return text, nil
}
