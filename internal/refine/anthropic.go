package refine

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel/attribute"
)

// AnthropicRefiner refines transcripts using the Anthropic Messages API.
// Works with both direct Anthropic API and Azure AI Foundry.
type AnthropicRefiner struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicRefiner creates a new Anthropic refiner.
func NewAnthropicRefiner(cfg Config) *AnthropicRefiner {
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

	return &AnthropicRefiner{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens(cfg.MaxTokens),
	}
}

// Provider returns "anthropic".
func (r *AnthropicRefiner) Provider() string {
	return ProviderAnthropic
}

// Model returns the model name.
func (r *AnthropicRefiner) Model() string {
	return r.model
}

// Refine sends the transcript to the Anthropic API.
func (r *AnthropicRefiner) Refine(ctx context.Context, transcript string) (string, error) {
	user := userMessage(transcript)
	ctx, span := startGeneration(ctx, ProviderAnthropic, r.model, r.maxTokens, user)
	defer span.End()

	resp, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: r.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(user),
			),
		},
	})
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "api_error"))
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var raw string
	for _, block := range resp.Content {
		if block.Type == "text" {
			raw += block.Text
		}
	}

	span.SetAttributes(
		attribute.String("gen_ai.response.model", string(resp.Model)),
		attribute.String("gen_ai.response.id", resp.ID),
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.InputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.OutputTokens),
	)
	if string(resp.StopReason) != "" {
		span.SetAttributes(attribute.StringSlice("gen_ai.response.finish_reasons", []string{string(resp.StopReason)}))
	}
	recordOutput(span, raw)

	text := cleanOutput(raw)
	if text == "" {
		span.SetAttributes(attribute.String("error.type", "empty_response"))
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}
	return text, nil
}
