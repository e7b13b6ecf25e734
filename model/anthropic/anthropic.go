// Package anthropic provides a model.Provider wrapper for the Anthropic
// Claude Messages API.
package anthropic

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/seacor-ai/seacor/model"
)

// Options configures the Anthropic provider adapter (model id, temperature,
// max tokens, per-call timeout, API key). Extend via functional options to
// preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	Timeout     time.Duration
	APIKey      string
}

// Provider wraps the Anthropic Messages API behind the generic
// model.Provider interface.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   2000,
		Timeout:     30 * time.Second,
	}
}

// NewProvider creates a new Anthropic provider using the official client.
// Missing credentials (no APIKey option and no ANTHROPIC_API_KEY in the
// environment) are a startup-time configuration error.
func NewProvider(optFns ...func(o *Options)) (*Provider, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic provider: missing API key (set ANTHROPIC_API_KEY or the APIKey option)")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Provider{client: &client, opts: opts}, nil
}

// NewProviderFromClient creates a new Anthropic provider from an existing client.
func NewProviderFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Generate implements model.Provider. Each prompt becomes one Messages API
// call; results are returned in prompt order. The first failed request
// aborts the batch.
func (p *Provider) Generate(ctx context.Context, prompts []string) ([]model.Generation, error) {
	gens := make([]model.Generation, 0, len(prompts))
	for _, prompt := range prompts {
		gen, err := p.generateOne(ctx, prompt)
		if err != nil {
			return nil, err
		}
		gens = append(gens, gen)
	}
	return gens, nil
}

func (p *Provider) generateOne(ctx context.Context, prompt string) (model.Generation, error) {
	callCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	resp, err := p.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:       p.opts.Model,
		MaxTokens:   p.opts.MaxTokens,
		Temperature: anthropic.Float(p.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return model.Generation{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	return model.Generation{
		Text: text,
		Metadata: map[string]any{
			"model":       string(resp.Model),
			"stop_reason": string(resp.StopReason),
		},
	}, nil
}

// Info returns metadata describing this Anthropic provider implementation.
func (p *Provider) Info() model.Info {
	return model.Info{Name: string(p.opts.Model), Provider: "anthropic"}
}
