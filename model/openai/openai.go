// Package openai provides an implementation of model.Provider using the
// OpenAI Chat Completions API. It adapts SEACOR's batch prompt interface onto
// per-prompt chat completion requests.
package openai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/seacor-ai/seacor/model"
)

// Options configure the OpenAI provider adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// Timeout bounds each individual completion call. A timeout surfaces as
	// an ordinary provider error, handled by the caller's fallback policy.
	Timeout time.Duration
	APIKey  string
}

// Provider wraps the OpenAI Chat Completions API behind the generic
// model.Provider interface.
type Provider struct {
	client *openai.Client
	opts   Options
}

// NewProvider creates a new OpenAI provider. Missing credentials (no APIKey
// option and no OPENAI_API_KEY in the environment) are a startup-time
// configuration error and returned immediately.
func NewProvider(optFns ...func(o *Options)) (*Provider, error) {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 2000,
		Timeout:             30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai provider: missing API key (set OPENAI_API_KEY or the APIKey option)")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Provider{client: &client, opts: opts}, nil
}

// NewProviderFromClient creates a new OpenAI provider from an existing client.
func NewProviderFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 2000,
		Timeout:             30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Generate implements model.Provider. Each prompt becomes one chat
// completion request; results are returned in prompt order. The first failed
// request aborts the batch.
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

	resp, err := p.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Model:               p.opts.Model,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	})
	if err != nil {
		return model.Generation{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Generation{}, fmt.Errorf("openai api error: no choices returned")
	}

	choice := resp.Choices[0]
	return model.Generation{
		Text: choice.Message.Content,
		Metadata: map[string]any{
			"model":         resp.Model,
			"finish_reason": choice.FinishReason,
			"total_tokens":  resp.Usage.TotalTokens,
		},
	}, nil
}

// Info returns metadata describing this OpenAI provider implementation.
func (p *Provider) Info() model.Info {
	return model.Info{Name: p.opts.Model, Provider: "openai"}
}
