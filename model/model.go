package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Generation is a single completion produced for one prompt.
type Generation struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Provider is the minimal interface the orchestration core requires from an
// LLM backend. Generate is batchable: it accepts a sequence of prompts and
// returns one generation per prompt, in order. Implementations must respect
// context cancellation; a timeout is modeled as an ordinary error and handled
// by the fallback policy of the calling step.
type Provider interface {
	Generate(ctx context.Context, prompts []string) ([]Generation, error)

	// Info returns information about the provider implementation.
	Info() Info
}

// GenerateOne is a convenience helper for the common single-prompt case.
func GenerateOne(ctx context.Context, p Provider, prompt string) (string, error) {
	gens, err := p.Generate(ctx, []string{prompt})
	if err != nil {
		return "", err
	}
	if len(gens) == 0 {
		return "", fmt.Errorf("provider %s returned no generations", p.Info().Provider)
	}
	return gens[0].Text, nil
}

// MockProvider is a lightweight in-memory Provider useful for tests &
// examples. Canned responses are matched against prompts by substring in
// registration order; unmatched prompts receive a generic echo response.
// Safe for concurrent use.
type MockProvider struct {
	mu        sync.Mutex
	rules     []mockRule
	err       error
	callCount int
	prompts   []string
}

type mockRule struct {
	substr   string
	response string
}

// NewMockProvider constructs an empty MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// AddResponse registers a canned completion for any prompt containing substr.
// Rules are evaluated in registration order; the first match wins.
func (m *MockProvider) AddResponse(substr, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{substr: substr, response: response})
}

// SetError makes every subsequent Generate call fail with err. Pass nil to
// restore normal operation.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CallCount returns the number of Generate invocations so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns a copy of every prompt seen so far, in arrival order.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Generate implements Provider.
func (m *MockProvider) Generate(ctx context.Context, prompts []string) ([]Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.prompts = append(m.prompts, prompts...)

	if m.err != nil {
		return nil, m.err
	}

	gens := make([]Generation, len(prompts))
	for i, prompt := range prompts {
		text := ""
		for _, rule := range m.rules {
			if strings.Contains(prompt, rule.substr) {
				text = rule.response
				break
			}
		}
		if text == "" {
			text = fmt.Sprintf("Mock response to: %s", prompt)
		}
		gens[i] = Generation{Text: text, Metadata: map[string]any{"provider": "mock"}}
	}
	return gens, nil
}

// Info implements Provider.
func (m *MockProvider) Info() Info { return Info{Name: "mock", Provider: "mock"} }
