package llm

import (
	"context"
	"fmt"
)

// Throttle delays outbound calls; keys are provider names
type Throttle interface {
	Wait(ctx context.Context, key string) error
}

// Completer adapts a Provider to the system/user completion contract used
// by the coding rules and the adjudicator
type Completer struct {
	provider Provider // nil when disabled
	config   Config
	throttle Throttle
}

// NewCompleter creates a completer from configuration. An empty provider
// yields a disabled completer rather than an error.
func NewCompleter(config Config) (*Completer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return &Completer{provider: provider, config: config}, nil
}

// NewCompleterWithProvider wraps an existing provider
func NewCompleterWithProvider(provider Provider, config Config) *Completer {
	return &Completer{provider: provider, config: config}
}

// WithThrottle sets the throttle applied before each call
func (c *Completer) WithThrottle(t Throttle) *Completer {
	c.throttle = t
	return c
}

// IsEnabled reports whether a provider is configured
func (c *Completer) IsEnabled() bool {
	return c != nil && c.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (c *Completer) ProviderName() string {
	if !c.IsEnabled() {
		return ""
	}
	return c.provider.Name()
}

// Complete sends one system/user exchange and returns the response text
func (c *Completer) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.IsEnabled() {
		return "", ErrDisabled
	}

	if c.throttle != nil {
		if err := c.throttle.Wait(ctx, c.provider.Name()); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := c.provider.Complete(ctx, CompletionRequest{
		System:    systemPrompt,
		Prompt:    userPrompt,
		Model:     c.config.Model,
		MaxTokens: c.config.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
