// Package embedding encodes policy and claim text into fixed-length vectors
// for the policy index.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/claimlens/internal/model"
	"github.com/ppiankov/claimlens/internal/util"
)

// Encoder turns text into an embedding vector
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Config holds embedding service configuration
type Config struct {
	Provider   string // openai, ollama
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
	Timeout    int // seconds

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts model.Config to embedding.Config, sharing the
// completion service proxy settings
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
		HTTPProxy:  cfg.LLM.HTTPProxy,
		HTTPSProxy: cfg.LLM.HTTPSProxy,
		NoProxy:    cfg.LLM.NoProxy,
	}
}

// New creates an encoder for the configured provider. An empty provider
// returns nil, disabling semantic policy matching.
func New(config Config) (Encoder, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		enc, err := NewOpenAIEncoder(config)
		if err != nil {
			return nil, err
		}
		return enc, nil
	case "ollama":
		return NewOllamaEncoder(config), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", config.Provider)
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) proxy() util.ProxySettings {
	return util.ProxySettings{HTTPProxy: c.HTTPProxy, HTTPSProxy: c.HTTPSProxy, NoProxy: c.NoProxy}
}

// checkDimensions rejects vectors that do not match the index
func checkDimensions(vec []float32, want int) error {
	if want > 0 && len(vec) != want {
		return fmt.Errorf("embedding has %d dimensions, expected %d", len(vec), want)
	}
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding")
	}
	return nil
}
