package embedding

import (
	"context"
	"fmt"

	"github.com/ppiankov/claimlens/internal/util"
	"github.com/sashabaranov/go-openai"
)

// OpenAIEncoder uses the OpenAI embeddings endpoint
type OpenAIEncoder struct {
	client *openai.Client
	config Config
}

// NewOpenAIEncoder creates an OpenAI encoder
func NewOpenAIEncoder(config Config) (*OpenAIEncoder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for embeddings")
	}
	if config.Model == "" {
		config.Model = string(openai.SmallEmbedding3)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = util.NewHTTPClient(config.timeout(), config.proxy())

	return &OpenAIEncoder{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Encode embeds a single text
func (e *OpenAIEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.config.Model),
		Dimensions: e.config.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding in OpenAI response")
	}

	vec := resp.Data[0].Embedding
	if err := checkDimensions(vec, e.config.Dimensions); err != nil {
		return nil, err
	}
	return vec, nil
}
