package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAI defaults.
const (
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "text-embedding-3-small"
)

// maxOpenAIBatch bounds the inputs sent in one embeddings request.
const maxOpenAIBatch = 256

// OpenAIConfig configures an OpenAIAdapter.
type OpenAIConfig struct {
	Endpoint string // Base URL of an OpenAI-compatible API
	Model    string
	APIKey   string // Optional for local endpoints
}

// OpenAIAdapter implements ports.EmbeddingService against any
// OpenAI-compatible embeddings endpoint.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIAdapter creates a new OpenAI-compatible embedding adapter.
func NewOpenAIAdapter(cfg OpenAIConfig, logger *zap.Logger) *OpenAIAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultOpenAIURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger.Named("openai"),
	}
}

// ModelName returns the configured model.
func (a *OpenAIAdapter) ModelName() string {
	return a.model
}

// Embed generates an embedding for a single text.
func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := a.create(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, in input order.
func (a *OpenAIAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxOpenAIBatch {
		end := min(start+maxOpenAIBatch, len(texts))
		embeddings, err := a.create(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding texts %d-%d: %w", start, end-1, err)
		}
		out = append(out, embeddings...)
	}
	a.logger.Info("embedded batch", zap.Int("texts", len(texts)), zap.String("model", a.model))
	return out, nil
}

// create sends one request and orders the response by input index.
func (a *OpenAIAdapter) create(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(a.model),
		Input: inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(inputs))
	}

	embeddings := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(inputs) || embeddings[d.Index] != nil {
			return nil, fmt.Errorf("unexpected embedding index %d", d.Index)
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}
