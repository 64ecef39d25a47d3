// Package bootstrap wires adapters and use cases from configuration.
// Both binaries build their object graph here.
package bootstrap

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/adapters/embedding"
	"github.com/0xcro3dile/txnsight/internal/adapters/loader"
	"github.com/0xcro3dile/txnsight/internal/adapters/sqlstore"
	"github.com/0xcro3dile/txnsight/internal/adapters/vectordb"
	"github.com/0xcro3dile/txnsight/internal/config"
	"github.com/0xcro3dile/txnsight/internal/domain/ports"
	"github.com/0xcro3dile/txnsight/internal/domain/usecases"
)

// Components holds the shared adapters.
type Components struct {
	Store    *sqlstore.SQLiteStore
	Indexes  *vectordb.FileStore
	Embedder ports.EmbeddingService
	Location *time.Location
}

// New opens the store and builds the index store and embedder.
func New(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := sqlstore.New(cfg.Data.DatabasePath, sqlstore.Options{Table: cfg.Data.Table, Location: loc})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	embedder, err := NewEmbedder(cfg.Embedding, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Components{
		Store:    store,
		Indexes:  vectordb.NewFileStore(cfg.Data.IndexPath, vectordb.NewIndex, logger),
		Embedder: embedder,
		Location: loc,
	}, nil
}

// Close releases the store.
func (c *Components) Close() error {
	return c.Store.Close()
}

// NewEmbedder builds the configured embedding provider.
func NewEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (ports.EmbeddingService, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return embedding.NewOllamaAdapter(embedding.OllamaConfig{
			BaseURL:     cfg.OllamaURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			Concurrency: cfg.Concurrency,
		}, logger), nil
	case config.ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the %s provider", config.ProviderOpenAI)
		}
		return embedding.NewOpenAIAdapter(embedding.OpenAIConfig{
			Endpoint: cfg.OpenAIURL,
			Model:    cfg.Model,
			APIKey:   cfg.OpenAIKey,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// Ingest builds the ingestion use case.
func (c *Components) Ingest(logger *zap.Logger) *usecases.IngestUseCase {
	return usecases.NewIngestUseCase(
		loader.NewCSVLoader(),
		usecases.NewCleaner(c.Location, logger),
		usecases.NewPersister(c.Store, logger),
		usecases.NewIndexer(c.Embedder, c.Indexes, vectordb.NewIndex, logger),
		logger,
	)
}

// Retriever builds an unloaded retriever.
func (c *Components) Retriever(logger *zap.Logger) *usecases.Retriever {
	return usecases.NewRetriever(c.Embedder, c.Indexes, c.Store, logger)
}

// Anomaly builds the anomaly use case from configuration.
func (c *Components) Anomaly(cfg config.AnomalyConfig, logger *zap.Logger) *usecases.AnomalyUseCase {
	detector := usecases.NewAnomalyDetector(cfg.EntityColumn, cfg.FailedStatus)
	return usecases.NewAnomalyUseCase(c.Store, detector, usecases.AnomalyParams{
		Entity:        cfg.Entity,
		WindowHours:   cfg.WindowHours,
		ThresholdPct:  cfg.ThresholdPct,
		StdMultiplier: cfg.StdMultiplier,
	}, logger)
}
