package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
	"github.com/0xcro3dile/txnsight/internal/domain/ports"
)

// Indexer embeds summaries and builds the persisted vector index.
type Indexer struct {
	embedder ports.EmbeddingService
	store    ports.IndexStore
	newIndex ports.IndexFactory
	logger   *zap.Logger
	now      func() time.Time
}

// NewIndexer creates an Indexer with injected dependencies.
func NewIndexer(
	embedder ports.EmbeddingService,
	store ports.IndexStore,
	newIndex ports.IndexFactory,
	logger *zap.Logger,
) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		newIndex: newIndex,
		logger:   logger.Named("indexer"),
		now:      time.Now,
	}
}

// Build embeds every summary in order, indexes the vectors and saves the snapshot.
// Position i of the index always maps to summaries[i].
func (ix *Indexer) Build(ctx context.Context, summaries []entities.SummaryRow) (*ports.IndexSnapshot, error) {
	if len(summaries) == 0 {
		return nil, apperrors.Index("indexer.build", "no summaries to index", nil)
	}

	texts := make([]string, len(summaries))
	mapping := make([]string, len(summaries))
	for i, s := range summaries {
		if strings.TrimSpace(s.Text) == "" {
			return nil, apperrors.Index("indexer.build",
				fmt.Sprintf("blank summary for transaction %q", s.TransactionID), nil)
		}
		texts[i] = s.Text
		mapping[i] = s.TransactionID
	}

	start := time.Now()
	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, apperrors.Index("indexer.embed", "embedding summaries", err)
	}
	if len(vectors) != len(texts) {
		return nil, apperrors.Index("indexer.embed",
			fmt.Sprintf("got %d embeddings for %d summaries", len(vectors), len(texts)), nil)
	}
	ix.logger.Info("embedded summaries",
		zap.Int("count", len(vectors)),
		zap.Duration("took", time.Since(start)))

	dim := len(vectors[0])
	if dim == 0 {
		return nil, apperrors.Index("indexer.embed", "empty embedding vector", nil)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, apperrors.Index("indexer.embed",
				fmt.Sprintf("embedding %d has dimension %d, want %d", i, len(v), dim), nil)
		}
	}

	index := ix.newIndex(dim)
	positions, err := index.Add(vectors)
	if err != nil {
		return nil, apperrors.Index("indexer.add", "adding vectors", err)
	}
	for i, pos := range positions {
		if pos != i {
			return nil, apperrors.Index("indexer.add",
				fmt.Sprintf("vector %d stored at position %d", i, pos), nil)
		}
	}
	if index.Len() != len(mapping) {
		return nil, apperrors.Index("indexer.add",
			fmt.Sprintf("index holds %d vectors, mapping has %d ids", index.Len(), len(mapping)), nil)
	}

	snap := &ports.IndexSnapshot{
		Index:   index,
		Mapping: mapping,
		Model:   ix.embedder.ModelName(),
		BuiltAt: ix.now().UTC(),
	}
	if err := ix.store.Save(ctx, snap); err != nil {
		return nil, apperrors.Index("indexer.save", "saving index", err)
	}

	ix.logger.Info("index built",
		zap.Int("vectors", index.Len()),
		zap.Int("dim", dim),
		zap.String("model", snap.Model))
	return snap, nil
}
