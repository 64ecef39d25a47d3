package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
	"github.com/0xcro3dile/txnsight/internal/domain/ports"
)

type retrieverState int

const (
	stateNotLoaded retrieverState = iota
	stateReady
	stateFailed
)

// Retriever answers semantic searches against a loaded index snapshot
// and fetches full records from the store.
//
// Load runs at most once; a failed load is kept and every later call
// fails fast until Reload is called.
type Retriever struct {
	embedder ports.EmbeddingService
	indexes  ports.IndexStore
	store    ports.TransactionStore
	logger   *zap.Logger

	mu      sync.RWMutex
	state   retrieverState
	snap    *ports.IndexSnapshot
	loadErr error
}

// NewRetriever creates a Retriever in the not-loaded state.
func NewRetriever(
	embedder ports.EmbeddingService,
	indexes ports.IndexStore,
	store ports.TransactionStore,
	logger *zap.Logger,
) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		embedder: embedder,
		indexes:  indexes,
		store:    store,
		logger:   logger.Named("retriever"),
	}
}

// Load reads the index snapshot and probes the store.
// Subsequent calls return the cached outcome.
func (r *Retriever) Load(ctx context.Context) error {
	r.mu.RLock()
	state, err := r.state, r.loadErr
	r.mu.RUnlock()
	switch state {
	case stateReady:
		return nil
	case stateFailed:
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateNotLoaded {
		r.load(ctx)
	}
	return r.loadErr
}

// Reload discards the current state and loads again.
func (r *Retriever) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = stateNotLoaded
	r.snap = nil
	r.loadErr = nil
	r.load(ctx)
	return r.loadErr
}

// Ready reports whether the retrieval components are loaded.
func (r *Retriever) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == stateReady
}

// load must be called with mu held for writing.
func (r *Retriever) load(ctx context.Context) {
	snap, err := r.indexes.Load(ctx)
	if err == nil && snap.Index.Len() != len(snap.Mapping) {
		err = apperrors.Index("retriever.load",
			fmt.Sprintf("index holds %d vectors, mapping has %d ids", snap.Index.Len(), len(snap.Mapping)), nil)
	}
	if err == nil {
		if _, cerr := r.store.Count(ctx); cerr != nil {
			err = cerr
		}
	}
	if err != nil {
		r.state = stateFailed
		r.loadErr = apperrors.NotReady("retriever.load", "retrieval components unavailable", err)
		r.logger.Error("loading retrieval components failed", zap.Error(err))
		return
	}

	if model := r.embedder.ModelName(); snap.Model != "" && snap.Model != model {
		r.logger.Warn("index was built with a different embedding model",
			zap.String("index_model", snap.Model),
			zap.String("query_model", model))
	}

	r.snap = snap
	r.state = stateReady
	r.loadErr = nil
	r.logger.Info("retrieval components loaded",
		zap.Int("vectors", snap.Index.Len()),
		zap.Int("dim", snap.Index.Dim()),
		zap.Time("built_at", snap.BuiltAt))
}

func (r *Retriever) snapshot(ctx context.Context) (*ports.IndexSnapshot, error) {
	if err := r.Load(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != stateReady {
		return nil, r.loadErr
	}
	return r.snap, nil
}

// Search returns up to k hits for text, nearest first.
// Score is 1 minus the squared L2 distance and is not normalized.
func (r *Retriever) Search(ctx context.Context, text string, k int) ([]entities.SearchResult, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Input("retriever.search", "query text is empty", nil)
	}
	if k <= 0 {
		return nil, apperrors.Input("retriever.search", fmt.Sprintf("k must be positive, got %d", k), nil)
	}
	if snap.Index.Len() == 0 {
		return []entities.SearchResult{}, nil
	}

	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, apperrors.Index("retriever.embed", "embedding query", err)
	}
	if len(vec) != snap.Index.Dim() {
		return nil, apperrors.Index("retriever.embed",
			fmt.Sprintf("query embedding has dimension %d, index has %d", len(vec), snap.Index.Dim()), nil)
	}

	neighbors, err := snap.Index.Search(vec, k)
	if err != nil {
		return nil, apperrors.Index("retriever.search", "searching index", err)
	}

	results := make([]entities.SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Position < 0 || n.Position >= len(snap.Mapping) {
			r.logger.Warn("index position outside mapping",
				zap.Int("position", n.Position),
				zap.Int("mapping_len", len(snap.Mapping)))
			continue
		}
		results = append(results, entities.SearchResult{
			TransactionID: snap.Mapping[n.Position],
			Score:         1 - float64(n.Distance),
			Position:      n.Position,
		})
	}
	return results, nil
}

// Fetch returns the stored records for ids.
// No ids, or no matching rows, is reported as a NoData error.
func (r *Retriever) Fetch(ctx context.Context, ids []string) ([]entities.TransactionRecord, error) {
	if _, err := r.snapshot(ctx); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apperrors.NoData("retriever.fetch", "no transaction ids provided")
	}

	records, err := r.store.FetchByIDs(ctx, ids)
	if err != nil {
		if apperrors.KindOf(err) != "" {
			return nil, err
		}
		return nil, apperrors.Store("retriever.fetch", "fetching transactions", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NoData("retriever.fetch", "No details found for the provided transaction IDs.")
	}
	return records, nil
}
