package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/ports"
)

// newTestRetriever indexes one 2-d vector per id: id i sits at (i, 0).
func newTestRetriever(t *testing.T, ids ...string) (*Retriever, *mockEmbedder, *mockTxStore, *mockIndexStore) {
	t.Helper()
	idx := newMockIndex(2)
	vecs := make([][]float32, len(ids))
	store := &mockTxStore{}
	for i, id := range ids {
		vecs[i] = []float32{float32(i), 0}
		store.records = append(store.records, txn(id, "10", "Z Mall", "Completed", time.Now()))
	}
	_, err := idx.Add(vecs)
	require.NoError(t, err)

	indexes := &mockIndexStore{snap: &ports.IndexSnapshot{Index: idx, Mapping: ids, Model: "mock-embed"}}
	embedder := &mockEmbedder{
		embedFn: func(text string) ([]float32, error) { return []float32{0, 0}, nil },
	}
	return NewRetriever(embedder, indexes, store, nil), embedder, store, indexes
}

func TestRetriever_SearchNearestFirst(t *testing.T) {
	r, _, _, _ := newTestRetriever(t, "A", "B", "C")

	hits, err := r.Search(context.Background(), "anything", 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "A", hits[0].TransactionID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "B", hits[1].TransactionID)
	assert.InDelta(t, 0.0, hits[1].Score, 1e-9)
	assert.True(t, r.Ready())
}

func TestRetriever_ScoreMayBeNegative(t *testing.T) {
	r, _, _, _ := newTestRetriever(t, "A", "B", "C")

	hits, err := r.Search(context.Background(), "anything", 10)

	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "C", hits[2].TransactionID)
	assert.InDelta(t, -3.0, hits[2].Score, 1e-9)
}

func TestRetriever_KLargerThanIndex(t *testing.T) {
	r, _, _, _ := newTestRetriever(t, "A")

	hits, err := r.Search(context.Background(), "q", 5)

	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestRetriever_EmptyIndex(t *testing.T) {
	r, embedder, _, _ := newTestRetriever(t)

	hits, err := r.Search(context.Background(), "q", 5)

	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Zero(t, embedder.calls)
}

func TestRetriever_SkipsPositionsOutsideMapping(t *testing.T) {
	r, _, _, indexes := newTestRetriever(t, "A", "B")
	_, err := indexes.snap.Index.Add([][]float32{{0.5, 0}})
	require.NoError(t, err)
	indexes.snap.Mapping = []string{"A", "B", "ghost"}
	require.NoError(t, r.Load(context.Background()))
	indexes.snap.Mapping = indexes.snap.Mapping[:2]

	hits, err := r.Search(context.Background(), "q", 3)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "A", hits[0].TransactionID)
	assert.Equal(t, "B", hits[1].TransactionID)
}

func TestRetriever_InvalidQuery(t *testing.T) {
	r, _, _, _ := newTestRetriever(t, "A")

	_, err := r.Search(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, apperrors.ErrInput)

	_, err = r.Search(context.Background(), "q", 0)
	assert.ErrorIs(t, err, apperrors.ErrInput)
}

func TestRetriever_LoadFailureIsCached(t *testing.T) {
	r, _, _, indexes := newTestRetriever(t, "A")
	indexes.loadErr = errors.New("index file missing")

	_, err := r.Search(context.Background(), "q", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotReady)
	assert.Contains(t, err.Error(), "index file missing")

	indexes.loadErr = nil
	_, err = r.Fetch(context.Background(), []string{"A"})
	assert.ErrorIs(t, err, apperrors.ErrNotReady)
	assert.Equal(t, 1, indexes.loads, "no automatic retry")
	assert.False(t, r.Ready())

	require.NoError(t, r.Reload(context.Background()))
	assert.True(t, r.Ready())
	assert.Equal(t, 2, indexes.loads)
}

func TestRetriever_StoreProbeFailure(t *testing.T) {
	r, _, store, _ := newTestRetriever(t, "A")
	store.countErr = apperrors.Store("sqlstore.count", "no such table", nil)

	err := r.Load(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrNotReady)
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

func TestRetriever_MappingLengthMismatch(t *testing.T) {
	r, _, _, indexes := newTestRetriever(t, "A", "B")
	indexes.snap.Mapping = []string{"A"}

	err := r.Load(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrNotReady)
	assert.ErrorIs(t, err, apperrors.ErrIndex)
}

func TestRetriever_Fetch(t *testing.T) {
	r, _, store, _ := newTestRetriever(t, "A", "B", "C")

	records, err := r.Fetch(context.Background(), []string{"C", "A"})

	require.NoError(t, err)
	assert.Len(t, records, 2)
	require.Len(t, store.fetched, 1, "one store query per fetch")
}

func TestRetriever_FetchNoData(t *testing.T) {
	r, _, _, _ := newTestRetriever(t, "A")

	_, err := r.Fetch(context.Background(), nil)
	assert.True(t, apperrors.IsNoData(err))

	_, err = r.Fetch(context.Background(), []string{"missing"})
	assert.True(t, apperrors.IsNoData(err))
	assert.Contains(t, err.Error(), "No details found for the provided transaction IDs.")
}

func TestRetriever_FetchStoreFailure(t *testing.T) {
	r, _, store, _ := newTestRetriever(t, "A")
	store.fetchErr = errors.New("locked")

	_, err := r.Fetch(context.Background(), []string{"A"})

	assert.ErrorIs(t, err, apperrors.ErrStore)
}

func TestRetriever_ModelMismatchStillLoads(t *testing.T) {
	r, embedder, _, _ := newTestRetriever(t, "A")
	embedder.model = "other-model"

	require.NoError(t, r.Load(context.Background()))
	assert.True(t, r.Ready())
}

var _ Searcher = (*Retriever)(nil)
