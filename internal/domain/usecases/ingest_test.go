package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
)

type ingestFixture struct {
	loader   *mockLoader
	store    *mockTxStore
	indexes  *mockIndexStore
	embedder *mockEmbedder
	uc       *IngestUseCase
}

func newIngestFixture(rows []entities.RawRecord) *ingestFixture {
	f := &ingestFixture{
		loader:   &mockLoader{rows: rows},
		store:    &mockTxStore{},
		indexes:  &mockIndexStore{},
		embedder: &mockEmbedder{},
	}
	f.uc = NewIngestUseCase(
		f.loader,
		NewCleaner(time.UTC, nil),
		NewPersister(f.store, nil),
		NewIndexer(f.embedder, f.indexes, newMockIndex, nil),
		nil,
	)
	return f
}

func TestIngestUseCase_Run(t *testing.T) {
	f := newIngestFixture([]entities.RawRecord{
		rawRow("T1", "100", "05/01/2024 10:30", "5"),
		rawRow("T2", "bad", "05/01/2024 10:30", "5"),
		rawRow("T3", "50", "06/01/2024 11:00", ""),
	})

	report, err := f.uc.Run(context.Background(), "input.csv")

	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Clean.Input)
	assert.Equal(t, 2, report.Stored)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 3, report.Dim)
	assert.Equal(t, "mock-embed", report.Model)

	require.NotNil(t, f.indexes.snap)
	assert.Equal(t, []string{"T1", "T3"}, f.indexes.snap.Mapping)
	require.Len(t, f.store.records, 2)
	assert.Contains(t, f.store.records[0].Summary, "ID: T1")
}

func TestIngestUseCase_RerunYieldsSameTable(t *testing.T) {
	f := newIngestFixture([]entities.RawRecord{
		rawRow("T1", "100", "05/01/2024 10:30", "5"),
	})

	_, err := f.uc.Run(context.Background(), "input.csv")
	require.NoError(t, err)
	first := f.store.records

	_, err = f.uc.Run(context.Background(), "input.csv")
	require.NoError(t, err)

	assert.Equal(t, first, f.store.records)
}

func TestIngestUseCase_LoaderFailure(t *testing.T) {
	f := newIngestFixture(nil)
	f.loader.err = apperrors.Input("loader.open", "file not found", nil)

	_, err := f.uc.Run(context.Background(), "missing.csv")

	assert.ErrorIs(t, err, apperrors.ErrInput)
	assert.Zero(t, f.store.replaces)
	assert.Nil(t, f.indexes.snap)
}

func TestIngestUseCase_NothingValid(t *testing.T) {
	f := newIngestFixture([]entities.RawRecord{
		rawRow("T1", "-1", "05/01/2024 10:30", "5"),
	})

	_, err := f.uc.Run(context.Background(), "input.csv")

	assert.True(t, apperrors.IsNoData(err))
	assert.Zero(t, f.store.replaces, "table must not be replaced")
	assert.Zero(t, f.embedder.calls)
}

func TestIngestUseCase_StoreFailureSkipsIndex(t *testing.T) {
	f := newIngestFixture([]entities.RawRecord{
		rawRow("T1", "100", "05/01/2024 10:30", "5"),
	})
	f.store.replaceErr = assert.AnError

	_, err := f.uc.Run(context.Background(), "input.csv")

	assert.ErrorIs(t, err, apperrors.ErrStore)
	assert.Zero(t, f.embedder.calls)
}
