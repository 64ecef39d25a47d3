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

// mockSearcher implements Searcher for testing
type mockSearcher struct {
	hits      []entities.SearchResult
	records   []entities.TransactionRecord
	searchErr error
	fetchErr  error
	ready     bool
	lastK     int
}

func (m *mockSearcher) Search(ctx context.Context, text string, k int) ([]entities.SearchResult, error) {
	m.lastK = k
	return m.hits, m.searchErr
}

func (m *mockSearcher) Fetch(ctx context.Context, ids []string) ([]entities.TransactionRecord, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.records, nil
}

func (m *mockSearcher) Ready() bool { return m.ready }

func TestQueryUseCase_SortsByScore(t *testing.T) {
	now := time.Now()
	s := &mockSearcher{
		hits: []entities.SearchResult{
			{TransactionID: "A", Score: 0.9, Position: 0},
			{TransactionID: "B", Score: 0.5, Position: 1},
			{TransactionID: "C", Score: -1.2, Position: 2},
		},
		// Store returns rows in its own order
		records: []entities.TransactionRecord{
			txn("C", "1", "Z", "Completed", now),
			txn("A", "2", "Z", "Completed", now),
			txn("B", "3", "Z", "Completed", now),
		},
	}
	uc := NewQueryUseCase(s, 3, nil)

	resp, err := uc.Query(context.Background(), "failed payments")

	require.NoError(t, err)
	assert.Empty(t, resp.Message)
	require.Len(t, resp.Transactions, 3)
	assert.Equal(t, "A", resp.Transactions[0].Record.TransactionID)
	assert.Equal(t, 0.9, resp.Transactions[0].Score)
	assert.Equal(t, "B", resp.Transactions[1].Record.TransactionID)
	assert.Equal(t, "C", resp.Transactions[2].Record.TransactionID)
	assert.Equal(t, -1.2, resp.Transactions[2].Score)
	assert.Equal(t, 3, s.lastK)
}

func TestQueryUseCase_NoHits(t *testing.T) {
	uc := NewQueryUseCase(&mockSearcher{}, 5, nil)

	resp, err := uc.Query(context.Background(), "anything")

	require.NoError(t, err)
	assert.Equal(t, NoMatchesMessage, resp.Message)
	assert.NotNil(t, resp.Transactions)
	assert.Empty(t, resp.Transactions)
}

func TestQueryUseCase_FetchNoData(t *testing.T) {
	s := &mockSearcher{
		hits:     []entities.SearchResult{{TransactionID: "A", Score: 1}},
		fetchErr: apperrors.NoData("retriever.fetch", "none"),
	}
	uc := NewQueryUseCase(s, 5, nil)

	resp, err := uc.Query(context.Background(), "anything")

	require.NoError(t, err)
	assert.Equal(t, NoMatchesMessage, resp.Message)
}

func TestQueryUseCase_PropagatesErrors(t *testing.T) {
	s := &mockSearcher{searchErr: apperrors.NotReady("retriever.load", "down", nil)}
	uc := NewQueryUseCase(s, 5, nil)

	_, err := uc.Query(context.Background(), "anything")

	assert.True(t, apperrors.IsNotReady(err))
}

func TestQueryUseCase_DefaultTopK(t *testing.T) {
	s := &mockSearcher{ready: true}
	uc := NewQueryUseCase(s, 0, nil)

	_, err := uc.Query(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, 5, s.lastK)
	assert.True(t, uc.Ready())
}
