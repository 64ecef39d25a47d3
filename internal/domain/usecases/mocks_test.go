package usecases

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/0xcro3dile/txnsight/internal/domain/entities"
	"github.com/0xcro3dile/txnsight/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService for testing
type mockEmbedder struct {
	embedFn func(text string) ([]float32, error)
	batchFn func(texts []string) ([][]float32, error)
	model   string
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.batchFn != nil {
		m.calls++
		return m.batchFn(texts)
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		emb, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = emb
	}
	return result, nil
}

func (m *mockEmbedder) ModelName() string {
	if m.model == "" {
		return "mock-embed"
	}
	return m.model
}

// mockTxStore implements ports.TransactionStore for testing
type mockTxStore struct {
	records    []entities.TransactionRecord
	replaceErr error
	fetchErr   error
	loadErr    error
	countErr   error
	replaces   int
	fetched    [][]string
}

func (m *mockTxStore) ReplaceAll(ctx context.Context, records []entities.TransactionRecord) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaces++
	m.records = append([]entities.TransactionRecord(nil), records...)
	return nil
}

func (m *mockTxStore) FetchByIDs(ctx context.Context, ids []string) ([]entities.TransactionRecord, error) {
	m.fetched = append(m.fetched, ids)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []entities.TransactionRecord
	for _, r := range m.records {
		if want[r.TransactionID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockTxStore) LoadAll(ctx context.Context) ([]entities.TransactionRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.records, nil
}

func (m *mockTxStore) Count(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.records), nil
}

// mockIndex is a brute-force ports.VectorIndex
type mockIndex struct {
	dim     int
	vectors [][]float32
}

func newMockIndex(dim int) ports.VectorIndex {
	return &mockIndex{dim: dim}
}

func (m *mockIndex) Dim() int { return m.dim }
func (m *mockIndex) Len() int { return len(m.vectors) }

func (m *mockIndex) Add(vectors [][]float32) ([]int, error) {
	positions := make([]int, len(vectors))
	for i, v := range vectors {
		if len(v) != m.dim {
			return nil, errors.New("dimension mismatch")
		}
		positions[i] = len(m.vectors)
		m.vectors = append(m.vectors, v)
	}
	return positions, nil
}

func (m *mockIndex) Search(query []float32, k int) ([]ports.Neighbor, error) {
	out := make([]ports.Neighbor, len(m.vectors))
	for i, v := range m.vectors {
		var d float32
		for j := range v {
			diff := v[j] - query[j]
			d += diff * diff
		}
		out[i] = ports.Neighbor{Position: i, Distance: d}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

func (m *mockIndex) Vector(pos int) ([]float32, error) {
	if pos < 0 || pos >= len(m.vectors) {
		return nil, errors.New("out of range")
	}
	return m.vectors[pos], nil
}

// mockIndexStore implements ports.IndexStore for testing
type mockIndexStore struct {
	snap    *ports.IndexSnapshot
	saveErr error
	loadErr error
	loads   int
}

func (m *mockIndexStore) Save(ctx context.Context, snap *ports.IndexSnapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = snap
	return nil
}

func (m *mockIndexStore) Load(ctx context.Context) (*ports.IndexSnapshot, error) {
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.snap == nil {
		return nil, errors.New("no index saved")
	}
	return m.snap, nil
}

// mockLoader implements ports.RecordLoader for testing
type mockLoader struct {
	rows []entities.RawRecord
	err  error
}

func (m *mockLoader) Load(ctx context.Context, path string) ([]entities.RawRecord, error) {
	return m.rows, m.err
}

func txn(id, amount, mall, status string, date time.Time) entities.TransactionRecord {
	return entities.TransactionRecord{
		TransactionID: id,
		Amount:        decimal.RequireFromString(amount),
		Date:          date,
		DateISO:       date.Format(entities.ISOLayout),
		Tax:           decimal.Zero,
		Type:          "Sale",
		Mall:          mall,
		Branch:        "Main",
		Status:        status,
	}
}

func rawRow(id, amount, date, tax string) entities.RawRecord {
	return entities.RawRecord{
		entities.ColTransactionID:     id,
		entities.ColTransactionAmount: amount,
		entities.ColTransactionDate:   date,
		entities.ColTaxAmount:         tax,
		entities.ColTransactionType:   "Sale",
		entities.ColMallName:          "Z Mall",
		entities.ColBranchName:        "North",
		entities.ColTransactionStatus: "Completed",
	}
}
