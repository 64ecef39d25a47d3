// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no storage or transport knowledge.
package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is one unvalidated input row, keyed by column name.
type RawRecord map[string]string

// Get returns the trimmed value for col and whether it was present and non-blank.
func (r RawRecord) Get(col string) (string, bool) {
	v, ok := r[col]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// TransactionRecord is one cleaned financial transaction.
// Invariant: TransactionID is unique and non-empty, Amount > 0, Date is valid.
type TransactionRecord struct {
	TransactionID string
	Amount        decimal.Decimal
	Date          time.Time
	DateISO       string // Derived from Date, see ISOLayout
	Tax           decimal.Decimal
	Type          string
	Mall          string
	Branch        string
	Status        string
	Summary       string // Sentence embedded for semantic search
}

// SummaryRow pairs a record id with its summary text, in table order.
type SummaryRow struct {
	TransactionID string
	Text          string
}

// EmbeddingEntry is one vector inserted into the index.
type EmbeddingEntry struct {
	Position      int // 0-based insertion order, the join key to the id mapping
	TransactionID string
	Vector        []float32
}

// SearchResult is one semantic search hit.
type SearchResult struct {
	TransactionID string
	Score         float64 // 1 - squared L2 distance; not normalized, may be negative
	Position      int
}

// ScoredTransaction is a fetched record with the score of the hit that found it.
type ScoredTransaction struct {
	Record TransactionRecord
	Score  float64
}

// QueryResponse is the result of a free-text transaction query.
type QueryResponse struct {
	Transactions []ScoredTransaction
	Message      string // Set when there is nothing to show
}
