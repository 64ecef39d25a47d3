package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
	"github.com/0xcro3dile/txnsight/internal/domain/ports"
)

// Persister writes cleaned records to the relational store.
type Persister struct {
	store  ports.TransactionStore
	logger *zap.Logger
}

// NewPersister creates a Persister over store.
func NewPersister(store ports.TransactionStore, logger *zap.Logger) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{store: store, logger: logger.Named("persister")}
}

// BuildSummary renders the sentence embedded for semantic search.
func BuildSummary(r entities.TransactionRecord) string {
	return fmt.Sprintf(
		"Transaction type: %s. Mall: %s. Branch: %s. Date: %s. Status: %s. Amount: %s. Tax: %s. ID: %s",
		r.Type, r.Mall, r.Branch, r.DateISO, r.Status,
		r.Amount.StringFixed(2), r.Tax.StringFixed(2), r.TransactionID,
	)
}

// Persist attaches summaries and replaces the stored table with records.
// It returns the summary rows in table order. On failure the previous table is kept.
func (p *Persister) Persist(ctx context.Context, records []entities.TransactionRecord) ([]entities.SummaryRow, error) {
	rows := make([]entities.SummaryRow, len(records))
	out := make([]entities.TransactionRecord, len(records))
	for i, r := range records {
		r.Summary = BuildSummary(r)
		out[i] = r
		rows[i] = entities.SummaryRow{TransactionID: r.TransactionID, Text: r.Summary}
	}

	if err := p.store.ReplaceAll(ctx, out); err != nil {
		if apperrors.KindOf(err) == apperrors.KindStore {
			return nil, err
		}
		return nil, apperrors.Store("persister.replace", "writing transactions", err)
	}

	p.logger.Info("persisted transactions", zap.Int("rows", len(out)))
	if len(rows) > 0 {
		p.logger.Debug("sample summary", zap.String("summary", rows[0].Text))
	}
	return rows, nil
}
