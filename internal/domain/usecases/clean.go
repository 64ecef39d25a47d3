// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/domain/entities"
)

// CleanReport counts rows at each filtering stage.
type CleanReport struct {
	Input         int
	MissingID     int
	InvalidAmount int
	InvalidDate   int
	DuplicateID   int
	TaxDefaulted  int
	Output        int
}

// Cleaner validates and normalizes raw rows.
// Missing id, bad amount and bad date are row-fatal; bad tax becomes zero.
type Cleaner struct {
	location *time.Location
	logger   *zap.Logger
}

// NewCleaner creates a Cleaner parsing dates in loc (time.Local if nil).
func NewCleaner(loc *time.Location, logger *zap.Logger) *Cleaner {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{location: loc, logger: logger.Named("cleaner")}
}

// Clean returns the valid rows in input order. Output never exceeds input.
func (c *Cleaner) Clean(raw []entities.RawRecord) ([]entities.TransactionRecord, CleanReport) {
	report := CleanReport{Input: len(raw)}
	seen := make(map[string]struct{}, len(raw))
	out := make([]entities.TransactionRecord, 0, len(raw))

	for _, row := range raw {
		id, ok := row.Get(entities.ColTransactionID)
		if !ok {
			report.MissingID++
			continue
		}

		amount, ok := parseAmount(row)
		if !ok {
			report.InvalidAmount++
			continue
		}

		date, ok := c.parseDate(row)
		if !ok {
			report.InvalidDate++
			continue
		}

		if _, dup := seen[id]; dup {
			report.DuplicateID++
			continue
		}
		seen[id] = struct{}{}

		tax, defaulted := parseTax(row)
		if defaulted {
			report.TaxDefaulted++
		}

		typ, _ := row.Get(entities.ColTransactionType)
		mall, _ := row.Get(entities.ColMallName)
		branch, _ := row.Get(entities.ColBranchName)
		status, _ := row.Get(entities.ColTransactionStatus)

		out = append(out, entities.TransactionRecord{
			TransactionID: id,
			Amount:        amount,
			Date:          date,
			DateISO:       date.Format(entities.ISOLayout),
			Tax:           tax,
			Type:          typ,
			Mall:          mall,
			Branch:        branch,
			Status:        status,
		})
	}
	report.Output = len(out)

	c.logger.Info("cleaned input",
		zap.Int("input", report.Input),
		zap.Int("dropped_missing_id", report.MissingID),
		zap.Int("dropped_invalid_amount", report.InvalidAmount),
		zap.Int("dropped_invalid_date", report.InvalidDate),
		zap.Int("dropped_duplicate_id", report.DuplicateID),
		zap.Int("tax_defaulted", report.TaxDefaulted),
		zap.Int("output", report.Output))

	return out, report
}

func parseAmount(row entities.RawRecord) (decimal.Decimal, bool) {
	s, ok := row.Get(entities.ColTransactionAmount)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.Sign() <= 0 {
		return decimal.Zero, false
	}
	return d, true
}

func (c *Cleaner) parseDate(row entities.RawRecord) (time.Time, bool) {
	s, ok := row.Get(entities.ColTransactionDate)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(entities.InputDateLayout, s, c.location)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseTax returns the tax and whether zero was substituted.
func parseTax(row entities.RawRecord) (decimal.Decimal, bool) {
	s, ok := row.Get(entities.ColTaxAmount)
	if !ok {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.Sign() < 0 {
		return decimal.Zero, true
	}
	return d, false
}
