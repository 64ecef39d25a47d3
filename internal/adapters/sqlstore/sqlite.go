// Package sqlstore provides the relational transaction store.
// Adapter implementing ports.TransactionStore on an embedded SQLite file.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
)

// DefaultTable is the table name used when none is configured.
const DefaultTable = "transactions"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore implements ports.TransactionStore.
// Writes replace the whole table inside one transaction.
type SQLiteStore struct {
	mu       sync.RWMutex
	db       *sql.DB
	table    string
	location *time.Location
}

// Options configures a SQLiteStore.
type Options struct {
	Table    string         // Defaults to DefaultTable
	Location *time.Location // Zone of stored dates, defaults to time.Local
}

// New opens (creating if needed) the SQLite database at path.
func New(path string, opts Options) (*SQLiteStore, error) {
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	if !tableNamePattern.MatchString(opts.Table) {
		return nil, apperrors.Store("sqlstore.open", fmt.Sprintf("invalid table name %q", opts.Table), nil)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.Store("sqlstore.open", "creating data directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.Store("sqlstore.open", "opening database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.Store("sqlstore.open", "opening database", err)
	}

	return &SQLiteStore{db: db, table: opts.Table, location: opts.Location}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Table returns the table name.
func (s *SQLiteStore) Table() string {
	return s.table
}

func (s *SQLiteStore) createTableSQL() string {
	return fmt.Sprintf(`
	CREATE TABLE %q (
		%s TEXT PRIMARY KEY,
		%s REAL NOT NULL,
		%s TEXT NOT NULL,
		%s REAL NOT NULL,
		%s TEXT,
		%s TEXT,
		%s TEXT,
		%s TEXT,
		%s TEXT NOT NULL,
		%s TEXT
	)`, s.table,
		entities.ColTransactionID,
		entities.ColTransactionAmount,
		entities.ColTransactionDate,
		entities.ColTaxAmount,
		entities.ColTransactionType,
		entities.ColMallName,
		entities.ColBranchName,
		entities.ColTransactionStatus,
		entities.ColTransactionDateISO,
		entities.ColSummaryText,
	)
}

func (s *SQLiteStore) selectSQL() string {
	return fmt.Sprintf("SELECT %s FROM %q", strings.Join(entities.StoredColumns, ", "), s.table)
}

// ReplaceAll drops, recreates and fills the table in one transaction.
// If any step fails the previous table is left untouched.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, records []entities.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("sqlstore.replace", "starting transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", s.table)); err != nil {
		return apperrors.Store("sqlstore.replace", "dropping table", err)
	}
	if _, err := tx.ExecContext(ctx, s.createTableSQL()); err != nil {
		return apperrors.Store("sqlstore.replace", "creating table", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(entities.StoredColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		s.table, strings.Join(entities.StoredColumns, ", "), placeholders))
	if err != nil {
		return apperrors.Store("sqlstore.replace", "preparing insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		// decimal.Decimal is a driver.Valuer; REAL affinity stores it as a number
		_, err := stmt.ExecContext(ctx,
			r.TransactionID,
			r.Amount,
			r.Date.Format(entities.StoredDateLayout),
			r.Tax,
			r.Type,
			r.Mall,
			r.Branch,
			r.Status,
			r.DateISO,
			r.Summary,
		)
		if err != nil {
			return apperrors.Store("sqlstore.replace", fmt.Sprintf("inserting %s", r.TransactionID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Store("sqlstore.replace", "committing", err)
	}
	return nil
}

// FetchByIDs returns the rows with the given ids in table order, in one query.
func (s *SQLiteStore) FetchByIDs(ctx context.Context, ids []string) ([]entities.TransactionRecord, error) {
	if len(ids) == 0 {
		return []entities.TransactionRecord{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := fmt.Sprintf("%s WHERE %s IN (%s) ORDER BY rowid",
		s.selectSQL(), entities.ColTransactionID, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Store("sqlstore.fetch", "querying transactions", err)
	}
	defer rows.Close()
	return s.scanAll(rows, "sqlstore.fetch")
}

// LoadAll returns every row in table order.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]entities.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, s.selectSQL()+" ORDER BY rowid")
	if err != nil {
		return nil, apperrors.Store("sqlstore.load", "querying transactions", err)
	}
	defer rows.Close()
	return s.scanAll(rows, "sqlstore.load")
}

// Count returns the number of stored rows. It fails if the table does not exist.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q", s.table)).Scan(&count)
	if err != nil {
		return 0, apperrors.Store("sqlstore.count", "counting transactions", err)
	}
	return count, nil
}

func (s *SQLiteStore) scanAll(rows *sql.Rows, op string) ([]entities.TransactionRecord, error) {
	out := []entities.TransactionRecord{}
	for rows.Next() {
		var r entities.TransactionRecord
		var date string
		var typ, mall, branch, status, summary sql.NullString
		err := rows.Scan(
			&r.TransactionID,
			&r.Amount,
			&date,
			&r.Tax,
			&typ,
			&mall,
			&branch,
			&status,
			&r.DateISO,
			&summary,
		)
		if err != nil {
			return nil, apperrors.Store(op, "scanning row", err)
		}

		r.Date, err = time.ParseInLocation(entities.StoredDateLayout, date, s.location)
		if err != nil {
			return nil, apperrors.Store(op, fmt.Sprintf("parsing date of %s", r.TransactionID), err)
		}
		r.Type = typ.String
		r.Mall = mall.String
		r.Branch = branch.String
		r.Status = status.String
		r.Summary = summary.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store(op, "reading rows", err)
	}
	return out, nil
}
