package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
)

const sampleCSV = `transaction_id,transaction_amount,transaction_date,tax_amount,transaction_type,mall_name,branch_name,transaction_status
T1,100.50,05/01/2024 10:30,5.00,Sale,Z Mall,North,Completed
T2,abc,05/01/2024 11:00,,Refund,Y Mall,South,Failed
`

func TestCSVLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transactions.csv")
	os.WriteFile(path, []byte(sampleCSV), 0644)

	rows, err := NewCSVLoader().Load(context.Background(), path)

	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if v, _ := rows[0].Get(entities.ColMallName); v != "Z Mall" {
		t.Errorf("unexpected mall: %s", v)
	}
	// Values are passed through unvalidated
	if v, _ := rows[1].Get(entities.ColTransactionAmount); v != "abc" {
		t.Errorf("unexpected amount: %s", v)
	}
	if _, ok := rows[1].Get(entities.ColTaxAmount); ok {
		t.Error("blank tax should read as missing")
	}
}

func TestCSVLoader_StripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBF" + sampleCSV

	rows, err := NewCSVLoader().Read(context.Background(), strings.NewReader(input))

	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if v, ok := rows[0].Get(entities.ColTransactionID); !ok || v != "T1" {
		t.Errorf("expected T1, got %q", v)
	}
}

func TestCSVLoader_OptionalColumnsMissing(t *testing.T) {
	input := "transaction_id,transaction_amount,transaction_date\nT1,10,01/01/2024 00:00\n"

	rows, err := NewCSVLoader().Read(context.Background(), strings.NewReader(input))

	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if _, ok := rows[0].Get(entities.ColMallName); ok {
		t.Error("mall should be missing")
	}
}

func TestCSVLoader_ShortRow(t *testing.T) {
	input := "transaction_id,transaction_amount,transaction_date,mall_name\nT1,10\n"

	rows, err := NewCSVLoader().Read(context.Background(), strings.NewReader(input))

	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if _, ok := rows[0].Get(entities.ColTransactionDate); ok {
		t.Error("date should be missing on a short row")
	}
}

func TestCSVLoader_MissingRequiredColumn(t *testing.T) {
	input := "transaction_id,transaction_amount\nT1,10\n"

	_, err := NewCSVLoader().Read(context.Background(), strings.NewReader(input))

	if !apperrors.IsInput(err) {
		t.Fatalf("expected input error, got %v", err)
	}
	if !strings.Contains(err.Error(), "transaction_date") {
		t.Errorf("error should name the column: %v", err)
	}
}

func TestCSVLoader_EmptyFile(t *testing.T) {
	_, err := NewCSVLoader().Read(context.Background(), strings.NewReader(""))

	if !apperrors.IsInput(err) {
		t.Errorf("expected input error, got %v", err)
	}
}

func TestCSVLoader_NonexistentFile(t *testing.T) {
	_, err := NewCSVLoader().Load(context.Background(), "/nonexistent/file.csv")

	if !apperrors.IsInput(err) {
		t.Errorf("expected input error, got %v", err)
	}
}

func TestCSVLoader_SupportedExtensions(t *testing.T) {
	exts := NewCSVLoader().SupportedExtensions()

	if len(exts) != 1 || exts[0] != ".csv" {
		t.Errorf("unexpected extensions: %v", exts)
	}
}
