// Package loader provides raw input loading adapters.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/entities"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVLoader reads transactions from a CSV file with a header row.
// Implements ports.RecordLoader.
type CSVLoader struct{}

// NewCSVLoader creates a new CSV loader.
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

// Load reads every data row of the CSV at path.
// A missing file, unreadable content or a header without the required
// columns is an input error.
func (l *CSVLoader) Load(ctx context.Context, path string) ([]entities.RawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Input("loader.open", path, err)
	}
	defer file.Close()

	return l.Read(ctx, file)
}

// Read parses CSV content from r.
func (l *CSVLoader) Read(ctx context.Context, r io.Reader) ([]entities.RawRecord, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Input("loader.header", "empty input", nil)
		}
		return nil, apperrors.Input("loader.header", "reading header", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var rows []entities.RawRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Input("loader.read", "reading row", err)
		}

		row := make(entities.RawRecord, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *CSVLoader) SupportedExtensions() []string {
	return []string{".csv"}
}

func checkHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	var missing []string
	for _, col := range entities.RequiredInputColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return apperrors.Input("loader.header",
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}
	return nil
}
