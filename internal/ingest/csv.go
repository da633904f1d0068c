package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/mrsclass/internal/model"
	"go.uber.org/zap"
)

// CSVAdapter reads a CSV file with a header row. Semicolon-separated exports
// are detected from the header.
type CSVAdapter struct {
	logger *zap.Logger
}

// NewCSVAdapter creates a CSV adapter
func NewCSVAdapter(logger *zap.Logger) *CSVAdapter {
	return &CSVAdapter{logger: orNop(logger)}
}

// Name returns the adapter name
func (a *CSVAdapter) Name() string {
	return "csv"
}

// CanHandle checks the file extension
func (a *CSVAdapter) CanHandle(path string) bool {
	return hasExt(path, ".csv", ".tsv")
}

// Parse maps every row onto the header
func (a *CSVAdapter) Parse(r io.Reader) ([]model.RequirementInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectComma(text)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var out []model.RequirementInput
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", row, err)
		}
		rec, ok := recordFrom(rowFields(header, record))
		if !ok {
			a.logger.Warn("skipping empty csv row", zap.Int("row", row))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func rowFields(header, record []string) map[string]any {
	fields := make(map[string]any, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" || i >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[i]); v != "" {
			fields[name] = v
		}
	}
	return fields
}

// detectComma picks the delimiter that occurs most in the first line
func detectComma(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	best, bestCount := ',', strings.Count(first, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(first, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
