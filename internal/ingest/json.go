package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/mrsclass/internal/model"
	"go.uber.org/zap"
)

// JSONAdapter reads a JSON list or {"requirements": [...]}
type JSONAdapter struct {
	logger *zap.Logger
}

// NewJSONAdapter creates a JSON adapter
func NewJSONAdapter(logger *zap.Logger) *JSONAdapter {
	return &JSONAdapter{logger: orNop(logger)}
}

// Name returns the adapter name
func (a *JSONAdapter) Name() string {
	return "json"
}

// CanHandle checks the file extension
func (a *JSONAdapter) CanHandle(path string) bool {
	return hasExt(path, ".json")
}

// Parse decodes the whole document
func (a *JSONAdapter) Parse(r io.Reader) ([]model.RequirementInput, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return recordsFrom(doc, a.logger)
}

// JSONLAdapter reads one JSON object per line
type JSONLAdapter struct {
	logger *zap.Logger
}

// NewJSONLAdapter creates a JSON Lines adapter
func NewJSONLAdapter(logger *zap.Logger) *JSONLAdapter {
	return &JSONLAdapter{logger: orNop(logger)}
}

// Name returns the adapter name
func (a *JSONLAdapter) Name() string {
	return "jsonl"
}

// CanHandle checks the file extension
func (a *JSONLAdapter) CanHandle(path string) bool {
	return hasExt(path, ".jsonl", ".ndjson")
}

// Parse decodes line by line; blank lines are skipped
func (a *JSONLAdapter) Parse(r io.Reader) ([]model.RequirementInput, error) {
	var out []model.RequirementInput

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, ok := recordFrom(obj)
		if !ok {
			a.logger.Warn("skipping empty requirement line", zap.Int("line", line))
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return out, nil
}
