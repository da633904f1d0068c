package ingest

import (
	"fmt"
	"io"

	"github.com/ppiankov/mrsclass/internal/model"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// YAMLAdapter reads the same shapes as JSONAdapter, written as YAML
type YAMLAdapter struct {
	logger *zap.Logger
}

// NewYAMLAdapter creates a YAML adapter
func NewYAMLAdapter(logger *zap.Logger) *YAMLAdapter {
	return &YAMLAdapter{logger: orNop(logger)}
}

// Name returns the adapter name
func (a *YAMLAdapter) Name() string {
	return "yaml"
}

// CanHandle checks the file extension
func (a *YAMLAdapter) CanHandle(path string) bool {
	return hasExt(path, ".yaml", ".yml")
}

// Parse decodes the document
func (a *YAMLAdapter) Parse(r io.Reader) ([]model.RequirementInput, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return recordsFrom(doc, a.logger)
}
