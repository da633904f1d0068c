// Package ingest turns requirement exports into model.RequirementInput.
// Every format goes through an Adapter picked by file extension.
package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ppiankov/mrsclass/internal/model"
	"go.uber.org/zap"
)

// Adapter reads one file format
type Adapter interface {
	// Name returns the adapter name, also accepted as an explicit format
	Name() string

	// CanHandle reports whether the adapter understands files at path
	CanHandle(path string) bool

	// Parse reads every requirement in r. IDs may be empty; the Loader fills them.
	Parse(r io.Reader) ([]model.RequirementInput, error)
}

// Registry manages format adapters
type Registry struct {
	adapters []Adapter
	fallback Adapter
}

// NewRegistry creates a registry with the built-in formats. Unknown
// extensions fall back to plain text. logger receives skipped-item warnings
// and may be nil.
func NewRegistry(logger *zap.Logger) *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	registry.Register(NewJSONAdapter(logger))
	registry.Register(NewJSONLAdapter(logger))
	registry.Register(NewCSVAdapter(logger))
	registry.Register(NewYAMLAdapter(logger))
	registry.Register(NewHTMLAdapter(logger))

	registry.fallback = NewTextAdapter()

	return registry
}

// Register registers a new adapter. Later registrations do not override
// earlier ones for the same extension.
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the adapter for path, falling back to plain text
func (r *Registry) FindAdapter(path string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(path) {
			return adapter
		}
	}
	return r.fallback
}

// ForContentType picks an adapter from an HTTP Content-Type header.
// ok is false when the media type is not recognised.
func (r *Registry) ForContentType(contentType string) (Adapter, bool) {
	mediaType, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	var name string
	switch strings.TrimSpace(mediaType) {
	case "application/json":
		name = "json"
	case "application/x-ndjson", "application/jsonl", "application/jsonlines":
		name = "jsonl"
	case "text/csv", "text/tab-separated-values":
		name = "csv"
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		name = "yaml"
	case "text/html", "application/xhtml+xml":
		name = "html"
	case "text/plain":
		name = "text"
	default:
		return nil, false
	}
	adapter, err := r.ByName(name)
	return adapter, err == nil
}

// ByName returns the adapter registered under name
func (r *Registry) ByName(name string) (Adapter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, adapter := range append(r.adapters, r.fallback) {
		if adapter.Name() == name {
			return adapter, nil
		}
	}
	return nil, fmt.Errorf("unknown input format %q (want %s)", name, strings.Join(r.Names(), ", "))
}

// Names lists the registered formats
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters)+1)
	for _, adapter := range r.adapters {
		names = append(names, adapter.Name())
	}
	return append(names, r.fallback.Name())
}

// hasExt reports whether path ends in one of exts (case-insensitive)
func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
