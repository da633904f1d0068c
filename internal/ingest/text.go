package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/mrsclass/internal/model"
)

// TextAdapter reads one requirement per line. Blank lines and lines starting
// with # are skipped; "ID<TAB>text" lines carry their own ID.
type TextAdapter struct{}

// NewTextAdapter creates a plain-text adapter
func NewTextAdapter() *TextAdapter {
	return &TextAdapter{}
}

// Name returns the adapter name
func (a *TextAdapter) Name() string {
	return "text"
}

// CanHandle checks the file extension
func (a *TextAdapter) CanHandle(path string) bool {
	return hasExt(path, ".txt", ".text")
}

// Parse reads the lines
func (a *TextAdapter) Parse(r io.Reader) ([]model.RequirementInput, error) {
	var out []model.RequirementInput

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var in model.RequirementInput
		if id, text, ok := strings.Cut(line, "\t"); ok && strings.TrimSpace(text) != "" {
			in.ReqID = strings.TrimSpace(id)
			in.RawText = strings.TrimSpace(text)
		} else {
			in.RawText = line
		}
		out = append(out, in)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return out, nil
}
