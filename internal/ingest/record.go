package ingest

import (
	"fmt"
	"strings"

	"github.com/ppiankov/mrsclass/internal/model"
	"go.uber.org/zap"
)

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Column and field names accepted for the ID and text, checked in order
var (
	idKeys   = []string{"req_id", "id", "requirement_id", "key"}
	textKeys = []string{"raw_text", "text", "requirement", "description"}
)

// recordFrom builds an input from a decoded object. Fields other than the ID
// and text are kept in Meta, so domain columns such as ecu or component feed
// the vocabulary. A record with an empty or missing text is still a record;
// ok is false only when the object has no values at all.
func recordFrom(fields map[string]any) (model.RequirementInput, bool) {
	lowered := make(map[string]string, len(fields))
	for k := range fields {
		lowered[strings.ToLower(strings.TrimSpace(k))] = k
	}

	lookup := func(keys []string) (string, string) {
		for _, k := range keys {
			orig, ok := lowered[k]
			if !ok || fields[orig] == nil {
				continue
			}
			return orig, strings.TrimSpace(fmt.Sprint(fields[orig]))
		}
		return "", ""
	}

	if !hasValues(fields) {
		return model.RequirementInput{}, false
	}

	idField, id := lookup(idKeys)
	textField, text := lookup(textKeys)

	meta := make(map[string]any)
	if nested, ok := asObject(fields[lowered["meta"]]); ok {
		for k, v := range nested {
			meta[k] = v
		}
	}
	for k, v := range fields {
		if k == idField || k == textField || strings.EqualFold(k, "meta") || v == nil {
			continue
		}
		if _, exists := meta[k]; !exists {
			meta[k] = v
		}
	}
	if len(meta) == 0 {
		meta = nil
	}

	return model.RequirementInput{ReqID: id, RawText: text, Meta: meta}, true
}

func hasValues(fields map[string]any) bool {
	for _, v := range fields {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return true
	}
	return false
}

// asObject accepts the map shapes encoding/json and yaml.v3 decode into
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// recordsFrom accepts either a list of objects or an object with a
// "requirements" list. Empty items are skipped and logged.
func recordsFrom(doc any, logger *zap.Logger) ([]model.RequirementInput, error) {
	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case nil:
		return nil, nil
	default:
		obj, ok := asObject(v)
		if !ok {
			return nil, fmt.Errorf("expected a list or an object, got %T", doc)
		}
		list, ok := obj["requirements"].([]any)
		if !ok {
			return nil, fmt.Errorf(`expected a "requirements" list`)
		}
		items = list
	}

	out := make([]model.RequirementInput, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, model.RequirementInput{RawText: s})
			} else {
				logger.Warn("skipping empty requirement item", zap.Int("item", i+1))
			}
		default:
			obj, ok := asObject(v)
			if !ok {
				return nil, fmt.Errorf("item %d: expected an object, got %T", i, item)
			}
			rec, ok := recordFrom(obj)
			if !ok {
				logger.Warn("skipping empty requirement item", zap.Int("item", i+1))
				continue
			}
			out = append(out, rec)
		}
	}
	return out, nil
}
