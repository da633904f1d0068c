package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/mrsclass/internal/extract"
	"github.com/ppiankov/mrsclass/internal/model"
)

// NoneSentinel is the reply value meaning "no candidate fits this slot"
const NoneSentinel = "NONE"

// ErrMalformedSelection means the selector reply was not a usable JSON object
var ErrMalformedSelection = errors.New("malformed selection")

// SlotChoice is the selector's verdict for one slot
type SlotChoice struct {
	None  bool     `json:"none,omitempty"`
	Spans []string `json:"spans,omitempty"`
}

// Selection maps slots to verdicts. Slots the selector did not mention are absent.
type Selection map[model.SlotName]SlotChoice

// ParseSelection extracts a Selection from a model reply. It tolerates code
// fences and prose around the JSON object, drops unknown slot names and
// values it cannot interpret, and fails only when no JSON object is found.
func ParseSelection(reply string) (Selection, error) {
	body := stripFences(reply)

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrMalformedSelection)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSelection, err)
	}

	sel := make(Selection, len(raw))
	for key, value := range raw {
		slot, err := model.ParseSlotName(key)
		if err != nil {
			continue
		}
		if choice, ok := parseChoice(value); ok {
			sel[slot] = choice
		}
	}
	return sel, nil
}

func parseChoice(value any) (SlotChoice, bool) {
	switch v := value.(type) {
	case nil:
		return SlotChoice{None: true}, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" || strings.EqualFold(s, NoneSentinel) {
			return SlotChoice{None: true}, true
		}
		return SlotChoice{Spans: []string{s}}, true
	case []any:
		var spans []string
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" || strings.EqualFold(s, NoneSentinel) {
				continue
			}
			spans = append(spans, s)
		}
		if len(spans) == 0 {
			return SlotChoice{None: true}, true
		}
		return SlotChoice{Spans: spans}, true
	default:
		return SlotChoice{}, false
	}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

// RequestFor builds a selector request from the slots that have candidates
func RequestFor(record *model.RequirementRecord) SelectRequest {
	req := SelectRequest{
		RawText:    record.RawText,
		Candidates: make(map[model.SlotName][]string),
	}
	for _, name := range model.AllSlots() {
		slot := record.Slots[name]
		if slot == nil || len(slot.Candidates) == 0 {
			continue
		}
		texts := make([]string, len(slot.Candidates))
		for i, c := range slot.Candidates {
			texts[i] = c.Text
		}
		req.Candidates[name] = texts
	}
	return req
}

// Apply commits a selection to a record. Slots without candidates are never
// touched. NONE demotes to ABSENT; spans set Selected without changing state.
// A span is accepted only when it lies within one of that slot's candidates,
// so the selector picks among lexical evidence and never adds any. Returns
// the number of slots changed.
func Apply(record *model.RequirementRecord, sel Selection) int {
	changed := 0
	for _, name := range model.AllSlots() {
		choice, ok := sel[name]
		if !ok {
			continue
		}
		slot := record.Slots[name]
		if slot == nil || len(slot.Candidates) == 0 {
			record.Note(fmt.Sprintf("selector: ignored %s, slot had no candidates", name))
			continue
		}

		if choice.None {
			if slot.State != model.StateAbsent {
				record.Note(fmt.Sprintf("selector: %s vetoed %s->ABSENT", name, slot.State))
			}
			slot.State = model.StateAbsent
			slot.Selected = nil
			changed++
			continue
		}

		var literal []string
		for _, span := range choice.Spans {
			norm := extract.Normalize(span)
			if norm != "" && withinCandidate(slot.Candidates, norm) {
				literal = append(literal, norm)
			}
		}
		if len(literal) == 0 {
			record.Note(fmt.Sprintf("selector: rejected span outside %s candidates", name))
			continue
		}
		slot.Selected = literal
		changed++
	}
	return changed
}

func withinCandidate(candidates []model.Candidate, span string) bool {
	for _, c := range candidates {
		if strings.Contains(c.Text, span) {
			return true
		}
	}
	return false
}
