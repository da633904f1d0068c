package validate

import (
	"fmt"

	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/ruleset"
)

// StructuralPromoter upgrades WEAK slots to OK. Structural slots need a
// strong pattern match; every other slot is promoted on lexical evidence
// alone. ABSENT slots are never touched.
type StructuralPromoter struct {
	rules *ruleset.Ruleset
}

// NewStructuralPromoter creates a promoter bound to a ruleset
func NewStructuralPromoter(rules *ruleset.Ruleset) *StructuralPromoter {
	return &StructuralPromoter{rules: rules}
}

// Promote updates slot states in place
func (p *StructuralPromoter) Promote(record *model.RequirementRecord) {
	if p.rules.Empty() {
		return
	}

	for _, name := range model.AllSlots() {
		slot := record.Slots[name]
		if slot == nil || slot.State != model.StateWeak {
			continue
		}

		if !p.rules.IsStructural(name) {
			slot.State = model.StateOK
			continue
		}

		start, end, ok := p.firstStrongMatch(name, record.NormalizedText)
		if !ok {
			record.Note(fmt.Sprintf("promote: %s kept WEAK, no structural match", name))
			continue
		}

		slot.State = model.StateOK
		slot.Selected = []string{enclosingSpan(slot.Candidates, record.NormalizedText, start, end)}
	}
}

// firstStrongMatch returns the earliest strong match over all patterns of a slot
func (p *StructuralPromoter) firstStrongMatch(name model.SlotName, text string) (int, int, bool) {
	bestStart, bestEnd := -1, -1
	for _, re := range p.rules.Strong[name] {
		loc := re.FindStringIndex(text)
		if loc == nil || loc[1] <= loc[0] {
			continue
		}
		if bestStart < 0 || loc[0] < bestStart || (loc[0] == bestStart && loc[1] > bestEnd) {
			bestStart, bestEnd = loc[0], loc[1]
		}
	}
	return bestStart, bestEnd, bestStart >= 0
}

// enclosingSpan prefers the longest candidate covering the strong match so
// the committed value is a whole phrase, falling back to the match itself.
func enclosingSpan(candidates []model.Candidate, text string, start, end int) string {
	best := -1
	for i, c := range candidates {
		if c.Start > start || c.End < end {
			continue
		}
		if best < 0 || c.End-c.Start > candidates[best].End-candidates[best].Start {
			best = i
		}
	}
	if best >= 0 {
		return candidates[best].Text
	}
	return text[start:end]
}
