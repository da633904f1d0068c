package extract

import (
	"sort"

	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/ruleset"
)

// CandidateGenerator finds lexical evidence for every slot. It only ever
// reports spans that literally occur in the normalized text.
type CandidateGenerator struct {
	rules *ruleset.Ruleset
}

// NewCandidateGenerator creates a generator bound to a ruleset
func NewCandidateGenerator(rules *ruleset.Ruleset) *CandidateGenerator {
	return &CandidateGenerator{rules: rules}
}

// Generate returns a slot set where each slot holds its deduplicated
// candidates in offset order, WEAK when it has any and ABSENT otherwise.
// vocab may be nil.
func (g *CandidateGenerator) Generate(normalized string, vocab *Vocabulary) model.SlotSet {
	slots := model.NewSlotSet()
	if normalized == "" || g.rules.Empty() {
		return slots
	}

	for _, name := range model.AllSlots() {
		var found []model.Candidate
		for _, re := range g.rules.Patterns[name] {
			for _, loc := range re.FindAllStringIndex(normalized, -1) {
				if loc[1] <= loc[0] {
					continue
				}
				found = append(found, model.Candidate{
					Text:  normalized[loc[0]:loc[1]],
					Start: loc[0],
					End:   loc[1],
				})
			}
		}
		if name == model.SlotAnchor && vocab != nil {
			found = append(found, vocab.Match(normalized)...)
		}

		result := slots[name]
		result.Candidates = dedupeCandidates(found)
		if len(result.Candidates) > 0 {
			result.State = model.StateWeak
		}
	}

	return slots
}

// dedupeCandidates orders by (start, end) and keeps the first span for each text
func dedupeCandidates(in []model.Candidate) []model.Candidate {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].Start != in[j].Start {
			return in[i].Start < in[j].Start
		}
		return in[i].End < in[j].End
	})

	seen := make(map[string]bool, len(in))
	out := make([]model.Candidate, 0, len(in))
	for _, c := range in {
		if seen[c.Text] {
			continue
		}
		seen[c.Text] = true
		out = append(out, c)
	}
	return out
}
