package validate

import (
	"fmt"

	"github.com/ppiankov/mrsclass/internal/model"
)

// RelationCorrector enforces slot hierarchy: a subordinate cannot be OK
// while its superior is not OK. It only ever lowers states, so applying it
// twice is the same as applying it once.
type RelationCorrector struct {
	edges []model.HierarchyRelation
}

// NewRelationCorrector creates a corrector over the given edges
func NewRelationCorrector(edges []model.HierarchyRelation) *RelationCorrector {
	return &RelationCorrector{edges: append([]model.HierarchyRelation(nil), edges...)}
}

// Correct caps violating subordinates at WEAK until no edge changes anything.
// Each demotion is recorded as a diagnostic. Returns the number of demotions.
func (c *RelationCorrector) Correct(record *model.RequirementRecord) int {
	demotions := 0

	// States only decrease, so the loop ends after at most one pass per edge
	for pass := 0; pass <= len(c.edges); pass++ {
		changed := false
		for _, edge := range c.edges {
			sub := record.Slots[edge.Subordinate]
			if sub == nil {
				continue
			}
			superior := record.Slots.State(edge.Superior)
			if superior == model.StateOK {
				continue
			}
			capped := sub.State.Capped(model.StateWeak)
			if capped == sub.State {
				continue
			}
			record.Note(fmt.Sprintf("hierarchy: %s capped %s->%s (%s is %s)",
				edge.Subordinate, sub.State, capped, edge.Superior, superior))
			sub.State = capped
			changed = true
			demotions++
		}
		if !changed {
			break
		}
	}

	return demotions
}

// Violations lists edges whose subordinate is OK while the superior is not
func Violations(slots model.SlotSet, edges []model.HierarchyRelation) []model.HierarchyRelation {
	var out []model.HierarchyRelation
	for _, edge := range edges {
		if slots.State(edge.Subordinate) == model.StateOK && slots.State(edge.Superior) != model.StateOK {
			out = append(out, edge)
		}
	}
	return out
}
