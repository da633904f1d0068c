// Package classify turns a final slot-state vector into an MRS type and a
// list of missingness findings. Both stages are pure functions of their
// inputs and the ruleset tables.
package classify

import (
	"github.com/ppiankov/mrsclass/internal/model"
)

// NoCriteriaNote is attached to Unknown decisions
const NoCriteriaNote = "no criteria satisfied"

// TypeDeterminer evaluates an ordered decision table. List order is
// priority: the first type whose criteria all hold wins.
type TypeDeterminer struct {
	types []model.TypeDefinition
}

// NewTypeDeterminer creates a determiner over the given table
func NewTypeDeterminer(types []model.TypeDefinition) *TypeDeterminer {
	return &TypeDeterminer{types: append([]model.TypeDefinition(nil), types...)}
}

// Determine returns the first matching type with the slot=state pairs that
// satisfied it, in table order. No match yields Unknown with an empty rationale.
func (d *TypeDeterminer) Determine(states model.StateVector) model.TypeDecision {
	for _, def := range d.types {
		if rationale, ok := satisfies(def, states); ok {
			return model.TypeDecision{Type: def.Name, Rationale: rationale}
		}
	}
	return model.TypeDecision{
		Type:      model.UnknownType,
		Rationale: []model.RationaleEntry{},
		Note:      NoCriteriaNote,
	}
}

func satisfies(def model.TypeDefinition, states model.StateVector) ([]model.RationaleEntry, bool) {
	if len(def.All) == 0 {
		return nil, false
	}
	rationale := make([]model.RationaleEntry, 0, len(def.All))
	for _, crit := range def.All {
		st := states.Get(crit.Slot)
		if !crit.Accepts(st) {
			return nil, false
		}
		rationale = append(rationale, model.RationaleEntry{Slot: crit.Slot, State: st})
	}
	return rationale, true
}
