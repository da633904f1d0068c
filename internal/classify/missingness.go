package classify

import (
	"fmt"
	"strings"

	"github.com/ppiankov/mrsclass/internal/model"
)

// Slots whose precision is meaningless until the subject is confirmed
var anchorDependentSlots = map[model.SlotName]bool{
	model.SlotWhen:               true,
	model.SlotConstraints:        true,
	model.SlotVerification:       true,
	model.SlotAcceptanceCriteria: true,
}

// override adjusts one finding. Overrides run in a fixed order and later
// ones win for the same finding.
type override struct {
	name  string
	apply func(slot model.SlotName, states model.StateVector) (model.MissingLabel, bool)
}

var overrides = []override{
	{
		name: "anchor not confirmed",
		apply: func(slot model.SlotName, states model.StateVector) (model.MissingLabel, bool) {
			if anchorDependentSlots[slot] && states.Get(model.SlotAnchor) != model.StateOK {
				return model.LabelDeferred, true
			}
			return "", false
		},
	},
	{
		name: "core action is never optional",
		apply: func(slot model.SlotName, _ model.StateVector) (model.MissingLabel, bool) {
			if slot == model.SlotWhat {
				return model.LabelActionable, true
			}
			return "", false
		},
	},
	{
		name: "trigger, bound and actor imply test closure",
		apply: func(slot model.SlotName, states model.StateVector) (model.MissingLabel, bool) {
			if slot != model.SlotVerification || states.Get(model.SlotVerification) != model.StateAbsent {
				return "", false
			}
			for _, s := range []model.SlotName{model.SlotAnchor, model.SlotWhat, model.SlotWhen, model.SlotConstraints} {
				if states.Get(s) != model.StateOK {
					return "", false
				}
			}
			return model.LabelPermissible, true
		},
	},
}

// MissingnessEngine labels ABSENT slots against a type's expectation row
type MissingnessEngine struct {
	expectations model.ExpectationMatrix
}

// NewMissingnessEngine creates an engine over the expectation matrix
func NewMissingnessEngine(expectations model.ExpectationMatrix) *MissingnessEngine {
	return &MissingnessEngine{expectations: expectations}
}

// Evaluate emits one finding per ABSENT slot that the type's row mentions,
// in canonical slot order. WEAK and OK slots never produce findings.
func (e *MissingnessEngine) Evaluate(typeName string, states model.StateVector) []model.MissingnessFinding {
	findings := []model.MissingnessFinding{}

	row := e.expectations[typeName]
	if len(row) == 0 {
		return findings
	}

	for _, slot := range model.AllSlots() {
		if states.Get(slot) != model.StateAbsent {
			continue
		}
		expectation, ok := row[slot]
		if !ok {
			continue
		}

		label := model.BaseLabel(expectation)
		trace := []string{fmt.Sprintf("%s for %s: %s", expectation, typeName, label)}

		for _, o := range overrides {
			forced, fired := o.apply(slot, states)
			if !fired {
				continue
			}
			label = forced
			trace = append(trace, fmt.Sprintf("override (%s): %s", o.name, forced))
		}

		findings = append(findings, model.MissingnessFinding{
			Slot:      slot,
			Label:     label,
			Rationale: strings.Join(trace, "; "),
		})
	}

	return findings
}
