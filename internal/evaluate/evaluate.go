// Package evaluate measures the rule engine against reference annotations.
// A reference is the ir_record carried in a requirement's metadata; its slot
// statuses are mapped to states and typed with the same decision table as
// the engine, so any disagreement traces back to slot detection.
package evaluate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/mrsclass/internal/classify"
	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/ruleset"
)

// ReferenceKey is the meta field holding the annotation
const ReferenceKey = "ir_record"

// Slots compared when explaining a mismatch, most decisive first
var diagnosisOrder = []model.SlotName{
	model.SlotVerification,
	model.SlotAcceptanceCriteria,
	model.SlotConstraints,
	model.SlotWhen,
	model.SlotHowType,
	model.SlotWhat,
	model.SlotAnchor,
}

// ReferenceStates reads the reference state vector from meta. Every slot
// starts ABSENT; CONFIRMED maps to OK and INCONSISTENT to WEAK. Slot names
// are matched case-insensitively and "Anchors" means Anchor. ok is false
// when meta has no annotation.
func ReferenceStates(meta map[string]any) (model.StateVector, bool) {
	record, ok := asObject(meta[ReferenceKey])
	if !ok {
		return nil, false
	}
	items, ok := record["slots"].([]any)
	if !ok {
		return nil, false
	}

	states := make(model.StateVector, len(model.AllSlots()))
	for _, name := range model.AllSlots() {
		states[name] = model.StateAbsent
	}
	for _, item := range items {
		fields, ok := asObject(item)
		if !ok {
			continue
		}
		name, ok := slotName(fields["slot_name"])
		if !ok {
			continue
		}
		states[name] = stateOf(fields["status"])
	}
	return states, true
}

func slotName(v any) (model.SlotName, bool) {
	raw, ok := v.(string)
	if !ok {
		return "", false
	}
	name, err := model.ParseSlotName(raw)
	if err != nil {
		return "", false
	}
	return name, true
}

func stateOf(v any) model.SlotState {
	status, _ := v.(string)
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "CONFIRMED":
		return model.StateOK
	case "INCONSISTENT":
		return model.StateWeak
	default:
		return model.StateAbsent
	}
}

// Evaluator compares results with references using one decision table
type Evaluator struct {
	determiner *classify.TypeDeterminer
}

// NewEvaluator creates an evaluator over the ruleset's type table
func NewEvaluator(rules *ruleset.Ruleset) *Evaluator {
	var types []model.TypeDefinition
	if rules != nil {
		types = rules.Types
	}
	return &Evaluator{determiner: classify.NewTypeDeterminer(types)}
}

// Compare pairs each result with the input of the same ID. Inputs without
// an annotation are listed as skipped.
func (e *Evaluator) Compare(inputs []model.RequirementInput, results []model.Result) (*model.Evaluation, error) {
	byID := make(map[string]model.Result, len(results))
	for _, r := range results {
		byID[r.ReqID] = r
	}

	ev := &model.Evaluation{Items: []model.Comparison{}}
	for _, in := range inputs {
		ref, ok := ReferenceStates(in.Meta)
		if !ok {
			ev.Skipped = append(ev.Skipped, in.ReqID)
			continue
		}
		res, ok := byID[in.ReqID]
		if !ok {
			return nil, fmt.Errorf("no result for %s", in.ReqID)
		}

		item := e.compare(res, ref)
		ev.Items = append(ev.Items, item)
		ev.Compared++
		if item.Match {
			ev.Matches++
		} else {
			ev.Mismatches++
		}
	}
	if ev.Compared > 0 {
		ev.Accuracy = float64(ev.Matches) / float64(ev.Compared)
	}
	return ev, nil
}

func (e *Evaluator) compare(res model.Result, ref model.StateVector) model.Comparison {
	decision := e.determiner.Determine(ref)
	rule := res.Slots.States()

	c := model.Comparison{
		ReqID:         res.ReqID,
		RuleType:      res.MRSType,
		RefType:       decision.Type,
		Match:         res.MRSType == decision.Type,
		RuleRationale: res.TypeRationale,
		RefRationale:  decision.Rationale,
		RuleStates:    rule,
		RefStates:     ref,
	}
	if c.Match {
		return c
	}
	for _, name := range diagnosisOrder {
		if rule.Get(name) != ref.Get(name) {
			c.Diagnosis = append(c.Diagnosis, model.SlotDiff{Slot: name, Rule: rule.Get(name), Ref: ref.Get(name)})
		}
	}
	return c
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
