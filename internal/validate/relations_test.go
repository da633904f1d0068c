package validate

import (
	"testing"

	"github.com/ppiankov/mrsclass/internal/model"
)

var defaultEdges = []model.HierarchyRelation{
	{Superior: model.SlotAnchor, Subordinate: model.SlotWhat},
	{Superior: model.SlotWhat, Subordinate: model.SlotWhen},
	{Superior: model.SlotWhat, Subordinate: model.SlotConstraints},
	{Superior: model.SlotWhat, Subordinate: model.SlotHowType},
}

func recordWithStates(states map[model.SlotName]model.SlotState) *model.RequirementRecord {
	record := model.NewRequirementRecord("REQ-T", "", "")
	for slot, st := range states {
		record.Slots[slot].State = st
	}
	return record
}

func TestRelationCorrector_TwoHopCascade(t *testing.T) {
	record := recordWithStates(map[model.SlotName]model.SlotState{
		model.SlotAnchor:      model.StateAbsent,
		model.SlotWhat:        model.StateOK,
		model.SlotConstraints: model.StateOK,
	})

	demotions := NewRelationCorrector(defaultEdges).Correct(record)

	if got := record.Slots.State(model.SlotWhat); got != model.StateWeak {
		t.Errorf("Expected What capped at WEAK, got %s", got)
	}
	if got := record.Slots.State(model.SlotConstraints); got != model.StateWeak {
		t.Errorf("Expected Constraints capped at WEAK, got %s", got)
	}
	if demotions != 2 {
		t.Errorf("Expected 2 demotions, got %d", demotions)
	}
	if len(record.Diagnostics) != 2 {
		t.Errorf("Expected one diagnostic per demotion, got %v", record.Diagnostics)
	}
}

func TestRelationCorrector_ReverseEdgeOrderStillConverges(t *testing.T) {
	reversed := make([]model.HierarchyRelation, len(defaultEdges))
	for i, e := range defaultEdges {
		reversed[len(defaultEdges)-1-i] = e
	}
	record := recordWithStates(map[model.SlotName]model.SlotState{
		model.SlotAnchor:      model.StateWeak,
		model.SlotWhat:        model.StateOK,
		model.SlotWhen:        model.StateOK,
		model.SlotConstraints: model.StateOK,
		model.SlotHowType:     model.StateOK,
	})

	NewRelationCorrector(reversed).Correct(record)

	if v := Violations(record.Slots, reversed); len(v) != 0 {
		t.Errorf("Expected no violations after correction, got %v", v)
	}
}

func TestRelationCorrector_NeverRaisesOrDropsToAbsent(t *testing.T) {
	record := recordWithStates(map[model.SlotName]model.SlotState{
		model.SlotAnchor: model.StateAbsent,
		model.SlotWhat:   model.StateWeak,
		model.SlotWhen:   model.StateAbsent,
	})

	NewRelationCorrector(defaultEdges).Correct(record)

	if got := record.Slots.State(model.SlotWhat); got != model.StateWeak {
		t.Errorf("Expected WEAK subordinate to stay WEAK, got %s", got)
	}
	if got := record.Slots.State(model.SlotWhen); got != model.StateAbsent {
		t.Errorf("Expected ABSENT subordinate to stay ABSENT, got %s", got)
	}
	if len(record.Diagnostics) != 0 {
		t.Errorf("Expected no diagnostics, got %v", record.Diagnostics)
	}
}

func TestRelationCorrector_Idempotent(t *testing.T) {
	record := recordWithStates(map[model.SlotName]model.SlotState{
		model.SlotAnchor:  model.StateAbsent,
		model.SlotWhat:    model.StateOK,
		model.SlotWhen:    model.StateOK,
		model.SlotHowType: model.StateOK,
	})
	corrector := NewRelationCorrector(defaultEdges)

	corrector.Correct(record)
	first := record.Slots.States()

	if again := corrector.Correct(record); again != 0 {
		t.Errorf("Expected second pass to demote nothing, got %d", again)
	}
	second := record.Slots.States()
	for _, slot := range model.AllSlots() {
		if first[slot] != second[slot] {
			t.Errorf("%s: %s after first pass, %s after second", slot, first[slot], second[slot])
		}
	}
}

func TestRelationCorrector_SatisfiedHierarchyUntouched(t *testing.T) {
	record := recordWithStates(map[model.SlotName]model.SlotState{
		model.SlotAnchor:      model.StateOK,
		model.SlotWhat:        model.StateOK,
		model.SlotConstraints: model.StateOK,
	})

	if n := NewRelationCorrector(defaultEdges).Correct(record); n != 0 {
		t.Errorf("Expected no demotions, got %d", n)
	}
}

func TestRelationCorrector_HierarchyHoldsOnRealText(t *testing.T) {
	rs := mustDefaultRules(t)
	texts := []string{
		"The BMS shall stop charging within 200ms if voltage exceeds 4.2V to prevent overcharge.",
		"shall respond within 50 ms when requested, verified by HIL test.",
		"Torque shall be limited to 300 Nm.",
		"If the HVIL loop is open, the inverter shall transition to safe state within 10 ms.",
		"충전 전압이 4.2V 초과 시 배터리 제어기는 200ms 이내에 충전을 중단해야 한다.",
		"",
	}

	promoter := NewStructuralPromoter(rs)
	corrector := NewRelationCorrector(rs.Hierarchy)
	for _, text := range texts {
		record := generate(t, rs, text)
		promoter.Promote(record)
		corrector.Correct(record)

		if v := Violations(record.Slots, rs.Hierarchy); len(v) != 0 {
			t.Errorf("%q: hierarchy violated after correction: %v", text, v)
		}
	}
}
