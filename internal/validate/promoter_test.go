package validate

import (
	"testing"

	"github.com/ppiankov/mrsclass/internal/extract"
	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/ruleset"
)

func mustDefaultRules(t *testing.T) *ruleset.Ruleset {
	t.Helper()
	rs, err := ruleset.Default()
	if err != nil {
		t.Fatalf("Failed to load default ruleset: %v", err)
	}
	return rs
}

func generate(t *testing.T, rs *ruleset.Ruleset, raw string) *model.RequirementRecord {
	t.Helper()
	norm := extract.Normalize(raw)
	record := model.NewRequirementRecord("REQ-T", raw, norm)
	record.Slots = extract.NewCandidateGenerator(rs).Generate(norm, nil)
	return record
}

func TestStructuralPromoter_StrongEvidence(t *testing.T) {
	rs := mustDefaultRules(t)
	record := generate(t, rs, "The BMS shall stop charging within 200ms if voltage exceeds 4.2V to prevent overcharge.")

	NewStructuralPromoter(rs).Promote(record)

	for _, slot := range []model.SlotName{model.SlotAnchor, model.SlotWhat, model.SlotWhy, model.SlotConstraints, model.SlotWhen} {
		if got := record.Slots.State(slot); got != model.StateOK {
			t.Errorf("%s: expected OK, got %s", slot, got)
		}
	}

	if got := record.Slots[model.SlotConstraints].Selected; len(got) != 1 || got[0] != "within 200ms" {
		t.Errorf("Expected Constraints selection 'within 200ms', got %v", got)
	}
	if got := record.Slots[model.SlotAnchor].Selected; got != nil {
		t.Errorf("Expected lexical promotion to leave Selected nil, got %v", got)
	}
	if got := record.Slots.State(model.SlotVerification); got != model.StateAbsent {
		t.Errorf("Expected Verification to stay ABSENT, got %s", got)
	}
}

func TestStructuralPromoter_WeakStaysWeak(t *testing.T) {
	rs := mustDefaultRules(t)
	record := generate(t, rs, "The ECU shall be tested if needed.")

	if record.Slots.State(model.SlotWhen) != model.StateWeak {
		t.Fatalf("Expected When candidate before promotion, got %s", record.Slots.State(model.SlotWhen))
	}

	NewStructuralPromoter(rs).Promote(record)

	if got := record.Slots.State(model.SlotWhen); got != model.StateWeak {
		t.Errorf("Expected When to stay WEAK without structural match, got %s", got)
	}
	if got := record.Slots.State(model.SlotVerification); got != model.StateWeak {
		t.Errorf("Expected bare 'tested' to stay WEAK, got %s", got)
	}
	if len(record.Diagnostics) == 0 {
		t.Error("Expected a diagnostic for slots kept WEAK")
	}
}

func TestStructuralPromoter_NeverInventsEvidence(t *testing.T) {
	rs := mustDefaultRules(t)
	record := model.NewRequirementRecord("REQ-T", "", "when ignition is on, x")

	NewStructuralPromoter(rs).Promote(record)

	for _, slot := range model.AllSlots() {
		if got := record.Slots.State(slot); got != model.StateAbsent {
			t.Errorf("%s: expected ABSENT slot to stay ABSENT, got %s", slot, got)
		}
	}
}

func TestStructuralPromoter_NilRuleset(t *testing.T) {
	record := model.NewRequirementRecord("REQ-T", "", "the ecu shall open")
	record.Slots[model.SlotAnchor].State = model.StateWeak

	NewStructuralPromoter(nil).Promote(record)

	if got := record.Slots.State(model.SlotAnchor); got != model.StateWeak {
		t.Errorf("Expected no promotion without a ruleset, got %s", got)
	}
}
