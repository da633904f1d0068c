package evaluate

import (
	"context"
	"testing"

	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/pipeline"
	"github.com/ppiankov/mrsclass/internal/ruleset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// annotation builds an ir_record the way JSON decoding produces it
func annotation(statuses ...string) map[string]any {
	var slots []any
	for i := 0; i+1 < len(statuses); i += 2 {
		slots = append(slots, map[string]any{"slot_name": statuses[i], "status": statuses[i+1]})
	}
	return map[string]any{ReferenceKey: map[string]any{"slots": slots}}
}

func TestReferenceStates(t *testing.T) {
	meta := annotation(
		"Anchors", "CONFIRMED",
		"what", "confirmed",
		"When", "INCONSISTENT",
		"Why", "MISSING",
		"Bogus", "CONFIRMED",
	)

	states, ok := ReferenceStates(meta)
	require.True(t, ok)
	assert.Equal(t, model.StateOK, states.Get(model.SlotAnchor))
	assert.Equal(t, model.StateOK, states.Get(model.SlotWhat))
	assert.Equal(t, model.StateWeak, states.Get(model.SlotWhen))
	assert.Equal(t, model.StateAbsent, states.Get(model.SlotWhy))
	assert.Len(t, states, len(model.AllSlots()))
}

func TestReferenceStates_YAMLShape(t *testing.T) {
	meta := map[string]any{ReferenceKey: map[any]any{
		"slots": []any{map[any]any{"slot_name": "Constraints", "status": "CONFIRMED"}},
	}}

	states, ok := ReferenceStates(meta)
	require.True(t, ok)
	assert.Equal(t, model.StateOK, states.Get(model.SlotConstraints))
}

func TestReferenceStates_Missing(t *testing.T) {
	for _, meta := range []map[string]any{nil, {"ecu": "BMS"}, {ReferenceKey: "text"}, {ReferenceKey: map[string]any{}}} {
		_, ok := ReferenceStates(meta)
		assert.False(t, ok, "%v", meta)
	}
}

func TestEvaluator_Compare(t *testing.T) {
	rules, err := ruleset.Default()
	require.NoError(t, err)
	p := pipeline.New(rules, pipeline.Options{})

	inputs := []model.RequirementInput{
		{
			ReqID:   "R1",
			RawText: "The BMS shall stop charging within 200ms if voltage exceeds 4.2V to prevent overcharge.",
			Meta:    annotation("Anchor", "CONFIRMED", "What", "CONFIRMED", "Constraints", "CONFIRMED"),
		},
		{
			ReqID:   "R2",
			RawText: "To prevent collision, the system shall warn the driver.",
			Meta:    annotation("Anchors", "CONFIRMED", "What", "CONFIRMED", "When", "CONFIRMED", "Why", "CONFIRMED"),
		},
		{ReqID: "R3", RawText: "The pump shall start."},
	}
	var results []model.Result
	for _, in := range inputs {
		res, err := p.Classify(context.Background(), in)
		require.NoError(t, err)
		results = append(results, *res)
	}

	ev, err := NewEvaluator(rules).Compare(inputs, results)
	require.NoError(t, err)

	assert.Equal(t, 2, ev.Compared)
	assert.Equal(t, 1, ev.Matches)
	assert.Equal(t, 1, ev.Mismatches)
	assert.InDelta(t, 0.5, ev.Accuracy, 1e-9)
	assert.Equal(t, []string{"R3"}, ev.Skipped)

	require.Len(t, ev.Items, 2)
	match := ev.Items[0]
	assert.True(t, match.Match)
	assert.Equal(t, "T5_ConstraintCentric", match.RefType)
	assert.Empty(t, match.Diagnosis)

	miss := ev.Items[1]
	assert.False(t, miss.Match)
	assert.Equal(t, "T2_WhatCentric", miss.RuleType)
	assert.Equal(t, "T4_WhenCentric", miss.RefType)
	assert.Equal(t, []model.RationaleEntry{{Slot: model.SlotWhen, State: model.StateOK}}, miss.RefRationale)
	assert.Equal(t, []model.SlotDiff{{Slot: model.SlotWhen, Rule: model.StateAbsent, Ref: model.StateOK}}, miss.Diagnosis)
}

func TestEvaluator_MissingResult(t *testing.T) {
	inputs := []model.RequirementInput{{ReqID: "R1", Meta: annotation("What", "CONFIRMED")}}

	_, err := NewEvaluator(nil).Compare(inputs, nil)
	assert.Error(t, err)
}

func TestEvaluator_NothingCompared(t *testing.T) {
	ev, err := NewEvaluator(nil).Compare([]model.RequirementInput{{ReqID: "R1"}}, []model.Result{{ReqID: "R1"}})
	require.NoError(t, err)
	assert.Zero(t, ev.Compared)
	assert.Zero(t, ev.Accuracy)
	assert.Empty(t, ev.Items)
}
