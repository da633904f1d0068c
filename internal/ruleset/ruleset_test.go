package ruleset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/mrsclass/internal/model"
)

func TestDefault_Loads(t *testing.T) {
	rs, err := Default()
	if err != nil {
		t.Fatalf("Expected embedded ruleset to load, got %v", err)
	}

	if rs.Version == "" {
		t.Error("Expected ruleset version to be set")
	}

	for _, slot := range model.AllSlots() {
		if len(rs.Patterns[slot]) == 0 {
			t.Errorf("Expected lexical patterns for slot %s", slot)
		}
	}

	for _, slot := range []model.SlotName{model.SlotConstraints, model.SlotWhen, model.SlotVerification, model.SlotAcceptanceCriteria} {
		if !rs.IsStructural(slot) {
			t.Errorf("Expected %s to be structural", slot)
		}
		if len(rs.Strong[slot]) == 0 {
			t.Errorf("Expected strong patterns for structural slot %s", slot)
		}
	}

	if rs.IsStructural(model.SlotAnchor) {
		t.Error("Expected Anchor not to be structural")
	}
}

func TestDefault_TypePriority(t *testing.T) {
	rs, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"T6_VerificationCentric",
		"T5_ConstraintCentric",
		"T4_WhenCentric",
		"T3_HowTypeCentric",
		"T2_WhatCentric",
		"T1_WhyCentric",
	}
	if len(rs.Types) != len(want) {
		t.Fatalf("Expected %d types, got %d", len(want), len(rs.Types))
	}
	for i, name := range want {
		if rs.Types[i].Name != name {
			t.Errorf("Type %d: expected %s, got %s", i, name, rs.Types[i].Name)
		}
	}
}

func TestDefault_Hierarchy(t *testing.T) {
	rs, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	want := []model.HierarchyRelation{
		{Superior: model.SlotAnchor, Subordinate: model.SlotWhat},
		{Superior: model.SlotWhat, Subordinate: model.SlotWhen},
		{Superior: model.SlotWhat, Subordinate: model.SlotConstraints},
		{Superior: model.SlotWhat, Subordinate: model.SlotHowType},
	}
	if len(rs.Hierarchy) != len(want) {
		t.Fatalf("Expected %d edges, got %d", len(want), len(rs.Hierarchy))
	}
	for i := range want {
		if rs.Hierarchy[i] != want[i] {
			t.Errorf("Edge %d: expected %+v, got %+v", i, want[i], rs.Hierarchy[i])
		}
	}
}

func TestDefault_ExpectationsCoverEveryType(t *testing.T) {
	rs, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	names := []string{model.UnknownType}
	for _, td := range rs.Types {
		names = append(names, td.Name)
	}
	for _, name := range names {
		row := rs.ExpectationsFor(name)
		if len(row) != len(model.AllSlots()) {
			t.Errorf("Expected full expectation row for %s, got %d entries", name, len(row))
		}
	}

	if got := rs.ExpectationsFor("T5_ConstraintCentric")[model.SlotConstraints]; got != model.ExpectMandatory {
		t.Errorf("Expected T5 Constraints to be Mandatory, got %s", got)
	}
}

func TestDefault_PatternsMatch(t *testing.T) {
	rs, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		slot   model.SlotName
		strong bool
		text   string
		want   bool
	}{
		{"english anchor", model.SlotAnchor, false, "the bms shall open the relay", true},
		{"korean anchor", model.SlotAnchor, false, "배터리 제어기는 충전을 중단해야 한다", true},
		{"modal what", model.SlotWhat, false, "the system shall warn the driver", true},
		{"timing constraint", model.SlotConstraints, true, "within 200ms", true},
		{"decimal voltage", model.SlotConstraints, true, "exceeds 4.2v", true},
		{"bare word not a unit", model.SlotConstraints, true, "5 sensors", false},
		{"comparison trigger", model.SlotWhen, true, "if voltage exceeds 4.2v", true},
		{"comma trigger", model.SlotWhen, true, "when ignition is on, the ecu shall", true},
		{"lexical trigger only", model.SlotWhen, true, "if needed", false},
		{"verified by", model.SlotVerification, true, "verified by hil test", true},
		{"warn is not a mechanism", model.SlotHowType, false, "the system shall warn the driver", false},
		{"pass criteria", model.SlotAcceptanceCriteria, true, "pass criteria: error < 1%", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := rs.Patterns[tt.slot]
			if tt.strong {
				set = rs.Strong[tt.slot]
			}
			got := false
			for _, re := range set {
				if re.MatchString(tt.text) {
					got = true
					break
				}
			}
			if got != tt.want {
				t.Errorf("%s on %q: expected match=%v, got %v", tt.slot, tt.text, tt.want, got)
			}
		})
	}
}

func TestParse_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name:    "missing version",
			doc:     "types: []\n",
			wantMsg: "version is required",
		},
		{
			name:    "unknown slot in patterns",
			doc:     "version: x\npatterns:\n  Because: ['x']\n",
			wantMsg: "unknown slot name",
		},
		{
			name:    "bad regex",
			doc:     "version: x\npatterns:\n  Why: ['(unclosed']\n",
			wantMsg: "patterns.Why[0]",
		},
		{
			name:    "unknown state",
			doc:     "version: x\ntypes:\n  - name: T\n    all: [{slot: Why, state_in: [MAYBE]}]\n",
			wantMsg: "unknown slot state",
		},
		{
			name:    "duplicate type",
			doc:     "version: x\ntypes:\n  - name: T\n    all: [{slot: Why, state_in: [OK]}]\n  - name: T\n    all: [{slot: What, state_in: [OK]}]\n",
			wantMsg: "duplicate type",
		},
		{
			name:    "reserved type name",
			doc:     "version: x\ntypes:\n  - name: Unknown\n    all: [{slot: Why, state_in: [OK]}]\n",
			wantMsg: "reserved",
		},
		{
			name:    "self edge",
			doc:     "version: x\nhierarchy:\n  - {superior: What, subordinate: What}\n",
			wantMsg: "own superior",
		},
		{
			name:    "unknown expectation code",
			doc:     "version: x\nexpectations:\n  Unknown: {Why: X}\n",
			wantMsg: "unknown expectation",
		},
		{
			name:    "expectations for undefined type",
			doc:     "version: x\nexpectations:\n  T9: {Why: M}\n",
			wantMsg: "not defined",
		},
		{
			name:    "not yaml",
			doc:     "version: [\n",
			wantMsg: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidRuleset) {
				t.Errorf("Expected ErrInvalidRuleset, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error to mention %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestParse_CollectsAllProblems(t *testing.T) {
	doc := "patterns:\n  Because: ['x']\n  Why: ['(']\n"
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("Expected error")
	}
	for _, want := range []string{"version is required", "Because", "patterns.Why[0]"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to contain %q, got %v", want, err)
		}
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	doc := `version: "test-1"
patterns:
  anchors: ['\bpump\b']
types:
  - name: OnlyAnchor
    all: [{slot: anchor, state_in: [ok, weak]}]
expectations:
  OnlyAnchor: {Anchor: Mandatory}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := Load(path)
	if err != nil {
		t.Fatalf("Expected ruleset to load, got %v", err)
	}

	if rs.Version != "test-1" {
		t.Errorf("Expected version test-1, got %s", rs.Version)
	}
	if len(rs.Patterns[model.SlotAnchor]) != 1 {
		t.Errorf("Expected 'anchors' alias to resolve to Anchor")
	}
	crit := rs.Types[0].All[0]
	if !crit.Accepts(model.StateWeak) || crit.Accepts(model.StateAbsent) {
		t.Errorf("Expected criterion to accept OK and WEAK only, got %v", crit.StateIn)
	}
	if rs.Empty() {
		t.Error("Expected ruleset not to be empty")
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	rs, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(rs.Types) == 0 {
		t.Error("Expected default types")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if errors.Is(err, ErrInvalidRuleset) {
		t.Error("Expected read error, not a validation error")
	}
}

func TestEmpty(t *testing.T) {
	var nilSet *Ruleset
	if !nilSet.Empty() {
		t.Error("Expected nil ruleset to be empty")
	}
	if nilSet.IsStructural(model.SlotWhen) {
		t.Error("Expected nil ruleset to have no structural slots")
	}

	rs, err := Parse([]byte("version: bare\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !rs.Empty() {
		t.Error("Expected ruleset without patterns or types to be empty")
	}
}
