package extract

import (
	"sync"
	"testing"

	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/ruleset"
)

func TestBuildVocabulary_MetaAndAcronyms(t *testing.T) {
	inputs := []model.RequirementInput{
		{ReqID: "1", RawText: "The VCU shall request torque.", Meta: map[string]any{"component": "BrakeECU"}},
		{ReqID: "2", RawText: "The VCU shall limit torque. TBD TBD", Meta: map[string]any{"vehicle_models": []any{"NE1", " "}}},
		{ReqID: "3", RawText: "The OBC shall stop.", Meta: nil},
	}

	vocab := BuildVocabulary(inputs, 2, []string{"Gateway"}, nil)

	terms := make(map[string]bool)
	for _, term := range vocab.Terms() {
		terms[term] = true
	}

	for _, want := range []string{"brakeecu", "vcu", "ne1", "gateway"} {
		if !terms[want] {
			t.Errorf("Expected term %q in vocabulary %v", want, vocab.Terms())
		}
	}
	if terms["obc"] {
		t.Error("Expected single-occurrence acronym below min count to be dropped")
	}
	if terms["tbd"] {
		t.Error("Expected stopword acronym to be dropped")
	}
}

func TestBuildVocabulary_SkipsModalsAndKeywords(t *testing.T) {
	inputs := []model.RequirementInput{
		{ReqID: "1", RawText: "The output SHALL be disabled within 10 ms IF the VCU MUST NOT drive."},
		{ReqID: "2", RawText: "Power SHALL be removed AND the VCU SHALL NOT restart, verified by HIL."},
		{ReqID: "3", RawText: "The pump SHALL stop when TBD, verified by HIL."},
	}
	rules, err := ruleset.Default()
	if err != nil {
		t.Fatalf("default ruleset: %v", err)
	}

	vocab := BuildVocabulary(inputs, 2, nil, rules)

	terms := vocab.Terms()
	if len(terms) != 1 || terms[0] != "vcu" {
		t.Errorf("Expected only [vcu], got %v", terms)
	}
}

func TestBuildVocabulary_BaseTermsKept(t *testing.T) {
	rules, err := ruleset.Default()
	if err != nil {
		t.Fatalf("default ruleset: %v", err)
	}

	vocab := BuildVocabulary(nil, 2, []string{"HIL rig"}, rules)

	if vocab.Len() != 1 || vocab.Terms()[0] != "hil rig" {
		t.Errorf("Expected configured base term to survive, got %v", vocab.Terms())
	}
}

func TestBuildVocabulary_Empty(t *testing.T) {
	vocab := BuildVocabulary(nil, 2, nil, nil)
	if vocab.Len() != 0 {
		t.Errorf("Expected empty vocabulary, got %d terms", vocab.Len())
	}
	if got := vocab.Match("the ecu"); got != nil {
		t.Errorf("Expected no matches from empty vocabulary, got %v", got)
	}
}

func TestVocabulary_LongestTermWins(t *testing.T) {
	vocab := NewVocabulary([]string{"brake", "brake ecu"})
	got := vocab.Match("the brake ecu shall hold")

	if len(got) != 1 || got[0].Text != "brake ecu" {
		t.Errorf("Expected single 'brake ecu' match, got %v", got)
	}
}

func TestVocabulary_WordBoundaries(t *testing.T) {
	vocab := NewVocabulary([]string{"abs"})
	if got := vocab.Match("absolute pressure"); len(got) != 0 {
		t.Errorf("Expected no match inside a word, got %v", got)
	}
	if got := vocab.Match("the abs module"); len(got) != 1 {
		t.Errorf("Expected one match, got %v", got)
	}
}

func TestVocabulary_TermsIsCopy(t *testing.T) {
	vocab := NewVocabulary([]string{"ecu"})
	terms := vocab.Terms()
	terms[0] = "mutated"

	if vocab.Terms()[0] != "ecu" {
		t.Error("Expected Terms to return a copy")
	}
}

func TestVocabulary_ConcurrentMatch(t *testing.T) {
	vocab := NewVocabulary([]string{"vcu", "bms"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := vocab.Match("the vcu and the bms"); len(got) != 2 {
				t.Errorf("Expected 2 matches, got %d", len(got))
			}
		}()
	}
	wg.Wait()
}
