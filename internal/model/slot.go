package model

import (
	"fmt"
	"strings"
)

// SlotName identifies one of the eight semantic roles a requirement may express
type SlotName string

const (
	SlotWhy                SlotName = "Why"
	SlotAnchor             SlotName = "Anchor"
	SlotWhat               SlotName = "What"
	SlotHowType            SlotName = "HowType"
	SlotWhen               SlotName = "When"
	SlotConstraints        SlotName = "Constraints"
	SlotVerification       SlotName = "Verification"
	SlotAcceptanceCriteria SlotName = "AcceptanceCriteria"
)

var allSlots = []SlotName{
	SlotWhy,
	SlotAnchor,
	SlotWhat,
	SlotHowType,
	SlotWhen,
	SlotConstraints,
	SlotVerification,
	SlotAcceptanceCriteria,
}

// AllSlots returns the slot names in canonical order.
// Every stage that iterates slots uses this order so output is stable.
func AllSlots() []SlotName {
	out := make([]SlotName, len(allSlots))
	copy(out, allSlots)
	return out
}

// ParseSlotName resolves a configured slot name. Matching is case-insensitive;
// anything outside the closed set is rejected.
func ParseSlotName(s string) (SlotName, error) {
	trimmed := strings.TrimSpace(s)
	for _, slot := range allSlots {
		if strings.EqualFold(string(slot), trimmed) {
			return slot, nil
		}
	}
	if strings.EqualFold(trimmed, "Anchors") {
		return SlotAnchor, nil
	}
	return "", fmt.Errorf("unknown slot name %q", s)
}

// Valid reports whether the name belongs to the closed slot set
func (s SlotName) Valid() bool {
	for _, slot := range allSlots {
		if slot == s {
			return true
		}
	}
	return false
}

// SlotState is the confidence with which a slot was detected.
// States are ordered: StateAbsent < StateWeak < StateOK.
type SlotState int

const (
	StateAbsent SlotState = iota
	StateWeak
	StateOK
)

func (s SlotState) String() string {
	switch s {
	case StateOK:
		return "OK"
	case StateWeak:
		return "WEAK"
	default:
		return "ABSENT"
	}
}

// ParseSlotState parses OK, WEAK or ABSENT (case-insensitive)
func ParseSlotState(s string) (SlotState, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OK":
		return StateOK, nil
	case "WEAK":
		return StateWeak, nil
	case "ABSENT":
		return StateAbsent, nil
	default:
		return StateAbsent, fmt.Errorf("unknown slot state %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler (used by JSON and YAML)
func (s SlotState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *SlotState) UnmarshalText(text []byte) error {
	parsed, err := ParseSlotState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Capped returns the lower of s and limit
func (s SlotState) Capped(limit SlotState) SlotState {
	if s > limit {
		return limit
	}
	return s
}

// Candidate is a literal span matched in the normalized text
type Candidate struct {
	Text  string `json:"text"`
	Start int    `json:"start"` // Byte offset into the normalized text
	End   int    `json:"end"`
}

// SlotResult holds everything known about one slot of one requirement
type SlotResult struct {
	Name       SlotName    `json:"name"`
	State      SlotState   `json:"state"`
	Candidates []Candidate `json:"candidates"`
	Selected   []string    `json:"selected,omitempty"` // Set only when a stage committed to a span
}

// Value returns the best literal for the slot: the committed selection if any,
// otherwise the first candidate. Empty when the slot has no evidence.
func (r SlotResult) Value() string {
	if len(r.Selected) > 0 {
		return strings.Join(r.Selected, ", ")
	}
	if len(r.Candidates) > 0 {
		return r.Candidates[0].Text
	}
	return ""
}

// SlotSet maps every slot name to its result
type SlotSet map[SlotName]*SlotResult

// NewSlotSet returns a set with every slot present and ABSENT
func NewSlotSet() SlotSet {
	set := make(SlotSet, len(allSlots))
	for _, slot := range allSlots {
		set[slot] = &SlotResult{Name: slot, State: StateAbsent, Candidates: []Candidate{}}
	}
	return set
}

// State returns the state for a slot, ABSENT when unknown
func (s SlotSet) State(name SlotName) SlotState {
	if r, ok := s[name]; ok && r != nil {
		return r.State
	}
	return StateAbsent
}

// States snapshots the state vector
func (s SlotSet) States() StateVector {
	vec := make(StateVector, len(allSlots))
	for _, slot := range allSlots {
		vec[slot] = s.State(slot)
	}
	return vec
}

// StateVector is the per-slot state snapshot consumed by type determination
// and missingness labeling
type StateVector map[SlotName]SlotState

// Get returns the state for a slot, ABSENT when missing from the vector
func (v StateVector) Get(name SlotName) SlotState {
	if st, ok := v[name]; ok {
		return st
	}
	return StateAbsent
}

// HierarchyRelation states that Subordinate is only meaningful when Superior is confirmed
type HierarchyRelation struct {
	Superior    SlotName `json:"superior" yaml:"superior"`
	Subordinate SlotName `json:"subordinate" yaml:"subordinate"`
}
