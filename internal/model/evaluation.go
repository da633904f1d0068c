package model

// Evaluation compares rule-based results against reference annotations
type Evaluation struct {
	Compared   int          `json:"compared"`
	Matches    int          `json:"matches"`
	Mismatches int          `json:"mismatches"`
	Skipped    []string     `json:"skipped,omitempty"` // Requirements without a reference annotation
	Accuracy   float64      `json:"accuracy"`          // Matches / Compared, 0 when nothing was compared
	Items      []Comparison `json:"items"`
}

// Comparison is the verdict for one requirement
type Comparison struct {
	ReqID         string           `json:"req_id"`
	RuleType      string           `json:"rule_type"`
	RefType       string           `json:"ref_type"`
	Match         bool             `json:"match"`
	RuleRationale []RationaleEntry `json:"rule_rationale"`
	RefRationale  []RationaleEntry `json:"ref_rationale"`
	RuleStates    StateVector      `json:"rule_states"`
	RefStates     StateVector      `json:"ref_states"`
	Diagnosis     []SlotDiff       `json:"diagnosis,omitempty"` // Only on mismatch
}

// SlotDiff is a slot whose rule state differs from the reference
type SlotDiff struct {
	Slot SlotName  `json:"slot"`
	Rule SlotState `json:"rule"`
	Ref  SlotState `json:"ref"`
}
