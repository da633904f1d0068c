package model

// RequirementInput is the canonical ingestion shape. Adapters in the ingest
// package turn arbitrary files into this before anything else sees them.
type RequirementInput struct {
	ReqID   string         `json:"req_id" yaml:"req_id"`
	RawText string         `json:"raw_text" yaml:"raw_text"`
	Meta    map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// RequirementRecord is the working state of one classification call
type RequirementRecord struct {
	ID             string   `json:"id"`
	RawText        string   `json:"raw_text"`
	NormalizedText string   `json:"normalized_text"`
	Slots          SlotSet  `json:"slots"`
	Diagnostics    []string `json:"diagnostics,omitempty"`
}

// NewRequirementRecord creates a record with every slot ABSENT
func NewRequirementRecord(id, raw, normalized string) *RequirementRecord {
	return &RequirementRecord{
		ID:             id,
		RawText:        raw,
		NormalizedText: normalized,
		Slots:          NewSlotSet(),
	}
}

// Note appends a diagnostic line to the record
func (r *RequirementRecord) Note(msg string) {
	r.Diagnostics = append(r.Diagnostics, msg)
}

// Criterion is one conjunct of a type definition: slot state must be in StateIn
type Criterion struct {
	Slot    SlotName    `json:"slot" yaml:"slot"`
	StateIn []SlotState `json:"state_in" yaml:"state_in"`
}

// Accepts reports whether the state satisfies the criterion
func (c Criterion) Accepts(st SlotState) bool {
	for _, allowed := range c.StateIn {
		if allowed == st {
			return true
		}
	}
	return false
}

// TypeDefinition is one row of the MRS decision table
type TypeDefinition struct {
	Name string      `json:"name" yaml:"name"`
	All  []Criterion `json:"all" yaml:"all"`
}

// UnknownType is the terminal result when no type definition matches
const UnknownType = "Unknown"

// RationaleEntry is one slot=state pair that satisfied the winning type
type RationaleEntry struct {
	Slot  SlotName  `json:"slot"`
	State SlotState `json:"state"`
}

// TypeDecision is the output of type determination
type TypeDecision struct {
	Type      string           `json:"mrs_type"`
	Rationale []RationaleEntry `json:"type_rationale"`
	Note      string           `json:"type_note,omitempty"`
}

// Result is the per-requirement classification output
type Result struct {
	ReqID         string               `json:"req_id"`
	RawText       string               `json:"raw_text"`
	MRSType       string               `json:"mrs_type"`
	TypeRationale []RationaleEntry     `json:"type_rationale"`
	TypeNote      string               `json:"type_note,omitempty"`
	Slots         SlotSet              `json:"slots"`
	MissingItems  []MissingnessFinding `json:"missing_items"`
	Diagnostics   []string             `json:"diagnostics,omitempty"`
}
