package model

import (
	"fmt"
	"strings"
)

// Expectation is how strongly a type expects a slot to be present
type Expectation string

const (
	ExpectMandatory   Expectation = "Mandatory"
	ExpectRecommended Expectation = "Recommended"
	ExpectOptional    Expectation = "Optional"
)

// ParseExpectation accepts the short codes M/R/O or the full words
func ParseExpectation(s string) (Expectation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MANDATORY":
		return ExpectMandatory, nil
	case "R", "RECOMMENDED":
		return ExpectRecommended, nil
	case "O", "OPTIONAL":
		return ExpectOptional, nil
	default:
		return "", fmt.Errorf("unknown expectation %q (want M, R or O)", s)
	}
}

// ExpectationMatrix maps type name to per-slot expectations
type ExpectationMatrix map[string]map[SlotName]Expectation

// MissingLabel classifies how much a missing slot matters
type MissingLabel string

const (
	LabelActionable  MissingLabel = "ActionableMissing"
	LabelPermissible MissingLabel = "PermissibleMissing"
	LabelDeferred    MissingLabel = "DeferredMissing"
	LabelNone        MissingLabel = "None"
)

// BaseLabel maps an expectation to its label before overrides
func BaseLabel(e Expectation) MissingLabel {
	switch e {
	case ExpectMandatory:
		return LabelActionable
	case ExpectRecommended:
		return LabelDeferred
	case ExpectOptional:
		return LabelPermissible
	default:
		return LabelNone
	}
}

// MissingnessFinding reports one expected slot that was not detected
type MissingnessFinding struct {
	Slot      SlotName     `json:"slot"`
	Label     MissingLabel `json:"label"`
	Rationale string       `json:"rationale"`
}
