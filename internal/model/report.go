package model

import "time"

// Report is the corpus-level output of a classification run
type Report struct {
	RunID          string    `json:"run_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	RulesetVersion string    `json:"ruleset_version"`
	Source         string    `json:"source,omitempty"` // Input file(s) the corpus came from

	Results []Result `json:"results"`
	Issues  []Issue  `json:"issues,omitempty"` // Cross-requirement consistency findings

	Summary Summary `json:"summary"`

	Selector *SelectorInfo `json:"selector,omitempty"` // Present only when a span selector was configured

	Evaluation *Evaluation `json:"evaluation,omitempty"` // Present only for reference comparison runs
}

// Summary aggregates counts over all results
type Summary struct {
	Total       int                  `json:"total"`
	TypeCounts  map[string]int       `json:"type_counts"`
	LabelCounts map[MissingLabel]int `json:"label_counts"`
	IssueCounts map[string]int       `json:"issue_counts,omitempty"`
}

// Summarize computes the summary block from results and issues
func Summarize(results []Result, issues []Issue) Summary {
	s := Summary{
		Total:       len(results),
		TypeCounts:  make(map[string]int),
		LabelCounts: make(map[MissingLabel]int),
	}
	for _, r := range results {
		s.TypeCounts[r.MRSType]++
		for _, f := range r.MissingItems {
			s.LabelCounts[f.Label]++
		}
	}
	if len(issues) > 0 {
		s.IssueCounts = make(map[string]int)
		for _, issue := range issues {
			s.IssueCounts[issue.IssueType]++
		}
	}
	return s
}

// Issue is a consistency problem spanning one or more requirements
type Issue struct {
	RuleID    string   `json:"rule_id"`
	Kind      string   `json:"type"`
	IssueType string   `json:"issue_type"`
	ReqIDs    []string `json:"req_ids"`
	Details   string   `json:"details"`
}

// SelectorInfo documents the optional span selector used for a run.
// The selector only adjudicates candidates; it never invents slots.
type SelectorInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Calls    int64  `json:"calls"`
	Failures int64  `json:"failures"`
}
