// Package consistency finds problems that only show up across requirements:
// duplicated triggers, conflicting constraints and opposing actions.
package consistency

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/mrsclass/internal/model"
)

// Issue kinds
const (
	KindEngineHealth     = "EngineHealthIssue"
	KindCatalogIntegrity = "CatalogIntegrityIssue"
	KindWithinAnchor     = "WithinAnchorActionWhenIssue"
	KindConstraint       = "ConstraintConflictIssue"
	KindHowType          = "HowTypeMismatchIssue"
	KindCrossAnchor      = "CrossAnchorOverlapIssue"
)

var timeValue = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(ms|s)\b`)

// opposingActions are verb pairs that contradict each other under the same trigger
var opposingActions = [][2]string{
	{"open", "close"},
	{"start", "stop"},
	{"enable", "disable"},
	{"activate", "deactivate"},
	{"lock", "unlock"},
}

// profile is the slot values a check compares
type profile struct {
	reqID       string
	anchor      string
	what        string
	howType     string
	when        string
	constraints string
	whenState   model.SlotState
	hasWhy      bool
	hasAnchor   bool
}

func profileOf(r model.Result) profile {
	return profile{
		reqID:       r.ReqID,
		anchor:      slotValue(r.Slots, model.SlotAnchor),
		what:        slotValue(r.Slots, model.SlotWhat),
		howType:     slotValue(r.Slots, model.SlotHowType),
		when:        slotValue(r.Slots, model.SlotWhen),
		constraints: slotValue(r.Slots, model.SlotConstraints),
		whenState:   r.Slots.State(model.SlotWhen),
		hasWhy:      r.Slots.State(model.SlotWhy) != model.StateAbsent,
		hasAnchor:   r.Slots.State(model.SlotAnchor) != model.StateAbsent,
	}
}

func slotValue(slots model.SlotSet, name model.SlotName) string {
	r, ok := slots[name]
	if !ok || r == nil || r.State == model.StateAbsent {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(r.Value()))
}

// Checker runs the cross-requirement checks
type Checker struct{}

// NewChecker creates a checker
func NewChecker() *Checker {
	return &Checker{}
}

// Check returns every issue found in results. Order depends only on the
// order of results.
func (c *Checker) Check(results []model.Result) []model.Issue {
	profiles := make([]profile, len(results))
	for i, r := range results {
		profiles[i] = profileOf(r)
	}

	var issues []model.Issue
	issues = append(issues, checkStructure(profiles)...)
	issues = append(issues, checkWithinAnchorAction(profiles)...)
	issues = append(issues, checkCrossAnchor(profiles)...)
	return issues
}

// checkStructure runs the per-requirement checks. A WEAK When means trigger
// words were found but no condition could be structured; an ABSENT When is
// already reported as a missing slot.
func checkStructure(profiles []profile) []model.Issue {
	var issues []model.Issue
	for _, p := range profiles {
		if p.whenState == model.StateWeak {
			issues = append(issues, model.Issue{
				RuleID:    "S-01",
				Kind:      KindEngineHealth,
				IssueType: "condition_not_structured",
				ReqIDs:    []string{p.reqID},
				Details:   fmt.Sprintf("when condition %q is not structured", p.when),
			})
		}
		if p.hasWhy && !p.hasAnchor {
			issues = append(issues, model.Issue{
				RuleID:    "S-02",
				Kind:      KindCatalogIntegrity,
				IssueType: "why_without_anchor",
				ReqIDs:    []string{p.reqID},
				Details:   "rationale present but anchor is missing",
			})
		}
	}
	return issues
}

// checkWithinAnchorAction compares requirements that share an anchor and an action
func checkWithinAnchorAction(profiles []profile) []model.Issue {
	var order []string
	groups := make(map[string][]profile)
	for _, p := range profiles {
		if p.anchor == "" || p.what == "" {
			continue
		}
		key := p.anchor + "|" + p.what
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	var issues []model.Issue
	for _, key := range order {
		items := groups[key]
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				issues = append(issues, comparePair(items[i], items[j])...)
			}
		}
	}
	return issues
}

func comparePair(a, b profile) []model.Issue {
	var issues []model.Issue
	ids := []string{a.reqID, b.reqID}
	sameWhen := a.when != "" && a.when == b.when

	if sameWhen {
		issues = append(issues, model.Issue{
			RuleID:    "W-02",
			Kind:      KindWithinAnchor,
			IssueType: "duplicate_when",
			ReqIDs:    ids,
			Details:   fmt.Sprintf("duplicate condition %q", a.when),
		})

		if a.constraints != "" && b.constraints != "" && a.constraints != b.constraints {
			issues = append(issues, model.Issue{
				RuleID:    "C-01",
				Kind:      KindConstraint,
				IssueType: "incompatible_constraints",
				ReqIDs:    ids,
				Details:   fmt.Sprintf("constraint mismatch: %q vs %q", a.constraints, b.constraints),
			})
		}

		ta, okA := Milliseconds(a.constraints)
		tb, okB := Milliseconds(b.constraints)
		if okA && okB && ta != tb {
			issues = append(issues, model.Issue{
				RuleID:    "C-02",
				Kind:      KindConstraint,
				IssueType: "inconsistent_ftti",
				ReqIDs:    ids,
				Details:   fmt.Sprintf("FTTI mismatch: %sms vs %sms", formatMs(ta), formatMs(tb)),
			})
		}
	}

	if a.howType != "" && b.howType != "" && a.howType != b.howType {
		issues = append(issues, model.Issue{
			RuleID:    "H-01",
			Kind:      KindHowType,
			IssueType: "howtype_divergence",
			ReqIDs:    ids,
			Details:   fmt.Sprintf("action types differ: %q vs %q", a.howType, b.howType),
		})
	}
	return issues
}

func checkCrossAnchor(profiles []profile) []model.Issue {
	var issues []model.Issue
	for i := 0; i < len(profiles); i++ {
		for j := i + 1; j < len(profiles); j++ {
			a, b := profiles[i], profiles[j]
			if a.anchor == b.anchor {
				continue
			}
			ids := []string{a.reqID, b.reqID}

			if a.what != "" && a.what == b.what {
				issues = append(issues, model.Issue{
					RuleID:    "X-01",
					Kind:      KindCrossAnchor,
					IssueType: "duplication",
					ReqIDs:    ids,
					Details:   fmt.Sprintf("anchors %q and %q perform identical action %q", a.anchor, b.anchor, a.what),
				})
			}

			if a.when == "" || a.when != b.when {
				continue
			}
			if opposing(a.what, b.what) {
				issues = append(issues, model.Issue{
					RuleID:    "X-03",
					Kind:      KindCrossAnchor,
					IssueType: "potential_conflict",
					ReqIDs:    ids,
					Details:   fmt.Sprintf("%q does %q while %q does %q under %q", a.anchor, a.what, b.anchor, b.what, a.when),
				})
			}
		}
	}
	return issues
}

func opposing(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	for _, pair := range opposingActions {
		if containsAction(a, pair[0]) && containsAction(b, pair[1]) ||
			containsAction(a, pair[1]) && containsAction(b, pair[0]) {
			return true
		}
	}
	return false
}

// containsAction matches word prefixes, so "disable" never counts as "enable"
func containsAction(text, verb string) bool {
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '/' || r == '-'
	}) {
		if strings.HasPrefix(word, verb) {
			return true
		}
	}
	return false
}

// Milliseconds extracts the first time value in s, normalised to ms
func Milliseconds(s string) (float64, bool) {
	m := timeValue.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if m[2] == "s" {
		v *= 1000
	}
	return v, true
}

func formatMs(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
