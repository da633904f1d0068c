package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/ruleset"
)

const (
	metaTermWeight    = 10
	acronymTermWeight = 1
)

// Meta keys whose values name the component a requirement is about
var vocabularyMetaKeys = []string{"component", "ecu", "controller", "vehicle", "vehicle_models"}

var acronymPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,9}\b`)

// Uppercase tokens that are requirement jargon rather than component names.
// Modal verbs and connectives are routinely capitalised in RFC-style text.
var acronymStopwords = map[string]bool{
	"TBD": true, "TBC": true, "FTTI": true, "ASIL": true, "QM": true,
	"ID": true, "OK": true, "NA": true, "NG": true, "DTC": true,
	"SHALL": true, "MUST": true, "SHOULD": true, "WILL": true, "MAY": true,
	"CAN": true, "REQUIRED": true, "RECOMMENDED": true, "OPTIONAL": true,
	"NOT": true, "NO": true, "AND": true, "OR": true, "IF": true,
	"WHEN": true, "THEN": true, "ELSE": true, "WHILE": true, "UNLESS": true,
	"THE": true, "AN": true, "TO": true, "OF": true, "IN": true, "ON": true,
	"AT": true, "BY": true, "BE": true, "IS": true, "ARE": true, "ALL": true,
	"ANY": true, "NONE": true, "NOTE": true, "REQ": true,
}

// Vocabulary is a frozen set of domain nouns learned from a corpus. It is
// built once before classification starts and never mutated afterwards, so
// it can be shared by every worker.
type Vocabulary struct {
	terms   []string
	pattern *regexp.Regexp
}

// BuildVocabulary learns domain terms from a corpus. Component-like meta
// values weigh metaTermWeight, uppercase acronyms in the text weigh one per
// occurrence; terms scoring at least minCount are kept. Learned terms that a
// non-Anchor pattern of rules already claims are dropped. base terms are
// always included.
func BuildVocabulary(inputs []model.RequirementInput, minCount int, base []string, rules *ruleset.Ruleset) *Vocabulary {
	scores := make(map[string]int)

	for _, in := range inputs {
		for _, key := range vocabularyMetaKeys {
			for _, term := range metaStrings(in.Meta[key]) {
				scores[Normalize(term)] += metaTermWeight
			}
		}
		for _, acronym := range acronymPattern.FindAllString(in.RawText, -1) {
			if acronymStopwords[acronym] {
				continue
			}
			scores[Normalize(acronym)] += acronymTermWeight
		}
	}

	selected := make(map[string]bool)
	for term, score := range scores {
		if score >= minCount && validTerm(term) && !claimedByOtherSlot(rules, term) {
			selected[term] = true
		}
	}
	for _, raw := range base {
		if term := Normalize(raw); validTerm(term) {
			selected[term] = true
		}
	}

	return NewVocabulary(setToSlice(selected))
}

// NewVocabulary freezes an explicit term list. Terms are expected to be normalized.
func NewVocabulary(terms []string) *Vocabulary {
	v := &Vocabulary{terms: append([]string(nil), terms...)}

	// Longest first so alternation prefers "brake ecu" over "brake"
	sort.Slice(v.terms, func(i, j int) bool {
		if len(v.terms[i]) != len(v.terms[j]) {
			return len(v.terms[i]) > len(v.terms[j])
		}
		return v.terms[i] < v.terms[j]
	})

	if len(v.terms) == 0 {
		return v
	}

	alternatives := make([]string, len(v.terms))
	for i, term := range v.terms {
		alternatives[i] = boundedLiteral(term)
	}
	v.pattern = regexp.MustCompile(`(?:` + strings.Join(alternatives, "|") + `)`)
	return v
}

// Terms returns a copy of the learned terms
func (v *Vocabulary) Terms() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.terms...)
}

// Len returns the number of terms
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// Match returns every occurrence of a vocabulary term in normalized text
func (v *Vocabulary) Match(normalized string) []model.Candidate {
	if v == nil || v.pattern == nil {
		return nil
	}
	var out []model.Candidate
	for _, loc := range v.pattern.FindAllStringIndex(normalized, -1) {
		out = append(out, model.Candidate{
			Text:  normalized[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
		})
	}
	return out
}

func (v *Vocabulary) String() string {
	return fmt.Sprintf("vocabulary(%d terms)", v.Len())
}

// boundedLiteral quotes a term and adds \b on edges that are ASCII word
// characters. RE2 word boundaries are ASCII-only, so Hangul edges stay bare.
func boundedLiteral(term string) string {
	quoted := regexp.QuoteMeta(term)
	if isASCIIWord(term[0]) {
		quoted = `\b` + quoted
	}
	if isASCIIWord(term[len(term)-1]) {
		quoted += `\b`
	}
	return quoted
}

func isASCIIWord(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// validTerm drops empty and single-character Hangul/other terms, which are
// mostly noise. Single ASCII letters are allowed.
func validTerm(term string) bool {
	if term == "" {
		return false
	}
	if utf8.RuneCountInString(term) == 1 {
		return isASCIIWord(term[0]) && !(term[0] >= '0' && term[0] <= '9')
	}
	return strings.Trim(term, "0123456789") != ""
}

// claimedByOtherSlot reports whether a term is already evidence for a slot
// other than Anchor, e.g. "hil" for Verification or "tbd" for Constraints
func claimedByOtherSlot(rules *ruleset.Ruleset, term string) bool {
	if rules == nil {
		return false
	}
	for _, set := range []map[model.SlotName][]*regexp.Regexp{rules.Patterns, rules.Strong} {
		for slot, patterns := range set {
			if slot == model.SlotAnchor {
				continue
			}
			for _, re := range patterns {
				if re.MatchString(term) {
					return true
				}
			}
		}
	}
	return false
}

func metaStrings(value any) []string {
	switch v := value.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []string:
		var out []string
		for _, s := range v {
			out = append(out, metaStrings(s)...)
		}
		return out
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, metaStrings(item)...)
		}
		return out
	}
	return nil
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
