// Package ruleset loads the versioned pattern and decision tables that drive
// classification. Tables are data, not code: a ruleset can change without
// touching the engine, and an invalid one is rejected when it is loaded.
package ruleset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/mrsclass/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultRuleset []byte

// ErrInvalidRuleset is wrapped by every load-time validation failure
var ErrInvalidRuleset = errors.New("invalid ruleset")

// Document is the on-disk shape of a ruleset
type Document struct {
	Version         string                       `yaml:"version"`
	StructuralSlots []string                     `yaml:"structural_slots"`
	Patterns        map[string][]string          `yaml:"patterns"`
	StrongPatterns  map[string][]string          `yaml:"strong_patterns"`
	Hierarchy       []EdgeDocument               `yaml:"hierarchy"`
	Types           []TypeDocument               `yaml:"types"`
	Expectations    map[string]map[string]string `yaml:"expectations"`
}

// EdgeDocument is one hierarchy edge as written in YAML
type EdgeDocument struct {
	Superior    string `yaml:"superior"`
	Subordinate string `yaml:"subordinate"`
}

// TypeDocument is one decision-table row as written in YAML
type TypeDocument struct {
	Name string              `yaml:"name"`
	All  []CriterionDocument `yaml:"all"`
}

// CriterionDocument is one conjunct as written in YAML
type CriterionDocument struct {
	Slot    string   `yaml:"slot"`
	StateIn []string `yaml:"state_in"`
}

// Ruleset is a validated, compiled ruleset. It is immutable after Load and
// safe for concurrent use.
type Ruleset struct {
	Version      string
	Patterns     map[model.SlotName][]*regexp.Regexp
	Strong       map[model.SlotName][]*regexp.Regexp
	Structural   map[model.SlotName]bool
	Hierarchy    []model.HierarchyRelation
	Types        []model.TypeDefinition
	Expectations model.ExpectationMatrix

	doc Document
}

// Default returns the embedded ruleset
func Default() (*Ruleset, error) {
	rs, err := Parse(defaultRuleset)
	if err != nil {
		return nil, fmt.Errorf("embedded ruleset: %w", err)
	}
	return rs, nil
}

// DefaultYAML returns the raw embedded ruleset document
func DefaultYAML() []byte {
	out := make([]byte, len(defaultRuleset))
	copy(out, defaultRuleset)
	return out
}

// Load reads a ruleset from disk. An empty path selects the embedded default.
func Load(path string) (*Ruleset, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes and validates a ruleset document
func Parse(data []byte) (*Ruleset, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidRuleset, err)
	}
	return Compile(doc)
}

// Compile validates a decoded document. All problems are collected and
// reported together so a broken ruleset can be fixed in one pass.
func Compile(doc Document) (*Ruleset, error) {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	rs := &Ruleset{
		Version:      doc.Version,
		Patterns:     make(map[model.SlotName][]*regexp.Regexp),
		Strong:       make(map[model.SlotName][]*regexp.Regexp),
		Structural:   make(map[model.SlotName]bool),
		Expectations: make(model.ExpectationMatrix),
		doc:          doc,
	}

	if strings.TrimSpace(doc.Version) == "" {
		fail("version is required")
	}

	compileSet := func(section string, in map[string][]string, out map[model.SlotName][]*regexp.Regexp) {
		for _, key := range sortedKeys(in) {
			slot, err := model.ParseSlotName(key)
			if err != nil {
				fail("%s: %v", section, err)
				continue
			}
			for i, expr := range in[key] {
				re, err := regexp.Compile(expr)
				if err != nil {
					fail("%s.%s[%d]: %v", section, key, i, err)
					continue
				}
				out[slot] = append(out[slot], re)
			}
		}
	}
	compileSet("patterns", doc.Patterns, rs.Patterns)
	compileSet("strong_patterns", doc.StrongPatterns, rs.Strong)

	for _, name := range doc.StructuralSlots {
		slot, err := model.ParseSlotName(name)
		if err != nil {
			fail("structural_slots: %v", err)
			continue
		}
		rs.Structural[slot] = true
	}

	for i, edge := range doc.Hierarchy {
		sup, errSup := model.ParseSlotName(edge.Superior)
		sub, errSub := model.ParseSlotName(edge.Subordinate)
		if errSup != nil || errSub != nil {
			fail("hierarchy[%d]: %v", i, errors.Join(errSup, errSub))
			continue
		}
		if sup == sub {
			fail("hierarchy[%d]: %s cannot be its own superior", i, sup)
			continue
		}
		rs.Hierarchy = append(rs.Hierarchy, model.HierarchyRelation{Superior: sup, Subordinate: sub})
	}

	seen := make(map[string]bool)
	for i, td := range doc.Types {
		name := strings.TrimSpace(td.Name)
		switch {
		case name == "":
			fail("types[%d]: name is required", i)
			continue
		case name == model.UnknownType:
			fail("types[%d]: %q is reserved for the no-match result", i, name)
			continue
		case seen[name]:
			fail("types[%d]: duplicate type %q", i, name)
			continue
		case len(td.All) == 0:
			fail("types[%d] %s: at least one criterion is required", i, name)
			continue
		}
		seen[name] = true

		def := model.TypeDefinition{Name: name}
		for j, c := range td.All {
			slot, err := model.ParseSlotName(c.Slot)
			if err != nil {
				fail("types[%d].all[%d]: %v", i, j, err)
				continue
			}
			if len(c.StateIn) == 0 {
				fail("types[%d].all[%d]: state_in is empty", i, j)
				continue
			}
			crit := model.Criterion{Slot: slot}
			for _, s := range c.StateIn {
				st, err := model.ParseSlotState(s)
				if err != nil {
					fail("types[%d].all[%d]: %v", i, j, err)
					continue
				}
				crit.StateIn = append(crit.StateIn, st)
			}
			def.All = append(def.All, crit)
		}
		rs.Types = append(rs.Types, def)
	}

	for _, typeName := range sortedKeys(doc.Expectations) {
		if typeName != model.UnknownType && !seen[typeName] {
			fail("expectations: type %q is not defined in types", typeName)
			continue
		}
		row := make(map[model.SlotName]model.Expectation)
		for _, slotKey := range sortedKeys(doc.Expectations[typeName]) {
			slot, err := model.ParseSlotName(slotKey)
			if err != nil {
				fail("expectations.%s: %v", typeName, err)
				continue
			}
			exp, err := model.ParseExpectation(doc.Expectations[typeName][slotKey])
			if err != nil {
				fail("expectations.%s.%s: %v", typeName, slotKey, err)
				continue
			}
			row[slot] = exp
		}
		rs.Expectations[typeName] = row
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRuleset, strings.Join(problems, "; "))
	}
	return rs, nil
}

// IsStructural reports whether a slot needs a strong pattern to reach OK
func (r *Ruleset) IsStructural(slot model.SlotName) bool {
	if r == nil {
		return false
	}
	return r.Structural[slot]
}

// Empty reports whether the ruleset carries no decision data. The engine
// treats an empty ruleset as "classify nothing": every slot stays ABSENT.
func (r *Ruleset) Empty() bool {
	return r == nil || (len(r.Patterns) == 0 && len(r.Types) == 0)
}

// Document returns the source document the ruleset was compiled from
func (r *Ruleset) Document() Document {
	if r == nil {
		return Document{}
	}
	return r.doc
}

// ExpectationsFor returns the matrix row for a type, nil when the type has none
func (r *Ruleset) ExpectationsFor(typeName string) map[model.SlotName]model.Expectation {
	if r == nil {
		return nil
	}
	return r.Expectations[typeName]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
