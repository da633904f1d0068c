package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/ppiankov/mrsclass/internal/model"
)

// StdoutPath writes a rendered report to the renderer's output stream
const StdoutPath = "-"

const maxCellWidth = 48

// Renderer renders reports as JSON, Markdown and terminal tables
type Renderer struct {
	out      io.Writer
	showWeak bool
}

// NewRenderer creates a renderer writing terminal output to out. showWeak
// adds WEAK slots to the tables, marked with "?".
func NewRenderer(out io.Writer, showWeak bool) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out, showWeak: showWeak}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return r.write(path, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return r.write(path, []byte(r.Markdown(report)))
}

// RenderSummary prints the terminal summary
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Fprint(r.out, r.Summary(report))
}

func (r *Renderer) write(path string, data []byte) error {
	if path == StdoutPath {
		_, err := r.out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Summary renders per-requirement rows and type counts as terminal tables
func (r *Renderer) Summary(report *model.Report) string {
	var b strings.Builder

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Req ID", "Type", "Anchor", "What", "When", "Constraints", "Missing"})
	for _, res := range report.Results {
		tw.AppendRow(table.Row{
			res.ReqID,
			res.MRSType,
			r.cell(res.Slots, model.SlotAnchor),
			r.cell(res.Slots, model.SlotWhat),
			r.cell(res.Slots, model.SlotWhen),
			r.cell(res.Slots, model.SlotConstraints),
			missingCell(res.MissingItems),
		})
	}
	tw.SetColumnConfigs(columnConfigs(7))
	b.WriteString(tw.Render())
	b.WriteString("\n\n")

	counts := table.NewWriter()
	counts.SetStyle(table.StyleLight)
	counts.AppendHeader(table.Row{"Type", "Count"})
	for _, name := range sortedCountKeys(report.Summary.TypeCounts) {
		counts.AppendRow(table.Row{name, report.Summary.TypeCounts[name]})
	}
	counts.AppendFooter(table.Row{"Total", report.Summary.Total})
	counts.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	b.WriteString(counts.Render())
	b.WriteString("\n")

	if len(report.Issues) > 0 {
		fmt.Fprintf(&b, "\n%d consistency issue(s):\n", len(report.Issues))
		for _, issue := range report.Issues {
			fmt.Fprintf(&b, "  [%s] %s %s: %s\n", issue.RuleID, issue.IssueType, strings.Join(issue.ReqIDs, ", "), issue.Details)
		}
	}
	if report.Selector != nil {
		fmt.Fprintf(&b, "\nselector: %s %s (%d calls, %d failures)\n",
			report.Selector.Provider, report.Selector.Model, report.Selector.Calls, report.Selector.Failures)
	}
	return b.String()
}

// Markdown renders the full report
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	b.WriteString("# MRS Classification Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Ruleset: %s\n", report.RulesetVersion)
	if report.Source != "" {
		fmt.Fprintf(&b, "- Source: %s\n", report.Source)
	}
	if report.Selector != nil {
		fmt.Fprintf(&b, "- Selector: %s %s (%d calls, %d failures)\n",
			report.Selector.Provider, report.Selector.Model, report.Selector.Calls, report.Selector.Failures)
	}
	b.WriteString("\n## Summary\n\n")

	counts := table.NewWriter()
	counts.AppendHeader(table.Row{"Type", "Count"})
	for _, name := range sortedCountKeys(report.Summary.TypeCounts) {
		counts.AppendRow(table.Row{name, report.Summary.TypeCounts[name]})
	}
	b.WriteString(counts.RenderMarkdown())
	b.WriteString("\n\n")

	if len(report.Summary.LabelCounts) > 0 {
		labels := table.NewWriter()
		labels.AppendHeader(table.Row{"Missing label", "Count"})
		for _, label := range []model.MissingLabel{model.LabelActionable, model.LabelDeferred, model.LabelPermissible, model.LabelNone} {
			if n := report.Summary.LabelCounts[label]; n > 0 {
				labels.AppendRow(table.Row{string(label), n})
			}
		}
		b.WriteString(labels.RenderMarkdown())
		b.WriteString("\n\n")
	}

	b.WriteString("## Requirements\n\n")
	for _, res := range report.Results {
		fmt.Fprintf(&b, "### %s: %s\n\n", res.ReqID, res.MRSType)
		fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(res.RawText, "\n", " "))
		if len(res.TypeRationale) > 0 {
			parts := make([]string, len(res.TypeRationale))
			for i, e := range res.TypeRationale {
				parts[i] = fmt.Sprintf("%s=%s", e.Slot, e.State)
			}
			fmt.Fprintf(&b, "Rationale: %s\n\n", strings.Join(parts, ", "))
		} else if res.TypeNote != "" {
			fmt.Fprintf(&b, "Rationale: %s\n\n", res.TypeNote)
		}

		slots := table.NewWriter()
		slots.AppendHeader(table.Row{"Slot", "State", "Value"})
		for _, name := range model.AllSlots() {
			slot := res.Slots[name]
			if slot == nil || slot.State == model.StateAbsent {
				continue
			}
			slots.AppendRow(table.Row{string(name), slot.State.String(), mdEscape(slot.Value())})
		}
		b.WriteString(slots.RenderMarkdown())
		b.WriteString("\n\n")

		if len(res.MissingItems) > 0 {
			b.WriteString("Missing:\n\n")
			for _, f := range res.MissingItems {
				fmt.Fprintf(&b, "- **%s** %s (%s)\n", f.Slot, f.Label, f.Rationale)
			}
			b.WriteString("\n")
		}
		if len(res.Diagnostics) > 0 {
			b.WriteString("<details><summary>Diagnostics</summary>\n\n")
			for _, d := range res.Diagnostics {
				fmt.Fprintf(&b, "- %s\n", d)
			}
			b.WriteString("\n</details>\n\n")
		}
	}

	if report.Evaluation != nil {
		b.WriteString("## Reference Comparison\n\n")
		fmt.Fprintf(&b, "%s\n\n", accuracyLine(report.Evaluation))
		if rows := mismatchRows(report.Evaluation); len(rows) > 0 {
			mt := table.NewWriter()
			mt.AppendHeader(table.Row{"Req ID", "Rule", "Reference", "Diagnosis"})
			mt.AppendRows(rows)
			b.WriteString(mt.RenderMarkdown())
			b.WriteString("\n\n")
		}
	}

	if len(report.Issues) > 0 {
		b.WriteString("## Consistency Issues\n\n")
		issues := table.NewWriter()
		issues.AppendHeader(table.Row{"Rule", "Issue", "Requirements", "Details"})
		for _, issue := range report.Issues {
			issues.AppendRow(table.Row{issue.RuleID, issue.IssueType, strings.Join(issue.ReqIDs, ", "), mdEscape(issue.Details)})
		}
		b.WriteString(issues.RenderMarkdown())
		b.WriteString("\n")
	}

	return b.String()
}

// RenderEvaluation prints the rule-vs-reference table. mismatchesOnly
// hides agreeing rows; the accuracy line is always printed.
func (r *Renderer) RenderEvaluation(ev *model.Evaluation, mismatchesOnly bool) {
	fmt.Fprint(r.out, r.Evaluation(ev, mismatchesOnly))
}

// Evaluation renders a reference comparison as a terminal table
func (r *Renderer) Evaluation(ev *model.Evaluation, mismatchesOnly bool) string {
	if ev == nil {
		return ""
	}
	var b strings.Builder

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Req ID", "Rule", "Reference", "Verdict", "Diagnosis"})
	for _, item := range ev.Items {
		if item.Match && mismatchesOnly {
			continue
		}
		verdict := "MATCH"
		if !item.Match {
			verdict = "MISMATCH"
		}
		tw.AppendRow(table.Row{item.ReqID, item.RuleType, item.RefType, verdict, diagnosisCell(item.Diagnosis)})
	}
	tw.SetColumnConfigs(columnConfigs(5))
	b.WriteString(tw.Render())
	b.WriteString("\n\n")
	b.WriteString(accuracyLine(ev))
	b.WriteString("\n")
	if len(ev.Skipped) > 0 {
		fmt.Fprintf(&b, "%d requirement(s) without reference: %s\n", len(ev.Skipped), strings.Join(ev.Skipped, ", "))
	}
	return b.String()
}

func accuracyLine(ev *model.Evaluation) string {
	return fmt.Sprintf("Accuracy: %.1f%% (%d/%d match, %d mismatch)",
		ev.Accuracy*100, ev.Matches, ev.Compared, ev.Mismatches)
}

func mismatchRows(ev *model.Evaluation) []table.Row {
	var rows []table.Row
	for _, item := range ev.Items {
		if !item.Match {
			rows = append(rows, table.Row{item.ReqID, item.RuleType, item.RefType, diagnosisCell(item.Diagnosis)})
		}
	}
	return rows
}

func diagnosisCell(diffs []model.SlotDiff) string {
	if len(diffs) == 0 {
		return "-"
	}
	parts := make([]string, len(diffs))
	for i, d := range diffs {
		parts[i] = fmt.Sprintf("%s: Rule=%s vs Ref=%s", d.Slot, d.Rule, d.Ref)
	}
	return strings.Join(parts, "; ")
}

// cell shows OK slot values; WEAK ones only when showWeak is set
func (r *Renderer) cell(slots model.SlotSet, name model.SlotName) string {
	slot := slots[name]
	if slot == nil {
		return "-"
	}
	switch {
	case slot.State == model.StateOK:
		return truncate(slot.Value())
	case slot.State == model.StateWeak && r.showWeak:
		return truncate(slot.Value()) + " ?"
	default:
		return "-"
	}
}

func missingCell(findings []model.MissingnessFinding) string {
	var actionable []string
	for _, f := range findings {
		if f.Label == model.LabelActionable {
			actionable = append(actionable, string(f.Slot))
		}
	}
	if len(actionable) == 0 {
		return "-"
	}
	return strings.Join(actionable, ", ")
}

func columnConfigs(n int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, n)
	for i := 1; i <= n; i++ {
		configs = append(configs, table.ColumnConfig{
			Number:      i,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
			WidthMax:    maxCellWidth,
		})
	}
	return configs
}

func truncate(s string) string {
	if s == "" {
		return "-"
	}
	runes := []rune(s)
	if len(runes) <= maxCellWidth {
		return s
	}
	return string(runes[:maxCellWidth-1]) + "…"
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", "/")
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
