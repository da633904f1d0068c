package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/spf13/cobra"
)

var (
	classifyID      string
	classifyJSON    bool
	classifyTimeout time.Duration
	classifyLLM     llmFlags
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <requirement text>",
	Short: "Classify a single requirement",
	Long: `Classify one requirement given on the command line (or "-" to read stdin)
and print its MRS type, slot states and missing-slot findings.

Example:
  mrs classify "The BMS shall stop charging within 200ms if voltage exceeds 4.2V."
  echo "The system shall warn the driver." | mrs classify -
  mrs classify --json --llm-provider ollama --llm-model llama3 "..."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(&classifyID, "id", "REQ-0001", "requirement ID to report")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "print the result as JSON")
	classifyCmd.Flags().DurationVar(&classifyTimeout, "timeout", time.Minute, "overall timeout")
	classifyLLM.register(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	classifyLLM.apply(cmd, cfg)

	env, err := newEnvironment(cfg)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), classifyTimeout)
	defer cancel()

	result, err := env.pipeline.Classify(ctx, model.RequirementInput{ReqID: classifyID, RawText: text})
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	out := cmd.OutOrStdout()
	if classifyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(out, result, cfg.Output.Verbose)
	return nil
}

func printResult(w io.Writer, res *model.Result, verbose bool) {
	fmt.Fprintf(w, "%s: %s\n", res.ReqID, res.MRSType)
	if len(res.TypeRationale) > 0 {
		parts := make([]string, len(res.TypeRationale))
		for i, e := range res.TypeRationale {
			parts[i] = fmt.Sprintf("%s=%s", e.Slot, e.State)
		}
		fmt.Fprintf(w, "  rationale: %s\n", strings.Join(parts, ", "))
	} else if res.TypeNote != "" {
		fmt.Fprintf(w, "  rationale: %s\n", res.TypeNote)
	}

	fmt.Fprintln(w)
	for _, name := range model.AllSlots() {
		slot := res.Slots[name]
		if slot == nil {
			continue
		}
		value := ""
		if slot.State != model.StateAbsent {
			value = slot.Value()
		}
		fmt.Fprintf(w, "  %-19s %-6s %s\n", name, slot.State, value)
	}

	if len(res.MissingItems) > 0 {
		fmt.Fprintln(w)
		for _, f := range res.MissingItems {
			fmt.Fprintf(w, "  missing %-19s %s\n", f.Slot, f.Label)
			if verbose {
				fmt.Fprintf(w, "          %s\n", f.Rationale)
			}
		}
	}

	if verbose && len(res.Diagnostics) > 0 {
		fmt.Fprintln(w)
		for _, d := range res.Diagnostics {
			fmt.Fprintf(w, "  # %s\n", d)
		}
	}
}
