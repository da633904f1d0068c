package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/mrsclass/internal/evaluate"
	"github.com/ppiankov/mrsclass/internal/ingest"
	"github.com/ppiankov/mrsclass/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	evalFormat         string
	evalJSON           string
	evalWorkers        int
	evalTimeout        time.Duration
	evalNoVocab        bool
	evalMismatchesOnly bool
	evalLLM            llmFlags
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file|url>...",
	Short: "Compare classifications with reference annotations",
	Long: `Evaluate classifies a corpus and compares each result with the
reference annotation carried in the requirement's meta.ir_record field:

  {"req_id": "R1", "raw_text": "...",
   "meta": {"ir_record": {"slots": [{"slot_name": "When", "status": "CONFIRMED"}]}}}

CONFIRMED slots count as OK, INCONSISTENT as WEAK, anything else as ABSENT.
The reference type comes from the same decision table as the engine, so a
mismatch lists the slots whose states disagree.

Example:
  mrs evaluate annotated.json
  mrs evaluate annotated.jsonl --mismatches-only --json eval.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evalFormat, "format", "", "force input format ("+strings.Join(ingest.NewRegistry(nil).Names(), ", ")+")")
	evaluateCmd.Flags().StringVar(&evalJSON, "json", "", `write the report with its comparison as JSON ("-" for stdout)`)
	evaluateCmd.Flags().BoolVar(&evalMismatchesOnly, "mismatches-only", false, "list only requirements that disagree with the reference")
	evaluateCmd.Flags().IntVar(&evalWorkers, "workers", 0, "number of concurrent workers (default from config)")
	evaluateCmd.Flags().DurationVar(&evalTimeout, "timeout", 30*time.Minute, "total timeout for evaluation")
	evaluateCmd.Flags().BoolVar(&evalNoVocab, "no-vocab", false, "do not learn a domain vocabulary from the corpus")

	evalLLM.register(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	evalLLM.apply(cmd, cfg)
	if evalWorkers > 0 {
		cfg.Concurrency.Workers = evalWorkers
	}
	if evalNoVocab {
		cfg.Vocabulary.Enabled = false
	}

	env, err := newEnvironment(cfg)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), evalTimeout)
	defer cancel()

	loader := ingest.NewLoader(ingest.NewRegistry(env.logger), evalFormat, env.logger).
		WithFetcher(ingest.NewFetcher(cfg.Fetch))
	inputs, err := loader.Load(ctx, args)
	if err != nil {
		return fmt.Errorf("load requirements: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no requirements found in %s", strings.Join(args, ", "))
	}

	report, err := env.pipeline.ClassifyCorpus(ctx, inputs, pipeline.CorpusOptionsFromModel(cfg, strings.Join(args, ", ")))
	if err != nil {
		return fmt.Errorf("classify corpus: %w", err)
	}
	ev, err := evaluate.NewEvaluator(env.pipeline.Rules()).Compare(inputs, report.Results)
	if err != nil {
		return fmt.Errorf("compare with reference: %w", err)
	}
	if ev.Compared == 0 {
		return fmt.Errorf("no reference annotations (meta.%s) found in %s", evaluate.ReferenceKey, strings.Join(args, ", "))
	}
	report.Evaluation = ev

	renderer := pipeline.NewRenderer(cmd.OutOrStdout(), cfg.Output.ShowWeak)
	if evalJSON != "" {
		if err := renderer.RenderJSON(report, evalJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if evalJSON == pipeline.StdoutPath {
			return nil
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", evalJSON)
	}
	renderer.RenderEvaluation(ev, evalMismatchesOnly)
	return nil
}
