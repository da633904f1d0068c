package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/mrsclass/internal/ingest"
	"github.com/ppiankov/mrsclass/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	batchFormat   string
	batchJSON     string
	batchMD       string
	batchWorkers  int
	batchTimeout  time.Duration
	batchNoVocab  bool
	batchNoIssues bool
	batchShowWeak bool
	batchQuiet    bool
	batchLLM      llmFlags
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file|url>...",
	Short: "Classify a corpus of requirements in parallel",
	Long: `Batch reads requirements from one or more files or http(s) URLs,
classifies them concurrently and writes a corpus report.

Supported inputs (picked by extension, or --format):
  .json    list of {req_id, raw_text, meta} or {"requirements": [...]}
  .jsonl   one JSON object per line
  .csv     header row with req_id/id and raw_text/text columns
  .yaml    same shapes as JSON
  .html    table rows or paragraphs
  other    plain text, one requirement per line ("-" reads stdin)

Example:
  mrs batch requirements.json
  mrs batch reqs.csv more.jsonl --json report.json --md report.md
  mrs batch export.html --workers 16 --llm-provider openai`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Input/output flags
	batchCmd.Flags().StringVar(&batchFormat, "format", "", "force input format ("+strings.Join(ingest.NewRegistry(nil).Names(), ", ")+")")
	batchCmd.Flags().StringVar(&batchJSON, "json", "mrs-report.json", `output JSON path ("-" for stdout, "" to skip)`)
	batchCmd.Flags().StringVar(&batchMD, "md", "", "output Markdown path (optional)")
	batchCmd.Flags().BoolVar(&batchShowWeak, "show-weak", false, "show WEAK slot values in the summary table")
	batchCmd.Flags().BoolVarP(&batchQuiet, "quiet", "q", false, "do not print the summary table")

	// Processing flags
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchNoVocab, "no-vocab", false, "do not learn a domain vocabulary from the corpus")
	batchCmd.Flags().BoolVar(&batchNoIssues, "no-issues", false, "skip cross-requirement consistency checks")

	batchLLM.register(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batchLLM.apply(cmd, cfg)
	if batchWorkers > 0 {
		cfg.Concurrency.Workers = batchWorkers
	}
	if batchNoVocab {
		cfg.Vocabulary.Enabled = false
	}
	if batchNoIssues {
		cfg.Output.IncludeIssues = false
	}
	if batchShowWeak {
		cfg.Output.ShowWeak = true
	}

	env, err := newEnvironment(cfg)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	loader := ingest.NewLoader(ingest.NewRegistry(env.logger), batchFormat, env.logger).
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

	renderer := pipeline.NewRenderer(cmd.OutOrStdout(), cfg.Output.ShowWeak)
	if batchJSON != "" {
		if err := renderer.RenderJSON(report, batchJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if batchJSON != pipeline.StdoutPath {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", batchJSON)
		}
	}
	if batchMD != "" {
		if err := renderer.RenderMarkdown(report, batchMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if batchMD != pipeline.StdoutPath {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", batchMD)
		}
	}

	// Keep stdout clean when a report is streamed to it
	if !batchQuiet && batchJSON != pipeline.StdoutPath && batchMD != pipeline.StdoutPath {
		renderer.RenderSummary(report)
	}
	return nil
}
