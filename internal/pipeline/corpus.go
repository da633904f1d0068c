package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/mrsclass/internal/consistency"
	"github.com/ppiankov/mrsclass/internal/extract"
	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/worker"
	"go.uber.org/zap"
)

// CorpusOptions controls a corpus run
type CorpusOptions struct {
	Workers     int
	Vocabulary  model.VocabularyConfig
	Consistency bool   // Run cross-requirement checks
	Source      string // Recorded in the report
}

// CorpusOptionsFromModel derives corpus options from configuration
func CorpusOptionsFromModel(cfg *model.Config, source string) CorpusOptions {
	return CorpusOptions{
		Workers:     cfg.Concurrency.Workers,
		Vocabulary:  cfg.Vocabulary,
		Consistency: cfg.Output.IncludeIssues,
		Source:      source,
	}
}

// ClassifyCorpus classifies every input and assembles a report. The
// vocabulary is built from the whole corpus and frozen before any worker
// starts. Results keep input order.
func (p *Pipeline) ClassifyCorpus(ctx context.Context, inputs []model.RequirementInput, opts CorpusOptions) (*model.Report, error) {
	start := time.Now()

	runner := p
	if opts.Vocabulary.Enabled {
		vocab := extract.BuildVocabulary(inputs, opts.Vocabulary.MinCount, opts.Vocabulary.Terms, p.rules)
		runner = p.WithVocabulary(vocab)
		p.logger.Debug("vocabulary built", zap.Int("terms", vocab.Len()))
	}

	processor := worker.NewBatchProcessor(runner, opts.Workers, p.logger)
	classified := processor.Process(ctx, inputs)

	results := make([]model.Result, 0, len(classified))
	for _, c := range classified {
		if c.Error != nil {
			return nil, fmt.Errorf("classify %s: %w", c.ReqID, c.Error)
		}
		results = append(results, *c.Result)
	}

	var issues []model.Issue
	if opts.Consistency {
		issues = consistency.NewChecker().Check(results)
	}

	report := &model.Report{
		RunID:          uuid.NewString(),
		GeneratedAt:    time.Now().UTC(),
		RulesetVersion: p.rules.Version,
		Source:         opts.Source,
		Results:        results,
		Issues:         issues,
		Summary:        model.Summarize(results, issues),
	}
	if p.selector != nil {
		report.Selector = p.selector.Info(p.selModel)
	}

	p.logger.Info("corpus classified",
		zap.String("run_id", report.RunID),
		zap.Int("requirements", len(results)),
		zap.Int("issues", len(issues)),
		zap.Duration("elapsed", time.Since(start)))

	return report, nil
}
