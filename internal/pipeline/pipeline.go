// Package pipeline wires the classification stages together and renders
// their output.
package pipeline

import (
	"context"

	"github.com/ppiankov/mrsclass/internal/classify"
	"github.com/ppiankov/mrsclass/internal/extract"
	"github.com/ppiankov/mrsclass/internal/llm"
	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/ruleset"
	"github.com/ppiankov/mrsclass/internal/validate"
	"go.uber.org/zap"
)

// Options configures optional collaborators
type Options struct {
	// Selector adjudicates candidate spans; nil runs the lexical engine only
	Selector *llm.Selector

	// SelectorModel is reported alongside selector statistics
	SelectorModel string

	Logger *zap.Logger
}

// Pipeline orchestrates classification of a single requirement. It holds no
// mutable state and is safe for concurrent use.
type Pipeline struct {
	rules       *ruleset.Ruleset
	generator   *extract.CandidateGenerator
	promoter    *validate.StructuralPromoter
	corrector   *validate.RelationCorrector
	determiner  *classify.TypeDeterminer
	missingness *classify.MissingnessEngine
	selector    *llm.Selector // Optional (nil if disabled)
	selModel    string
	vocab       *extract.Vocabulary
	logger      *zap.Logger
}

// New creates a pipeline bound to rules. A nil ruleset is accepted and
// classifies everything as Unknown with every slot ABSENT.
func New(rules *ruleset.Ruleset, opts Options) *Pipeline {
	if rules == nil {
		rules = &ruleset.Ruleset{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		rules:       rules,
		generator:   extract.NewCandidateGenerator(rules),
		promoter:    validate.NewStructuralPromoter(rules),
		corrector:   validate.NewRelationCorrector(rules.Hierarchy),
		determiner:  classify.NewTypeDeterminer(rules.Types),
		missingness: classify.NewMissingnessEngine(rules.Expectations),
		selector:    opts.Selector,
		selModel:    opts.SelectorModel,
		logger:      logger,
	}
}

// WithVocabulary returns a copy of the pipeline that also matches vocab
// terms as Anchor candidates. The receiver is not modified.
func (p *Pipeline) WithVocabulary(vocab *extract.Vocabulary) *Pipeline {
	clone := *p
	clone.vocab = vocab
	return &clone
}

// Rules returns the ruleset the pipeline was built with
func (p *Pipeline) Rules() *ruleset.Ruleset {
	return p.rules
}

// Classify runs every stage on one requirement. The only error is context
// cancellation; selector failures are recorded as diagnostics instead.
func (p *Pipeline) Classify(ctx context.Context, input model.RequirementInput) (*model.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. Normalize
	normalized := extract.Normalize(input.RawText)
	record := model.NewRequirementRecord(input.ReqID, input.RawText, normalized)

	// 2. Lexical candidates
	record.Slots = p.generator.Generate(normalized, p.vocab)

	// 3. Structural promotion
	p.promoter.Promote(record)

	// 4. Span selection (optional, never required for a result)
	if p.selector != nil {
		p.selector.Refine(ctx, record)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	// 5. Hierarchy caps, after anything that may have changed states
	p.corrector.Correct(record)

	// 6. Type and missingness from the final state vector
	states := record.Slots.States()
	decision := p.determiner.Determine(states)
	findings := p.missingness.Evaluate(decision.Type, states)

	p.logger.Debug("classified",
		zap.String("req_id", record.ID),
		zap.String("type", decision.Type),
		zap.Int("missing", len(findings)))

	return &model.Result{
		ReqID:         record.ID,
		RawText:       record.RawText,
		MRSType:       decision.Type,
		TypeRationale: decision.Rationale,
		TypeNote:      decision.Note,
		Slots:         record.Slots,
		MissingItems:  findings,
		Diagnostics:   record.Diagnostics,
	}, nil
}
