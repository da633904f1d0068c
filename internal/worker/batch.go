package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/mrsclass/internal/model"
	"go.uber.org/zap"
)

// ErrNotExecuted marks inputs the pool never ran (the batch was cancelled)
var ErrNotExecuted = errors.New("not executed")

// Classifier classifies one requirement. Implementations must be safe for
// concurrent use.
type Classifier interface {
	Classify(ctx context.Context, input model.RequirementInput) (*model.Result, error)
}

// ClassifyJob classifies a single input
type ClassifyJob struct {
	Index      int
	Input      model.RequirementInput
	Classifier Classifier
}

// Execute executes the classification job
func (j *ClassifyJob) Execute(ctx context.Context) Result {
	result, err := j.Classifier.Classify(ctx, j.Input)
	return &ClassifyResult{
		Index:  j.Index,
		ReqID:  j.Input.ReqID,
		Result: result,
		Error:  err,
	}
}

// ClassifyResult is the outcome of one ClassifyJob
type ClassifyResult struct {
	Index  int
	ReqID  string
	Result *model.Result
	Error  error
}

// GetError returns the error from the classification
func (r *ClassifyResult) GetError() error {
	return r.Error
}

// BatchProcessor classifies a corpus concurrently
type BatchProcessor struct {
	classifier  Classifier
	concurrency int
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(classifier Classifier, concurrency int, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		classifier:  classifier,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Process classifies every input and returns one result per input, in input
// order, regardless of completion order.
func (b *BatchProcessor) Process(ctx context.Context, inputs []model.RequirementInput) []*ClassifyResult {
	out := make([]*ClassifyResult, len(inputs))
	if len(inputs) == 0 {
		return out
	}

	start := time.Now()
	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, in := range inputs {
		if !pool.Submit(&ClassifyJob{Index: i, Input: in, Classifier: b.classifier}) {
			break
		}
	}

	failed := 0
	for _, r := range pool.Wait() {
		cr := r.(*ClassifyResult)
		out[cr.Index] = cr
		if cr.Error != nil {
			failed++
		}
	}

	for i, r := range out {
		if r == nil {
			out[i] = &ClassifyResult{
				Index: i,
				ReqID: inputs[i].ReqID,
				Error: fmt.Errorf("%s: %w", inputs[i].ReqID, errors.Join(ErrNotExecuted, ctx.Err())),
			}
			failed++
		}
	}

	b.logger.Info("batch classified",
		zap.Int("inputs", len(inputs)),
		zap.Int("failed", failed),
		zap.Int("workers", b.concurrency),
		zap.Duration("elapsed", time.Since(start)))

	return out
}
