package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ppiankov/mrsclass/internal/cache"
	"github.com/ppiankov/mrsclass/internal/model"
	"github.com/ppiankov/mrsclass/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// retryBackoff is the pause before the single retry; tests set it to zero
var retryBackoff = 250 * time.Millisecond

// SelectorOptions bounds how a Selector uses its provider
type SelectorOptions struct {
	Timeout     time.Duration // Per attempt
	Retries     int           // Capped at 1
	Concurrency int64         // Concurrent in-flight calls
	RateLimit   float64       // Requests per second, <= 0 unlimited
	CacheTTL    time.Duration
	Model       string // Sent with every request and part of the cache key
}

// SelectorOptionsFromModel derives options from configuration
func SelectorOptionsFromModel(c model.LLMConfig, cacheTTL time.Duration) SelectorOptions {
	return SelectorOptions{
		Timeout:     c.Timeout,
		Retries:     c.Retries,
		Concurrency: int64(c.Concurrency),
		RateLimit:   c.RateLimit,
		CacheTTL:    cacheTTL,
		Model:       c.Model,
	}
}

// Selector wraps a Provider with the guarantees the pipeline relies on:
// bounded time, bounded concurrency, at most one retry, and no failure ever
// escaping to the caller.
type Selector struct {
	provider Provider
	opts     SelectorOptions
	sem      *semaphore.Weighted
	limiter  *worker.Limiter
	cache    cache.Cache
	logger   *zap.Logger

	calls    atomic.Int64
	failures atomic.Int64
}

// NewSelector creates a selector. c may be nil to disable caching.
func NewSelector(provider Provider, opts SelectorOptions, c cache.Cache, logger *zap.Logger) *Selector {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Retries > 1 {
		opts.Retries = 1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Selector{
		provider: provider,
		opts:     opts,
		sem:      semaphore.NewWeighted(opts.Concurrency),
		limiter:  worker.NewLimiter(opts.RateLimit, 1),
		cache:    c,
		logger:   logger.With(zap.String("provider", provider.Name())),
	}
}

// Name returns the underlying provider name
func (s *Selector) Name() string {
	return s.provider.Name()
}

// Refine consults the provider for every slot of record that has candidates
// and applies the verdicts. On any failure the record keeps its state and
// gets a diagnostic.
func (s *Selector) Refine(ctx context.Context, record *model.RequirementRecord) {
	req := RequestFor(record)
	if len(req.Candidates) == 0 {
		return
	}
	req.Model = s.opts.Model

	sel, err := s.selection(ctx, req)
	if err != nil {
		s.failures.Add(1)
		record.Note(fmt.Sprintf("selector: %s failed, kept lexical states: %v", s.provider.Name(), err))
		s.logger.Warn("span selection failed", zap.String("req_id", record.ID), zap.Error(err))
		return
	}

	changed := Apply(record, sel)
	s.logger.Debug("span selection applied", zap.String("req_id", record.ID), zap.Int("slots_changed", changed))
}

// Info reports provider and call statistics for the run report
func (s *Selector) Info(modelName string) *model.SelectorInfo {
	return &model.SelectorInfo{
		Provider: s.provider.Name(),
		Model:    modelName,
		Calls:    s.calls.Load(),
		Failures: s.failures.Load(),
	}
}

func (s *Selector) selection(ctx context.Context, req SelectRequest) (Selection, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}
	key := cache.Key(s.provider.Name(), req.Model, prompt)

	if data, ok := s.cache.Get(key); ok {
		var sel Selection
		if err := json.Unmarshal(data, &sel); err == nil {
			s.logger.Debug("selector cache hit")
			return sel, nil
		}
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, retryBackoff); err != nil {
				return nil, errors.Join(lastErr, err)
			}
		}

		sel, err := s.attempt(ctx, req)
		if err == nil {
			if data, err := json.Marshal(sel); err == nil {
				if err := s.cache.Set(key, data, s.opts.CacheTTL); err != nil {
					s.logger.Debug("selector cache write failed", zap.Error(err))
				}
			}
			return sel, nil
		}
		lastErr = err

		// The caller gave up; a retry cannot succeed
		if ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

func (s *Selector) attempt(ctx context.Context, req SelectRequest) (Selection, error) {
	if err := s.limiter.Wait(ctx, s.provider.Name()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	s.calls.Add(1)
	resp, err := s.provider.Select(callCtx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedSelection)
	}
	return resp.Selection, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
