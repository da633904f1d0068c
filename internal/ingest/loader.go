package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/ppiankov/mrsclass/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDuplicateID is returned when two requirements share an ID
var ErrDuplicateID = errors.New("duplicate requirement id")

// StdinPath reads from standard input
const StdinPath = "-"

// maxParallelFiles bounds concurrent file reads
const maxParallelFiles = 8

// Loader reads requirement files through a Registry
type Loader struct {
	registry *Registry
	format   string // Empty means pick by extension
	fetcher  *Fetcher
	stdin    io.Reader
	logger   *zap.Logger
}

// NewLoader creates a loader. format forces one adapter for every file;
// leave it empty to pick by extension.
func NewLoader(registry *Registry, format string, logger *zap.Logger) *Loader {
	if registry == nil {
		registry = NewRegistry(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		registry: registry,
		format:   format,
		fetcher:  NewFetcher(model.DefaultConfig().Fetch),
		stdin:    os.Stdin,
		logger:   logger,
	}
}

// WithFetcher sets the fetcher used for http(s) paths
func (l *Loader) WithFetcher(f *Fetcher) *Loader {
	l.fetcher = f
	return l
}

// Load reads every path concurrently and returns the inputs in path order,
// with missing IDs filled in. Any read or parse error fails the whole load.
func (l *Loader) Load(ctx context.Context, paths []string) ([]model.RequirementInput, error) {
	perFile := make([][]model.RequirementInput, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			inputs, err := l.loadPath(gctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			perFile[i] = inputs
			l.logger.Debug("loaded requirements", zap.String("path", path), zap.Int("count", len(inputs)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.RequirementInput
	for _, inputs := range perFile {
		all = append(all, inputs...)
	}
	if err := AssignIDs(all); err != nil {
		return nil, err
	}
	return all, nil
}

func (l *Loader) loadPath(ctx context.Context, path string) ([]model.RequirementInput, error) {
	if isURL(path) {
		return l.loadURL(ctx, path)
	}

	adapter, err := l.adapterFor(path)
	if err != nil {
		return nil, err
	}

	if path == StdinPath {
		return adapter.Parse(l.stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return adapter.Parse(f)
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) ([]model.RequirementInput, error) {
	result, err := l.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var adapter Adapter
	switch {
	case l.format != "":
		adapter, err = l.registry.ByName(l.format)
		if err != nil {
			return nil, err
		}
	default:
		adapter = l.registry.FindAdapter(urlPath(result.FinalURL))
		if adapter == l.registry.fallback {
			if byType, ok := l.registry.ForContentType(result.ContentType); ok {
				adapter = byType
			}
		}
	}

	return adapter.Parse(bytes.NewReader(result.Body))
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func (l *Loader) adapterFor(path string) (Adapter, error) {
	if l.format != "" {
		return l.registry.ByName(l.format)
	}
	return l.registry.FindAdapter(path), nil
}

// AssignIDs fills empty IDs with REQ-0001 style IDs numbered by position,
// skipping numbers already taken, and rejects duplicates.
func AssignIDs(inputs []model.RequirementInput) error {
	taken := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if in.ReqID == "" {
			continue
		}
		if taken[in.ReqID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, in.ReqID)
		}
		taken[in.ReqID] = true
	}

	next := 1
	for i := range inputs {
		if inputs[i].ReqID != "" {
			continue
		}
		id := fmt.Sprintf("REQ-%04d", next)
		for taken[id] {
			next++
			id = fmt.Sprintf("REQ-%04d", next)
		}
		inputs[i].ReqID = id
		taken[id] = true
		next++
	}
	return nil
}
