package detect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
)

// StrategyError records a strategy failure without aborting detection.
type StrategyError struct {
	StrategyID string
	Err        error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %v", e.StrategyID, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// DetectionResult is the merged view across all strategies. Fields holds the
// union of discovered names in first-seen order; Sources records which
// strategies reported each name.
type DetectionResult struct {
	Path        string              `json:"path"`
	Fields      []string            `json:"fields"`
	Sources     map[string][]string `json:"sources"`
	PerStrategy map[string][]string `json:"per_strategy"`
	Errors      []StrategyError     `json:"errors,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// FoundBy reports whether the named strategy contributed the field.
func (r *DetectionResult) FoundBy(field, strategyID string) bool {
	for _, id := range r.Sources[field] {
		if id == strategyID {
			return true
		}
	}
	return false
}

// PrimaryFields returns the names reported by the primary strategy.
func (r *DetectionResult) PrimaryFields(primaryID string) []string {
	return r.PerStrategy[primaryID]
}

type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

// Detector runs a fixed set of strategies against documents and memoizes
// results per document identity (path, size, mtime). Strategies run
// concurrently; results merge in registration order so output is stable.
type Detector struct {
	strategies []Strategy
	limit      int

	mu    sync.RWMutex
	cache map[cacheKey]*DetectionResult
}

// NewDetector builds a detector over the given strategies. A nil or empty
// slice selects the built-in set.
func NewDetector(strategies ...Strategy) *Detector {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Detector{
		strategies: strategies,
		limit:      4,
		cache:      make(map[cacheKey]*DetectionResult),
	}
}

// Primary returns the id of the strategy that gates field accessibility.
func (d *Detector) Primary() string {
	return d.strategies[0].ID()
}

// Detect enumerates fields across all strategies for the document at path.
// Repeated calls for an unchanged file return the memoized result.
func (d *Detector) Detect(ctx context.Context, path string) (*DetectionResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}
	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}

	d.mu.RLock()
	cached, ok := d.cache[key]
	d.mu.RUnlock()
	if ok {
		return cached, nil
	}

	doc := OpenDocument(path)
	defer doc.Close()

	result, err := d.detect(ctx, doc)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.cache[key] = result
	d.mu.Unlock()
	return result, nil
}

func (d *Detector) detect(ctx context.Context, doc *Document) (*DetectionResult, error) {
	type outcome struct {
		names []string
		err   error
	}
	outcomes := make([]outcome, len(d.strategies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)
	for i, strat := range d.strategies {
		g.Go(func() error {
			names, err := strat.Enumerate(gctx, doc)
			outcomes[i] = outcome{names: names, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &DetectionResult{
		Path:        doc.Path,
		Sources:     make(map[string][]string),
		PerStrategy: make(map[string][]string),
	}
	seen := make(map[string]bool)

	for i, strat := range d.strategies {
		out := outcomes[i]
		if out.err != nil {
			if errors.Is(out.err, ErrStrategyUnavailable) {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("strategy %s skipped: %v", strat.ID(), out.err))
			} else {
				result.Errors = append(result.Errors, StrategyError{StrategyID: strat.ID(), Err: out.err})
			}
			continue
		}
		perStrategySeen := make(map[string]bool)
		for _, name := range out.names {
			if !perStrategySeen[name] {
				perStrategySeen[name] = true
				result.PerStrategy[strat.ID()] = append(result.PerStrategy[strat.ID()], name)
			}
			if !seen[name] {
				seen[name] = true
				result.Fields = append(result.Fields, name)
			}
			if !containsString(result.Sources[name], strat.ID()) {
				result.Sources[name] = append(result.Sources[name], strat.ID())
			}
		}
	}
	return result, nil
}

// InvalidateCache drops all memoized results.
func (d *Detector) InvalidateCache() {
	d.mu.Lock()
	d.cache = make(map[cacheKey]*DetectionResult)
	d.mu.Unlock()
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
