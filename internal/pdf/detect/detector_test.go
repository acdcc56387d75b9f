package detect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	id    string
	names []string
	err   error
	calls int
}

func (f *fakeStrategy) ID() string { return f.id }

func (f *fakeStrategy) Enumerate(_ context.Context, _ *Document) ([]string, error) {
	f.calls++
	return f.names, f.err
}

func tempDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "form.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644))
	return path
}

func TestDetectMergesInRegistrationOrder(t *testing.T) {
	path := tempDocument(t)
	detector := NewDetector(
		&fakeStrategy{id: "alpha", names: []string{"first_name", "last_name"}},
		&fakeStrategy{id: "beta", names: []string{"last_name", "email"}},
	)

	result, err := detector.Detect(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"first_name", "last_name", "email"}, result.Fields)
	assert.Equal(t, []string{"alpha"}, result.Sources["first_name"])
	assert.Equal(t, []string{"alpha", "beta"}, result.Sources["last_name"])
	assert.Equal(t, []string{"beta"}, result.Sources["email"])
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestDetectIsDeterministic(t *testing.T) {
	path := tempDocument(t)

	var previous []string
	for i := 0; i < 10; i++ {
		detector := NewDetector(
			&fakeStrategy{id: "a", names: []string{"x", "y"}},
			&fakeStrategy{id: "b", names: []string{"z"}},
			&fakeStrategy{id: "c", names: []string{"y", "w"}},
		)
		result, err := detector.Detect(context.Background(), path)
		require.NoError(t, err)
		if previous != nil {
			assert.Equal(t, previous, result.Fields)
		}
		previous = result.Fields
	}
	assert.Equal(t, []string{"x", "y", "z", "w"}, previous)
}

func TestDetectIsolatesStrategyFailure(t *testing.T) {
	path := tempDocument(t)
	detector := NewDetector(
		&fakeStrategy{id: "good", names: []string{"name"}},
		&fakeStrategy{id: "bad", err: errors.New("parse failure")},
	)

	result, err := detector.Detect(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"name"}, result.Fields)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "bad", result.Errors[0].StrategyID)
	assert.Contains(t, result.Errors[0].Error(), "parse failure")
}

func TestDetectUnavailableStrategyIsWarning(t *testing.T) {
	path := tempDocument(t)
	detector := NewDetector(
		&fakeStrategy{id: "main", names: []string{"name"}},
		&fakeStrategy{id: "scan", err: fmt.Errorf("%w: encrypted", ErrStrategyUnavailable)},
	)

	result, err := detector.Detect(context.Background(), path)
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "scan")
}

func TestDetectMemoizesPerDocument(t *testing.T) {
	path := tempDocument(t)
	strat := &fakeStrategy{id: "only", names: []string{"a"}}
	detector := NewDetector(strat)

	first, err := detector.Detect(context.Background(), path)
	require.NoError(t, err)
	second, err := detector.Detect(context.Background(), path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, strat.calls)

	detector.InvalidateCache()
	_, err = detector.Detect(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, strat.calls)
}

func TestDetectDeduplicatesWithinStrategy(t *testing.T) {
	path := tempDocument(t)
	detector := NewDetector(&fakeStrategy{id: "dup", names: []string{"a", "a", "b"}})

	result, err := detector.Detect(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, result.Fields)
	assert.Equal(t, []string{"a", "b"}, result.PerStrategy["dup"])
	assert.Equal(t, []string{"dup"}, result.Sources["a"])
}

func TestPrimaryIsFirstRegistered(t *testing.T) {
	detector := NewDetector(
		&fakeStrategy{id: "lead"},
		&fakeStrategy{id: "trail"},
	)
	assert.Equal(t, "lead", detector.Primary())
}

func TestDefaultStrategiesOrder(t *testing.T) {
	strategies := DefaultStrategies()
	require.Len(t, strategies, 4)
	assert.Equal(t, StrategyAcroForm, strategies[0].ID())
	assert.Equal(t, StrategyFieldTree, strategies[1].ID())
	assert.Equal(t, StrategyWidgets, strategies[2].ID())
	assert.Equal(t, StrategyTextScan, strategies[3].ID())
}
