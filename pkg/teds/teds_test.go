package teds

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_table_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_table_similarity/internal/warmup"
)

const (
	predicted   = "<table><tr><td>a</td><td>b</td></tr></table>"
	groundtruth = "<table><tr><td>a</td><td>c</td></tr></table>"
)

func newTEDS(t *testing.T, opts ...Option) *TEDS {
	t.Helper()
	m, err := New(append([]Option{WithPortsLogger(logger.NewNopLogger())}, opts...)...)
	require.NoError(t, err)
	return m
}

func TestNewDefaults(t *testing.T) {
	m := newTEDS(t)
	assert.Equal(t, "teds", m.Name())

	r := m.Compute(context.Background(), predicted, groundtruth)
	require.True(t, r.Success)
	assert.InDelta(t, 0.75, r.Score, 1e-9)
	assert.Equal(t, "dp", r.Algorithm)
	assert.True(t, r.Passed)
}

func TestNewStructure(t *testing.T) {
	m, err := NewStructure(WithPortsLogger(logger.NewNopLogger()))
	require.NoError(t, err)
	assert.Equal(t, "s_teds", m.Name())
	assert.Equal(t, 1.0, m.Compute(context.Background(), predicted, groundtruth).Score)
}

func TestOptions(t *testing.T) {
	generic := newTEDS(t, WithAlgorithm("apted"))
	r := generic.Compute(context.Background(), predicted, groundtruth)
	assert.Equal(t, "generic", r.Algorithm)
	assert.InDelta(t, 0.5, r.Score, 1e-9)

	strict := newTEDS(t, WithThreshold(0.9))
	assert.False(t, strict.Compute(context.Background(), predicted, groundtruth).Passed)

	limited := newTEDS(t, WithMaxNodes(2))
	assert.False(t, limited.Compute(context.Background(), predicted, groundtruth).Success)

	keepAll := newTEDS(t, WithIgnoreTags())
	wrapped := "<table><tbody><tr><td>a</td></tr></tbody></table>"
	assert.Equal(t, 1.0, keepAll.Compute(context.Background(), wrapped, "<table><tr><td>a</td></tr></table>").Score)
}

func TestEmptyTextPolicyOverride(t *testing.T) {
	empty := "<table><tr><td>x</td><td></td></tr></table>"
	filled := "<table><tr><td>x</td><td>abcd</td></tr></table>"

	flat := newTEDS(t, WithAlgorithm("generic"), WithEmptyTextPolicy("flat"))
	length := newTEDS(t, WithAlgorithm("generic"))
	assert.Greater(t,
		flat.Compute(context.Background(), empty, filled).Score,
		length.Compute(context.Background(), empty, filled).Score)
}

func TestInvalidOptions(t *testing.T) {
	_, err := New(WithPortsLogger(logger.NewNopLogger()), WithAlgorithm("bogus"))
	assert.Error(t, err)
	_, err = New(WithPortsLogger(logger.NewNopLogger()), WithEmptyTextPolicy("bogus"))
	assert.Error(t, err)
	_, err = New(WithPortsLogger(logger.NewNopLogger()), WithThreshold(2))
	assert.Error(t, err)
}

func TestCalculatePrerequisite(t *testing.T) {
	m := newTEDS(t)
	r := m.Calculate(context.Background(), predicted, predicted, &Prerequisite{Error: "bad"})
	assert.False(t, r.Success)
	assert.Equal(t, "skipped due to table_edit failure: bad", r.Error)

	rows := [][]string{{"a", "b"}}
	r = m.Calculate(context.Background(), rows, predicted, &Prerequisite{Success: true})
	assert.Equal(t, 1.0, r.Score)
}

func TestSanitizerOption(t *testing.T) {
	m := newTEDS(t, WithSanitizer(true))
	assert.NotContains(t, m.HTML(`<table><tr><td onclick="x()">a</td></tr></table>`), "onclick")
}

func TestPreserveEmptyCells(t *testing.T) {
	md := "|a||b|\n|-|-|-|\n|1||2|"
	dropped := newTEDS(t)
	kept := newTEDS(t, WithPreserveEmptyCells(true))
	assert.NotEqual(t, dropped.HTML(md), kept.HTML(md))
}

func TestTreeAndMarkdown(t *testing.T) {
	m := newTEDS(t)
	dump, err := m.Tree(predicted)
	require.NoError(t, err)
	assert.Contains(t, dump, "table")
	assert.Contains(t, dump, `"ab"`)

	md, err := m.Markdown(predicted)
	require.NoError(t, err)
	assert.Contains(t, md, "|")

	back := m.Compute(context.Background(), md, predicted)
	assert.True(t, back.Success)
}

func TestNewFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("structure_only: true\nalgorithm: generic\n"), 0o600))

	m, err := NewFromConfigFile(path, WithPortsLogger(logger.NewNopLogger()))
	require.NoError(t, err)
	r := m.Compute(context.Background(), predicted, groundtruth)
	assert.Equal(t, "s_teds", r.Name)
	assert.Equal(t, "generic", r.Algorithm)

	_, err = NewFromConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWarmUp(t *testing.T) {
	m := newTEDS(t, WithWarmUpConfig(warmup.WarmupConfig{Concurrency: 2, Iterations: 3, SampleRows: 4}))
	assert.True(t, m.warmed.Load())
	assert.NoError(t, m.Close())
}

// warmupCounter counts warm-up runs through the log lines they emit.
type warmupCounter struct {
	logger.NopLogger
	starts atomic.Int32
}

func (w *warmupCounter) Info(msg string, _ ...interface{}) {
	if msg == "Starting system warmup" {
		w.starts.Add(1)
	}
}

func TestConcurrentWarmUpRunsOnce(t *testing.T) {
	counter := &warmupCounter{}
	m := newTEDS(t, WithPortsLogger(counter))
	cfg := warmup.WarmupConfig{Concurrency: 1, Iterations: 2, SampleRows: 2}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.WarmUp(context.Background(), cfg)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), counter.starts.Load())
	assert.True(t, m.warmed.Load())
}
