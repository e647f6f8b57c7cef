package batch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_table_similarity/internal/core/domain"
)

// scoreCalculator scores a pair as 1 when both sides are equal and 0
// otherwise, and tracks the highest number of concurrent calls.
type scoreCalculator struct {
	running atomic.Int32
	peak    atomic.Int32
}

func (c *scoreCalculator) Compute(ctx context.Context, p, g string) domain.Result {
	return c.Calculate(ctx, p, g, &domain.Prerequisite{Success: true})
}

func (c *scoreCalculator) Calculate(_ context.Context, p, g interface{}, prereq *domain.Prerequisite) domain.Result {
	n := c.running.Add(1)
	defer c.running.Add(-1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if !prereq.Success {
		return domain.Result{Error: "skipped"}
	}
	score := 0.0
	if p == g {
		score = 1
	}
	return domain.Result{Success: true, Score: score, Passed: score >= 0.5}
}

func TestEvaluatePreservesOrder(t *testing.T) {
	pairs := []Pair{
		{ID: "same", Predicted: "a", GroundTruth: "a"},
		{Predicted: "a", GroundTruth: "b"},
		{ID: "failed", Predicted: "a", GroundTruth: "a", Prerequisite: &domain.Prerequisite{Error: "x"}},
	}
	calc := &scoreCalculator{}
	items := Evaluate(context.Background(), calc, pairs, 2)

	require.Len(t, items, 3)
	assert.Equal(t, "same", items[0].ID)
	assert.Equal(t, 1.0, items[0].Result.Score)
	assert.Equal(t, "pair-2", items[1].ID)
	assert.Equal(t, 0.0, items[1].Result.Score)
	assert.False(t, items[2].Result.Success)
}

func TestEvaluateRespectsConcurrencyLimit(t *testing.T) {
	pairs := make([]Pair, 50)
	for i := range pairs {
		pairs[i] = Pair{Predicted: "x", GroundTruth: "x"}
	}
	calc := &scoreCalculator{}
	items := Evaluate(context.Background(), calc, pairs, 3)

	assert.Len(t, items, 50)
	assert.LessOrEqual(t, calc.peak.Load(), int32(3))
	for _, it := range items {
		assert.True(t, it.Result.Success)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Item{
		{Result: domain.Result{Success: true, Score: 1, Passed: true}},
		{Result: domain.Result{Success: true, Score: 0.5, Passed: true, Degraded: true}},
		{Result: domain.Result{Success: true, Score: 0}},
		{Result: domain.Result{Error: "boom"}},
	})
	assert.Equal(t, Summary{
		Count: 4, Scored: 3, Errors: 1, Degraded: 1, Passed: 2,
		Mean: 0.5, Min: 0, Max: 1,
	}, s)
}

func TestSummarizeNoScores(t *testing.T) {
	s := Summarize([]Item{{Result: domain.Result{Error: "boom"}}})
	assert.Equal(t, Summary{Count: 1, Errors: 1}, s)
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestParsePairs(t *testing.T) {
	pairs, err := ParsePairs([]byte(`
- id: html
  predicted: "<table><tr><td>a</td></tr></table>"
  groundtruth: "<table><tr><td>a</td></tr></table>"
- id: rows
  predicted: [[a, b], [c, d]]
  groundtruth: "a|b\n-|-\nc|d"
  table_edit:
    success: false
    error: bad markup
`))
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Nil(t, pairs[0].Prerequisite)
	assert.Len(t, pairs[1].Predicted, 2)
	require.NotNil(t, pairs[1].Prerequisite)
	assert.Equal(t, "bad markup", pairs[1].Prerequisite.Error)
}

func TestLoadPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: one\n  predicted: a\n  groundtruth: a\n"), 0o600))
	pairs, err := LoadPairs(path)
	require.NoError(t, err)
	assert.Equal(t, "one", pairs[0].ID)

	_, err = ParsePairs([]byte("not: [a list"))
	assert.Error(t, err)
}
