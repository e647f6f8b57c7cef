package warmup

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/baditaflorin/go_table_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_table_similarity/internal/core/domain"
)

type countingCalculator struct{ calls atomic.Int64 }

func (c *countingCalculator) Compute(context.Context, string, string) domain.Result {
	c.calls.Add(1)
	return domain.Result{Success: true, Score: 1}
}

type countingNormalizer struct{ calls atomic.Int64 }

func (n *countingNormalizer) Normalize(v interface{}) string {
	n.calls.Add(1)
	s, _ := v.(string)
	return s
}

func TestWarmUpRunsEveryComponent(t *testing.T) {
	calc := &countingCalculator{}
	norm := &countingNormalizer{}
	m := NewManager(logger.NewNopLogger(), WarmupConfig{
		Concurrency: 2,
		Iterations:  5,
		SampleRows:  3,
	})
	m.RegisterCalculator(calc)
	m.RegisterNormalizer(norm)

	m.WarmUp(context.Background())

	assert.Equal(t, int64(10), calc.calls.Load())
	assert.Equal(t, int64(10), norm.calls.Load())
}

func TestWarmUpStopsOnCancelledContext(t *testing.T) {
	calc := &countingCalculator{}
	m := NewManager(logger.NewNopLogger(), WarmupConfig{
		Concurrency: 4,
		Iterations:  1000,
		SampleRows:  3,
		Duration:    time.Second,
	})
	m.RegisterCalculator(calc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.WarmUp(ctx)

	assert.Zero(t, calc.calls.Load())
}

func TestGenerateTable(t *testing.T) {
	base := GenerateTable(3, 2, 0)
	assert.Equal(t, 8, strings.Count(base, "<td>")+strings.Count(base, "<th>"))
	assert.Contains(t, base, "<th>col 1</th>")
	assert.Equal(t, base, GenerateTable(3, 2, 0))

	changed := GenerateTable(3, 2, 1)
	assert.NotEqual(t, base, changed)
	assert.Equal(t, 2, strings.Count(changed, "changed"))
}

func TestGenerateMarkdownTable(t *testing.T) {
	md := GenerateMarkdownTable(2, 3)
	lines := strings.Split(strings.TrimSpace(md), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "|---|---|---|", lines[1])
}
