package warmup

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/baditaflorin/go_table_similarity/internal/ports"
)

// WarmupConfig defines configuration for warming up the system
type WarmupConfig struct {
	// Number of concurrent warmup routines to run
	Concurrency int
	// Number of iterations per routine
	Iterations int
	// Number of rows in the sample tables
	SampleRows int
	// Warmup duration (0 means no time limit)
	Duration time.Duration
	// Whether to perform GC after warmup
	ForceGC bool
}

// DefaultWarmupConfig returns the default warmup configuration
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Concurrency: runtime.NumCPU(),
		Iterations:  200,
		SampleRows:  20,
		Duration:    5 * time.Second,
		ForceGC:     true,
	}
}

// Manager handles system warmup operations
type Manager struct {
	logger      ports.Logger
	calculators []ports.SimilarityCalculator
	normalizers []ports.TableNormalizer
	config      WarmupConfig
}

// NewManager creates a new warmup manager
func NewManager(logger ports.Logger, config WarmupConfig) *Manager {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Manager{
		logger: logger,
		config: config,
	}
}

// RegisterCalculator adds a calculator to be warmed up
func (wm *Manager) RegisterCalculator(calc ports.SimilarityCalculator) {
	wm.calculators = append(wm.calculators, calc)
}

// RegisterNormalizer adds a table normalizer to be warmed up
func (wm *Manager) RegisterNormalizer(norm ports.TableNormalizer) {
	wm.normalizers = append(wm.normalizers, norm)
}

// WarmUp runs the warmup process for all registered components
func (wm *Manager) WarmUp(ctx context.Context) {
	startTime := time.Now()
	wm.logger.Info("Starting system warmup",
		"components", len(wm.calculators)+len(wm.normalizers),
		"concurrency", wm.config.Concurrency,
		"iterations", wm.config.Iterations,
	)

	warmupCtx := ctx
	if wm.config.Duration > 0 {
		var cancel context.CancelFunc
		warmupCtx, cancel = context.WithTimeout(ctx, wm.config.Duration)
		defer cancel()
	}

	wm.warmUpNormalizers(warmupCtx)
	wm.warmUpCalculators(warmupCtx)

	if wm.config.ForceGC {
		wm.logger.Debug("Forcing garbage collection after warmup")
		runtime.GC()
	}

	wm.logger.Info("System warmup completed",
		"duration", time.Since(startTime),
	)
}

func (wm *Manager) warmUpNormalizers(ctx context.Context) {
	if len(wm.normalizers) == 0 {
		return
	}
	wm.logger.Debug("Warming up normalizers", "count", len(wm.normalizers))

	html := GenerateTable(wm.config.SampleRows, 4, 0)
	markdown := GenerateMarkdownTable(wm.config.SampleRows, 4)

	wm.run(ctx, func(j int) {
		for _, n := range wm.normalizers {
			if j%2 == 0 {
				_ = n.Normalize(html)
			} else {
				_ = n.Normalize(markdown)
			}
		}
	})
}

func (wm *Manager) warmUpCalculators(ctx context.Context) {
	if len(wm.calculators) == 0 {
		return
	}
	wm.logger.Debug("Warming up calculators", "count", len(wm.calculators))

	original := GenerateTable(wm.config.SampleRows, 4, 0)
	similar := GenerateTable(wm.config.SampleRows, 4, wm.config.SampleRows/10+1)
	different := GenerateTable(wm.config.SampleRows/2+1, 3, wm.config.SampleRows)

	wm.run(ctx, func(j int) {
		for _, calculator := range wm.calculators {
			switch j % 3 {
			case 0:
				_ = calculator.Compute(ctx, original, original)
			case 1:
				_ = calculator.Compute(ctx, original, similar)
			default:
				_ = calculator.Compute(ctx, original, different)
			}
		}
	})
}

// run calls fn for each iteration on every warmup routine until the
// iterations are exhausted or ctx is done.
func (wm *Manager) run(ctx context.Context, fn func(iteration int)) {
	var wg sync.WaitGroup
	for i := 0; i < wm.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < wm.config.Iterations; j++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				fn(j)
			}
		}()
	}
	wg.Wait()
}

// GenerateTable builds an HTML table of rows x cols cells. The first
// changed rows get different cell text, so tables generated with the same
// shape and a different changed count are similar but not identical.
func GenerateTable(rows, cols, changed int) string {
	var sb strings.Builder
	sb.WriteString("<table><thead><tr>")
	for c := 0; c < cols; c++ {
		fmt.Fprintf(&sb, "<th>col %d</th>", c)
	}
	sb.WriteString("</tr></thead><tbody>")
	for r := 0; r < rows; r++ {
		sb.WriteString("<tr>")
		for c := 0; c < cols; c++ {
			if r < changed {
				fmt.Fprintf(&sb, "<td>changed %d.%d</td>", r, c)
			} else {
				fmt.Fprintf(&sb, "<td>cell %d.%d</td>", r, c)
			}
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>")
	return sb.String()
}

// GenerateMarkdownTable builds a pipe table with a header and rows data rows.
func GenerateMarkdownTable(rows, cols int) string {
	var sb strings.Builder
	for c := 0; c < cols; c++ {
		fmt.Fprintf(&sb, "| col %d ", c)
	}
	sb.WriteString("|\n")
	sb.WriteString(strings.Repeat("|---", cols) + "|\n")
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			fmt.Fprintf(&sb, "| cell %d.%d ", r, c)
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
