// Package teds scores a predicted table against a ground-truth table with
// Tree-Edit-Distance-based Similarity.
package teds

import (
	"context"
	"errors"
	"fmt"

	"github.com/baditaflorin/go_table_similarity/internal/core/cost"
	"github.com/baditaflorin/go_table_similarity/internal/core/domain"
	"github.com/baditaflorin/go_table_similarity/internal/core/ted"
	"github.com/baditaflorin/go_table_similarity/internal/core/tree"
	"github.com/baditaflorin/go_table_similarity/internal/ports"
)

// Metric names reported in results.
const (
	NameFull      = "teds"
	NameStructure = "s_teds"
)

// SimilarityConfig holds configuration for the TEDS calculator.
type SimilarityConfig struct {
	StructureOnly bool
	IgnoreTags    []string
	Algorithm     ted.AlgorithmType
	EmptyText     cost.EmptyTextPolicy
	// MaxNodes rejects larger trees; 0 disables the limit.
	MaxNodes  int
	Threshold float64
}

// DefaultConfig returns a default configuration.
func DefaultConfig() SimilarityConfig {
	return SimilarityConfig{
		IgnoreTags: []string{"tbody", "thead", "tfoot"},
		Algorithm:  ted.DPAlgorithmType,
		EmptyText:  ted.DefaultEmptyTextPolicy(ted.DPAlgorithmType),
		Threshold:  0.5,
	}
}

// Validate checks if the configuration is valid.
func (c SimilarityConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.New("threshold must be between 0 and 1")
	}
	if c.MaxNodes < 0 {
		return errors.New("maxNodes must not be negative")
	}
	return nil
}

// Model returns the cost model implied by the configuration.
func (c SimilarityConfig) Model() cost.Model {
	return cost.Model{StructureOnly: c.StructureOnly, EmptyText: c.EmptyText}
}

// Components are the collaborators a Calculator delegates to.
type Components struct {
	Normalizer ports.TableNormalizer
	Builder    ports.TreeBuilder
	Algorithm  ports.DistanceAlgorithm
	// Sanitizer is optional.
	Sanitizer ports.Sanitizer
}

// Calculator implements the TEDS computation.
type Calculator struct {
	config SimilarityConfig
	logger ports.Logger
	deps   Components
	name   string
	mode   domain.Mode
}

// NewCalculator creates a new TEDS calculator.
func NewCalculator(config SimilarityConfig, logger ports.Logger, deps Components) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil || deps.Normalizer == nil || deps.Builder == nil || deps.Algorithm == nil {
		return nil, errors.New("logger, normalizer, builder and algorithm are required")
	}

	c := &Calculator{
		config: config,
		logger: logger,
		deps:   deps,
		name:   NameFull,
		mode:   domain.ModeFull,
	}
	if config.StructureOnly {
		c.name = NameStructure
		c.mode = domain.ModeStructure
	}
	return c, nil
}

// Name returns the metric name, "teds" or "s_teds".
func (c *Calculator) Name() string { return c.name }

// Compute scores two table strings as if the prerequisite stage succeeded.
func (c *Calculator) Compute(ctx context.Context, predicted, groundtruth string) domain.Result {
	return c.Calculate(ctx, predicted, groundtruth, &domain.Prerequisite{Success: true})
}

// Calculate scores predicted against groundtruth. It never panics: failures
// are reported through Result.Success and Result.Error.
func (c *Calculator) Calculate(ctx context.Context, predicted, groundtruth interface{}, prereq *domain.Prerequisite) (result domain.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = c.errorResult(fmt.Sprintf("TEDS calculation failed: %v", r))
		}
	}()

	if prereq == nil {
		return c.errorResult("missing table_edit result")
	}
	if !prereq.Success {
		reason := prereq.Error
		if reason == "" {
			reason = "unknown reason"
		}
		return c.errorResult("skipped due to table_edit failure: " + reason)
	}

	select {
	case <-ctx.Done():
		return c.errorResult("computation cancelled")
	default:
	}

	predTree := c.buildTree("predicted", predicted)
	gtTree := c.buildTree("groundtruth", groundtruth)

	if err := ted.CheckSize(predTree, gtTree, c.config.MaxNodes); err != nil {
		return c.errorResult(err.Error())
	}

	var distance float64
	var degradedReason string
	if predTree != nil && gtTree != nil {
		distance, degradedReason = c.distance(predTree, gtTree)
	} else {
		distance = ted.FallbackDistance(predTree, gtTree)
	}

	result = Score(distance, predTree, gtTree)
	result.Name = c.name
	result.Mode = c.mode
	result.Algorithm = c.deps.Algorithm.Name()
	result.Threshold = c.config.Threshold
	result.Passed = result.Score >= c.config.Threshold
	result.Details["structure_only"] = c.config.StructureOnly
	result.Details["algorithm"] = result.Algorithm
	if degradedReason != "" {
		result.Degraded = true
		result.Details["degraded"] = true
		result.Details["degraded_reason"] = degradedReason
		result.Details["note"] = "tree edit distance failed, used node count difference"
	}

	c.logger.Debug("Computed TEDS",
		"metric", c.name,
		"score", result.Score,
		"edit_distance", result.EditDistance,
		"max_nodes", result.MaxNodes,
		"degraded", result.Degraded,
	)
	return result
}

// buildTree normalizes a raw table value and parses it. Parse failures yield
// a nil tree.
func (c *Calculator) buildTree(side string, value interface{}) *tree.Node {
	html := c.deps.Normalizer.Normalize(value)
	if c.deps.Sanitizer != nil {
		html = c.deps.Sanitizer.Sanitize(html)
	}
	c.logger.Debug("Normalized table", "side", side, "html", html)

	t, err := c.deps.Builder.Build(html)
	if err != nil {
		c.logger.Warn("Could not parse table", "side", side, "error", err)
		return nil
	}
	return t
}

// distance runs the configured algorithm and falls back to the node count
// difference on failure. The returned reason is empty unless it fell back.
func (c *Calculator) distance(t1, t2 *tree.Node) (float64, string) {
	d, err := c.deps.Algorithm.Distance(t1, t2)
	if err == nil {
		return d, ""
	}
	fallback := ted.FallbackDistance(t1, t2)
	c.logger.Warn("Tree edit distance failed, falling back to node count difference",
		"algorithm", c.deps.Algorithm.Name(),
		"error", err,
		"fallback_distance", fallback,
	)
	return fallback, err.Error()
}

func (c *Calculator) errorResult(msg string) domain.Result {
	c.logger.Error("TEDS calculation did not produce a score", "metric", c.name, "error", msg)
	return domain.Result{
		Name:      c.name,
		Mode:      c.mode,
		Algorithm: c.deps.Algorithm.Name(),
		Threshold: c.config.Threshold,
		Error:     msg,
		Details:   map[string]interface{}{"error": msg},
	}
}
