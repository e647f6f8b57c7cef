// Package teds scores predicted tables against ground-truth tables with
// Tree-Edit-Distance-based Similarity (TEDS) and its structure-only variant
// (S-TEDS).
package teds

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/baditaflorin/go_table_similarity/internal/adapters/htmltree"
	"github.com/baditaflorin/go_table_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_table_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_table_similarity/internal/config"
	"github.com/baditaflorin/go_table_similarity/internal/core/cost"
	"github.com/baditaflorin/go_table_similarity/internal/core/domain"
	"github.com/baditaflorin/go_table_similarity/internal/core/ted"
	coreteds "github.com/baditaflorin/go_table_similarity/internal/core/teds"
	"github.com/baditaflorin/go_table_similarity/internal/core/tree"
	"github.com/baditaflorin/go_table_similarity/internal/ports"
	"github.com/baditaflorin/go_table_similarity/internal/warmup"
	"github.com/baditaflorin/l"
)

type (
	// Result is the outcome of one comparison.
	Result = domain.Result
	// Prerequisite is the outcome of the table_edit stage.
	Prerequisite = domain.Prerequisite
)

// TEDS compares tables. It is safe for concurrent use.
type TEDS struct {
	calculator *coreteds.Calculator
	logger     ports.Logger
	normalizer ports.TableNormalizer
	sanitizer  ports.Sanitizer
	builder    ports.TreeBuilder
	renderer   *normalizer.MarkdownRenderer
	warmed     atomic.Bool
}

// Option defines a functional option for configuring TEDS.
type Option func(*tedsConfig)

type tedsConfig struct {
	StructureOnly      bool
	IgnoreTags         []string
	Algorithm          string
	EmptyTextPolicy    string
	MaxNodes           int
	Sanitize           bool
	PreserveEmptyCells bool
	Threshold          float64
	Logger             ports.Logger
	WarmUp             bool
	WarmUpConfig       warmup.WarmupConfig
}

// WithStructureOnly compares tags and span attributes only.
func WithStructureOnly(enable bool) Option {
	return func(cfg *tedsConfig) {
		cfg.StructureOnly = enable
	}
}

// WithIgnoreTags replaces the set of tags spliced out of both trees.
// An empty list keeps every element.
func WithIgnoreTags(tags ...string) Option {
	return func(cfg *tedsConfig) {
		cfg.IgnoreTags = append([]string{}, tags...)
	}
}

// WithAlgorithm selects the distance algorithm: "dp" (default) or "generic"
// ("apted" and "zhang-shasha" are accepted as aliases).
func WithAlgorithm(name string) Option {
	return func(cfg *tedsConfig) {
		cfg.Algorithm = name
	}
}

// WithEmptyTextPolicy overrides the cost of comparing empty with non-empty
// cell text: "flat" costs 1, "length" costs the other text's length.
func WithEmptyTextPolicy(name string) Option {
	return func(cfg *tedsConfig) {
		cfg.EmptyTextPolicy = name
	}
}

// WithMaxNodes rejects trees larger than n nodes. 0 disables the limit.
func WithMaxNodes(n int) Option {
	return func(cfg *tedsConfig) {
		cfg.MaxNodes = n
	}
}

// WithSanitizer strips scripts, event handlers and other unsafe markup
// before parsing.
func WithSanitizer(enable bool) Option {
	return func(cfg *tedsConfig) {
		cfg.Sanitize = enable
	}
}

// WithPreserveEmptyCells keeps empty interior Markdown cells.
func WithPreserveEmptyCells(enable bool) Option {
	return func(cfg *tedsConfig) {
		cfg.PreserveEmptyCells = enable
	}
}

// WithThreshold sets the score needed for Result.Passed.
func WithThreshold(th float64) Option {
	return func(cfg *tedsConfig) {
		cfg.Threshold = th
	}
}

// WithLogger sets a custom logger.
func WithLogger(l l.Logger) Option {
	return func(cfg *tedsConfig) {
		cfg.Logger = logger.FromExisting(l)
	}
}

// WithPortsLogger sets a logger that already implements the internal
// logging port, such as one created by the server.
func WithPortsLogger(l ports.Logger) Option {
	return func(cfg *tedsConfig) {
		cfg.Logger = l
	}
}

// WithWarmUp enables warm-up on initialization.
func WithWarmUp(enable bool) Option {
	return func(cfg *tedsConfig) {
		cfg.WarmUp = enable
	}
}

// WithWarmUpConfig sets a custom warm-up configuration and enables warm-up.
func WithWarmUpConfig(c warmup.WarmupConfig) Option {
	return func(cfg *tedsConfig) {
		cfg.WarmUpConfig = c
		cfg.WarmUp = true
	}
}

// WithMetricConfig applies a loaded metric configuration file.
func WithMetricConfig(m *config.Metric) Option {
	return func(cfg *tedsConfig) {
		cfg.StructureOnly = m.StructureOnly
		cfg.IgnoreTags = append([]string{}, m.IgnoreTags...)
		cfg.Algorithm = m.Algorithm
		cfg.EmptyTextPolicy = m.EmptyTextPolicy
		cfg.MaxNodes = m.MaxNodes
		cfg.Sanitize = m.Sanitize
		cfg.PreserveEmptyCells = m.PreserveEmptyCells
		cfg.Threshold = m.ThresholdValue()
	}
}

// New creates a TEDS metric.
func New(opts ...Option) (*TEDS, error) {
	defaults := coreteds.DefaultConfig()
	cfg := &tedsConfig{
		IgnoreTags:   defaults.IgnoreTags,
		Algorithm:    defaults.Algorithm.String(),
		Threshold:    defaults.Threshold,
		WarmUpConfig: warmup.DefaultWarmupConfig(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	algorithm, err := ted.ParseAlgorithmType(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	emptyText := ted.DefaultEmptyTextPolicy(algorithm)
	if strings.TrimSpace(cfg.EmptyTextPolicy) != "" {
		if emptyText, err = cost.ParseEmptyTextPolicy(cfg.EmptyTextPolicy); err != nil {
			return nil, err
		}
	}

	if cfg.Logger == nil {
		cfg.Logger, err = logger.NewStdLogger()
		if err != nil {
			return nil, err
		}
	}

	coreConfig := coreteds.SimilarityConfig{
		StructureOnly: cfg.StructureOnly,
		IgnoreTags:    cfg.IgnoreTags,
		Algorithm:     algorithm,
		EmptyText:     emptyText,
		MaxNodes:      cfg.MaxNodes,
		Threshold:     cfg.Threshold,
	}
	deps := coreteds.Components{
		Normalizer: normalizer.NewTableNormalizer(cfg.PreserveEmptyCells),
		Builder:    htmltree.NewBuilder(cfg.StructureOnly, cfg.IgnoreTags),
		Algorithm:  ted.NewAlgorithmFactory().CreateAlgorithm(algorithm, coreConfig.Model()),
	}
	if cfg.Sanitize {
		deps.Sanitizer = normalizer.NewSanitizer()
	}

	calculator, err := coreteds.NewCalculator(coreConfig, cfg.Logger, deps)
	if err != nil {
		return nil, fmt.Errorf("creating TEDS calculator: %w", err)
	}

	t := &TEDS{
		calculator: calculator,
		logger:     cfg.Logger,
		normalizer: deps.Normalizer,
		sanitizer:  deps.Sanitizer,
		builder:    deps.Builder,
		renderer:   normalizer.NewMarkdownRenderer(),
	}
	if cfg.WarmUp {
		t.WarmUp(context.Background(), cfg.WarmUpConfig)
	}
	return t, nil
}

// NewStructure creates an S-TEDS metric: New with WithStructureOnly(true)
// applied after opts.
func NewStructure(opts ...Option) (*TEDS, error) {
	return New(append(opts, WithStructureOnly(true))...)
}

// NewFromConfigFile creates a metric from a YAML configuration file. opts
// are applied after the file.
func NewFromConfigFile(path string, opts ...Option) (*TEDS, error) {
	m, err := config.LoadMetric(path)
	if err != nil {
		return nil, err
	}
	return New(append([]Option{WithMetricConfig(m)}, opts...)...)
}

// Name returns "teds" or "s_teds".
func (t *TEDS) Name() string { return t.calculator.Name() }

// Compute compares two HTML or Markdown tables.
func (t *TEDS) Compute(ctx context.Context, predicted, groundtruth string) Result {
	return t.calculator.Compute(ctx, predicted, groundtruth)
}

// Calculate compares two tables given as strings or lists of rows. It
// refuses to score when the table_edit prerequisite is missing or failed.
func (t *TEDS) Calculate(ctx context.Context, predicted, groundtruth interface{}, prereq *Prerequisite) Result {
	return t.calculator.Calculate(ctx, predicted, groundtruth, prereq)
}

// Calculator exposes the metric as a ports.TableCalculator.
func (t *TEDS) Calculator() ports.TableCalculator { return t.calculator }

// HTML returns the canonical HTML the metric scores for value.
func (t *TEDS) HTML(value interface{}) string {
	html := t.normalizer.Normalize(value)
	if t.sanitizer != nil {
		html = t.sanitizer.Sanitize(html)
	}
	return html
}

// Tree returns an indented dump of the tree built from value.
func (t *TEDS) Tree(value interface{}) (string, error) {
	n, err := t.builder.Build(t.HTML(value))
	if err != nil {
		return "", err
	}
	return tree.Dump(n), nil
}

// Markdown renders value as a Markdown pipe table.
func (t *TEDS) Markdown(value interface{}) (string, error) {
	return t.renderer.Render(t.HTML(value))
}

// WarmUp exercises the metric on generated tables. Only the first call
// runs; later and concurrent calls return immediately.
func (t *TEDS) WarmUp(ctx context.Context, config warmup.WarmupConfig) {
	if !t.warmed.CompareAndSwap(false, true) {
		t.logger.Debug("System already warmed up, skipping")
		return
	}

	warmupMgr := warmup.NewManager(t.logger, config)
	warmupMgr.RegisterCalculator(t.calculator)
	warmupMgr.RegisterNormalizer(t.normalizer)

	warmupMgr.WarmUp(ctx)
}

// Close flushes the logger.
func (t *TEDS) Close() error {
	return t.logger.Close()
}
