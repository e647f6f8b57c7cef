package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/baditaflorin/go_table_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_table_similarity/internal/batch"
	"github.com/baditaflorin/go_table_similarity/internal/config"
	"github.com/baditaflorin/go_table_similarity/pkg/teds"
)

// options holds the parsed command line.
type options struct {
	predictedFile   string
	groundtruthFile string
	predicted       string
	groundtruth     string
	batchFile       string
	configFile      string
	metric          string
	algorithm       string
	emptyText       string
	threshold       float64
	maxNodes        int
	sanitize        bool
	preserveEmpty   bool
	concurrency     int
	outputFormat    string
	emitMarkdown    bool
	printTrees      bool
	verbose         bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("teds", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Inputs
	fs.StringVar(&o.predictedFile, "predicted-file", "", "Path to the predicted table (HTML or Markdown)")
	fs.StringVar(&o.groundtruthFile, "groundtruth-file", "", "Path to the ground-truth table (HTML or Markdown)")
	fs.StringVar(&o.predicted, "predicted", "", "Predicted table content")
	fs.StringVar(&o.groundtruth, "groundtruth", "", "Ground-truth table content")
	fs.StringVar(&o.batchFile, "batch", "", "YAML file with a list of {id, predicted, groundtruth, table_edit} pairs")

	// Metric configuration
	fs.StringVar(&o.configFile, "config", "", "YAML metric configuration file")
	fs.StringVar(&o.metric, "metric", "teds", "Metric: 'teds', 's-teds' or 'both'")
	fs.StringVar(&o.algorithm, "algorithm", "", "Distance algorithm: 'dp' or 'generic'")
	fs.StringVar(&o.emptyText, "empty-text-policy", "", "Empty cell text cost: 'flat' or 'length'")
	fs.Float64Var(&o.threshold, "threshold", -1, "Pass threshold (0.0-1.0)")
	fs.IntVar(&o.maxNodes, "max-nodes", 0, "Reject tables with more nodes (0 = unlimited)")
	fs.BoolVar(&o.sanitize, "sanitize", false, "Sanitize HTML before parsing")
	fs.BoolVar(&o.preserveEmpty, "preserve-empty-cells", false, "Keep empty interior Markdown cells")
	fs.IntVar(&o.concurrency, "concurrency", runtime.NumCPU(), "Parallel pairs in batch mode")

	// Output
	fs.StringVar(&o.outputFormat, "output", "text", "Output format: 'text' or 'json'")
	fs.BoolVar(&o.emitMarkdown, "emit-markdown", false, "Print both tables as Markdown")
	fs.BoolVar(&o.printTrees, "print-trees", false, "Print the parsed trees")
	fs.BoolVar(&o.verbose, "verbose", false, "Log pipeline details to stderr")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: teds [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  teds --predicted-file=pred.html --groundtruth-file=gt.html\n")
		fmt.Fprintf(stderr, "  teds --predicted=$'a|b\\n-|-\\n1|2' --groundtruth='<table>...</table>' --metric=both\n")
		fmt.Fprintf(stderr, "  teds --batch=pairs.yaml --output=json\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, o.validate()
}

// validate checks the command-line inputs
func (o *options) validate() error {
	hasFiles := o.predictedFile != "" || o.groundtruthFile != ""
	hasText := o.predicted != "" || o.groundtruth != ""
	if o.batchFile == "" && !hasFiles && !hasText {
		return errors.New("must provide --batch, file inputs or direct table inputs")
	}
	switch o.metric {
	case "teds", "s-teds", "both":
	default:
		return fmt.Errorf("invalid metric: %s. Must be 'teds', 's-teds' or 'both'", o.metric)
	}
	if o.threshold != -1 && (o.threshold < 0 || o.threshold > 1) {
		return config.ErrInvalidThreshold
	}
	switch o.outputFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format: %s. Must be 'text' or 'json'", o.outputFormat)
	}
	return nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	metrics, err := buildMetrics(o, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	// All metrics share one logger.
	defer metrics[0].Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if o.batchFile != "" {
		err = runBatch(ctx, o, metrics, stdout)
	} else {
		err = runPair(ctx, o, metrics, stdout)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func buildMetrics(o *options, stderr io.Writer) ([]*teds.TEDS, error) {
	var opts []teds.Option
	if o.verbose {
		log, err := logger.New(logger.Options{Output: stderr})
		if err != nil {
			return nil, err
		}
		opts = append(opts, teds.WithPortsLogger(log))
	} else {
		opts = append(opts, teds.WithPortsLogger(logger.NewNopLogger()))
	}
	if o.configFile != "" {
		m, err := config.LoadMetric(o.configFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, teds.WithMetricConfig(m))
	}
	if o.algorithm != "" {
		opts = append(opts, teds.WithAlgorithm(o.algorithm))
	}
	if o.emptyText != "" {
		opts = append(opts, teds.WithEmptyTextPolicy(o.emptyText))
	}
	if o.threshold != -1 {
		opts = append(opts, teds.WithThreshold(o.threshold))
	}
	if o.maxNodes > 0 {
		opts = append(opts, teds.WithMaxNodes(o.maxNodes))
	}
	if o.sanitize {
		opts = append(opts, teds.WithSanitizer(true))
	}
	if o.preserveEmpty {
		opts = append(opts, teds.WithPreserveEmptyCells(true))
	}

	var metrics []*teds.TEDS
	if o.metric == "teds" || o.metric == "both" {
		m, err := teds.New(append(opts, teds.WithStructureOnly(false))...)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	if o.metric == "s-teds" || o.metric == "both" {
		m, err := teds.NewStructure(opts...)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// loadInputs loads the tables from files, falling back to direct input.
func loadInputs(o *options) (string, string, error) {
	predicted, groundtruth := o.predicted, o.groundtruth
	if o.predictedFile != "" {
		b, err := os.ReadFile(o.predictedFile)
		if err != nil {
			return "", "", fmt.Errorf("error reading predicted file: %w", err)
		}
		predicted = string(b)
	}
	if o.groundtruthFile != "" {
		b, err := os.ReadFile(o.groundtruthFile)
		if err != nil {
			return "", "", fmt.Errorf("error reading groundtruth file: %w", err)
		}
		groundtruth = string(b)
	}
	return predicted, groundtruth, nil
}

func runPair(ctx context.Context, o *options, metrics []*teds.TEDS, stdout io.Writer) error {
	predicted, groundtruth, err := loadInputs(o)
	if err != nil {
		return err
	}

	results := make([]teds.Result, 0, len(metrics))
	for _, m := range metrics {
		results = append(results, m.Compute(ctx, predicted, groundtruth))
	}

	if o.outputFormat == "json" {
		return writeJSON(stdout, results)
	}

	inspector := metrics[0]
	if o.emitMarkdown {
		for _, side := range []struct{ name, table string }{{"Predicted", predicted}, {"Ground truth", groundtruth}} {
			md, err := inspector.Markdown(side.table)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "=== %s (Markdown) ===\n%s\n\n", side.name, md)
		}
	}
	if o.printTrees {
		for _, side := range []struct{ name, table string }{{"Predicted", predicted}, {"Ground truth", groundtruth}} {
			dump, err := inspector.Tree(side.table)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "=== %s tree ===\n%s\n", side.name, dump)
		}
	}
	for _, r := range results {
		printResult(stdout, r)
	}
	return nil
}

func runBatch(ctx context.Context, o *options, metrics []*teds.TEDS, stdout io.Writer) error {
	pairs, err := batch.LoadPairs(o.batchFile)
	if err != nil {
		return err
	}

	type report struct {
		Metric  string        `json:"metric"`
		Items   []batch.Item  `json:"items"`
		Summary batch.Summary `json:"summary"`
	}
	reports := make([]report, 0, len(metrics))
	for _, m := range metrics {
		items := batch.Evaluate(ctx, m.Calculator(), pairs, o.concurrency)
		reports = append(reports, report{Metric: m.Name(), Items: items, Summary: batch.Summarize(items)})
	}

	if o.outputFormat == "json" {
		return writeJSON(stdout, reports)
	}
	for _, rep := range reports {
		fmt.Fprintf(stdout, "=== %s ===\n", rep.Metric)
		for _, it := range rep.Items {
			if it.Result.Success {
				fmt.Fprintf(stdout, "%-20s %.4f\n", it.ID, it.Result.Score)
			} else {
				fmt.Fprintf(stdout, "%-20s error: %s\n", it.ID, it.Result.Error)
			}
		}
		s := rep.Summary
		fmt.Fprintf(stdout, "pairs=%d scored=%d errors=%d degraded=%d passed=%d mean=%.4f min=%.4f max=%.4f\n",
			s.Count, s.Scored, s.Errors, s.Degraded, s.Passed, s.Mean, s.Min, s.Max)
	}
	return nil
}

func printResult(w io.Writer, r teds.Result) {
	fmt.Fprintf(w, "=== %s ===\n", r.Name)
	if !r.Success {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
		return
	}
	fmt.Fprintf(w, "Score: %.4f\n", r.Score)
	fmt.Fprintf(w, "Passed: %v (threshold %.2f)\n", r.Passed, r.Threshold)
	fmt.Fprintf(w, "Edit distance: %g\n", r.EditDistance)
	fmt.Fprintf(w, "Nodes: predicted=%d groundtruth=%d\n", r.PredictedNodes, r.GroundTruthNodes)
	fmt.Fprintf(w, "Algorithm: %s\n", r.Algorithm)
	if r.Degraded {
		fmt.Fprintf(w, "Degraded: %v\n", r.Details["degraded_reason"])
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
