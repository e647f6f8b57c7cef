// Package batch scores many table pairs concurrently.
package batch

import (
	"context"
	"fmt"
	"math"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/baditaflorin/go_table_similarity/internal/core/domain"
	"github.com/baditaflorin/go_table_similarity/internal/ports"
)

// Pair is one predicted/ground-truth table pair. A nil Prerequisite counts
// as a successful table_edit stage.
type Pair struct {
	ID           string               `yaml:"id" json:"id"`
	Predicted    interface{}          `yaml:"predicted" json:"predicted"`
	GroundTruth  interface{}          `yaml:"groundtruth" json:"groundtruth"`
	Prerequisite *domain.Prerequisite `yaml:"table_edit,omitempty" json:"table_edit,omitempty"`
}

// Item is the result for the pair at the same index.
type Item struct {
	ID     string        `json:"id"`
	Result domain.Result `json:"result"`
}

// Summary aggregates the scores of a batch. Mean, Min and Max cover
// successful results only.
type Summary struct {
	Count    int     `json:"count"`
	Scored   int     `json:"scored"`
	Errors   int     `json:"errors"`
	Degraded int     `json:"degraded"`
	Passed   int     `json:"passed"`
	Mean     float64 `json:"mean"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Evaluate scores every pair with calc, running at most concurrency pairs at
// a time. Results keep the order of pairs. Pairs not started before ctx is
// done are reported as cancelled.
func Evaluate(ctx context.Context, calc ports.TableCalculator, pairs []Pair, concurrency int) []Item {
	items := make([]Item, len(pairs))
	if concurrency <= 0 {
		concurrency = 1
	}

	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	for i := range pairs {
		g.Go(func() error {
			p := pairs[i]
			prereq := p.Prerequisite
			if prereq == nil {
				prereq = &domain.Prerequisite{Success: true}
			}
			items[i] = Item{
				ID:     itemID(p.ID, i),
				Result: calc.Calculate(ctx, p.Predicted, p.GroundTruth, prereq),
			}
			return nil
		})
	}
	_ = g.Wait()
	return items
}

func itemID(id string, index int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("pair-%d", index+1)
}

// Summarize aggregates a batch of results.
func Summarize(items []Item) Summary {
	s := Summary{Count: len(items)}
	sum := 0.0
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	for _, it := range items {
		r := it.Result
		if !r.Success {
			s.Errors++
			continue
		}
		s.Scored++
		sum += r.Score
		s.Min = math.Min(s.Min, r.Score)
		s.Max = math.Max(s.Max, r.Score)
		if r.Degraded {
			s.Degraded++
		}
		if r.Passed {
			s.Passed++
		}
	}
	if s.Scored == 0 {
		s.Min, s.Max = 0, 0
		return s
	}
	s.Mean = sum / float64(s.Scored)
	return s
}

// LoadPairs reads a YAML file holding a list of pairs.
func LoadPairs(path string) ([]Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pairs: %w", err)
	}
	return ParsePairs(data)
}

// ParsePairs decodes a YAML list of pairs. Table values may be HTML or
// Markdown strings, or lists of rows.
func ParsePairs(data []byte) ([]Pair, error) {
	var pairs []Pair
	if err := yaml.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parsing pairs: %w", err)
	}
	return pairs, nil
}
