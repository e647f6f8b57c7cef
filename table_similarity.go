// Package tablesimilarity scores a predicted table against a ground-truth
// table with TEDS and S-TEDS using default settings. Tables may be HTML,
// Markdown pipe tables or lists of rows.
//
// Use pkg/teds to choose the algorithm, ignored tags, thresholds or logging.
package tablesimilarity

import (
	"context"
	"sync"

	"github.com/baditaflorin/go_table_similarity/pkg/teds"
)

// Result is the outcome of one comparison.
type Result = teds.Result

var (
	initOnce  sync.Once
	initErr   error
	full      *teds.TEDS
	structure *teds.TEDS
)

func metrics() (*teds.TEDS, *teds.TEDS, error) {
	initOnce.Do(func() {
		log, err := createDefaultLogger()
		if err != nil {
			initErr = err
			return
		}
		if full, initErr = teds.New(teds.WithLogger(log)); initErr != nil {
			return
		}
		structure, initErr = teds.NewStructure(teds.WithLogger(log))
	})
	return full, structure, initErr
}

// TEDS compares structure and cell text.
func TEDS(ctx context.Context, predicted, groundtruth interface{}) (Result, error) {
	m, _, err := metrics()
	if err != nil {
		return Result{}, err
	}
	return m.Calculate(ctx, predicted, groundtruth, &teds.Prerequisite{Success: true}), nil
}

// STEDS compares structure only.
func STEDS(ctx context.Context, predicted, groundtruth interface{}) (Result, error) {
	_, m, err := metrics()
	if err != nil {
		return Result{}, err
	}
	return m.Calculate(ctx, predicted, groundtruth, &teds.Prerequisite{Success: true}), nil
}
