package ports

import (
	"context"

	"github.com/baditaflorin/go_table_similarity/internal/core/domain"
)

// SimilarityCalculator defines the interface for computing similarity between tables.
type SimilarityCalculator interface {
	Compute(ctx context.Context, predicted, groundtruth string) domain.Result
}

// TableCalculator scores arbitrary table values against a prerequisite check.
type TableCalculator interface {
	SimilarityCalculator
	Calculate(ctx context.Context, predicted, groundtruth interface{}, prereq *domain.Prerequisite) domain.Result
}
