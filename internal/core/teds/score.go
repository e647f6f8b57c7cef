package teds

import (
	"github.com/baditaflorin/go_table_similarity/internal/core/domain"
	"github.com/baditaflorin/go_table_similarity/internal/core/tree"
)

// Score turns an edit distance into a similarity in [0,1]:
//
//	both trees missing   1.0
//	one tree missing     0.0
//	otherwise            clamp(1 - distance/max(nodes), 0, 1)
//
// Node counts are reported on every path.
func Score(distance float64, predicted, groundtruth *tree.Node) domain.Result {
	predNodes := tree.Count(predicted)
	gtNodes := tree.Count(groundtruth)
	maxNodes := predNodes
	if gtNodes > maxNodes {
		maxNodes = gtNodes
	}

	details := map[string]interface{}{
		"edit_distance":     distance,
		"predicted_nodes":   predNodes,
		"groundtruth_nodes": gtNodes,
		"max_nodes":         maxNodes,
	}
	result := domain.Result{
		Success:          true,
		EditDistance:     distance,
		PredictedNodes:   predNodes,
		GroundTruthNodes: gtNodes,
		MaxNodes:         maxNodes,
		Details:          details,
	}

	switch {
	case predicted == nil && groundtruth == nil:
		result.Score = 1
		details["note"] = "both tables are empty or invalid"
	case predicted == nil || groundtruth == nil:
		result.Score = 0
		details["note"] = "one table is empty or invalid"
	case maxNodes == 0:
		result.Score = 1
	default:
		result.Score = clamp(1-distance/float64(maxNodes), 0, 1)
	}
	return result
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
