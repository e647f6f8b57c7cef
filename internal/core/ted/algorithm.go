// Package ted computes tree edit distances between table trees.
//
// Two interchangeable strategies implement ports.DistanceAlgorithm:
//
//	DP       recursive dynamic programming that separates structure from content
//	Generic  Zhang-Shasha ordered tree edit distance over bracket notation,
//	         driven by the label based insert/delete/rename costs
package ted

import (
	"errors"
	"fmt"
	"strings"

	"github.com/baditaflorin/go_table_similarity/internal/core/cost"
	"github.com/baditaflorin/go_table_similarity/internal/core/tree"
	"github.com/baditaflorin/go_table_similarity/internal/ports"
)

var (
	// ErrMalformedBracket is returned when a bracket notation string cannot be parsed.
	ErrMalformedBracket = errors.New("malformed bracket notation")
	// ErrTreeTooLarge is returned when a tree exceeds the configured node limit.
	ErrTreeTooLarge = errors.New("tree exceeds node limit")
)

// AlgorithmType selects a distance strategy.
type AlgorithmType int

const (
	// DPAlgorithmType is the recursive structure/content DP.
	DPAlgorithmType AlgorithmType = iota
	// GenericAlgorithmType is the label based ordered tree edit distance.
	GenericAlgorithmType
)

func (t AlgorithmType) String() string {
	switch t {
	case DPAlgorithmType:
		return "dp"
	case GenericAlgorithmType:
		return "generic"
	default:
		return fmt.Sprintf("AlgorithmType(%d)", int(t))
	}
}

// ParseAlgorithmType maps a configuration string to an AlgorithmType.
// "apted" and "zhang-shasha" are accepted as aliases of "generic".
func ParseAlgorithmType(s string) (AlgorithmType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dp":
		return DPAlgorithmType, nil
	case "generic", "apted", "zhang-shasha":
		return GenericAlgorithmType, nil
	}
	return DPAlgorithmType, fmt.Errorf("unknown algorithm %q", s)
}

// DefaultEmptyTextPolicy returns the empty-text cost each strategy uses
// unless configured otherwise.
func DefaultEmptyTextPolicy(t AlgorithmType) cost.EmptyTextPolicy {
	if t == GenericAlgorithmType {
		return cost.EmptyTextLength
	}
	return cost.EmptyTextFlat
}

// AlgorithmFactory creates distance algorithms by type.
type AlgorithmFactory struct{}

// NewAlgorithmFactory creates a new algorithm factory
func NewAlgorithmFactory() *AlgorithmFactory {
	return &AlgorithmFactory{}
}

// CreateAlgorithm creates an algorithm of the specified type
func (f *AlgorithmFactory) CreateAlgorithm(algorithmType AlgorithmType, model cost.Model) ports.DistanceAlgorithm {
	switch algorithmType {
	case GenericAlgorithmType:
		return NewGeneric(model)
	default:
		return NewDP(model)
	}
}

// CheckSize returns ErrTreeTooLarge when either tree has more than maxNodes
// nodes. A maxNodes of zero disables the check.
func CheckSize(t1, t2 *tree.Node, maxNodes int) error {
	if maxNodes <= 0 {
		return nil
	}
	if n := tree.Count(t1); n > maxNodes {
		return fmt.Errorf("predicted table has %d nodes, limit %d: %w", n, maxNodes, ErrTreeTooLarge)
	}
	if n := tree.Count(t2); n > maxNodes {
		return fmt.Errorf("groundtruth table has %d nodes, limit %d: %w", n, maxNodes, ErrTreeTooLarge)
	}
	return nil
}

// FallbackDistance is the degraded distance used when an algorithm fails:
// the absolute difference of the node counts.
func FallbackDistance(t1, t2 *tree.Node) float64 {
	d := tree.Count(t1) - tree.Count(t2)
	if d < 0 {
		d = -d
	}
	return float64(d)
}
