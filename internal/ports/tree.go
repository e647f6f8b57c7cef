package ports

import "github.com/baditaflorin/go_table_similarity/internal/core/tree"

// TreeBuilder parses canonical HTML into a labeled table tree.
// A nil tree means no table could be located.
type TreeBuilder interface {
	Build(html string) (*tree.Node, error)
}

// DistanceAlgorithm computes the edit distance between two table trees.
type DistanceAlgorithm interface {
	Name() string
	Distance(t1, t2 *tree.Node) (float64, error)
}
