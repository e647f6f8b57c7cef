package ted

import (
	"github.com/baditaflorin/go_table_similarity/internal/core/cost"
	"github.com/baditaflorin/go_table_similarity/internal/core/tree"
)

// DP is the recursive tree distance that charges structure and content separately.
//
// Matching roots cost nothing beyond their child alignment. Roots that differ
// only in text add the leaf content cost. Structurally different roots take
// the cheaper of a relabel (1) and replacing both subtrees outright.
type DP struct {
	model cost.Model
}

// NewDP creates the DP strategy for the given cost model.
func NewDP(model cost.Model) *DP {
	return &DP{model: model}
}

// Name returns the strategy name.
func (d *DP) Name() string { return DPAlgorithmType.String() }

// Distance returns the edit distance between t1 and t2. It never fails.
func (d *DP) Distance(t1, t2 *tree.Node) (float64, error) {
	return d.treeDistance(t1, t2), nil
}

func (d *DP) treeDistance(t1, t2 *tree.Node) float64 {
	if t1 == nil {
		return float64(tree.Count(t2))
	}
	if t2 == nil {
		return float64(tree.Count(t1))
	}

	if d.model.FullyEqual(t1, t2) {
		return d.listDistance(t1.Children, t2.Children)
	}

	if cost.StructurallyEqual(t1, t2) {
		var content float64
		if cost.IsContentLeaf(t1) && cost.IsContentLeaf(t2) {
			content = d.model.LeafContentCost(t1, t2)
		}
		return content + d.listDistance(t1.Children, t2.Children)
	}

	replace := 1 + d.listDistance(t1.Children, t2.Children)
	rebuild := float64(tree.Count(t1) + tree.Count(t2))
	if replace < rebuild {
		return replace
	}
	return rebuild
}

// listDistance aligns two ordered child sequences. Deleting or inserting a
// child costs its subtree size; pairing two children costs their tree distance.
func (d *DP) listDistance(a, b []*tree.Node) float64 {
	sizeA := subtreeSizes(a)
	sizeB := subtreeSizes(b)

	prev := make([]float64, len(b)+1)
	curr := make([]float64, len(b)+1)
	for j := 1; j <= len(b); j++ {
		prev[j] = prev[j-1] + sizeB[j-1]
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = prev[0] + sizeA[i-1]
		for j := 1; j <= len(b); j++ {
			best := prev[j] + sizeA[i-1]
			if ins := curr[j-1] + sizeB[j-1]; ins < best {
				best = ins
			}
			if sub := prev[j-1] + d.treeDistance(a[i-1], b[j-1]); sub < best {
				best = sub
			}
			curr[j] = best
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func subtreeSizes(nodes []*tree.Node) []float64 {
	sizes := make([]float64, len(nodes))
	for i, n := range nodes {
		sizes[i] = float64(tree.Count(n))
	}
	return sizes
}
