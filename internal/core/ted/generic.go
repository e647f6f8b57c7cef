package ted

import (
	"fmt"

	"github.com/baditaflorin/go_table_similarity/internal/core/cost"
	"github.com/baditaflorin/go_table_similarity/internal/core/tree"
)

// Generic is the ordered tree edit distance (Zhang-Shasha) over bracket
// labels, using the label based rename/insert/delete costs of cost.Model.
type Generic struct {
	model     cost.Model
	serialize func(cost.Model, *tree.Node) string
}

// NewGeneric creates the generic strategy for the given cost model.
func NewGeneric(model cost.Model) *Generic {
	return &Generic{model: model, serialize: ToBracket}
}

// Name returns the strategy name.
func (g *Generic) Name() string { return GenericAlgorithmType.String() }

// Distance returns the minimum cost of transforming t1 into t2. Errors
// report a serialization that could not be parsed or an internal failure.
func (g *Generic) Distance(t1, t2 *tree.Node) (dist float64, err error) {
	if t1 == nil || t2 == nil {
		return float64(tree.Count(t1) + tree.Count(t2)), nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tree edit distance: %v", r)
		}
	}()

	a, err := parseBracket(g.serialize(g.model, t1))
	if err != nil {
		return 0, fmt.Errorf("predicted tree: %w", err)
	}
	b, err := parseBracket(g.serialize(g.model, t2))
	if err != nil {
		return 0, fmt.Errorf("groundtruth tree: %w", err)
	}
	return zhangShasha(g.model, newPostorder(a), newPostorder(b)), nil
}

// postorder is a labeled tree flattened in postorder with the index of each
// node's leftmost leaf descendant and the tree's keyroots.
type postorder struct {
	labels   []string
	leftmost []int
	keyroots []int
}

func newPostorder(root *labeled) *postorder {
	p := &postorder{}
	p.walk(root)

	// A keyroot is the highest-numbered node for its leftmost leaf.
	last := make(map[int]int, len(p.leftmost))
	for i, l := range p.leftmost {
		last[l] = i
	}
	for i, l := range p.leftmost {
		if last[l] == i {
			p.keyroots = append(p.keyroots, i)
		}
	}
	return p
}

func (p *postorder) walk(n *labeled) int {
	leftmost := -1
	for _, c := range n.children {
		l := p.walk(c)
		if leftmost < 0 {
			leftmost = l
		}
	}
	idx := len(p.labels)
	if leftmost < 0 {
		leftmost = idx
	}
	p.labels = append(p.labels, n.label)
	p.leftmost = append(p.leftmost, leftmost)
	return leftmost
}

func zhangShasha(model cost.Model, a, b *postorder) float64 {
	treeDist := make([][]float64, len(a.labels))
	for i := range treeDist {
		treeDist[i] = make([]float64, len(b.labels))
	}

	// One forest buffer serves every keyroot pair; each call only touches
	// the rows and columns of its own subforests and writes them before reading.
	fd := make([][]float64, len(a.labels)+1)
	for x := range fd {
		fd[x] = make([]float64, len(b.labels)+1)
	}

	for _, i := range a.keyroots {
		for _, j := range b.keyroots {
			forestDistance(model, a, b, i, j, treeDist, fd)
		}
	}
	return treeDist[len(a.labels)-1][len(b.labels)-1]
}

// forestDistance fills treeDist for every subtree pair rooted on the
// leftmost paths of keyroots i and j.
func forestDistance(model cost.Model, a, b *postorder, i, j int, treeDist, fd [][]float64) {
	li, lj := a.leftmost[i], b.leftmost[j]
	rows, cols := i-li+2, j-lj+2

	fd[0][0] = 0
	for x := 1; x < rows; x++ {
		fd[x][0] = fd[x-1][0] + model.Delete(a.labels[li+x-1])
	}
	for y := 1; y < cols; y++ {
		fd[0][y] = fd[0][y-1] + model.Insert(b.labels[lj+y-1])
	}

	for x := 1; x < rows; x++ {
		i1 := li + x - 1
		for y := 1; y < cols; y++ {
			j1 := lj + y - 1
			del := fd[x-1][y] + model.Delete(a.labels[i1])
			ins := fd[x][y-1] + model.Insert(b.labels[j1])
			best := del
			if ins < best {
				best = ins
			}
			if a.leftmost[i1] == li && b.leftmost[j1] == lj {
				if ren := fd[x-1][y-1] + model.Rename(a.labels[i1], b.labels[j1]); ren < best {
					best = ren
				}
				fd[x][y] = best
				treeDist[i1][j1] = best
				continue
			}
			p, q := a.leftmost[i1]-li, b.leftmost[j1]-lj
			if sub := fd[p][q] + treeDist[i1][j1]; sub < best {
				best = sub
			}
			fd[x][y] = best
		}
	}
}
