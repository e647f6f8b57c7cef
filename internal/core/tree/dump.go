package tree

import (
	"fmt"
	"sort"
	"strings"

	tp "github.com/xlab/treeprint"
)

// Dump renders the tree as an indented listing, one node per line.
func Dump(n *Node) string {
	if n == nil {
		return "<no table>\n"
	}
	p := tp.New()
	addNode(p, n)
	return p.String()
}

func addNode(p tp.Tree, n *Node) {
	if n.IsLeaf() {
		p.AddNode(nodeLabel(n))
		return
	}
	branch := p.AddBranch(nodeLabel(n))
	for _, c := range n.Children {
		addNode(branch, c)
	}
}

func nodeLabel(n *Node) string {
	var sb strings.Builder
	sb.WriteString(n.Tag)
	if len(n.Attrs) > 0 {
		keys := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%q", k, n.Attrs[k])
		}
	}
	if n.Text != "" {
		fmt.Fprintf(&sb, " %q", n.Text)
	}
	return sb.String()
}
