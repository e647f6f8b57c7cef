// Package tree holds the ordered, labeled tree a table is compared as.
package tree

import "fmt"

// Node is one table element: lowercase tag, attributes, own text and ordered children.
// Nodes are built once per comparison and not modified afterwards.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// New creates a node with the given tag, text and children.
func New(tag, text string, children ...*Node) *Node {
	return &Node{Tag: tag, Text: text, Children: children}
}

// WithAttr returns n after setting attribute key to val.
// Intended for constructing trees by hand, before they are compared.
func (n *Node) WithAttr(key, val string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = val
	return n
}

// Attr returns the attribute value and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[key]
	return v, ok
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

func (n *Node) String() string {
	if n == nil {
		return "(nil)"
	}
	return fmt.Sprintf("(%s #ch=%d %q)", n.Tag, len(n.Children), n.Text)
}

// Count returns the number of nodes in the tree rooted at n; 0 for a nil tree.
func Count(n *Node) int {
	if n == nil {
		return 0
	}
	count := 1
	for _, c := range n.Children {
		count += Count(c)
	}
	return count
}
