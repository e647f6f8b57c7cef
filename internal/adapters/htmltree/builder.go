// Package htmltree builds table trees from HTML fragments.
package htmltree

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/baditaflorin/go_table_similarity/internal/core/tree"
	"github.com/baditaflorin/go_table_similarity/internal/ports"
)

// DefaultIgnoreTags are the table section wrappers spliced out of trees.
var DefaultIgnoreTags = []string{"tbody", "thead", "tfoot"}

// Builder converts the first <table> of an HTML fragment into a tree.
type Builder struct {
	structureOnly bool
	ignore        map[string]struct{}
}

// NewBuilder creates a tree builder. Text is dropped in structure-only mode;
// elements whose tag is in ignoreTags are replaced by their children.
func NewBuilder(structureOnly bool, ignoreTags []string) ports.TreeBuilder {
	ignore := make(map[string]struct{}, len(ignoreTags))
	for _, tag := range ignoreTags {
		ignore[strings.ToLower(tag)] = struct{}{}
	}
	return &Builder{structureOnly: structureOnly, ignore: ignore}
}

// Build parses src and returns the tree of its first table, or nil when src
// is blank or holds no table.
func (b *Builder) Build(src string) (*tree.Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil
	}
	return b.convert(table.Get(0)), nil
}

func (b *Builder) convert(n *html.Node) *tree.Node {
	node := &tree.Node{
		Tag:      strings.ToLower(n.Data),
		Attrs:    attributes(n),
		Children: b.children(n),
	}
	if !b.structureOnly {
		node.Text = elementText(n)
	}
	return node
}

// children returns the element children of n as a fresh slice. Ignored
// elements contribute their own children in their place.
func (b *Builder) children(n *html.Node) []*tree.Node {
	var out []*tree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if _, skip := b.ignore[strings.ToLower(c.Data)]; skip {
			out = append(out, b.children(c)...)
			continue
		}
		out = append(out, b.convert(c))
	}
	return out
}

func attributes(n *html.Node) map[string]string {
	if len(n.Attr) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[strings.ToLower(a.Key)] = a.Val
	}
	return attrs
}

// elementText concatenates the trimmed, non-empty descendant text nodes of n
// without a separator.
func elementText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
