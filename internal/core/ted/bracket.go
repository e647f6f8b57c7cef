package ted

import (
	"fmt"
	"strings"

	"github.com/baditaflorin/go_table_similarity/internal/core/cost"
	"github.com/baditaflorin/go_table_similarity/internal/core/tree"
	"github.com/baditaflorin/go_table_similarity/internal/pool"
)

// labeled is an ordered tree of bracket labels.
type labeled struct {
	label    string
	children []*labeled
}

// ToBracket serializes n as label(child,child,...). Leaves are written as
// their bare label.
func ToBracket(model cost.Model, n *tree.Node) string {
	if n == nil {
		return ""
	}
	return pool.Render(func(sb *strings.Builder) {
		writeBracket(sb, model, n)
	})
}

func writeBracket(sb *strings.Builder, model cost.Model, n *tree.Node) {
	sb.WriteString(model.Label(n))
	if n.IsLeaf() {
		return
	}
	sb.WriteByte('(')
	for i, c := range n.Children {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeBracket(sb, model, c)
	}
	sb.WriteByte(')')
}

// parseBracket parses the output of ToBracket back into a labeled tree.
func parseBracket(s string) (*labeled, error) {
	p := bracketParser{src: s}
	root, err := p.node()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: trailing input at offset %d", ErrMalformedBracket, p.pos)
	}
	return root, nil
}

type bracketParser struct {
	src string
	pos int
}

func (p *bracketParser) node() (*labeled, error) {
	start := p.pos
	for p.pos < len(p.src) && !isBracketDelim(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("%w: empty label at offset %d", ErrMalformedBracket, start)
	}
	n := &labeled{label: p.src[start:p.pos]}
	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return n, nil
	}
	p.pos++
	for {
		child, err := p.node()
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("%w: unclosed children of %q", ErrMalformedBracket, n.label)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return n, nil
		default:
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformedBracket, p.src[p.pos], p.pos)
		}
	}
}

func isBracketDelim(b byte) bool {
	return b == '(' || b == ')' || b == ','
}
