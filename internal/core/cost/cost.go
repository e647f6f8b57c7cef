// Package cost decides how much it costs to match, rename, insert or delete table nodes.
//
// Two families of costs share the node predicates defined here. The recursive
// DP engine uses StructurallyEqual, FullyEqual and LeafContentCost. The generic
// ordered-tree engine works on serialized labels ("tag" or "tag:text") and
// uses Rename, Insert and Delete.
package cost

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/baditaflorin/go_table_similarity/internal/core/tree"
)

// StructuralAttrs are the only attributes compared between nodes.
var StructuralAttrs = []string{"colspan", "rowspan"}

// EmptyTextPolicy sets the cost of comparing an empty text with a non-empty one.
type EmptyTextPolicy int

const (
	// EmptyTextFlat charges a full mismatch of 1.0.
	EmptyTextFlat EmptyTextPolicy = iota
	// EmptyTextLength charges the rune length of the non-empty text.
	EmptyTextLength
)

func (p EmptyTextPolicy) String() string {
	switch p {
	case EmptyTextFlat:
		return "flat"
	case EmptyTextLength:
		return "length"
	default:
		return fmt.Sprintf("EmptyTextPolicy(%d)", int(p))
	}
}

// ParseEmptyTextPolicy maps "flat" or "length" to a policy.
func ParseEmptyTextPolicy(s string) (EmptyTextPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return EmptyTextFlat, nil
	case "length":
		return EmptyTextLength, nil
	}
	return EmptyTextFlat, fmt.Errorf("unknown empty text policy %q", s)
}

// Model bundles the scoring mode with the empty-text policy.
type Model struct {
	StructureOnly bool
	EmptyText     EmptyTextPolicy
}

// StructurallyEqual reports whether a and b share tag and span attributes.
// A missing attribute never equals a present one, even if that one is empty.
func StructurallyEqual(a, b *tree.Node) bool {
	if a.Tag != b.Tag {
		return false
	}
	for _, key := range StructuralAttrs {
		va, oka := a.Attr(key)
		vb, okb := b.Attr(key)
		if oka != okb || va != vb {
			return false
		}
	}
	return true
}

// FullyEqual reports whether a and b are structurally equal and, outside
// structure-only mode, carry the same text.
func (m Model) FullyEqual(a, b *tree.Node) bool {
	if !StructurallyEqual(a, b) {
		return false
	}
	return m.StructureOnly || a.Text == b.Text
}

// IsContentLeaf reports whether n carries content of its own: a table cell or
// a node without children.
func IsContentLeaf(n *tree.Node) bool {
	return n.Tag == "td" || n.Tag == "th" || n.IsLeaf()
}

// LeafContentCost is the text mismatch between two leaves, in [0,1] under
// EmptyTextFlat.
func (m Model) LeafContentCost(a, b *tree.Node) float64 {
	if m.StructureOnly {
		return 0
	}
	return TextCost(a.Text, b.Text, m.EmptyText)
}

// TextCost returns the Levenshtein distance between a and b divided by the
// longer rune length. Empty against non-empty text is charged per policy.
func TextCost(a, b string, policy EmptyTextPolicy) float64 {
	if a == b {
		return 0
	}
	if a == "" || b == "" {
		if policy == EmptyTextLength {
			return float64(utf8.RuneCountInString(a) + utf8.RuneCountInString(b))
		}
		return 1
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(maxLen)
}

var labelEscaper = strings.NewReplacer("(", "[", ")", "]", ",", ";")

// Label serializes n for bracket notation: "tag", or "tag:text" when text is
// compared. Parentheses and commas in text are substituted.
func (m Model) Label(n *tree.Node) string {
	if m.StructureOnly || n.Text == "" {
		return n.Tag
	}
	return n.Tag + ":" + labelEscaper.Replace(n.Text)
}

// Rename is the cost of relabeling a node from l1 to l2.
func (m Model) Rename(l1, l2 string) float64 {
	tag1, text1 := SplitLabel(l1)
	tag2, text2 := SplitLabel(l2)
	if tag1 != tag2 {
		return 1
	}
	return TextCost(text1, text2, m.EmptyText)
}

// Insert is the cost of inserting a node with the given label.
func (m Model) Insert(string) float64 { return 1 }

// Delete is the cost of deleting a node with the given label.
func (m Model) Delete(string) float64 { return 1 }

// SplitLabel splits a "tag:text" label at its first colon.
func SplitLabel(label string) (tag, text string) {
	if i := strings.IndexByte(label, ':'); i >= 0 {
		return label[:i], label[i+1:]
	}
	return label, ""
}
