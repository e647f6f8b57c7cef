package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sample() *Node {
	return New("table", "",
		New("tr", "", New("th", "a"), New("th", "b")),
		New("tr", "", New("td", "1").WithAttr("colspan", "2")),
	)
}

func TestCountIsRecursive(t *testing.T) {
	var check func(n *Node)
	check = func(n *Node) {
		sum := 1
		for _, c := range n.Children {
			sum += Count(c)
			check(c)
		}
		assert.Equal(t, sum, Count(n), n.String())
	}
	check(sample())
	assert.Equal(t, 6, Count(sample()))
	assert.Zero(t, Count(nil))
}

func TestAttr(t *testing.T) {
	n := New("td", "").WithAttr("rowspan", "")
	v, ok := n.Attr("rowspan")
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = n.Attr("colspan")
	assert.False(t, ok)

	var missing *Node
	_, ok = missing.Attr("colspan")
	assert.False(t, ok)
}

func TestDump(t *testing.T) {
	out := Dump(sample())
	t.Logf("tree =\n%s", out)
	for _, want := range []string{"table", `th "a"`, `td colspan="2" "1"`} {
		assert.True(t, strings.Contains(out, want), "dump missing %q", want)
	}
	assert.Equal(t, "<no table>\n", Dump(nil))
}
