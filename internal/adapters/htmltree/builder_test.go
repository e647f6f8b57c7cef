package htmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_table_similarity/internal/core/tree"
)

func build(t *testing.T, src string) *tree.Node {
	t.Helper()
	n, err := NewBuilder(false, DefaultIgnoreTags).Build(src)
	require.NoError(t, err)
	return n
}

func TestBuildNoTable(t *testing.T) {
	for _, src := range []string{"", "   \n\t", "<p>just text</p>", "plain words"} {
		assert.Nil(t, build(t, src), "input %q", src)
	}
}

func TestBuildSimpleTable(t *testing.T) {
	n := build(t, "<table><tr><th>a</th><th>b</th></tr><tr><td>1</td><td>2</td></tr></table>")
	require.NotNil(t, n)
	t.Logf("tree =\n%s", tree.Dump(n))

	assert.Equal(t, "table", n.Tag)
	assert.Equal(t, "ab12", n.Text)
	require.Len(t, n.Children, 2)
	assert.Equal(t, "tr", n.Children[0].Tag)
	assert.Equal(t, "th", n.Children[0].Children[0].Tag)
	assert.Equal(t, "2", n.Children[1].Children[1].Text)
	assert.Equal(t, 7, tree.Count(n))
}

func TestBuildSplicesSectionWrappers(t *testing.T) {
	bare := build(t, "<table><tr><td>x</td></tr><tr><td>y</td></tr></table>")
	wrapped := build(t, "<table><thead><tr><td>x</td></tr></thead><tbody><tr><td>y</td></tr></tbody></table>")
	tfoot := build(t, "<table><tbody><tr><td>x</td></tr></tbody><tfoot><tr><td>y</td></tr></tfoot></table>")

	assert.Equal(t, bare, wrapped)
	assert.Equal(t, bare, tfoot)
}

func TestBuildWithoutIgnoreTagsKeepsImplicitBody(t *testing.T) {
	n, err := NewBuilder(false, nil).Build("<table><tr><td>x</td></tr></table>")
	require.NoError(t, err)
	require.Len(t, n.Children, 1)
	assert.Equal(t, "tbody", n.Children[0].Tag)
}

func TestBuildCustomIgnoreTags(t *testing.T) {
	n, err := NewBuilder(false, []string{"TBODY", "span"}).Build(
		"<table><tr><td><span><b>x</b></span></td></tr></table>")
	require.NoError(t, err)
	td := n.Children[0].Children[0]
	require.Len(t, td.Children, 1)
	assert.Equal(t, "b", td.Children[0].Tag)
}

func TestBuildFirstTableOnly(t *testing.T) {
	n := build(t, "<p>intro</p><table><tr><td>first</td></tr></table><table><tr><td>second</td></tr></table>")
	require.NotNil(t, n)
	assert.Equal(t, "first", n.Text)
}

func TestBuildText(t *testing.T) {
	n := build(t, "<table><tr><td>  hello <b> big </b>\n world </td><!-- note --></tr></table>")
	td := n.Children[0].Children[0]
	assert.Equal(t, "hellobigworld", td.Text)
	assert.Len(t, n.Children[0].Children, 1, "comments are not children")
}

func TestBuildStructureOnlyDropsText(t *testing.T) {
	n, err := NewBuilder(true, DefaultIgnoreTags).Build("<table><tr><td>x</td></tr></table>")
	require.NoError(t, err)
	assert.Empty(t, n.Text)
	assert.Empty(t, n.Children[0].Children[0].Text)
}

func TestBuildAttributes(t *testing.T) {
	n := build(t, `<table><tr><td COLSPAN="2" class="num" rowspan="">x</td></tr></table>`)
	td := n.Children[0].Children[0]

	v, ok := td.Attr("colspan")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	v, ok = td.Attr("rowspan")
	assert.True(t, ok)
	assert.Empty(t, v)

	v, _ = td.Attr("class")
	assert.Equal(t, "num", v)
}
