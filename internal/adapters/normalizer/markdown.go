package normalizer

import (
	"regexp"
	"strings"

	"github.com/baditaflorin/go_table_similarity/internal/pool"
)

var separatorRow = regexp.MustCompile(`^[\s|\-:]+$`)

// markdownToHTML renders a pipe table. The first data row becomes the header
// row; separator rows are dropped.
func markdownToHTML(md string, preserveEmptyCells bool) string {
	var lines []string
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "|") || separatorRow.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ""
	}

	return pool.Render(func(sb *strings.Builder) {
		sb.WriteString("<table>")
		for i, line := range lines {
			cells := splitCells(line, preserveEmptyCells)
			if len(cells) == 0 {
				continue
			}
			tag := "td"
			if i == 0 {
				tag = "th"
			}
			writeRow(sb, tag, cells)
		}
		sb.WriteString("</table>")
	})
}

// splitCells splits a pipe row into trimmed cells. Empty cells are dropped
// unless preserve is set, in which case only the empty border cells go.
func splitCells(line string, preserve bool) []string {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if preserve {
		if len(parts) > 0 && parts[0] == "" {
			parts = parts[1:]
		}
		if len(parts) > 0 && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
		return parts
	}
	cells := parts[:0]
	for _, p := range parts {
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}
