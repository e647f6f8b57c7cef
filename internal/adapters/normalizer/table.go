// Package normalizer converts table values of any supported shape into canonical HTML.
package normalizer

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/baditaflorin/go_table_similarity/internal/pool"
	"github.com/baditaflorin/go_table_similarity/internal/ports"
)

// TableNormalizer implements ports.TableNormalizer.
//
//	nil, blank string        -> "" (no table)
//	string with "<table"     -> unchanged
//	string with "|"          -> Markdown table
//	other string             -> single-cell table
//	slice or array of rows   -> one <tr> per row
//	anything else            -> single-cell table of fmt.Sprint(value)
type TableNormalizer struct {
	preserveEmptyCells bool
}

// NewTableNormalizer creates a table normalizer. With preserveEmptyCells,
// empty interior Markdown cells are kept instead of dropped.
func NewTableNormalizer(preserveEmptyCells bool) ports.TableNormalizer {
	return &TableNormalizer{preserveEmptyCells: preserveEmptyCells}
}

// Normalize returns the canonical HTML for value, or "" when there is no table.
func (n *TableNormalizer) Normalize(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return n.normalizeString(v)
	case []byte:
		return n.normalizeString(string(v))
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return n.Normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return rowsToHTML(rv)
	}
	return singleCell(fmt.Sprint(value))
}

func (n *TableNormalizer) normalizeString(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(s), "<table") {
		return s
	}
	if strings.Contains(s, "|") {
		return markdownToHTML(s, n.preserveEmptyCells)
	}
	return singleCell(s)
}

func singleCell(s string) string {
	return "<table><tr><td>" + s + "</td></tr></table>"
}

func rowsToHTML(rows reflect.Value) string {
	if rows.Len() == 0 {
		return ""
	}
	return pool.Render(func(sb *strings.Builder) {
		sb.WriteString("<table>")
		for i := 0; i < rows.Len(); i++ {
			writeRow(sb, "td", rowCells(rows.Index(i)))
		}
		sb.WriteString("</table>")
	})
}

// rowCells flattens one row: map values in sorted key order, slice elements,
// or the row itself as a single cell.
func rowCells(row reflect.Value) []string {
	for row.Kind() == reflect.Interface || row.Kind() == reflect.Ptr {
		if row.IsNil() {
			return []string{""}
		}
		row = row.Elem()
	}

	switch row.Kind() {
	case reflect.Map:
		keys := row.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		cells := make([]string, 0, len(keys))
		for _, k := range keys {
			cells = append(cells, cellString(row.MapIndex(k)))
		}
		return cells
	case reflect.Slice, reflect.Array:
		if row.Kind() == reflect.Slice && row.Type().Elem().Kind() == reflect.Uint8 {
			return []string{string(row.Bytes())}
		}
		cells := make([]string, 0, row.Len())
		for i := 0; i < row.Len(); i++ {
			cells = append(cells, cellString(row.Index(i)))
		}
		return cells
	}
	return []string{cellString(row)}
}

func cellString(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if (v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr) && v.IsNil() {
		return ""
	}
	return fmt.Sprint(v.Interface())
}

func writeRow(sb *strings.Builder, tag string, cells []string) {
	sb.WriteString("<tr>")
	for _, c := range cells {
		sb.WriteString("<" + tag + ">")
		sb.WriteString(c)
		sb.WriteString("</" + tag + ">")
	}
	sb.WriteString("</tr>")
}
