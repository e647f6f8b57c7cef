package ports

// TableNormalizer converts a table value (HTML, Markdown, rows, scalar) into canonical HTML.
type TableNormalizer interface {
	Normalize(value interface{}) string
}

// Sanitizer cleans an HTML fragment before it is parsed.
type Sanitizer interface {
	Sanitize(html string) string
}
