package normalizer

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/baditaflorin/go_table_similarity/internal/ports"
)

// PolicySanitizer strips scripts, styles and unsafe attributes from extracted
// HTML while keeping table markup and span attributes.
type PolicySanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer based on the bluemonday UGC policy.
func NewSanitizer() ports.Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowTables()
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	return &PolicySanitizer{policy: p}
}

// Sanitize returns the cleaned fragment. Blank input is returned unchanged.
func (s *PolicySanitizer) Sanitize(html string) string {
	if strings.TrimSpace(html) == "" {
		return html
	}
	return s.policy.Sanitize(html)
}
