package cleaning

import (
	"regexp"
	"strings"

	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

var nonIdent = regexp.MustCompile(`[^0-9a-zA-Z_]+`)

// NormalizeNames maps raw headers to lowercase snake identifiers.
// Collisions are not resolved: "First Name" and "first_name!" both become "first_name".
func NormalizeNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = normalizeName(n)
	}
	return out
}

func normalizeName(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "_")
	return nonIdent.ReplaceAllString(s, "")
}

// StandardizeNames renames every column with NormalizeNames.
func StandardizeNames(t *table.Table) *table.Table {
	names := NormalizeNames(t.Names())
	out := &table.Table{Columns: make([]*table.Column, len(t.Columns))}
	for i, c := range t.Columns {
		if c.Name == names[i] {
			out.Columns[i] = c
			continue
		}
		out.Columns[i] = &table.Column{Name: names[i], Kind: c.Kind, Values: c.Values}
	}
	return out
}
