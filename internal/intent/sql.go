package intent

import (
	"fmt"
	"regexp"
	"strings"
)

// TableName is the name the cleaned table is registered under for queries.
const TableName = "t"

var simpleIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var reserved = map[string]bool{
	"all": true, "and": true, "as": true, "asc": true, "between": true, "by": true,
	"case": true, "desc": true, "distinct": true, "else": true, "end": true, "from": true,
	"group": true, "having": true, "in": true, "is": true, "join": true, "like": true,
	"limit": true, "not": true, "null": true, "on": true, "or": true, "order": true,
	"select": true, "table": true, "then": true, "union": true, "when": true, "where": true,
}

// QuoteIdent emits name bare when it is a plain identifier, otherwise
// double-quoted with embedded quotes doubled.
func QuoteIdent(name string) string {
	if simpleIdent.MatchString(name) && !reserved[strings.ToLower(name)] {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// AverageQuery builds the per-group average query over TableName.
func AverageQuery(value, groupBy string) string {
	return fmt.Sprintf("SELECT %s AS group_by, AVG(%s) AS avg_value FROM %s GROUP BY 1 ORDER BY 2 DESC",
		QuoteIdent(groupBy), QuoteIdent(value), TableName)
}
