package ingest

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

var naTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"#N/A": true,
	"NaN":  true,
	"nan":  true,
	"-NaN": true,
	"null": true,
	"NULL": true,
	"None": true,
	"<NA>": true,
}

// IsNA reports whether a raw field is read as missing.
func IsNA(s string) bool { return naTokens[s] }

// fromRecords builds a typed table from a header and string rows. Rows may be
// shorter than the header; missing trailing fields become null.
func fromRecords(header []string, rows [][]string, opt Options) *table.Table {
	names := headerNames(header)
	cols := make([]*table.Column, len(names))
	raw := make([]string, len(rows))
	for j, name := range names {
		for i, rec := range rows {
			if j < len(rec) {
				raw[i] = rec[j]
			} else {
				raw[i] = ""
			}
		}
		cols[j] = inferColumn(name, raw, opt.Number)
	}
	return &table.Table{Columns: cols}
}

// headerNames fills blank headers and suffixes duplicates: a, a.1, a.2.
func headerNames(header []string) []string {
	out := make([]string, len(header))
	used := map[string]bool{}
	dups := map[string]int{}
	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if used[name] {
			base := name
			for used[name] {
				dups[base]++
				name = fmt.Sprintf("%s.%d", base, dups[base])
			}
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// inferColumn types a column: numeric when every present value parses as a
// number (or nothing is present), boolean when every present value is a
// boolean, text otherwise. Dates stay text until the cleaning stage.
func inferColumn(name string, raw []string, nf table.NumberFormat) *table.Column {
	allNum, allBool, present := true, true, 0
	for _, s := range raw {
		if IsNA(s) {
			continue
		}
		present++
		if allNum {
			if _, ok := table.ParseNumber(s, nf); !ok {
				allNum = false
			}
		}
		if allBool {
			if _, ok := table.ParseBool(s); !ok {
				allBool = false
			}
		}
		if !allNum && !allBool {
			break
		}
	}
	vals := make([]table.Value, len(raw))
	kind := table.KindText
	switch {
	case present == 0 || allNum:
		kind = table.KindNumeric
	case allBool:
		kind = table.KindBool
	}
	for i, s := range raw {
		if IsNA(s) {
			continue
		}
		switch kind {
		case table.KindNumeric:
			f, _ := table.ParseNumber(s, nf)
			vals[i] = table.Number(f)
		case table.KindBool:
			b, _ := table.ParseBool(s)
			vals[i] = table.Bool(b)
		default:
			vals[i] = table.Text(s)
		}
	}
	return table.NewColumn(name, kind, vals)
}
