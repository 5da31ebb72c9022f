package cleaning

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tidyqa-cli/internal/table"
	"github.com/montanaflynn/stats"
)

// DropDuplicates keeps the first occurrence of every distinct row.
func DropDuplicates(t *table.Table) *table.Table {
	n := t.NumRows()
	seen := make(map[string]struct{}, n)
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		k := t.RowKey(i)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == n {
		return t
	}
	return t.Take(keep)
}

// StripWhitespace trims every text cell. Nulls stay null.
func StripWhitespace(t *table.Table) *table.Table {
	out := &table.Table{Columns: make([]*table.Column, len(t.Columns))}
	for j, c := range t.Columns {
		out.Columns[j] = c
		if c.Kind != table.KindText {
			continue
		}
		var vals []table.Value
		for i, v := range c.Values {
			if v.Kind != table.KindText {
				continue
			}
			s := strings.TrimSpace(v.Str)
			if s == v.Str {
				continue
			}
			if vals == nil {
				vals = make([]table.Value, len(c.Values))
				copy(vals, c.Values)
			}
			vals[i] = table.Text(s)
		}
		if vals != nil {
			out.Columns[j] = &table.Column{Name: c.Name, Kind: c.Kind, Values: vals}
		}
	}
	return out
}

// InferDatetimes promotes text columns to datetime when strictly more than
// half of all rows parse as a timestamp. Unparseable cells become null.
func InferDatetimes(t *table.Table) *table.Table {
	out, _ := inferDatetimes(t)
	return out
}

func inferDatetimes(t *table.Table) (*table.Table, []string) {
	n := t.NumRows()
	out := &table.Table{Columns: make([]*table.Column, len(t.Columns))}
	var converted []string
	for j, c := range t.Columns {
		out.Columns[j] = c
		if c.Kind != table.KindText || n == 0 {
			continue
		}
		if dt, ok := toDatetime(c, n); ok {
			out.Columns[j] = dt
			converted = append(converted, c.Name)
		}
	}
	return out, converted
}

// toDatetime never panics; any failure leaves the column as it was.
func toDatetime(c *table.Column, rows int) (out *table.Column, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out, ok = nil, false
		}
	}()
	vals := make([]table.Value, len(c.Values))
	parsed := 0
	for i, v := range c.Values {
		if v.Kind != table.KindText {
			continue
		}
		if ts, good := table.ParseTime(v.Str); good {
			vals[i] = table.Time(ts)
			parsed++
		}
	}
	if float64(parsed)/float64(rows) <= 0.5 {
		return nil, false
	}
	return table.NewColumn(c.Name, table.KindDatetime, vals), true
}

// ResolveMissing imputes numeric (numeric kind) and categorical (text and
// boolean kinds) columns. Datetime columns are left untouched.
func ResolveMissing(t *table.Table, p MissingPolicy) *table.Table {
	out, _ := resolveMissing(t, p)
	return out
}

func resolveMissing(t *table.Table, p MissingPolicy) (*table.Table, int) {
	if p.Validate() != nil {
		def := DefaultMissingPolicy()
		if p.FillConstant != "" {
			def.FillConstant = p.FillConstant
		}
		p = def
	}
	out := &table.Table{Columns: make([]*table.Column, len(t.Columns))}
	filled := 0
	for j, c := range t.Columns {
		out.Columns[j] = c
		nulls := c.NullCount()
		if nulls == 0 {
			continue
		}
		switch c.Kind {
		case table.KindNumeric:
			out.Columns[j] = fillColumn(c, c.Kind, table.Number(numericFill(c, p.Numeric)))
		case table.KindText, table.KindBool:
			out.Columns[j] = fillCategorical(c, p)
		default:
			continue
		}
		filled += nulls
	}
	return out, filled
}

// numericFill computes the column's own statistic over its finite values.
// A column without observations falls back to zero.
func numericFill(c *table.Column, s NumericStrategy) float64 {
	data := stats.Float64Data(c.Floats())
	if s == NumericZero || data.Len() == 0 {
		return 0
	}
	var (
		v   float64
		err error
	)
	if s == NumericMean {
		v, err = stats.Mean(data)
	} else {
		v, err = stats.Median(data)
	}
	if err != nil {
		return 0
	}
	return v
}

func fillCategorical(c *table.Column, p MissingPolicy) *table.Column {
	fill := table.Text(p.FillConstant)
	if p.Categorical == CategoricalMostFrequent {
		if m, ok := mode(c.Values); ok {
			fill = m
		}
	}
	if c.Kind == table.KindBool && fill.Kind != table.KindBool {
		// Mixed bool/string columns are represented as text.
		vals := make([]table.Value, len(c.Values))
		for i, v := range c.Values {
			if !v.IsNull() {
				vals[i] = table.Text(v.String())
			}
		}
		return fillColumn(table.NewColumn(c.Name, table.KindText, vals), table.KindText, fill)
	}
	return fillColumn(c, c.Kind, fill)
}

func fillColumn(c *table.Column, kind table.Kind, fill table.Value) *table.Column {
	vals := make([]table.Value, len(c.Values))
	for i, v := range c.Values {
		if v.IsNull() {
			vals[i] = fill
		} else {
			vals[i] = v
		}
	}
	return table.NewColumn(c.Name, kind, vals)
}

// mode returns the most frequent non-null value; ties go to the smallest value.
func mode(vals []table.Value) (table.Value, bool) {
	counts := map[string]int{}
	first := map[string]table.Value{}
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		k := v.Key()
		if counts[k] == 0 {
			first[k] = v
		}
		counts[k]++
	}
	var best table.Value
	bestN := 0
	for k, n := range counts {
		v := first[k]
		if n > bestN || (n == bestN && less(v, best)) {
			best, bestN = v, n
		}
	}
	return best, bestN > 0
}

func less(a, b table.Value) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	switch a.Kind {
	case table.KindNumeric:
		return a.Num < b.Num
	case table.KindBool:
		return !a.Bool && b.Bool
	case table.KindDatetime:
		return a.Time.Before(b.Time)
	}
	return a.Str < b.Str
}

func describeKinds(t *table.Table) string {
	counts := map[table.Kind]int{}
	for _, c := range t.Columns {
		counts[c.Kind]++
	}
	return fmt.Sprintf("numeric=%d text=%d datetime=%d boolean=%d",
		counts[table.KindNumeric], counts[table.KindText], counts[table.KindDatetime], counts[table.KindBool])
}
