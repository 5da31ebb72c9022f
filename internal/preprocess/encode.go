package preprocess

import (
	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

// Encoder is a fitted categorical encoder. Transform applies the fitted
// mapping to another table with the same categorical columns.
type Encoder interface {
	Kind() EncoderKind
	Columns() []string
	Transform(t *table.Table) (*table.Table, error)
}

// Encode fits an encoder on the text columns of t and returns the encoded
// copy. Without categorical columns it returns an unchanged copy and a nil encoder.
func Encode(t *table.Table, kind EncoderKind, target string) (*table.Table, Encoder, error) {
	if err := validEncoder(kind); err != nil {
		return nil, nil, err
	}
	if kind == EncoderTarget {
		if target == "" {
			return nil, nil, apperr.Config("target encoding requires a target column")
		}
		tc, ok := t.Column(target)
		if !ok {
			return nil, nil, apperr.Config("target column %q not found", target)
		}
		if tc.Kind != table.KindNumeric && tc.Kind != table.KindBool {
			return nil, nil, apperr.Config("target column %q must be numeric or boolean, got %s", target, tc.Kind)
		}
	}
	exclude := ""
	if kind == EncoderTarget {
		exclude = target
	}
	cats := categoricalColumns(t, exclude)
	if len(cats) == 0 {
		return t.Clone(), nil, nil
	}
	var enc Encoder
	switch kind {
	case EncoderOneHot:
		enc = fitOneHot(t, cats)
	case EncoderOrdinal:
		enc = fitOrdinal(t, cats)
	case EncoderTarget:
		te, err := fitTarget(t, cats, target)
		if err != nil {
			return nil, nil, err
		}
		enc = te
	}
	out, err := enc.Transform(t)
	if err != nil {
		return nil, nil, err
	}
	return out, enc, nil
}

func categoricalColumns(t *table.Table, exclude string) []string {
	var out []string
	for _, c := range t.Columns {
		if c.Kind == table.KindText && c.Name != exclude {
			out = append(out, c.Name)
		}
	}
	return out
}

// category is the label a cell contributes; nulls form their own "nan" category.
func category(v table.Value) string {
	if v.IsNull() {
		return "nan"
	}
	return v.String()
}

// levels lists distinct categories in order of first appearance.
func levels(c *table.Column) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range c.Values {
		k := category(v)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// replaceColumns rebuilds t, swapping each fitted column for the columns fn returns.
func replaceColumns(t *table.Table, fitted []string, fn func(c *table.Column) []*table.Column) (*table.Table, error) {
	want := make(map[string]bool, len(fitted))
	for _, n := range fitted {
		if _, ok := t.Column(n); !ok {
			return nil, apperr.InvalidInput("column %q was fitted but is not in the table", n)
		}
		want[n] = true
	}
	out := &table.Table{}
	for _, c := range t.Columns {
		if want[c.Name] {
			out.Columns = append(out.Columns, fn(c)...)
			continue
		}
		out.Columns = append(out.Columns, c.Clone())
	}
	return out, nil
}

type oneHotEncoder struct {
	cols   []string
	levels map[string][]string
}

func fitOneHot(t *table.Table, cols []string) *oneHotEncoder {
	e := &oneHotEncoder{cols: cols, levels: map[string][]string{}}
	for _, n := range cols {
		c, _ := t.Column(n)
		e.levels[n] = levels(c)
	}
	return e
}

func (e *oneHotEncoder) Kind() EncoderKind { return EncoderOneHot }
func (e *oneHotEncoder) Columns() []string { return append([]string(nil), e.cols...) }

// Transform expands each column into <column>_<category> indicators.
// Categories not seen during fitting produce all-zero rows.
func (e *oneHotEncoder) Transform(t *table.Table) (*table.Table, error) {
	return replaceColumns(t, e.cols, func(c *table.Column) []*table.Column {
		lv := e.levels[c.Name]
		out := make([]*table.Column, len(lv))
		for k, level := range lv {
			vals := make([]table.Value, c.Len())
			for i, v := range c.Values {
				if category(v) == level {
					vals[i] = table.Number(1)
				} else {
					vals[i] = table.Number(0)
				}
			}
			out[k] = table.NewColumn(c.Name+"_"+level, table.KindNumeric, vals)
		}
		return out
	})
}

type ordinalEncoder struct {
	cols  []string
	codes map[string]map[string]int
}

func fitOrdinal(t *table.Table, cols []string) *ordinalEncoder {
	e := &ordinalEncoder{cols: cols, codes: map[string]map[string]int{}}
	for _, n := range cols {
		c, _ := t.Column(n)
		m := map[string]int{}
		for i, level := range levels(c) {
			m[level] = i
		}
		e.codes[n] = m
	}
	return e
}

func (e *ordinalEncoder) Kind() EncoderKind { return EncoderOrdinal }
func (e *ordinalEncoder) Columns() []string { return append([]string(nil), e.cols...) }

// Mapping returns the fitted code of each category of column.
func (e *ordinalEncoder) Mapping(column string) map[string]int {
	out := map[string]int{}
	for k, v := range e.codes[column] {
		out[k] = v
	}
	return out
}

// Transform replaces categories by their codes; unseen categories become null.
func (e *ordinalEncoder) Transform(t *table.Table) (*table.Table, error) {
	return replaceColumns(t, e.cols, func(c *table.Column) []*table.Column {
		codes := e.codes[c.Name]
		vals := make([]table.Value, c.Len())
		for i, v := range c.Values {
			if code, ok := codes[category(v)]; ok {
				vals[i] = table.Number(float64(code))
			}
		}
		return []*table.Column{table.NewColumn(c.Name, table.KindNumeric, vals)}
	})
}

// targetEncoder replaces categories by the in-sample mean of the target.
// The statistic is computed from the same rows it encodes, so scores
// measured on those rows are optimistic.
type targetEncoder struct {
	target string
	cols   []string
	means  map[string]map[string]float64
	prior  float64
}

func fitTarget(t *table.Table, cols []string, target string) (*targetEncoder, error) {
	tc, _ := t.Column(target)
	var sum float64
	var n int
	for _, v := range tc.Values {
		if f, ok := v.Float(); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return nil, apperr.Config("target column %q has no numeric values", target)
	}
	e := &targetEncoder{target: target, cols: cols, means: map[string]map[string]float64{}, prior: sum / float64(n)}
	for _, name := range cols {
		c, _ := t.Column(name)
		sums := map[string]float64{}
		counts := map[string]int{}
		for i, v := range c.Values {
			y, ok := tc.Values[i].Float()
			if !ok {
				continue
			}
			k := category(v)
			sums[k] += y
			counts[k]++
		}
		m := map[string]float64{}
		for k, s := range sums {
			m[k] = s / float64(counts[k])
		}
		e.means[name] = m
	}
	return e, nil
}

func (e *targetEncoder) Kind() EncoderKind { return EncoderTarget }
func (e *targetEncoder) Columns() []string { return append([]string(nil), e.cols...) }

// Prior is the global target mean used for unseen categories.
func (e *targetEncoder) Prior() float64 { return e.prior }

func (e *targetEncoder) Transform(t *table.Table) (*table.Table, error) {
	return replaceColumns(t, e.cols, func(c *table.Column) []*table.Column {
		means := e.means[c.Name]
		vals := make([]table.Value, c.Len())
		for i, v := range c.Values {
			m, ok := means[category(v)]
			if !ok {
				m = e.prior
			}
			vals[i] = table.Number(m)
		}
		return []*table.Column{table.NewColumn(c.Name, table.KindNumeric, vals)}
	})
}
