package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

// Options controls the quick-stats report.
type Options struct {
	// SampleRows determines how many head rows to include in the report.
	SampleRows int
	// TopValues caps the most-frequent values listed per text column.
	TopValues int
	// GroupBy computes per-group numeric means for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outliers counts values with robust |z| above OutlierThreshold (MAD based).
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for a quick-stats report.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		TopValues:        5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Describe summarizes every column of t, similar to a describe over all
// column kinds, plus optional correlations and group-by means.
func Describe(t *table.Table, name string, opt Options) *Report {
	rep := &Report{Name: name, Rows: t.NumRows()}
	if opt.SampleRows > 0 {
		_, rows := t.Head(opt.SampleRows).Records()
		rep.Samples = rows
	}
	for _, c := range t.Columns {
		rep.Cols = append(rep.Cols, summarize(c, opt))
	}
	if opt.Correlations {
		rep.Corr = correlations(t)
	}
	if len(opt.GroupBy) > 0 {
		groups, warn := groupMeans(t, opt.GroupBy)
		rep.Groups = groups
		rep.Warnings = append(rep.Warnings, warn...)
	}
	return rep
}

func summarize(c *table.Column, opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.Name, Kind: string(c.Kind), Missing: c.NullCount()}
	s.Count = c.Len() - s.Missing

	counts := map[string]int{}
	labels := map[string]string{}
	for _, v := range c.Values {
		if v.IsNull() {
			continue
		}
		k := v.Key()
		counts[k]++
		labels[k] = v.String()
	}
	s.Unique = len(counts)

	switch c.Kind {
	case table.KindNumeric:
		summarizeNumeric(&s, c.Floats(), opt)
	case table.KindDatetime:
		for _, v := range c.Values {
			if v.IsNull() {
				continue
			}
			if s.First.IsZero() || v.Time.Before(s.First) {
				s.First = v.Time
			}
			if s.Last.IsZero() || v.Time.After(s.Last) {
				s.Last = v.Time
			}
		}
	default:
		tops := make([]CategoryCount, 0, len(counts))
		for k, n := range counts {
			tops = append(tops, CategoryCount{Value: labels[k], Count: n})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > 0 {
			s.Top, s.Freq = tops[0].Value, tops[0].Count
		}
		limit := opt.TopValues
		if limit <= 0 {
			limit = 5
		}
		if len(tops) > limit {
			tops = tops[:limit]
		}
		s.TopValues = tops
	}
	return s
}

func summarizeNumeric(s *ColumnSummary, xs []float64, opt Options) {
	if len(xs) == 0 {
		return
	}
	s.Mean, _ = stats.Mean(xs)
	if len(xs) > 1 {
		s.Std, _ = stats.StandardDeviationSample(xs)
	}
	s.Min, _ = stats.Min(xs)
	s.Max, _ = stats.Max(xs)
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s.Q25 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q75 = Quantile(sorted, 0.75)

	if !opt.Outliers || len(xs) < 8 {
		return
	}
	median, mad := MedianMAD(xs)
	thr := opt.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}
	s.OutlierThreshold = thr
	if mad == 0 {
		return
	}
	for _, v := range xs {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			s.OutliersCount++
		}
		if az > s.OutliersMaxAbsZ {
			s.OutliersMaxAbsZ = az
		}
	}
}

// correlations computes pairwise Pearson r over rows where both values are present.
func correlations(t *table.Table) *CorrMatrix {
	var cols []*table.Column
	for _, c := range t.Columns {
		if c.Kind == table.KindNumeric {
			cols = append(cols, c)
		}
	}
	if len(cols) < 2 {
		return nil
	}
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i := range cols {
		m.Columns[i] = cols[i].Name
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			x, y := pairwise(cols[a], cols[b])
			var r float64
			if len(x) >= 2 {
				r = stat.Correlation(x, y, nil)
			}
			if !table.IsFinite(r) {
				r = 0
			}
			m.Values[a][b], m.Values[b][a] = r, r
		}
	}
	return m
}

func pairwise(a, b *table.Column) (x, y []float64) {
	for i := range a.Values {
		xa, ok1 := a.Values[i].Float()
		yb, ok2 := b.Values[i].Float()
		if ok1 && ok2 {
			x = append(x, xa)
			y = append(y, yb)
		}
	}
	return x, y
}

func groupMeans(t *table.Table, by []string) ([]GroupResult, []string) {
	var keys []*table.Column
	var warn []string
	for _, name := range by {
		c, ok := t.Column(strings.TrimSpace(name))
		if !ok {
			warn = append(warn, fmt.Sprintf("group-by column %q not found", name))
			continue
		}
		keys = append(keys, c)
	}
	if len(keys) == 0 {
		return nil, warn
	}

	type acc struct {
		size int
		vals map[string][]float64
	}
	groups := map[string]*acc{}
	for r := 0; r < t.NumRows(); r++ {
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%s", k.Name, safeVal(k.Values[r].String()))
		}
		key := strings.Join(parts, " | ")
		g := groups[key]
		if g == nil {
			g = &acc{vals: map[string][]float64{}}
			groups[key] = g
		}
		g.size++
		for _, c := range t.Columns {
			if c.Kind != table.KindNumeric {
				continue
			}
			if f, ok := c.Values[r].Float(); ok {
				g.vals[c.Name] = append(g.vals[c.Name], f)
			}
		}
	}

	out := make([]GroupResult, 0, len(groups))
	for k, g := range groups {
		gr := GroupResult{Key: k, Size: g.size, Metrics: map[string]NumSummary{}}
		for name, xs := range g.vals {
			mean, _ := stats.Mean(xs)
			lo, _ := stats.Min(xs)
			hi, _ := stats.Max(xs)
			gr.Metrics[name] = NumSummary{Count: len(xs), Min: lo, Max: hi, Mean: mean}
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		warn = append(warn, fmt.Sprintf("showing 20 of %d groups", len(out)))
		out = out[:20]
	}
	return out, warn
}

// MedianMAD computes median and MAD (median absolute deviation) of values.
func MedianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}

// Quantile linearly interpolates between the closest ranks of sorted.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
