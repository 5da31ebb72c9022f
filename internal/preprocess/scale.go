package preprocess

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tidyqa-cli/internal/analysis"
	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

// Scaler is a fitted per-column affine transform: x' = (x - center) / scale.
type Scaler interface {
	Kind() ScalerKind
	Columns() []string
	Params(column string) (center, scale float64, ok bool)
	Transform(t *table.Table) (*table.Table, error)
	InverseTransform(t *table.Table) (*table.Table, error)
}

// Scale fits a scaler on the numeric columns of t and returns the scaled
// copy. Missing or non-finite cells are treated as 0 before fitting.
// Without numeric columns it returns an unchanged copy and a nil scaler.
func Scale(t *table.Table, kind ScalerKind) (*table.Table, Scaler, error) {
	if err := validScaler(kind); err != nil {
		return nil, nil, err
	}
	s := &affineScaler{kind: kind}
	for _, c := range t.Columns {
		if c.Kind != table.KindNumeric {
			continue
		}
		xs, observed := coerce(c)
		if !observed {
			continue
		}
		center, scale := fit(kind, xs)
		s.cols = append(s.cols, c.Name)
		s.center = append(s.center, center)
		s.scale = append(s.scale, scale)
	}
	if len(s.cols) == 0 {
		return t.Clone(), nil, nil
	}
	out, err := s.Transform(t)
	if err != nil {
		return nil, nil, err
	}
	return out, s, nil
}

// coerce returns the column as floats with gaps set to 0, and whether any
// cell held a finite number.
func coerce(c *table.Column) ([]float64, bool) {
	xs := make([]float64, c.Len())
	observed := false
	for i, v := range c.Values {
		if f, ok := v.Float(); ok {
			xs[i] = f
			observed = true
		}
	}
	return xs, observed
}

func fit(kind ScalerKind, xs []float64) (center, scale float64) {
	switch kind {
	case ScalerMinMax:
		lo, hi := floats.Min(xs), floats.Max(xs)
		center, scale = lo, hi-lo
	case ScalerRobust:
		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)
		center = analysis.Quantile(sorted, 0.5)
		scale = analysis.Quantile(sorted, 0.75) - analysis.Quantile(sorted, 0.25)
	default:
		mean, variance := stat.PopMeanVariance(xs, nil)
		center, scale = mean, math.Sqrt(variance)
	}
	if scale == 0 || !table.IsFinite(scale) {
		scale = 1
	}
	return center, scale
}

type affineScaler struct {
	kind   ScalerKind
	cols   []string
	center []float64
	scale  []float64
}

func (s *affineScaler) Kind() ScalerKind  { return s.kind }
func (s *affineScaler) Columns() []string { return append([]string(nil), s.cols...) }

func (s *affineScaler) Params(column string) (float64, float64, bool) {
	for i, n := range s.cols {
		if n == column {
			return s.center[i], s.scale[i], true
		}
	}
	return 0, 0, false
}

func (s *affineScaler) Transform(t *table.Table) (*table.Table, error) {
	return s.apply(t, func(x, center, scale float64) float64 { return (x - center) / scale })
}

// InverseTransform maps scaled values back to the original units.
func (s *affineScaler) InverseTransform(t *table.Table) (*table.Table, error) {
	return s.apply(t, func(x, center, scale float64) float64 { return x*scale + center })
}

func (s *affineScaler) apply(t *table.Table, fn func(x, center, scale float64) float64) (*table.Table, error) {
	out := t.Clone()
	for i, name := range s.cols {
		idx := out.Index(name)
		if idx < 0 {
			return nil, apperr.InvalidInput("column %q was fitted but is not in the table", name)
		}
		src := out.Columns[idx]
		xs, _ := coerce(src)
		vals := make([]table.Value, len(xs))
		for r, x := range xs {
			vals[r] = table.Number(fn(x, s.center[i], s.scale[i]))
		}
		out.Columns[idx] = table.NewColumn(name, table.KindNumeric, vals)
	}
	return out, nil
}
