// Package chart computes chart data for distribution and relationship
// questions and renders it as terminal text.
package chart

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tidyqa-cli/internal/analysis"
	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

type Kind string

const (
	KindHistogram Kind = "histogram"
	KindBar       Kind = "bar"
	KindScatter   Kind = "scatter"
	KindBox       Kind = "box"
)

// Chart is renderer-neutral chart data. Only the fields of Kind are set.
type Chart struct {
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`
	X     string `json:"x"`
	Y     string `json:"y,omitempty"`

	Bins   []Bin   `json:"bins,omitempty"`
	Bars   []Bar   `json:"bars,omitempty"`
	Points []Point `json:"points,omitempty"`
	Trend  *Trend  `json:"trend,omitempty"`
	Boxes  []Box   `json:"boxes,omitempty"`
}

// Bin counts values in [Lo, Hi); the last bin also holds its upper edge.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

type Bar struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Trend is an ordinary least squares fit y = Intercept + Slope*x.
type Trend struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	R2        float64 `json:"r2"`
}

// Box is the five-number summary of one group.
type Box struct {
	Group  string  `json:"group"`
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

func column(t *table.Table, name string) (*table.Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, apperr.NotFound("column " + name)
	}
	return c, nil
}

// Distribution is a histogram for numeric columns and a bar chart of value
// counts otherwise.
func Distribution(t *table.Table, col string) (*Chart, error) {
	c, err := column(t, col)
	if err != nil {
		return nil, err
	}
	if c.Kind == table.KindNumeric {
		return &Chart{Kind: KindHistogram, Title: "Distribution of " + col, X: col, Bins: histogram(c.Floats())}, nil
	}
	return &Chart{Kind: KindBar, Title: "Distribution of " + col, X: col, Bars: valueCounts(c)}, nil
}

// Relationship is a scatter with an OLS trend when both columns are
// numeric, otherwise box plots of the numeric column per category.
func Relationship(t *table.Table, x, y string) (*Chart, error) {
	cx, err := column(t, x)
	if err != nil {
		return nil, err
	}
	cy, err := column(t, y)
	if err != nil {
		return nil, err
	}
	title := "Relationship between " + x + " and " + y
	xNum, yNum := cx.Kind == table.KindNumeric, cy.Kind == table.KindNumeric
	switch {
	case xNum && yNum:
		pts := points(cx, cy)
		return &Chart{Kind: KindScatter, Title: title, X: x, Y: y, Points: pts, Trend: fitTrend(pts)}, nil
	case yNum:
		return &Chart{Kind: KindBox, Title: title, X: x, Y: y, Boxes: boxes(cx, cy)}, nil
	case xNum:
		return &Chart{Kind: KindBox, Title: title, X: y, Y: x, Boxes: boxes(cy, cx)}, nil
	}
	return nil, apperr.InvalidInput("relationship between %q and %q needs at least one numeric column", x, y)
}

// histogram bins xs using Sturges' rule.
func histogram(xs []float64) []Bin {
	if len(xs) == 0 {
		return nil
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(sorted)}}
	}
	k := int(math.Ceil(math.Log2(float64(len(sorted))))) + 1
	width := (hi - lo) / float64(k)
	dividers := make([]float64, k+1)
	for i := range dividers {
		dividers[i] = lo + float64(i)*width
	}
	// the last divider is exclusive, nudge it past the maximum
	dividers[k] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)
	bins := make([]Bin, k)
	for i := range bins {
		bins[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: int(counts[i])}
	}
	bins[k-1].Hi = hi
	return bins
}

// valueCounts counts non-null values, most frequent first.
func valueCounts(c *table.Column) []Bar {
	counts := map[string]int{}
	for _, v := range c.Values {
		if !v.IsNull() {
			counts[v.String()]++
		}
	}
	bars := make([]Bar, 0, len(counts))
	for label, n := range counts {
		bars = append(bars, Bar{Label: label, Count: n})
	}
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Count == bars[j].Count {
			return bars[i].Label < bars[j].Label
		}
		return bars[i].Count > bars[j].Count
	})
	return bars
}

func points(cx, cy *table.Column) []Point {
	var pts []Point
	for i := range cx.Values {
		x, okx := cx.Values[i].Float()
		y, oky := cy.Values[i].Float()
		if okx && oky {
			pts = append(pts, Point{X: x, Y: y})
		}
	}
	return pts
}

func fitTrend(pts []Point) *Trend {
	if len(pts) < 2 {
		return nil
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if !table.IsFinite(alpha) || !table.IsFinite(beta) {
		return nil
	}
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)
	if !table.IsFinite(r2) {
		r2 = 0
	}
	return &Trend{Intercept: alpha, Slope: beta, R2: r2}
}

// boxes summarizes num per distinct value of group, in first-appearance order.
func boxes(group, num *table.Column) []Box {
	var order []string
	vals := map[string][]float64{}
	for i, g := range group.Values {
		y, ok := num.Values[i].Float()
		if !ok {
			continue
		}
		label := g.String()
		if g.IsNull() {
			label = "(missing)"
		}
		if _, seen := vals[label]; !seen {
			order = append(order, label)
		}
		vals[label] = append(vals[label], y)
	}
	out := make([]Box, 0, len(order))
	for _, label := range order {
		ys := vals[label]
		sort.Float64s(ys)
		out = append(out, Box{
			Group:  label,
			N:      len(ys),
			Min:    ys[0],
			Q1:     analysis.Quantile(ys, 0.25),
			Median: analysis.Quantile(ys, 0.5),
			Q3:     analysis.Quantile(ys, 0.75),
			Max:    ys[len(ys)-1],
		})
	}
	return out
}
