package chart

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
)

const barWidth = 40

// Render writes c as terminal text: a table plus a bar or line plot.
func Render(w io.Writer, c *Chart) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", c.Title); err != nil {
		return err
	}
	switch c.Kind {
	case KindHistogram:
		return renderHistogram(w, c)
	case KindBar:
		return renderBars(w, c)
	case KindScatter:
		return renderScatter(w, c)
	case KindBox:
		return renderBoxes(w, c)
	}
	return fmt.Errorf("unknown chart kind %q", c.Kind)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	return tw
}

func num(f float64) string { return strconv.FormatFloat(f, 'g', 6, 64) }

func bar(n, max int) string {
	if max <= 0 || n <= 0 {
		return ""
	}
	width := n * barWidth / max
	if width == 0 {
		width = 1
	}
	return strings.Repeat("█", width)
}

func renderHistogram(w io.Writer, c *Chart) error {
	if len(c.Bins) == 0 {
		_, err := fmt.Fprintln(w, "(no numeric values)")
		return err
	}
	max := 0
	for _, b := range c.Bins {
		if b.Count > max {
			max = b.Count
		}
	}
	tw := newTable(w, c.X, "count", "")
	for _, b := range c.Bins {
		tw.Append([]string{fmt.Sprintf("[%s, %s)", num(b.Lo), num(b.Hi)), strconv.Itoa(b.Count), bar(b.Count, max)})
	}
	tw.Render()
	return nil
}

func renderBars(w io.Writer, c *Chart) error {
	if len(c.Bars) == 0 {
		_, err := fmt.Fprintln(w, "(no values)")
		return err
	}
	tw := newTable(w, c.X, "count", "")
	for _, b := range c.Bars {
		tw.Append([]string{b.Label, strconv.Itoa(b.Count), bar(b.Count, c.Bars[0].Count)})
	}
	tw.Render()
	return nil
}

// renderScatter plots y ordered by x, which reads as a line for monotone data.
func renderScatter(w io.Writer, c *Chart) error {
	if len(c.Points) == 0 {
		_, err := fmt.Fprintln(w, "(no complete pairs)")
		return err
	}
	pts := append([]Point(nil), c.Points...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	ys := make([]float64, len(pts))
	for i, p := range pts {
		ys[i] = p.Y
	}
	caption := fmt.Sprintf("%s by %s, n=%d", c.Y, c.X, len(pts))
	if c.Trend != nil {
		caption += fmt.Sprintf("; trend %s = %s + %s*%s (R²=%.3f)", c.Y, num(c.Trend.Intercept), num(c.Trend.Slope), c.X, c.Trend.R2)
	}
	if len(ys) == 1 {
		_, err := fmt.Fprintf(w, "(%s, %s)\n%s\n", num(pts[0].X), num(pts[0].Y), caption)
		return err
	}
	plot := asciigraph.Plot(ys, asciigraph.Height(12), asciigraph.Width(60), asciigraph.Caption(caption))
	_, err := fmt.Fprintln(w, plot)
	return err
}

func renderBoxes(w io.Writer, c *Chart) error {
	if len(c.Boxes) == 0 {
		_, err := fmt.Fprintln(w, "(no numeric values)")
		return err
	}
	tw := newTable(w, c.X, "n", "min", "q1", "median", "q3", "max")
	for _, b := range c.Boxes {
		tw.Append([]string{b.Group, strconv.Itoa(b.N), num(b.Min), num(b.Q1), num(b.Median), num(b.Q3), num(b.Max)})
	}
	tw.Render()
	return nil
}
