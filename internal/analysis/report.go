package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

// Report is a markdown-friendly summary of a table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
}

// ColumnSummary captures the kind and statistics of one column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|text|datetime|boolean
	Count   int
	Missing int
	Unique  int
	// Most frequent value (text and boolean)
	Top       string
	Freq      int
	TopValues []CategoryCount
	// Numeric stats
	Mean, Std, Min, Q25, Median, Q75, Max float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Datetime range
	First, Last time.Time
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// TopPairs lists correlation pairs ordered by |r|, at most limit of them.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	if m == nil {
		return nil
	}
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// Markdown renders the report as a standalone markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	title := "Dataset summary"
	if r.Name != "" {
		title = fmt.Sprintf("Dataset summary: %s", safeName(r.Name))
	}
	b.WriteString("# " + title + "\n\n")
	b.WriteString(fmt.Sprintf("Rows: %d  \nColumns: %d\n\n", r.Rows, len(r.Cols)))

	b.WriteString("## Schema\n\n")
	b.WriteString("| column | kind | count | missing | unique | summary |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, c := range r.Cols {
		missPct := 0.0
		if total := c.Count + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %d | %d (%.1f%%) | %d | %s |\n",
			safeVal(safeName(c.Name)), c.Kind, c.Count, c.Missing, missPct, c.Unique, safeVal(columnDetail(c))))
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n## Group-by summary\n\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  - %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}

	if pairs := r.Corr.TopPairs(10); len(pairs) > 0 {
		b.WriteString("\n## Correlations\n\n")
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n## Head\n\n")
		b.WriteString("|")
		for _, c := range r.Cols {
			b.WriteString(" " + safeVal(safeName(c.Name)) + " |")
		}
		b.WriteString("\n|")
		for range r.Cols {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("|")
			for i := range r.Cols {
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(" " + safeVal(val) + " |")
			}
			b.WriteString("\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

// HTML renders the markdown report as a complete HTML page.
func (r *Report) HTML() string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	title := "Dataset summary"
	if r.Name != "" {
		title += ": " + r.Name
	}
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return string(markdown.ToHTML([]byte(r.Markdown()), p, renderer))
}

func columnDetail(c ColumnSummary) string {
	switch c.Kind {
	case string(table.KindNumeric):
		if c.Count == 0 {
			return "all missing"
		}
		s := fmt.Sprintf("mean %.4g, std %.4g, min %.4g, 25%% %.4g, 50%% %.4g, 75%% %.4g, max %.4g",
			c.Mean, c.Std, c.Min, c.Q25, c.Median, c.Q75, c.Max)
		if c.OutlierThreshold > 0 {
			s += fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
			if c.OutliersMaxAbsZ > 0 {
				s += fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ)
			}
		}
		return s
	case string(table.KindDatetime):
		if c.Count == 0 {
			return "all missing"
		}
		return fmt.Sprintf("first %s, last %s", table.Time(c.First).String(), table.Time(c.Last).String())
	}
	if len(c.TopValues) == 0 {
		return ""
	}
	parts := make([]string, len(c.TopValues))
	for i, kv := range c.TopValues {
		parts[i] = fmt.Sprintf("%s(%d)", kv.Value, kv.Count)
	}
	s := "top: " + strings.Join(parts, ", ")
	if c.Unique > len(c.TopValues) {
		s += fmt.Sprintf("; unique=%d", c.Unique)
	}
	return s
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
