// Package qa answers a question about a cleaned table by parsing it into an
// intent and dispatching to charts, queries or summary statistics.
package qa

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/tidyqa-cli/internal/analysis"
	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/chart"
	"github.com/KaramelBytes/tidyqa-cli/internal/cleaning"
	"github.com/KaramelBytes/tidyqa-cli/internal/intent"
	"github.com/KaramelBytes/tidyqa-cli/internal/query"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

// Help is returned for questions no pattern understands.
const Help = `Could not understand the question. Try one of:
  distribution of <column>
  relationship between <column> and <column>
  average of <column> by <column>
  summary`

// Answer holds exactly one of Chart, Table or Report, or a Message for
// unknown questions.
type Answer struct {
	Intent  intent.Intent    `json:"intent"`
	Chart   *chart.Chart     `json:"chart,omitempty"`
	Table   *table.Table     `json:"table,omitempty"`
	Report  *analysis.Report `json:"-"`
	Message string           `json:"message,omitempty"`
}

type Dispatcher struct {
	Parser   intent.Parser
	Executor *query.Executor
	Stats    analysis.Options
	Log      logrus.FieldLogger
}

// NewDispatcher uses the pattern parser and default query limits.
func NewDispatcher(log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		Parser:   intent.PatternParser{},
		Executor: query.New(0, log),
		Stats:    analysis.DefaultOptions(),
		Log:      log,
	}
}

// Ask parses question and answers it against t.
func (d *Dispatcher) Ask(ctx context.Context, t *table.Table, question string) (*Answer, error) {
	parser := d.Parser
	if parser == nil {
		parser = intent.PatternParser{}
	}
	it, err := parser.Parse(ctx, question)
	if err != nil {
		return nil, err
	}
	d.logger().WithFields(logrus.Fields{"question": question, "intent": it.Kind}).Debug("question parsed")
	return d.Dispatch(ctx, t, it)
}

// Dispatch answers an already parsed intent.
func (d *Dispatcher) Dispatch(ctx context.Context, t *table.Table, it intent.Intent) (*Answer, error) {
	ans := &Answer{Intent: it}
	switch it.Kind {
	case intent.KindDistribution:
		col, err := ResolveColumn(t, it.Column)
		if err != nil {
			return nil, err
		}
		ans.Chart, err = chart.Distribution(t, col)
		return ans, err
	case intent.KindRelationship:
		x, err := ResolveColumn(t, it.X)
		if err != nil {
			return nil, err
		}
		y, err := ResolveColumn(t, it.Y)
		if err != nil {
			return nil, err
		}
		ans.Chart, err = chart.Relationship(t, x, y)
		return ans, err
	case intent.KindGroupAggregate:
		value, err := ResolveColumn(t, it.Value)
		if err != nil {
			return nil, err
		}
		group, err := ResolveColumn(t, it.GroupBy)
		if err != nil {
			return nil, err
		}
		ans.Intent = intent.GroupAggregate(value, group)
		ex := d.Executor
		if ex == nil {
			ex = query.New(0, d.logger())
		}
		ans.Table, err = ex.Query(ctx, t, ans.Intent.Query)
		return ans, err
	case intent.KindSummary:
		ans.Report = analysis.Describe(t, "", d.Stats)
		return ans, nil
	}
	ans.Message = Help
	return ans, nil
}

func (d *Dispatcher) logger() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

// ResolveColumn maps a name taken from a lowercased question onto a column
// of t: exact match first, then case-insensitive, then normalized form.
func ResolveColumn(t *table.Table, name string) (string, error) {
	if _, ok := t.Column(name); ok {
		return name, nil
	}
	for _, c := range t.Names() {
		if strings.EqualFold(c, name) {
			return c, nil
		}
	}
	want := cleaning.NormalizeNames([]string{name})[0]
	if want != "" {
		for _, c := range t.Names() {
			if cleaning.NormalizeNames([]string{c})[0] == want {
				return c, nil
			}
		}
	}
	return "", apperr.NotFound("column " + name)
}
