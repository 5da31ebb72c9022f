package qa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/chart"
	"github.com/KaramelBytes/tidyqa-cli/internal/config"
	"github.com/KaramelBytes/tidyqa-cli/internal/intent"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

func people() *table.Table {
	return table.MustNew(
		table.NewColumn("Age", table.KindNumeric, []table.Value{table.Number(30), table.Number(40), table.Number(50)}),
		table.NewColumn("Income", table.KindNumeric, []table.Value{table.Number(100), table.Number(500), table.Number(300)}),
		table.NewColumn("Home Region", table.KindText, []table.Value{table.Text("n"), table.Text("s"), table.Text("n")}),
	)
}

func TestAskDispatchesEachIntent(t *testing.T) {
	d := NewDispatcher(nil)
	ctx := context.Background()

	ans, err := d.Ask(ctx, people(), "distribution of age")
	require.NoError(t, err)
	require.NotNil(t, ans.Chart)
	assert.Equal(t, chart.KindHistogram, ans.Chart.Kind)
	assert.Equal(t, "Age", ans.Chart.X)

	ans, err = d.Ask(ctx, people(), "relationship between age and income")
	require.NoError(t, err)
	assert.Equal(t, chart.KindScatter, ans.Chart.Kind)

	ans, err = d.Ask(ctx, people(), "average of income by home_region")
	require.NoError(t, err)
	assert.Equal(t, `SELECT "Home Region" AS group_by, AVG(Income) AS avg_value FROM t GROUP BY 1 ORDER BY 2 DESC`, ans.Intent.Query)
	require.NotNil(t, ans.Table)
	assert.Equal(t, table.Text("s"), ans.Table.Columns[0].Values[0])
	assert.Equal(t, table.Number(500), ans.Table.Columns[1].Values[0])

	ans, err = d.Ask(ctx, people(), "show me a summary")
	require.NoError(t, err)
	require.NotNil(t, ans.Report)
	assert.Len(t, ans.Report.Cols, 3)

	ans, err = d.Ask(ctx, people(), "what is the meaning of life")
	require.NoError(t, err)
	assert.Equal(t, intent.KindUnknown, ans.Intent.Kind)
	assert.Equal(t, Help, ans.Message)
}

func TestAskUnknownColumn(t *testing.T) {
	_, err := NewDispatcher(nil).Ask(context.Background(), people(), "distribution of salary")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestResolveColumn(t *testing.T) {
	tb := people()
	for in, want := range map[string]string{
		"Age":         "Age",
		"income":      "Income",
		"home region": "Home Region",
		"home_region": "Home Region",
	} {
		got, err := ResolveColumn(tb, in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestNewParser(t *testing.T) {
	p, err := NewParser(config.Default(), nil, false, nil)
	require.NoError(t, err)
	assert.IsType(t, intent.PatternParser{}, p)

	c := config.Default()
	c.QA.Provider = "ollama"
	p, err = NewParser(c, []string{"age"}, true, nil)
	require.NoError(t, err)
	lp, ok := p.(*intent.LLMParser)
	require.True(t, ok)
	assert.Equal(t, []string{"age"}, lp.Columns)
	assert.NotNil(t, lp.Runtime)

	c.QA.Provider = "nowhere"
	_, err = NewParser(c, nil, true, nil)
	assert.Error(t, err)
}
