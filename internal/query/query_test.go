package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/intent"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

func salesTable() *table.Table {
	return table.MustNew(
		table.NewColumn("region", table.KindText, []table.Value{table.Text("north"), table.Text("south"), table.Text("north"), table.Null()}),
		table.NewColumn("income", table.KindNumeric, []table.Value{table.Number(10), table.Number(30), table.Number(20), table.Number(5)}),
		table.NewColumn("vip", table.KindBool, []table.Value{table.Bool(true), table.Bool(false), table.Bool(true), table.Bool(false)}),
		table.NewColumn("signup date", table.KindDatetime, []table.Value{
			table.Time(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), table.Null(), table.Null(), table.Null(),
		}),
	)
}

func TestQueryGroupAggregate(t *testing.T) {
	ex := New(0, nil)
	it := intent.Parse("average of income by region")
	out, err := ex.Query(context.Background(), salesTable(), it.Query)
	require.NoError(t, err)

	assert.Equal(t, []string{"group_by", "avg_value"}, out.Names())
	require.Equal(t, 3, out.NumRows())
	assert.Equal(t, table.Text("south"), out.Columns[0].Values[0])
	assert.Equal(t, table.Number(30), out.Columns[1].Values[0])
	assert.Equal(t, table.Number(15), out.Columns[1].Values[1])
	assert.Equal(t, table.KindNumeric, out.Columns[1].Kind)
	assert.True(t, out.Columns[0].Values[2].IsNull())
}

func TestQueryBindsKinds(t *testing.T) {
	out, err := New(0, nil).Query(context.Background(), salesTable(),
		`SELECT SUM(vip) AS vips, MAX("signup date") AS first_signup, COUNT(*) AS n FROM t`)
	require.NoError(t, err)
	assert.Equal(t, table.Number(2), out.Columns[0].Values[0])
	assert.Equal(t, table.Text("2024-01-02"), out.Columns[1].Values[0])
	assert.Equal(t, table.Number(4), out.Columns[2].Values[0])
}

func TestQueryErrorsAreVerbatim(t *testing.T) {
	_, err := New(0, nil).Query(context.Background(), salesTable(), "SELECT nope FROM t")
	require.Error(t, err)
	assert.Equal(t, apperr.KindQuery, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "no such column: nope")

	_, err = New(0, nil).Query(context.Background(), salesTable(), "  ")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestQueryCannotTouchSource(t *testing.T) {
	src := salesTable()
	before := src.Clone()
	ex := New(0, nil)
	_, err := ex.Query(context.Background(), src, "DELETE FROM t")
	require.NoError(t, err)
	out, err := ex.Query(context.Background(), src, "SELECT COUNT(*) AS n FROM t")
	require.NoError(t, err)
	assert.Equal(t, table.Number(4), out.Columns[0].Values[0])
	assert.True(t, src.Equal(before))
}

func TestQueryTruncatesAndDedupes(t *testing.T) {
	res, err := New(2, nil).Run(context.Background(), salesTable(), "SELECT income, income FROM t")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, 2, res.Table.NumRows())
	assert.Equal(t, []string{"income", "income.1"}, res.Table.Names())
}

func TestQueryDuplicateColumnNamesFail(t *testing.T) {
	tb := table.MustNew(
		table.NewColumn("a_b", table.KindNumeric, []table.Value{table.Number(1)}),
		table.NewColumn("a_b", table.KindNumeric, []table.Value{table.Number(2)}),
	)
	_, err := New(0, nil).Query(context.Background(), tb, "SELECT * FROM t")
	assert.Equal(t, apperr.KindQuery, apperr.KindOf(err))
}
