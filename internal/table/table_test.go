package table

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsRaggedColumns(t *testing.T) {
	_, err := New(
		NewColumn("a", KindNumeric, []Value{Number(1), Number(2)}),
		NewColumn("b", KindText, []Value{Text("x")}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestValueEqualityAndNulls(t *testing.T) {
	assert.True(t, Null().Equal(Value{}))
	assert.True(t, Number(math.NaN()).IsNull())
	assert.False(t, Number(1).Equal(Text("1")))
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, Time(d).Equal(Time(d)))
	assert.NotEqual(t, Null().Key(), Text("").Key())
}

func TestValueStringRendering(t *testing.T) {
	assert.Equal(t, "2", Number(2).String())
	assert.Equal(t, "2.5", Number(2.5).String())
	assert.Equal(t, "True", Bool(true).String())
	assert.Equal(t, "2024-03-01", Time(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).String())
	assert.Equal(t, "2024-03-01 10:30:00", Time(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)).String())
	assert.Equal(t, "", Null().String())
}

func TestValueFloatCoercion(t *testing.T) {
	f, ok := Text(" 3,5 ").Float()
	assert.True(t, ok)
	assert.InDelta(t, 3.5, f, 1e-12)
	_, ok = Text("abc").Float()
	assert.False(t, ok)
	_, ok = Number(math.Inf(1)).Float()
	assert.False(t, ok)
	f, ok = Bool(true).Float()
	assert.True(t, ok)
	assert.Equal(t, 1.0, f)
}

func TestParseNumberLocales(t *testing.T) {
	cases := map[string]float64{
		"12.5%":    12.5,
		"1,234.50": 1234.5,
		"1.234,50": 1234.5,
		"-7":       -7,
		"1e3":      1000,
		"1 000":    1000,
	}
	for in, want := range cases {
		got, ok := ParseNumber(in, NumberFormat{})
		if assert.True(t, ok, in) {
			assert.InDelta(t, want, got, 1e-9, in)
		}
	}
	for _, bad := range []string{"", "abc", "2024-01-05", "0x1p-2", "--"} {
		_, ok := ParseNumber(bad, NumberFormat{})
		assert.False(t, ok, bad)
	}
}

func TestParseTimeLayouts(t *testing.T) {
	for _, in := range []string{"2024-01-05", "2024-01-05 10:00:00", "01/05/2024", "5-Jan-2024", "Jan 5, 2024", "2024-01-05T10:00:00Z"} {
		_, ok := ParseTime(in)
		assert.True(t, ok, in)
	}
	got, ok := ParseTime("13/01/2024")
	require.True(t, ok)
	assert.Equal(t, time.January, got.Month())
	for _, in := range []string{"hello", "42", "12345678"} {
		_, ok := ParseTime(in)
		assert.False(t, ok, in)
	}
}

func TestTakeHeadDropAndRecords(t *testing.T) {
	tb := MustNew(
		NewColumn("a", KindNumeric, []Value{Number(1), Number(2), Null()}),
		NewColumn("b", KindText, []Value{Text("x"), Text("y"), Text("z")}),
	)
	assert.Equal(t, 2, tb.Head(2).NumRows())
	assert.Equal(t, 3, tb.Head(10).NumRows())
	picked := tb.Take([]int{2, 0})
	assert.Equal(t, "z", picked.Columns[1].Values[0].Str)
	assert.Equal(t, []string{"b"}, tb.Drop("a").Names())

	header, rows := tb.Records()
	assert.Equal(t, []string{"a", "b"}, header)
	assert.Equal(t, []string{"", "z"}, rows[2])

	c := tb.Clone()
	c.Columns[0].Values[0] = Number(99)
	assert.Equal(t, 1.0, tb.Columns[0].Values[0].Num)
	assert.False(t, tb.Equal(c))
	assert.Equal(t, tb.RowKey(0), tb.Clone().RowKey(0))
}

func TestTableMarshalJSON(t *testing.T) {
	tb := MustNew(
		NewColumn("n", KindNumeric, []Value{Number(1.5), Null()}),
		NewColumn("s", KindText, []Value{Text("a"), Text("b")}),
		NewColumn("b", KindBool, []Value{Bool(true), Null()}),
	)
	b, err := json.Marshal(tb)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[{"name":"n","kind":"numeric"},{"name":"s","kind":"text"},{"name":"b","kind":"boolean"}],
		"rows":[[1.5,"a",true],[null,"b",null]]}`, string(b))
}
