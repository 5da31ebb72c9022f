package preprocess

import (
	"math"
	"testing"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nums(fs ...float64) []table.Value {
	out := make([]table.Value, len(fs))
	for i, f := range fs {
		out[i] = table.Number(f)
	}
	return out
}

func txts(ss ...string) []table.Value {
	out := make([]table.Value, len(ss))
	for i, s := range ss {
		if s != "" {
			out[i] = table.Text(s)
		}
	}
	return out
}

func floatsOf(t *testing.T, tb *table.Table, name string) []float64 {
	t.Helper()
	c, ok := tb.Column(name)
	require.True(t, ok, "missing column %s", name)
	out := make([]float64, c.Len())
	for i, v := range c.Values {
		if v.IsNull() {
			out[i] = math.NaN()
			continue
		}
		out[i] = v.Num
	}
	return out
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	cfg := DefaultConfig()
	cfg.Encoder = "hashing"
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(cfg.Validate()))
	cfg = DefaultConfig()
	cfg.Scaler = "maxabs"
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(cfg.Validate()))
}

func TestOneHotExpandsInPlace(t *testing.T) {
	tb := table.MustNew(
		table.NewColumn("id", table.KindNumeric, nums(1, 2, 3, 4)),
		table.NewColumn("color", table.KindText, txts("red", "blue", "red", "")),
		table.NewColumn("score", table.KindNumeric, nums(5, 6, 7, 8)),
	)
	out, enc, err := Encode(tb, EncoderOneHot, "")
	require.NoError(t, err)
	require.NotNil(t, enc)
	assert.Equal(t, []string{"id", "color_red", "color_blue", "color_nan", "score"}, out.Names())
	assert.Equal(t, []float64{1, 0, 1, 0}, floatsOf(t, out, "color_red"))
	assert.Equal(t, []float64{0, 1, 0, 0}, floatsOf(t, out, "color_blue"))
	assert.Equal(t, []float64{0, 0, 0, 1}, floatsOf(t, out, "color_nan"))
	assert.Equal(t, 3, tb.NumCols(), "input must not be mutated")

	unseen := table.MustNew(
		table.NewColumn("id", table.KindNumeric, nums(9)),
		table.NewColumn("color", table.KindText, txts("green")),
		table.NewColumn("score", table.KindNumeric, nums(1)),
	)
	got, err := enc.Transform(unseen)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, floatsOf(t, got, "color_red"))
	assert.Equal(t, []float64{0}, floatsOf(t, got, "color_blue"))
}

func TestEncodeWithoutCategoricalsIsNoop(t *testing.T) {
	tb := table.MustNew(
		table.NewColumn("a", table.KindNumeric, nums(1, 2)),
		table.NewColumn("flag", table.KindBool, []table.Value{table.Bool(true), table.Bool(false)}),
	)
	for _, kind := range []EncoderKind{EncoderOneHot, EncoderOrdinal} {
		out, enc, err := Encode(tb, kind, "")
		require.NoError(t, err)
		assert.Nil(t, enc)
		assert.True(t, out.Equal(tb))
	}
}

func TestOrdinalCodesByFirstAppearance(t *testing.T) {
	tb := table.MustNew(table.NewColumn("grade", table.KindText, txts("b", "a", "b")))
	out, enc, err := Encode(tb, EncoderOrdinal, "")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, floatsOf(t, out, "grade"))

	got, err := enc.Transform(table.MustNew(table.NewColumn("grade", table.KindText, txts("a", "c"))))
	require.NoError(t, err)
	assert.Equal(t, table.Number(1), got.Columns[0].Values[0])
	assert.True(t, got.Columns[0].Values[1].IsNull())

	_, err = enc.Transform(table.MustNew(table.NewColumn("other", table.KindText, txts("a"))))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestTargetEncoding(t *testing.T) {
	tb := table.MustNew(
		table.NewColumn("city", table.KindText, txts("x", "y", "x", "y")),
		table.NewColumn("sales", table.KindNumeric, nums(1, 2, 3, 6)),
	)
	out, enc, err := Encode(tb, EncoderTarget, "sales")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 2, 4}, floatsOf(t, out, "city"))
	assert.Equal(t, []float64{1, 2, 3, 6}, floatsOf(t, out, "sales"))

	got, err := enc.Transform(table.MustNew(table.NewColumn("city", table.KindText, txts("z"))))
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, floatsOf(t, got, "city"))
}

func TestTargetEncodingErrors(t *testing.T) {
	tb := table.MustNew(
		table.NewColumn("city", table.KindText, txts("x", "y")),
		table.NewColumn("label", table.KindText, txts("hi", "lo")),
	)
	cases := map[string]string{
		"no target":   "",
		"missing":     "nope",
		"non numeric": "label",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Encode(tb, EncoderTarget, target)
			assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))
		})
	}
}

func TestStandardScaler(t *testing.T) {
	tb := table.MustNew(
		table.NewColumn("x", table.KindNumeric, nums(1, 2, 3)),
		table.NewColumn("name", table.KindText, txts("a", "b", "c")),
	)
	out, sc, err := Scale(tb, ScalerStandard)
	require.NoError(t, err)
	got := floatsOf(t, out, "x")
	assert.InDelta(t, -1.2247, got[0], 1e-4)
	assert.InDelta(t, 0, got[1], 1e-12)
	assert.InDelta(t, 1.2247, got[2], 1e-4)
	assert.Equal(t, []string{"x"}, sc.Columns())

	back, err := sc.InverseTransform(out)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 3}, floatsOf(t, back, "x"), 1e-9)
	assert.True(t, back.Columns[1].Equal(tb.Columns[1]))
}

func TestMinMaxAndRobustScalers(t *testing.T) {
	tb := table.MustNew(table.NewColumn("x", table.KindNumeric, nums(1, 2, 3, 4)))

	out, _, err := Scale(tb, ScalerMinMax)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1.0 / 3, 2.0 / 3, 1}, floatsOf(t, out, "x"), 1e-12)

	out, sc, err := Scale(tb, ScalerRobust)
	require.NoError(t, err)
	center, scale, ok := sc.Params("x")
	require.True(t, ok)
	assert.Equal(t, 2.5, center)
	assert.Equal(t, 1.5, scale)
	assert.InDeltaSlice(t, []float64{-1, -1.0 / 3, 1.0 / 3, 1}, floatsOf(t, out, "x"), 1e-12)
}

func TestScalingIsAlwaysFinite(t *testing.T) {
	inputs := map[string][]table.Value{
		"constant":     nums(3, 3, 3),
		"nan and inf":  {table.Null(), {Kind: table.KindNumeric, Num: math.Inf(1)}, table.Number(5), table.Number(5)},
		"single row":   nums(7),
		"one observed": {table.Null(), table.Number(2), table.Null()},
	}
	for name, vals := range inputs {
		for _, kind := range []ScalerKind{ScalerStandard, ScalerMinMax, ScalerRobust} {
			t.Run(name+"/"+string(kind), func(t *testing.T) {
				tb := table.MustNew(table.NewColumn("x", table.KindNumeric, vals))
				out, _, err := Scale(tb, kind)
				require.NoError(t, err)
				for _, v := range out.Columns[0].Values {
					require.False(t, v.IsNull())
					assert.True(t, table.IsFinite(v.Num), "got %v", v.Num)
				}
			})
		}
	}
}

func TestScaleSkipsAllMissingColumns(t *testing.T) {
	tb := table.MustNew(table.NewColumn("x", table.KindNumeric, []table.Value{table.Null(), table.Null()}))
	out, sc, err := Scale(tb, ScalerStandard)
	require.NoError(t, err)
	assert.Nil(t, sc)
	assert.True(t, out.Equal(tb))
}

func TestTrainTestSplit(t *testing.T) {
	ids := make([]float64, 10)
	ys := make([]float64, 10)
	for i := range ids {
		ids[i] = float64(i)
		ys[i] = float64(i * 10)
	}
	tb := table.MustNew(
		table.NewColumn("id", table.KindNumeric, nums(ids...)),
		table.NewColumn("y", table.KindNumeric, nums(ys...)),
	)
	s, err := TrainTestSplit(tb, "y", DefaultTestSize, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Train.NumRows())
	assert.Equal(t, 2, s.Test.NumRows())
	assert.Equal(t, []string{"id"}, s.Train.Names())
	require.NotNil(t, s.TestTarget)

	seen := map[float64]bool{}
	for _, part := range []*table.Table{s.Train, s.Test} {
		for _, v := range part.Columns[0].Values {
			assert.False(t, seen[v.Num], "row %v appears twice", v.Num)
			seen[v.Num] = true
		}
	}
	assert.Len(t, seen, 10)
	for i, v := range s.Test.Columns[0].Values {
		assert.Equal(t, v.Num*10, s.TestTarget.Values[i].Num)
	}

	again, err := TrainTestSplit(tb, "y", DefaultTestSize, DefaultSeed)
	require.NoError(t, err)
	assert.True(t, again.Test.Equal(s.Test))

	noTarget, err := TrainTestSplit(tb, "missing", 0.5, 1)
	require.NoError(t, err)
	assert.Nil(t, noTarget.TrainTarget)
	assert.Equal(t, 2, noTarget.Train.NumCols())
}

func TestTrainTestSplitErrors(t *testing.T) {
	tb := table.MustNew(table.NewColumn("id", table.KindNumeric, nums(1)))
	_, err := TrainTestSplit(tb, "", 0.2, 42)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	_, err = TrainTestSplit(tb, "", 1.5, 42)
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))
}
