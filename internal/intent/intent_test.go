package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tidyqa-cli/internal/llm"
)

func TestParseExamples(t *testing.T) {
	cases := []struct {
		question string
		want     Intent
	}{
		{"distribution of age", Distribution("age")},
		{"relationship between height and weight", Relationship("height", "weight")},
		{"average of income by region", Intent{
			Kind:    KindGroupAggregate,
			Value:   "income",
			GroupBy: "region",
			Query:   "SELECT region AS group_by, AVG(income) AS avg_value FROM t GROUP BY 1 ORDER BY 2 DESC",
		}},
		{"show me a summary", Summary()},
		{"what is the meaning of life", Unknown()},
	}
	for _, tc := range cases {
		t.Run(tc.question, func(t *testing.T) {
			assert.Equal(t, tc.want, Parse(tc.question))
		})
	}
}

func TestParseNormalizesAndOrders(t *testing.T) {
	assert.Equal(t, Distribution("sepal_length"), Parse("  Distribution of   Sepal_Length  "))
	assert.Equal(t, Relationship("a", "b"), Parse("correlation between a and b"))
	assert.Equal(t, Relationship("a", "b"), Parse("relation between a and b"))
	assert.Equal(t, Relationship("a and b", "c"), Parse("relationship between a and b and c"))
	// distribution wins even though the text also mentions stats
	assert.Equal(t, Distribution("stats"), Parse("distribution of stats"))
	assert.Equal(t, Summary(), Parse("Describe the data"))
	assert.Equal(t, Summary(), Parse("quick STATS please"))
	// patterns are anchored at the start
	assert.Equal(t, Unknown(), Parse("plot the distribution of age"))
	assert.Equal(t, Unknown(), Parse(""))
}

func TestAverageQueryQuotesIdentifiers(t *testing.T) {
	it := Parse("average of unit price by sales region")
	assert.Equal(t, `SELECT "sales region" AS group_by, AVG("unit price") AS avg_value FROM t GROUP BY 1 ORDER BY 2 DESC`, it.Query)
	assert.Equal(t, `"order"`, QuoteIdent("order"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
	assert.Equal(t, "spend_2024", QuoteIdent("spend_2024"))
	assert.Equal(t, `"2024_total"`, QuoteIdent("2024_total"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Summary().Validate())
	assert.NoError(t, Unknown().Validate())
	assert.Error(t, Intent{Kind: KindDistribution}.Validate())
	assert.Error(t, Intent{Kind: KindRelationship, X: "a"}.Validate())
	assert.Error(t, Intent{Kind: "chart"}.Validate())
}

type fakeRuntime struct {
	answer string
	err    error
	got    llm.GenerateRequest
}

func (f *fakeRuntime) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: f.answer}}}}, nil
}

func TestLLMParser(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cols := []string{"Income", "region", "age"}

	cases := []struct {
		name     string
		rt       *fakeRuntime
		question string
		want     Intent
		warned   bool
	}{
		{
			name:     "json answer in fences",
			rt:       &fakeRuntime{answer: "```json\n{\"type\":\"group_aggregate\",\"value\":\"income\",\"group_by\":\"region\"}\n```"},
			question: "which region earns most?",
			want:     GroupAggregate("Income", "region"),
		},
		{
			name:     "transport error falls back",
			rt:       &fakeRuntime{err: &llm.UnreachableError{Host: "x", Err: errors.New("refused")}},
			question: "distribution of age",
			want:     Distribution("age"),
			warned:   true,
		},
		{
			name:     "unknown column falls back",
			rt:       &fakeRuntime{answer: `{"type":"distribution","column":"salary"}`},
			question: "show me a summary",
			want:     Summary(),
			warned:   true,
		},
		{
			name:     "garbage falls back",
			rt:       &fakeRuntime{answer: "I think it is a histogram"},
			question: "what is the meaning of life",
			want:     Unknown(),
			warned:   true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hook.Reset()
			p := &LLMParser{Runtime: tc.rt, Model: "m", Columns: cols, Log: logger}
			got, err := p.Parse(context.Background(), tc.question)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			if tc.warned {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
			}
			require.Len(t, tc.rt.got.Messages, 2)
			assert.Contains(t, tc.rt.got.Messages[1].Content, "Columns: Income, region, age")
		})
	}
}

func TestLLMParserHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &LLMParser{Runtime: &fakeRuntime{err: context.Canceled}, Model: "m"}
	_, err := p.Parse(ctx, "distribution of age")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLLMParserWithoutRuntimeUsesPatterns(t *testing.T) {
	var p Parser = &LLMParser{}
	got, err := p.Parse(context.Background(), "distribution of age")
	require.NoError(t, err)
	assert.Equal(t, Distribution("age"), got)
}
