package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/tidyqa-cli/internal/llm"
)

const systemPrompt = `You classify questions about a single table named t.
Answer with one JSON object and nothing else, using exactly one of these shapes:
{"type":"distribution","column":"<col>"}
{"type":"relationship","x":"<col>","y":"<col>"}
{"type":"group_aggregate","value":"<numeric col>","group_by":"<col>"}
{"type":"summary"}
{"type":"unknown"}
Use column names exactly as listed. If the question does not fit, answer {"type":"unknown"}.`

// LLMParser asks a chat model for the intent. Transport failures, malformed
// answers and answers naming columns outside Columns fall back to Fallback.
// Group queries are always rebuilt locally; model-written SQL is never used.
type LLMParser struct {
	Runtime     llm.Runtime
	Model       string
	MaxTokens   int
	Temperature float64
	// Columns is the schema offered to the model and used to vet its answer.
	Columns  []string
	Fallback Parser
	Log      logrus.FieldLogger
}

func (p *LLMParser) Parse(ctx context.Context, question string) (Intent, error) {
	fallback := p.Fallback
	if fallback == nil {
		fallback = PatternParser{}
	}
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if p.Runtime == nil {
		return fallback.Parse(ctx, question)
	}

	req := llm.GenerateRequest{
		Model: p.Model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Columns: %s\nQuestion: %s", strings.Join(p.Columns, ", "), strings.TrimSpace(question))},
		},
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	}
	resp, err := p.Runtime.Generate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return Intent{}, ctx.Err()
		}
		log.WithError(err).Warn("llm intent request failed, using pattern parser")
		return fallback.Parse(ctx, question)
	}
	it, err := decodeIntent(resp.Text())
	if err == nil {
		err = p.vet(&it)
	}
	if err != nil {
		log.WithError(err).WithField("answer", resp.Text()).Warn("llm intent rejected, using pattern parser")
		return fallback.Parse(ctx, question)
	}
	log.WithFields(logrus.Fields{"intent": it.Kind, "request_id": resp.RequestID}).Debug("llm intent parsed")
	return it, nil
}

// vet maps column references onto the schema and rebuilds derived fields.
func (p *LLMParser) vet(it *Intent) error {
	if err := it.Validate(); err != nil {
		return err
	}
	refs := []*string{&it.Column, &it.X, &it.Y, &it.Value, &it.GroupBy}
	for _, ref := range refs {
		if *ref == "" || len(p.Columns) == 0 {
			continue
		}
		name, ok := matchColumn(p.Columns, *ref)
		if !ok {
			return fmt.Errorf("column %q is not in the table", *ref)
		}
		*ref = name
	}
	if it.Kind == KindGroupAggregate {
		*it = GroupAggregate(it.Value, it.GroupBy)
	}
	return nil
}

func matchColumn(cols []string, name string) (string, bool) {
	for _, c := range cols {
		if c == name {
			return c, true
		}
	}
	for _, c := range cols {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// decodeIntent extracts the first JSON object from a model answer, which
// may be wrapped in prose or code fences.
func decodeIntent(answer string) (Intent, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end < start {
		return Intent{}, errors.New("no JSON object in answer")
	}
	var raw struct {
		Type    string `json:"type"`
		Column  string `json:"column"`
		X       string `json:"x"`
		Y       string `json:"y"`
		Value   string `json:"value"`
		GroupBy string `json:"group_by"`
	}
	if err := json.Unmarshal([]byte(answer[start:end+1]), &raw); err != nil {
		return Intent{}, fmt.Errorf("decode answer: %w", err)
	}
	it := Intent{
		Kind:    Kind(strings.ToLower(strings.TrimSpace(raw.Type))),
		Column:  strings.TrimSpace(raw.Column),
		X:       strings.TrimSpace(raw.X),
		Y:       strings.TrimSpace(raw.Y),
		Value:   strings.TrimSpace(raw.Value),
		GroupBy: strings.TrimSpace(raw.GroupBy),
	}
	if it.Kind == "stats" {
		it.Kind = KindSummary
	}
	return it, nil
}
