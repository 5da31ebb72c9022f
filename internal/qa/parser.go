package qa

import (
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/tidyqa-cli/internal/config"
	"github.com/KaramelBytes/tidyqa-cli/internal/intent"
	"github.com/KaramelBytes/tidyqa-cli/internal/llm"
)

// NewParser returns the pattern parser, or an LLM parser over columns that
// falls back to patterns when useLLM is set.
func NewParser(c *config.Global, columns []string, useLLM bool, log logrus.FieldLogger) (intent.Parser, error) {
	if !useLLM || c == nil {
		return intent.PatternParser{}, nil
	}
	rt, err := llm.NewRuntime(c.QA.Provider, c.RuntimeConfig())
	if err != nil {
		return nil, err
	}
	return &intent.LLMParser{
		Runtime:     rt,
		Model:       c.QA.Model,
		MaxTokens:   c.QA.MaxTokens,
		Temperature: c.QA.Temperature,
		Columns:     columns,
		Fallback:    intent.PatternParser{},
		Log:         log,
	}, nil
}
