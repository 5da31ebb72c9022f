package cleaning

import (
	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
)

// NumericStrategy selects how missing numeric cells are imputed.
type NumericStrategy string

const (
	NumericMean   NumericStrategy = "mean"
	NumericMedian NumericStrategy = "median"
	NumericZero   NumericStrategy = "zero"
)

// CategoricalStrategy selects how missing text/boolean cells are imputed.
type CategoricalStrategy string

const (
	CategoricalMostFrequent CategoricalStrategy = "most_frequent"
	CategoricalConstant     CategoricalStrategy = "constant"
)

// MissingPolicy configures the missing value resolver.
type MissingPolicy struct {
	Numeric      NumericStrategy     `mapstructure:"strategy_numeric" yaml:"strategy_numeric" json:"strategy_numeric"`
	Categorical  CategoricalStrategy `mapstructure:"strategy_categorical" yaml:"strategy_categorical" json:"strategy_categorical"`
	FillConstant string              `mapstructure:"fill_constant" yaml:"fill_constant" json:"fill_constant"`
}

// Config toggles the pipeline stages. Missing value resolution always runs.
type Config struct {
	DropDuplicates   bool          `mapstructure:"drop_duplicates" yaml:"drop_duplicates" json:"drop_duplicates"`
	StripWhitespace  bool          `mapstructure:"strip_whitespace" yaml:"strip_whitespace" json:"strip_whitespace"`
	StandardizeNames bool          `mapstructure:"standardize_colnames" yaml:"standardize_colnames" json:"standardize_colnames"`
	InferDatetimes   bool          `mapstructure:"datetime_infer" yaml:"datetime_infer" json:"datetime_infer"`
	Missing          MissingPolicy `mapstructure:"missing" yaml:"missing" json:"missing"`
}

// DefaultMissingPolicy is median / most_frequent / "missing".
func DefaultMissingPolicy() MissingPolicy {
	return MissingPolicy{
		Numeric:      NumericMedian,
		Categorical:  CategoricalMostFrequent,
		FillConstant: "missing",
	}
}

// DefaultConfig enables every stage.
func DefaultConfig() Config {
	return Config{
		DropDuplicates:   true,
		StripWhitespace:  true,
		StandardizeNames: true,
		InferDatetimes:   true,
		Missing:          DefaultMissingPolicy(),
	}
}

// Validate checks the strategies against their enumerations.
func (c Config) Validate() error {
	return c.Missing.Validate()
}

func (p MissingPolicy) Validate() error {
	switch p.Numeric {
	case NumericMean, NumericMedian, NumericZero:
	default:
		return apperr.Config("invalid numeric strategy %q (use mean, median or zero)", p.Numeric)
	}
	switch p.Categorical {
	case CategoricalMostFrequent, CategoricalConstant:
	default:
		return apperr.Config("invalid categorical strategy %q (use most_frequent or constant)", p.Categorical)
	}
	return nil
}
