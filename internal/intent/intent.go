// Package intent maps free-text questions about a table to a small set of
// typed requests.
package intent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
)

// Kind tags an Intent variant.
type Kind string

const (
	KindDistribution   Kind = "distribution"
	KindRelationship   Kind = "relationship"
	KindGroupAggregate Kind = "group_aggregate"
	KindSummary        Kind = "summary"
	KindUnknown        Kind = "unknown"
)

// Intent is a parsed question. Only the fields of its Kind are set.
type Intent struct {
	Kind Kind `json:"type" yaml:"type"`
	// Distribution
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
	// Relationship
	X string `json:"x,omitempty" yaml:"x,omitempty"`
	Y string `json:"y,omitempty" yaml:"y,omitempty"`
	// GroupAggregate
	Value   string `json:"value,omitempty" yaml:"value,omitempty"`
	GroupBy string `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	Query   string `json:"query,omitempty" yaml:"query,omitempty"`
}

func Distribution(column string) Intent { return Intent{Kind: KindDistribution, Column: column} }

func Relationship(x, y string) Intent { return Intent{Kind: KindRelationship, X: x, Y: y} }

// GroupAggregate averages value per distinct groupBy, largest average first.
func GroupAggregate(value, groupBy string) Intent {
	return Intent{Kind: KindGroupAggregate, Value: value, GroupBy: groupBy, Query: AverageQuery(value, groupBy)}
}

func Summary() Intent { return Intent{Kind: KindSummary} }

func Unknown() Intent { return Intent{Kind: KindUnknown} }

// Validate checks that the fields required by Kind are present.
func (i Intent) Validate() error {
	switch i.Kind {
	case KindDistribution:
		if i.Column == "" {
			return apperr.InvalidInput("distribution intent needs a column")
		}
	case KindRelationship:
		if i.X == "" || i.Y == "" {
			return apperr.InvalidInput("relationship intent needs x and y")
		}
	case KindGroupAggregate:
		if i.Value == "" || i.GroupBy == "" {
			return apperr.InvalidInput("group aggregate intent needs value and group_by")
		}
	case KindSummary, KindUnknown:
	default:
		return apperr.InvalidInput("unknown intent type %q", i.Kind)
	}
	return nil
}

func (i Intent) String() string {
	switch i.Kind {
	case KindDistribution:
		return fmt.Sprintf("distribution of %s", i.Column)
	case KindRelationship:
		return fmt.Sprintf("relationship between %s and %s", i.X, i.Y)
	case KindGroupAggregate:
		return fmt.Sprintf("average of %s by %s", i.Value, i.GroupBy)
	}
	return string(i.Kind)
}

// Parser turns a question into an Intent. An unrecognized question is
// KindUnknown, not an error.
type Parser interface {
	Parse(ctx context.Context, question string) (Intent, error)
}

// PatternParser is the deterministic Parser backed by Parse.
type PatternParser struct{}

func (PatternParser) Parse(_ context.Context, question string) (Intent, error) {
	return Parse(question), nil
}

var (
	distributionRe = regexp.MustCompile(`^distribution of (.+)`)
	relationshipRe = regexp.MustCompile(`^(?:relation|relationship|correlation) between (.+) and (.+)`)
	averageRe      = regexp.MustCompile(`^average of (.+) by (.+)`)
	summaryWords   = []string{"summary", "describe", "stats"}
)

// Parse lowercases and trims the question, then tries each pattern in
// order. In "relationship between a and b and c" the x side is greedy: x is
// "a and b".
func Parse(question string) Intent {
	q := strings.ToLower(strings.TrimSpace(question))
	if m := distributionRe.FindStringSubmatch(q); m != nil {
		return Distribution(strings.TrimSpace(m[1]))
	}
	if m := relationshipRe.FindStringSubmatch(q); m != nil {
		return Relationship(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}
	if m := averageRe.FindStringSubmatch(q); m != nil {
		return GroupAggregate(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}
	for _, w := range summaryWords {
		if strings.Contains(q, w) {
			return Summary()
		}
	}
	return Unknown()
}
