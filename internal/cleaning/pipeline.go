package cleaning

import (
	"io"
	"time"

	"github.com/KaramelBytes/tidyqa-cli/internal/table"
	"github.com/sirupsen/logrus"
)

// Pipeline runs the cleaning stages in their fixed order.
type Pipeline struct {
	Config Config
	Log    logrus.FieldLogger
}

// Clean runs the pipeline with logging disabled.
func Clean(t *table.Table, cfg Config) *table.Table {
	return Pipeline{Config: cfg}.Run(t)
}

// Run applies the ordered pass until the table stops changing, so that the
// output is a fixed point: running it again with the same config is a no-op.
// Later stages can expose new work for earlier ones (imputation can create
// duplicate rows or lift a column over the datetime threshold).
func (p Pipeline) Run(t *table.Table) *table.Table {
	log := p.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	start := time.Now()
	out := p.pass(t, log)
	passes := 1
	for limit := t.NumRows() + t.NumCols() + 1; passes <= limit; passes++ {
		next := p.pass(out, log)
		if next.Equal(out) {
			break
		}
		out = next
	}
	log.WithFields(logrus.Fields{
		"rows_in":  t.NumRows(),
		"rows_out": out.NumRows(),
		"columns":  out.NumCols(),
		"kinds":    describeKinds(out),
		"passes":   passes,
		"duration": time.Since(start),
	}).Debug("cleaning finished")
	return out
}

func (p Pipeline) pass(t *table.Table, log logrus.FieldLogger) *table.Table {
	cfg := p.Config
	if cfg.DropDuplicates {
		before := t.NumRows()
		t = DropDuplicates(t)
		if d := before - t.NumRows(); d > 0 {
			log.WithField("dropped", d).Debug("dropped duplicate rows")
		}
	}
	if cfg.StripWhitespace {
		t = StripWhitespace(t)
	}
	if cfg.StandardizeNames {
		t = StandardizeNames(t)
	}
	if cfg.InferDatetimes {
		var converted []string
		t, converted = inferDatetimes(t)
		if len(converted) > 0 {
			log.WithField("columns", converted).Debug("converted columns to datetime")
		}
	}
	var filled int
	t, filled = resolveMissing(t, cfg.Missing)
	if filled > 0 {
		log.WithFields(logrus.Fields{
			"cells":       filled,
			"numeric":     cfg.Missing.Numeric,
			"categorical": cfg.Missing.Categorical,
		}).Debug("imputed missing values")
	}
	return t
}
