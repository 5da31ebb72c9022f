// Package query runs ad-hoc SQL against a table loaded into an in-memory
// SQLite database.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/intent"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

// DefaultMaxRows caps result sets when no limit is configured.
const DefaultMaxRows = 10000

// Executor evaluates SQL over a snapshot of a table. Each call uses a fresh
// database, so statements can never modify the caller's table.
type Executor struct {
	MaxRows int
	Log     logrus.FieldLogger
}

// Result is a query answer. Truncated is set when rows beyond MaxRows were dropped.
type Result struct {
	Table     *table.Table
	Truncated bool
}

func New(maxRows int, log logrus.FieldLogger) *Executor {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Executor{MaxRows: maxRows, Log: log}
}

// Query runs sqlText against t, registered as table "t".
func (e *Executor) Query(ctx context.Context, t *table.Table, sqlText string) (*table.Table, error) {
	res, err := e.Run(ctx, t, sqlText)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// Run is Query that also reports truncation.
func (e *Executor) Run(ctx context.Context, t *table.Table, sqlText string) (*Result, error) {
	if strings.TrimSpace(sqlText) == "" {
		return nil, apperr.InvalidInput("query is empty")
	}
	start := time.Now()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "open sqlite")
	}
	defer db.Close()
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	if err := load(ctx, db, t); err != nil {
		return nil, err
	}
	rows, err := db.QueryxContext(ctx, sqlText)
	if err != nil {
		return nil, apperr.Query(err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, apperr.Query(err)
	}
	var data [][]any
	truncated := false
	for rows.Next() {
		if len(data) >= e.MaxRows {
			truncated = true
			break
		}
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, apperr.Query(err)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query(err)
	}

	out := &table.Table{}
	for j, name := range dedupe(names) {
		out.Columns = append(out.Columns, resultColumn(name, data, j))
	}
	log := e.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"rows":      len(data),
		"columns":   len(names),
		"truncated": truncated,
		"elapsed":   time.Since(start).String(),
	}).Debug("query executed")
	return &Result{Table: out, Truncated: truncated}, nil
}

func sqlType(k table.Kind) string {
	switch k {
	case table.KindNumeric:
		return "REAL"
	case table.KindBool:
		return "INTEGER"
	}
	return "TEXT"
}

// load creates table t and copies every row into it inside one transaction.
func load(ctx context.Context, db *sqlx.DB, t *table.Table) error {
	if t.NumCols() == 0 {
		return apperr.InvalidInput("table has no columns")
	}
	defs := make([]string, t.NumCols())
	marks := make([]string, t.NumCols())
	for j, c := range t.Columns {
		defs[j] = fmt.Sprintf("%s %s", quote(c.Name), sqlType(c.Kind))
		marks[j] = "?"
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", intent.TableName, strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return apperr.Query(err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "begin load")
	}
	defer tx.Rollback() //nolint:errcheck
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", intent.TableName, strings.Join(marks, ", ")))
	if err != nil {
		return apperr.Query(err)
	}
	defer stmt.Close()
	args := make([]any, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.Columns {
			args[j] = bind(c.Values[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return apperr.Query(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "commit load")
	}
	return nil
}

// quote always double-quotes so DDL accepts any column name.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func bind(v table.Value) any {
	switch v.Kind {
	case table.KindNumeric:
		return v.Num
	case table.KindBool:
		if v.Bool {
			return int64(1)
		}
		return int64(0)
	case table.KindText, table.KindDatetime:
		return v.String()
	}
	return nil
}

// resultColumn keeps a kind when every non-null cell agrees on it; mixed
// columns are rendered as text. All-null columns are numeric, as on ingest.
func resultColumn(name string, data [][]any, j int) *table.Column {
	vals := make([]table.Value, len(data))
	for i, row := range data {
		vals[i] = fromSQL(row[j])
	}
	kind, ok := uniformKind(vals)
	if !ok {
		kind = table.KindText
		for i, v := range vals {
			if !v.IsNull() && v.Kind != table.KindText {
				vals[i] = table.Text(v.String())
			}
		}
	}
	return table.NewColumn(name, kind, vals)
}

func fromSQL(x any) table.Value {
	switch x := x.(type) {
	case nil:
		return table.Null()
	case int64:
		return table.Number(float64(x))
	case float64:
		return table.Number(x)
	case bool:
		return table.Bool(x)
	case []byte:
		return table.Text(string(x))
	case string:
		return table.Text(x)
	case time.Time:
		return table.Time(x)
	}
	return table.Text(fmt.Sprint(x))
}

func uniformKind(vals []table.Value) (table.Kind, bool) {
	var kind table.Kind
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		if kind == table.KindNull {
			kind = v.Kind
		} else if v.Kind != kind {
			return table.KindNull, false
		}
	}
	if kind == table.KindNull {
		return table.KindNumeric, true
	}
	return kind, true
}

// dedupe suffixes repeated result column names the way headers are mangled on ingest.
func dedupe(names []string) []string {
	seen := map[string]int{}
	out := make([]string, len(names))
	for i, n := range names {
		if k, ok := seen[n]; ok {
			seen[n] = k + 1
			out[i] = fmt.Sprintf("%s.%d", n, k+1)
			continue
		}
		seen[n] = 0
		out[i] = n
	}
	return out
}
