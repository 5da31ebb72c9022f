package table

import (
	"encoding/json"
	"time"
)

// Interface returns the cell as a plain Go value: nil, float64, string,
// bool, or an RFC 3339 string for datetimes.
func (v Value) Interface() any {
	switch v.Kind {
	case KindNumeric:
		if !IsFinite(v.Num) {
			return nil
		}
		return v.Num
	case KindText:
		return v.Str
	case KindDatetime:
		return v.Time.Format(time.RFC3339)
	case KindBool:
		return v.Bool
	}
	return nil
}

type columnJSON struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

type tableJSON struct {
	Columns []columnJSON `json:"columns"`
	Rows    [][]any      `json:"rows"`
}

// MarshalJSON encodes the table row-major with a column schema.
func (t *Table) MarshalJSON() ([]byte, error) {
	out := tableJSON{Columns: make([]columnJSON, len(t.Columns)), Rows: make([][]any, t.NumRows())}
	for j, c := range t.Columns {
		out.Columns[j] = columnJSON{Name: c.Name, Kind: c.Kind}
	}
	for i := range out.Rows {
		row := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = c.Values[i].Interface()
		}
		out.Rows[i] = row
	}
	return json.Marshal(out)
}
