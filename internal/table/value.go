package table

import (
	"math"
	"strconv"
	"time"
)

// Kind is the semantic type of a column or cell.
type Kind string

const (
	// KindNull marks a missing cell. It is never a column kind.
	KindNull     Kind = ""
	KindNumeric  Kind = "numeric"
	KindText     Kind = "text"
	KindDatetime Kind = "datetime"
	KindBool     Kind = "boolean"
)

// Value is a single typed cell. The zero Value is null.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Time time.Time
	Bool bool
}

// Null returns a missing cell.
func Null() Value { return Value{} }

// Number returns a numeric cell. NaN is treated as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Kind: KindNumeric, Num: f}
}

// Text returns a text cell.
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// Time returns a datetime cell.
func Time(t time.Time) Value { return Value{Kind: KindDatetime, Time: t} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports structural equality. Two nulls are equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindNumeric:
		return v.Num == o.Num
	case KindText:
		return v.Str == o.Str
	case KindDatetime:
		return v.Time.Equal(o.Time)
	case KindBool:
		return v.Bool == o.Bool
	}
	return false
}

// Float coerces the cell to a finite float. Text is parsed, booleans map to 1/0.
func (v Value) Float() (float64, bool) {
	var f float64
	switch v.Kind {
	case KindNumeric:
		f = v.Num
	case KindBool:
		if v.Bool {
			f = 1
		}
	case KindText:
		x, ok := ParseNumber(v.Str, NumberFormat{})
		if !ok {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String renders the cell the way it is exported to CSV. Null renders empty.
func (v Value) String() string {
	switch v.Kind {
	case KindNumeric:
		return formatFloat(v.Num)
	case KindText:
		return v.Str
	case KindDatetime:
		return formatTime(v.Time)
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	}
	return ""
}

// Key is a kind-tagged rendering used for hashing rows and categories.
func (v Value) Key() string {
	switch v.Kind {
	case KindNumeric:
		return "n:" + strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindDatetime:
		return "d:" + v.Time.UTC().Format(time.RFC3339Nano)
	case KindNull:
		return "∅"
	}
	return string(v.Kind[:1]) + ":" + v.String()
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if a := math.Abs(f); a != 0 && (a >= 1e15 || a < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	if t.Location() != time.UTC {
		return t.Format(time.RFC3339)
	}
	return t.Format("2006-01-02 15:04:05")
}
