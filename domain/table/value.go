package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind discriminates the cell representations a Frame can hold
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindNumber
	KindString
	KindBool
)

// Value is a single typed cell. It is a value type on purpose: copying a
// []Value slice yields a deep copy, which is what the snapshot/undo protocol
// relies on (pre-images must never alias the live frame).
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

// Null returns the null cell
func Null() Value {
	return Value{Kind: KindNull}
}

// Number wraps a float64 cell. Non-finite values collapse to null, matching
// the JSON surface which has no NaN/Inf.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{Kind: KindNumber, Num: f}
}

// String wraps a string cell
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// Bool wraps a boolean cell
func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// IsNull reports whether the cell is null
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Float returns the numeric interpretation of the cell. Strings are parsed,
// booleans map to 0/1. ok is false for null and non-numeric strings.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Time parses the cell as a datetime. Only string cells can carry dates.
func (v Value) Time() (time.Time, bool) {
	if v.Kind != KindString {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.Str)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Equal reports exact cell equality (null == null)
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindString:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	default:
		return true
	}
}

// DisplayString renders the cell for reports and duplicate keys
func (v Value) DisplayString() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// Any converts to the native JSON representation
func (v Value) Any() interface{} {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindString:
		return v.Str
	case KindBool:
		return v.Bool
	default:
		return nil
	}
}

// FromAny builds a Value from a decoded JSON scalar
func FromAny(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// MarshalJSON serializes cells as native JSON scalars
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON accepts native JSON scalars
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// ParseCell coerces a raw text cell (CSV/XLSX) into a typed Value. Empty and
// whitespace-only cells become null; numeric and boolean literals are typed.
func ParseCell(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Null()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Number(f)
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return String(s)
}
