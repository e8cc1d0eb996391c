// Package meta holds loosely-typed metadata attached to retrieved fragments.
// The retrieval service returns heterogeneous per-document fields; values are
// kept as a tagged union and projected by explicit field-name lookup.
package meta

import (
	"strconv"
	"time"
)

// Unknown is the sentinel the index uses for absent metadata values.
// Fields carrying it are dropped at display time.
const Unknown = "Unknown"

// Kind is the primitive type of a metadata value.
type Kind int

const (
	// KindString is a textual value.
	KindString Kind = iota
	// KindNumber is a numeric value.
	KindNumber
	// KindTime is a timestamp value.
	KindTime
)

// Value is a single metadata value of one primitive kind.
type Value struct {
	kind Kind
	str  string
	num  float64
	ts   time.Time
}

// String creates a textual value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Time creates a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, ts: t} }

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// Str returns the textual value (empty unless KindString).
func (v Value) Str() string { return v.str }

// Num returns the numeric value (zero unless KindNumber).
func (v Value) Num() float64 { return v.num }

// Timestamp returns the time value (zero unless KindTime).
func (v Value) Timestamp() time.Time { return v.ts }

// Display renders the value for presentation.
func (v Value) Display() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.ts.Format("2006-01-02")
	default:
		return v.str
	}
}

// IsUnknown reports whether the value is empty or the index's "Unknown" sentinel.
func (v Value) IsUnknown() bool {
	switch v.kind {
	case KindString:
		return v.str == "" || v.str == Unknown
	case KindTime:
		return v.ts.IsZero()
	default:
		return false
	}
}

// Values is a field-name to value mapping.
type Values map[string]Value

// Get looks up a field by name.
func (m Values) Get(key string) (Value, bool) {
	v, ok := m[key]
	return v, ok
}
