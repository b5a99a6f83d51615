package schema

import (
	"fmt"
	"strconv"
	"time"
)

// Kind enumerates the closed set of base data kinds. Semantic subtypes do not
// extend this set; they layer a validator and a distinct Go type over one of
// these kinds.
type Kind uint8

const (
	KindString Kind = iota
	KindBool
	KindFloat
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a concrete, immutable piece of data. Equality requires the same
// concrete type: an EmailValue never equals a StringValue, even for the same
// text.
type Value interface {
	// Kind returns the base kind of the underlying representation.
	Kind() Kind
	// String returns the canonical textual form (what snapshots persist and
	// templates interpolate).
	String() string
	// Equal reports whether other is the same concrete type with the same
	// canonical content.
	Equal(other Value) bool
}

// Is reports whether v narrows to concrete type T. Works for Value and Var
// handles alike.
func Is[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

// As narrows v to concrete type T. A failed narrow is a normal (zero, false).
func As[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}

// StringValue is a non-empty piece of text.
type StringValue struct {
	val string
}

// NewStringValue creates a StringValue. Empty text is rejected.
func NewStringValue(val string) (*StringValue, error) {
	if val == "" {
		return nil, ErrEmpty
	}
	return &StringValue{val: val}, nil
}

func (v *StringValue) Val() string    { return v.val }
func (v *StringValue) Kind() Kind     { return KindString }
func (v *StringValue) String() string { return v.val }

func (v *StringValue) Equal(other Value) bool {
	o, ok := other.(*StringValue)
	return ok && o.val == v.val
}

// BoolValue is a boolean.
type BoolValue struct {
	val bool
}

func NewBoolValue(val bool) *BoolValue { return &BoolValue{val: val} }

func (v *BoolValue) Val() bool      { return v.val }
func (v *BoolValue) Kind() Kind     { return KindBool }
func (v *BoolValue) String() string { return strconv.FormatBool(v.val) }

func (v *BoolValue) Equal(other Value) bool {
	o, ok := other.(*BoolValue)
	return ok && o.val == v.val
}

// FloatValue is a number.
type FloatValue struct {
	val float64
}

func NewFloatValue(val float64) *FloatValue { return &FloatValue{val: val} }

func (v *FloatValue) Val() float64   { return v.val }
func (v *FloatValue) Kind() Kind     { return KindFloat }
func (v *FloatValue) String() string { return strconv.FormatFloat(v.val, 'f', -1, 64) }

func (v *FloatValue) Equal(other Value) bool {
	o, ok := other.(*FloatValue)
	return ok && o.val == v.val
}

// TimeValue is a point in time, canonically rendered as RFC 3339.
type TimeValue struct {
	val time.Time
}

func NewTimeValue(val time.Time) *TimeValue { return &TimeValue{val: val} }

func (v *TimeValue) Val() time.Time { return v.val }
func (v *TimeValue) Kind() Kind     { return KindTime }
func (v *TimeValue) String() string { return v.val.Format(time.RFC3339) }

func (v *TimeValue) Equal(other Value) bool {
	o, ok := other.(*TimeValue)
	return ok && o.val.Equal(v.val)
}
