package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VarID identifies a Var within a session's var registry.
type VarID uint32

func (id VarID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Predicate is a named refinement rule attached to a Var. Predicates run in
// declaration order and short-circuit on the first failure; the reported
// error carries the predicate name so the caller knows which rule failed.
type Predicate struct {
	Name  string
	Check func(Value) error
}

func runPredicates(preds []Predicate, val Value) error {
	for _, p := range preds {
		if err := p.Check(val); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	return nil
}

// Var is the declaration of an expected value: a concrete value type plus
// refinement predicates. Vars are immutable once created and are owned by a
// registry; steps reference them only by VarID.
type Var interface {
	ID() VarID
	// Kind is the base kind of the values this var accepts.
	Kind() Kind
	// ValueFromString parses external textual input (a form field, a
	// snapshot) into this var's concrete value type. Parsing enforces the
	// value type's own validator but not the var's refinements; those run in
	// Validate.
	ValueFromString(s string) (Value, error)
	// Validate checks the value's concrete type and then the refinement
	// predicates in declaration order.
	Validate(val Value) error
}

// StringVar expects a StringValue; refinements are optional.
type StringVar struct {
	id          VarID
	refinements []Predicate
}

func NewStringVar(id VarID, refinements ...Predicate) *StringVar {
	return &StringVar{id: id, refinements: refinements}
}

func (v *StringVar) ID() VarID  { return v.id }
func (v *StringVar) Kind() Kind { return KindString }

func (v *StringVar) ValueFromString(s string) (Value, error) {
	return NewStringValue(s)
}

func (v *StringVar) Validate(val Value) error {
	sv, ok := As[*StringValue](val)
	if !ok {
		return ErrWrongType
	}
	return runPredicates(v.refinements, sv)
}

// BoolVar expects a BoolValue.
type BoolVar struct {
	id VarID
}

func NewBoolVar(id VarID) *BoolVar { return &BoolVar{id: id} }

func (v *BoolVar) ID() VarID  { return v.id }
func (v *BoolVar) Kind() Kind { return KindBool }

func (v *BoolVar) ValueFromString(s string) (Value, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, ErrBadFormat
	}
	return NewBoolValue(b), nil
}

func (v *BoolVar) Validate(val Value) error {
	if !Is[*BoolValue](val) {
		return ErrWrongType
	}
	return nil
}

// FloatVar expects a FloatValue.
type FloatVar struct {
	id VarID
}

func NewFloatVar(id VarID) *FloatVar { return &FloatVar{id: id} }

func (v *FloatVar) ID() VarID  { return v.id }
func (v *FloatVar) Kind() Kind { return KindFloat }

func (v *FloatVar) ValueFromString(s string) (Value, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, ErrBadFormat
	}
	return NewFloatValue(f), nil
}

func (v *FloatVar) Validate(val Value) error {
	if !Is[*FloatValue](val) {
		return ErrWrongType
	}
	return nil
}

// TimeVar expects a TimeValue, parsed from RFC 3339 text.
type TimeVar struct {
	id VarID
}

func NewTimeVar(id VarID) *TimeVar { return &TimeVar{id: id} }

func (v *TimeVar) ID() VarID  { return v.id }
func (v *TimeVar) Kind() Kind { return KindTime }

func (v *TimeVar) ValueFromString(s string) (Value, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, ErrBadFormat
	}
	return NewTimeValue(t), nil
}

func (v *TimeVar) Validate(val Value) error {
	if !Is[*TimeValue](val) {
		return ErrWrongType
	}
	return nil
}

// EmailVar expects an EmailValue. A plain StringValue is rejected even when
// its text would pass the e-mail validator.
type EmailVar struct {
	id VarID
}

func NewEmailVar(id VarID) *EmailVar { return &EmailVar{id: id} }

func (v *EmailVar) ID() VarID  { return v.id }
func (v *EmailVar) Kind() Kind { return KindString }

func (v *EmailVar) ValueFromString(s string) (Value, error) {
	return NewEmailValue(s)
}

func (v *EmailVar) Validate(val Value) error {
	if !Is[*EmailValue](val) {
		return ErrWrongType
	}
	return nil
}

// URIVar expects a URIValue.
type URIVar struct {
	id VarID
}

func NewURIVar(id VarID) *URIVar { return &URIVar{id: id} }

func (v *URIVar) ID() VarID  { return v.id }
func (v *URIVar) Kind() Kind { return KindString }

func (v *URIVar) ValueFromString(s string) (Value, error) {
	return NewURIValue(s)
}

func (v *URIVar) Validate(val Value) error {
	if !Is[*URIValue](val) {
		return ErrWrongType
	}
	return nil
}

// TrueVar expects a TrueValue: the slot is satisfied only by an explicit
// confirmation.
type TrueVar struct {
	id VarID
}

func NewTrueVar(id VarID) *TrueVar { return &TrueVar{id: id} }

func (v *TrueVar) ID() VarID  { return v.id }
func (v *TrueVar) Kind() Kind { return KindBool }

func (v *TrueVar) ValueFromString(s string) (Value, error) {
	if !strings.EqualFold(s, "true") {
		return nil, ErrWrongValue
	}
	return NewTrueValue(), nil
}

func (v *TrueVar) Validate(val Value) error {
	if !Is[*TrueValue](val) {
		return ErrWrongType
	}
	return nil
}

// OneOfVar expects a StringValue drawn from a fixed option set. This is the
// "enumeration" kind: a string base plus a membership refinement.
type OneOfVar struct {
	id      VarID
	options []string
}

func NewOneOfVar(id VarID, options ...string) *OneOfVar {
	return &OneOfVar{id: id, options: append([]string(nil), options...)}
}

func (v *OneOfVar) ID() VarID  { return v.id }
func (v *OneOfVar) Kind() Kind { return KindString }

// Options returns the allowed values in declaration order.
func (v *OneOfVar) Options() []string {
	return append([]string(nil), v.options...)
}

func (v *OneOfVar) ValueFromString(s string) (Value, error) {
	return NewStringValue(s)
}

func (v *OneOfVar) Validate(val Value) error {
	sv, ok := As[*StringValue](val)
	if !ok {
		return ErrWrongType
	}
	for _, opt := range v.options {
		if sv.Val() == opt {
			return nil
		}
	}
	return fmt.Errorf("%w: %q not in %v", ErrWrongValue, sv.Val(), v.options)
}
