package schema

// ValidVal is a Value that passed a specific Var's validation. It is the only
// form a value takes inside StateData; holding one guarantees the value
// satisfied the var's kind and refinements at validation time. Replacing a
// stored value always goes through validation again.
type ValidVal struct {
	val         Value
	validatedBy VarID
}

// NewValidVal validates val against v and, on success, binds them together.
func NewValidVal(val Value, v Var) (ValidVal, error) {
	if err := v.Validate(val); err != nil {
		return ValidVal{}, &ValidationError{Var: v.ID(), Reason: err}
	}
	return ValidVal{val: val, validatedBy: v.ID()}, nil
}

// Value returns the validated value.
func (vv ValidVal) Value() Value { return vv.val }

// ValidatedBy returns the id of the Var that validated the value.
func (vv ValidVal) ValidatedBy() VarID { return vv.validatedBy }

// Equal requires the same validating var and equal values: the same text
// validated by two different vars yields two distinct ValidVals.
func (vv ValidVal) Equal(other ValidVal) bool {
	return vv.validatedBy == other.validatedBy && vv.val.Equal(other.val)
}
