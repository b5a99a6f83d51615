package schema

import (
	"net/url"
	"regexp"
)

// Semantic subtypes: a base kind plus a validator enforced at construction.
// Construction is the only door, so holding one of these types is itself
// proof the validator passed.

var emailRe = regexp.MustCompile(`^[^@\s]+@([[:word:]]+\.)*[[:word:]]+$`)

// EmailValue is a string that matches e-mail syntax.
type EmailValue struct {
	val string
}

// NewEmailValue validates and wraps an e-mail address.
func NewEmailValue(val string) (*EmailValue, error) {
	if val == "" {
		return nil, ErrEmpty
	}
	if !emailRe.MatchString(val) {
		return nil, ErrBadFormat
	}
	return &EmailValue{val: val}, nil
}

func (v *EmailValue) Val() string    { return v.val }
func (v *EmailValue) Kind() Kind     { return KindString }
func (v *EmailValue) String() string { return v.val }

func (v *EmailValue) Equal(other Value) bool {
	o, ok := other.(*EmailValue)
	return ok && o.val == v.val
}

// URIValue is a string that parses as a URI.
type URIValue struct {
	val string
}

// NewURIValue validates and wraps a URI.
func NewURIValue(val string) (*URIValue, error) {
	if val == "" {
		return nil, ErrEmpty
	}
	if _, err := url.Parse(val); err != nil {
		return nil, ErrBadFormat
	}
	return &URIValue{val: val}, nil
}

func (v *URIValue) Val() string    { return v.val }
func (v *URIValue) Kind() Kind     { return KindString }
func (v *URIValue) String() string { return v.val }

// URL returns the parsed form. Parsing cannot fail here: construction
// already proved it.
func (v *URIValue) URL() *url.URL {
	u, _ := url.Parse(v.val)
	return u
}

func (v *URIValue) Equal(other Value) bool {
	o, ok := other.(*URIValue)
	return ok && o.val == v.val
}

// TrueValue is a bool fixed to true. It is an existence marker: steps use it
// for outputs like "email_confirmed" where only the presence matters.
type TrueValue struct{}

func NewTrueValue() *TrueValue { return &TrueValue{} }

func (v *TrueValue) Val() bool      { return true }
func (v *TrueValue) Kind() Kind     { return KindBool }
func (v *TrueValue) String() string { return "true" }

// Equal is an existence check: any two TrueValues are equal.
func (v *TrueValue) Equal(other Value) bool {
	return Is[*TrueValue](other)
}
