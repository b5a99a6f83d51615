package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validation failure reasons. A Var's Validate returns one of these (possibly
// wrapped) so callers can distinguish a type mismatch from a refinement
// failure.
var (
	ErrWrongType  = errors.New("wrong value type")
	ErrBadFormat  = errors.New("bad format")
	ErrEmpty      = errors.New("empty value")
	ErrWrongValue = errors.New("wrong value")
)

// ValidationError reports that a value failed a specific Var's validation.
// It carries the failing reason so UIs can re-prompt with context.
type ValidationError struct {
	Var    VarID
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("var %s: %s", e.Var, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// FieldErrors aggregates validation failures across several vars, keyed by
// the failing VarID. Used when a batch of values (e.g. a submitted form) is
// validated at once.
type FieldErrors map[VarID]error

func (e FieldErrors) Error() string {
	ids := make([]string, 0, len(e))
	for id := range e {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return fmt.Sprintf("%d invalid values (vars %s)", len(e), strings.Join(ids, ", "))
}
