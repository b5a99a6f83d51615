package action

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/schema"
)

// ActionID identifies a registered action across the engine.
type ActionID uint32

func (id ActionID) String() string {
	return "action:" + strconv.FormatUint(uint64(id), 10)
}

// ErrCannotStart signals that the action hit an internal failure, as
// opposed to declining via CannotFulfill.
var ErrCannotStart = errors.New("action cannot start")

// VarInvalidError reports a variable the action could not work with.
type VarInvalidError struct {
	Var schema.VarID
}

func (e *VarInvalidError) Error() string {
	return fmt.Sprintf("invalid variable %v for action", e.Var)
}

// Action fulfills step outputs. Start receives the step being fulfilled,
// its registered name (empty when unnamed), session data filtered to the
// step's variables, and a filtered view of the variable registry.
//
// Actions may keep internal state across Start calls but must be safe for
// use from a single session goroutine only.
type Action interface {
	ID() ActionID
	Start(step *domain.Step, stepName string, stepData *schema.FilteredData, vars *registry.Filtered[schema.Var, schema.VarID]) (Result, error)
}

type resultKind uint8

const (
	resultCannotFulfill resultKind = iota
	resultFinished
	resultStartWith
)

// Result is the outcome of starting an action. The zero value is
// CannotFulfill.
type Result struct {
	kind     resultKind
	finished *schema.StateData
	start    schema.Value
}

// Finished wraps output data the engine should merge into session state.
func Finished(data *schema.StateData) Result {
	return Result{kind: resultFinished, finished: data}
}

// StartWith hands a value to the outer driver, typically a URI to redirect
// to or markup to render.
func StartWith(val schema.Value) Result {
	return Result{kind: resultStartWith, start: val}
}

// CannotFulfill declines the step so a fallback action can be tried.
func CannotFulfill() Result {
	return Result{kind: resultCannotFulfill}
}

// IsFinished returns the output data when the result is Finished.
func (r Result) IsFinished() (*schema.StateData, bool) {
	return r.finished, r.kind == resultFinished
}

// IsStartWith returns the driver value when the result is StartWith.
func (r Result) IsStartWith() (schema.Value, bool) {
	return r.start, r.kind == resultStartWith
}

// IsCannotFulfill reports whether the action declined.
func (r Result) IsCannotFulfill() bool {
	return r.kind == resultCannotFulfill
}

func (r Result) Equal(other Result) bool {
	if r.kind != other.kind {
		return false
	}
	switch r.kind {
	case resultFinished:
		return r.finished.Equal(other.finished)
	case resultStartWith:
		return r.start.Equal(other.start)
	default:
		return true
	}
}

func (r Result) String() string {
	switch r.kind {
	case resultFinished:
		return fmt.Sprintf("finished(%d vars)", r.finished.Len())
	case resultStartWith:
		return fmt.Sprintf("startWith(%s)", r.start.String())
	default:
		return "cannotFulfill"
	}
}
