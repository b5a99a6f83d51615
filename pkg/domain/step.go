package domain

import (
	"fmt"
	"strconv"

	"github.com/aretw0/stepflow/pkg/schema"
)

// StepID identifies a registered step across the engine.
type StepID uint32

func (id StepID) String() string {
	return "step:" + strconv.FormatUint(uint64(id), 10)
}

// MissingVarError reports the first variable that blocks a gate check.
type MissingVarError struct {
	Step StepID
	Var  schema.VarID
}

func (e *MissingVarError) Error() string {
	return fmt.Sprintf("%v: missing %v", e.Step, e.Var)
}

// Step is a node in the flow tree. Entry is gated on the declared input
// variables, exit on the declared outputs. Substeps keep registration order.
type Step struct {
	id       StepID
	inputs   []schema.VarID
	outputs  []schema.VarID
	substeps []StepID
}

// NewStep builds a step with the given gate declarations. The slices are
// copied; nil means no requirement.
func NewStep(id StepID, inputs, outputs []schema.VarID) *Step {
	s := &Step{id: id}
	if len(inputs) > 0 {
		s.inputs = append(s.inputs, inputs...)
	}
	if len(outputs) > 0 {
		s.outputs = append(s.outputs, outputs...)
	}
	return s
}

func (s *Step) ID() StepID { return s.id }

// InputVars returns the entry requirements in declaration order.
func (s *Step) InputVars() []schema.VarID { return s.inputs }

// OutputVars returns the exit requirements in declaration order.
func (s *Step) OutputVars() []schema.VarID { return s.outputs }

// PushSubstep appends a child to the end of the execution order.
func (s *Step) PushSubstep(child StepID) {
	s.substeps = append(s.substeps, child)
}

// Substeps returns the children in execution order.
func (s *Step) Substeps() []StepID { return s.substeps }

// FirstSubstep returns the first child, if any.
func (s *Step) FirstSubstep() (StepID, bool) {
	if len(s.substeps) == 0 {
		return 0, false
	}
	return s.substeps[0], true
}

// NextSubstep returns the child following prev in execution order. It
// returns false when prev is the last child or is not a child at all.
func (s *Step) NextSubstep(prev StepID) (StepID, bool) {
	for i, id := range s.substeps {
		if id == prev && i+1 < len(s.substeps) {
			return s.substeps[i+1], true
		}
	}
	return 0, false
}

// CanEnter reports whether every input variable is fulfilled in state.
// The error names the first missing variable in declaration order.
func (s *Step) CanEnter(state *schema.StateData) error {
	return s.checkFulfilled(s.inputs, state)
}

// CanExit reports whether every input and output variable is fulfilled
// in state. Inputs are checked first.
func (s *Step) CanExit(state *schema.StateData) error {
	if err := s.checkFulfilled(s.inputs, state); err != nil {
		return err
	}
	return s.checkFulfilled(s.outputs, state)
}

func (s *Step) checkFulfilled(vars []schema.VarID, state *schema.StateData) error {
	for _, id := range vars {
		if state == nil || !state.Contains(id) {
			return &MissingVarError{Step: s.id, Var: id}
		}
	}
	return nil
}
