package stepflow

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/action"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/schema"
)

// Reserved step names. The root anchors the traversal; the all-steps entry
// is never part of the tree and only carries the fallback action binding.
const (
	rootStepName = "__root"
	allStepsName = "__all_steps"
)

var errNoCurrentStep = errors.New("no current step")

// UnexpectedStepError reports step output submitted for a step that is not
// the current one.
type UnexpectedStepError struct {
	Step domain.StepID
}

func (e *UnexpectedStepError) Error() string {
	return fmt.Sprintf("output for %v does not match the current step", e.Step)
}

// UnknownStepError reports a step id with no registered step.
type UnknownStepError struct {
	Step domain.StepID
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("unknown %v", e.Step)
}

// UnknownActionError reports an action id with no registered action.
type UnknownActionError struct {
	Action action.ActionID
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown %v", e.Action)
}

// OutputNotAllowedError reports a finished action whose data names
// variables outside the step's declared outputs.
type OutputNotAllowedError struct {
	Step   domain.StepID
	Action action.ActionID
}

func (e *OutputNotAllowedError) Error() string {
	return fmt.Sprintf("%v returned data outside the outputs of %v", e.Action, e.Step)
}

// StepOutput carries data submitted for the current step, typically a
// parsed form. Step must match the session's current step or Advance
// rejects the whole submission.
type StepOutput struct {
	Step domain.StepID
	Data *schema.StateData
}

// Session drives one execution of a flow. It owns the variable, step and
// action registries, the accumulated state, and the traversal cursor.
//
// A Session is not safe for concurrent use; drivers serialize access per
// session (see the HTTP adapter's session manager).
type Session struct {
	id string

	// baseLogger is the logger before the session id attribute, kept so
	// Restore can retag it for the restored id.
	baseLogger *slog.Logger
	logger     *slog.Logger

	state       *schema.StateData
	steps       *registry.Store[*domain.Step, domain.StepID]
	actions     *registry.Store[action.Action, action.ActionID]
	vars        *registry.Store[schema.Var, schema.VarID]
	stepActions map[domain.StepID]action.ActionID

	stepIDAll  domain.StepID
	stepIDRoot domain.StepID
	dfs        *depthFirstSearch
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session id instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithLogger sets a custom structured logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.baseLogger = logger }
}

// NewSession creates an empty session. Flows are built by registering
// variables, steps and actions on the returned session, then pushing the
// top-level steps with PushRootSubstep.
func NewSession(opts ...Option) *Session {
	s := &Session{
		state:       schema.NewStateData(),
		steps:       registry.New[*domain.Step, domain.StepID](),
		actions:     registry.New[action.Action, action.ActionID](),
		vars:        registry.New[schema.Var, schema.VarID](),
		stepActions: make(map[domain.StepID]action.ActionID),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.baseLogger == nil {
		s.baseLogger = logging.NewNop()
	}
	s.logger = s.baseLogger.With("session", s.id)

	// The all-steps entry exists only so the fallback action has a step id
	// to bind to. The synthetic root makes the first advance enter the real
	// top-level steps through the same gate checks as any other move.
	s.stepIDAll, _ = s.steps.InsertNewNamed(allStepsName, newEmptyStep)
	s.stepIDRoot, _ = s.steps.InsertNewNamed(rootStepName, newEmptyStep)
	s.dfs = newDepthFirstSearch(s.stepIDRoot)
	return s
}

func newEmptyStep(id domain.StepID) (*domain.Step, error) {
	return domain.NewStep(id, nil, nil), nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// StateData returns the accumulated session state.
func (s *Session) StateData() *schema.StateData { return s.state }

// Steps returns the step registry.
func (s *Session) Steps() *registry.Store[*domain.Step, domain.StepID] { return s.steps }

// Vars returns the variable registry.
func (s *Session) Vars() *registry.Store[schema.Var, schema.VarID] { return s.vars }

// Actions returns the action registry.
func (s *Session) Actions() *registry.Store[action.Action, action.ActionID] { return s.actions }

// CurrentStep returns the step the traversal is on. It reports false once
// the whole flow has been traversed.
func (s *Session) CurrentStep() (domain.StepID, bool) {
	return s.dfs.current()
}

// PushRootSubstep appends a top-level step to the flow.
func (s *Session) PushRootSubstep(id domain.StepID) {
	root, ok := s.steps.Get(s.stepIDRoot)
	if !ok {
		return
	}
	root.PushSubstep(id)
}

// BindAction routes a step to an action. Rebinding replaces the previous
// action.
func (s *Session) BindAction(actionID action.ActionID, stepID domain.StepID) {
	s.stepActions[stepID] = actionID
}

// BindDefaultAction routes every step without a specific binding to the
// action.
func (s *Session) BindDefaultAction(actionID action.ActionID) {
	s.stepActions[s.stepIDAll] = actionID
}

// Seed validates val against v and stores it in session state, fulfilling
// inputs before the flow starts.
func (s *Session) Seed(v schema.Var, val schema.Value) error {
	return s.state.Insert(v, val)
}

// tryEnterNextStep merges submitted output, then moves the cursor. The
// merge sticks even when the move is blocked.
func (s *Session) tryEnterNextStep(output *StepOutput) (domain.StepID, bool, error) {
	if output != nil {
		cur, ok := s.dfs.current()
		if !ok || cur != output.Step {
			return 0, false, &UnexpectedStepError{Step: output.Step}
		}
		s.state.MergeFrom(output.Data)
	}

	canEnter := func(id domain.StepID) error {
		step, ok := s.steps.Get(id)
		if !ok {
			return &UnknownStepError{Step: id}
		}
		return step.CanEnter(s.state)
	}
	canExit := func(id domain.StepID) error {
		step, ok := s.steps.Get(id)
		if !ok {
			return &UnknownStepError{Step: id}
		}
		return step.CanExit(s.state)
	}
	return s.dfs.advance(canEnter, canExit, s.steps)
}

// callAction starts the action with views filtered to the step's declared
// variables and verifies finished data stays within the step's outputs.
func (s *Session) callAction(actionID action.ActionID, stepID domain.StepID) (action.Result, error) {
	step, ok := s.steps.Get(stepID)
	if !ok {
		return action.Result{}, &UnknownStepError{Step: stepID}
	}
	act, ok := s.actions.Get(actionID)
	if !ok {
		return action.Result{}, &UnknownActionError{Action: actionID}
	}
	stepName, _ := s.steps.NameFromID(stepID)

	allowed := make([]schema.VarID, 0, len(step.InputVars())+len(step.OutputVars()))
	allowed = append(allowed, step.InputVars()...)
	allowed = append(allowed, step.OutputVars()...)

	result, err := act.Start(step, stepName, schema.NewFilteredData(s.state, allowed), registry.NewFiltered(s.vars, allowed))
	if err != nil {
		return action.Result{}, fmt.Errorf("start %v on %v: %w", actionID, stepID, err)
	}
	if data, finished := result.IsFinished(); finished {
		if !data.ContainsOnly(step.OutputVars()) {
			return action.Result{}, &OutputNotAllowedError{Step: stepID, Action: actionID}
		}
	}
	return result, nil
}

// Advance moves the session as far as it can go without outside help.
//
// Each round first tries to move the cursor, then dispatches the bound
// action for the resulting step: the step's own action first, the default
// action when the specific one is missing or declines. A Finished action
// merges its data and the round repeats, so fully automated flows run to
// completion in one call. The loop stops when an action hands back a
// StartWith value, when every candidate declines, when the tree is
// exhausted, or when a blocked step has no action that could unblock it.
//
// Output submitted for the current step is merged before the first move
// and is kept even when the move stays blocked.
func (s *Session) Advance(output *StepOutput) (AdvanceResult, error) {
	for {
		stepID, ok, blockErr := s.tryEnterNextStep(output)
		output = nil

		var unexpected *UnexpectedStepError
		switch {
		case errors.As(blockErr, &unexpected):
			// stale submission, surface it instead of dispatching actions
			return AdvanceResult{}, blockErr
		case blockErr != nil:
			cur, curOK := s.dfs.current()
			if !curOK {
				return AdvanceResult{}, blockErr
			}
			stepID = cur
			s.logger.Debug("advance blocked", "step", stepID, "error", blockErr)
		case !ok:
			s.logger.Debug("flow complete")
			return advanceComplete(), nil
		default:
			s.logger.Debug("entered step", "step", stepID)
		}

		type candidate struct {
			id       action.ActionID
			fallback bool
		}
		var candidates []candidate
		if id, bound := s.stepActions[stepID]; bound {
			candidates = append(candidates, candidate{id: id})
		}
		if id, bound := s.stepActions[s.stepIDAll]; bound {
			candidates = append(candidates, candidate{id: id, fallback: true})
		}

		resolved := false
		for _, c := range candidates {
			result, err := s.callAction(c.id, stepID)
			if err != nil {
				return AdvanceResult{}, err
			}
			if val, started := result.IsStartWith(); started {
				s.logger.Debug("action started", "action", c.id, "step", stepID)
				return advanceStartWith(c.id, val), nil
			}
			if data, finished := result.IsFinished(); finished {
				s.logger.Debug("action finished", "action", c.id, "step", stepID, "vars", data.Len())
				s.state.MergeFrom(data)
				resolved = true
				break
			}
			if c.fallback {
				s.logger.Debug("no action can fulfill", "step", stepID)
				return advanceCannotFulfill(), nil
			}
		}

		if !resolved && blockErr != nil {
			// blocked with nothing left to try
			return AdvanceResult{}, blockErr
		}
	}
}

type advanceKind uint8

const (
	advanceKindComplete advanceKind = iota
	advanceKindStartWith
	advanceKindCannotFulfill
)

// AdvanceResult reports what Advance is blocked on.
type AdvanceResult struct {
	kind     advanceKind
	actionID action.ActionID
	value    schema.Value
}

func advanceComplete() AdvanceResult {
	return AdvanceResult{kind: advanceKindComplete}
}

func advanceStartWith(id action.ActionID, val schema.Value) AdvanceResult {
	return AdvanceResult{kind: advanceKindStartWith, actionID: id, value: val}
}

func advanceCannotFulfill() AdvanceResult {
	return AdvanceResult{kind: advanceKindCannotFulfill}
}

// IsComplete reports that the whole flow has been traversed.
func (r AdvanceResult) IsComplete() bool { return r.kind == advanceKindComplete }

// IsStartWith returns the action and value the driver must act on.
func (r AdvanceResult) IsStartWith() (action.ActionID, schema.Value, bool) {
	return r.actionID, r.value, r.kind == advanceKindStartWith
}

// IsCannotFulfill reports that no bound action could fulfill the step.
func (r AdvanceResult) IsCannotFulfill() bool { return r.kind == advanceKindCannotFulfill }

func (r AdvanceResult) Equal(other AdvanceResult) bool {
	if r.kind != other.kind {
		return false
	}
	if r.kind != advanceKindStartWith {
		return true
	}
	return r.actionID == other.actionID && r.value.Equal(other.value)
}

func (r AdvanceResult) String() string {
	switch r.kind {
	case advanceKindComplete:
		return "complete"
	case advanceKindStartWith:
		return fmt.Sprintf("startWith(%v, %s)", r.actionID, r.value.String())
	default:
		return "cannotFulfill"
	}
}
