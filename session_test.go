package stepflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepflow/pkg/action"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/schema"
)

// markerAction either hands back a marker value or finishes with no data,
// letting tests choose between a pausing and an auto-advancing flow.
type markerAction struct {
	id        action.ActionID
	startWith bool
}

func (a *markerAction) ID() action.ActionID { return a.id }

func (a *markerAction) Start(*domain.Step, string, *schema.FilteredData, *registry.Filtered[schema.Var, schema.VarID]) (action.Result, error) {
	if a.startWith {
		return action.StartWith(schema.NewTrueValue()), nil
	}
	return action.Finished(schema.NewStateData()), nil
}

func newEmptyStepIn(t *testing.T, s *Session) domain.StepID {
	t.Helper()
	id, err := s.Steps().InsertNew(func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, nil, nil), nil
	})
	require.NoError(t, err)
	return id
}

func addRootSubstep(t *testing.T, s *Session) domain.StepID {
	t.Helper()
	id := newEmptyStepIn(t, s)
	s.PushRootSubstep(id)
	return id
}

func newStringVarIn(t *testing.T, s *Session) schema.VarID {
	t.Helper()
	id, err := s.Vars().InsertNew(func(id schema.VarID) (schema.Var, error) {
		return schema.NewStringVar(id), nil
	})
	require.NoError(t, err)
	return id
}

func registerMarker(t *testing.T, s *Session, startWith bool) action.ActionID {
	t.Helper()
	id, err := s.Actions().InsertNew(func(id action.ActionID) (action.Action, error) {
		return &markerAction{id: id, startWith: startWith}, nil
	})
	require.NoError(t, err)
	return id
}

// stringOutput builds step output for the current step with one value
// parsed through its variable.
func stringOutput(t *testing.T, s *Session, varID schema.VarID, val string) *StepOutput {
	t.Helper()
	v, ok := s.Vars().Get(varID)
	require.True(t, ok)
	value, err := v.ValueFromString(val)
	require.NoError(t, err)

	data := schema.NewStateData()
	require.NoError(t, data.Insert(v, value))

	cur, ok := s.CurrentStep()
	require.True(t, ok)
	return &StepOutput{Step: cur, Data: data}
}

func TestEmptySessionAdvance(t *testing.T) {
	s := NewSession()
	result, err := s.Advance(nil)
	require.NoError(t, err)
	assert.True(t, result.IsComplete())
}

func TestSessionGatesDriveTraversal(t *testing.T) {
	s := NewSession(WithID("gates"))

	varOutput1 := newStringVarIn(t, s)
	varInput2 := newStringVarIn(t, s)
	varOutput2 := newStringVarIn(t, s)

	rootStep, err := s.Steps().InsertNewNamed("root_step", func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, []schema.VarID{varInput2}, []schema.VarID{varOutput1, varOutput2}), nil
	})
	require.NoError(t, err)
	s.PushRootSubstep(rootStep)

	substep1, err := s.Steps().InsertNewNamed("substep 1", func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, nil, []schema.VarID{varOutput1}), nil
	})
	require.NoError(t, err)
	substep2, err := s.Steps().InsertNewNamed("substep 2", func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, []schema.VarID{varInput2}, []schema.VarID{varOutput2}), nil
	})
	require.NoError(t, err)

	parent, ok := s.Steps().Get(rootStep)
	require.True(t, ok)
	parent.PushSubstep(substep1)
	parent.PushSubstep(substep2)

	requireMissing := func(err error, want schema.VarID) {
		t.Helper()
		var missing *domain.MissingVarError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, want, missing.Var)
	}

	// entering root_step needs varInput2
	_, _, err = s.tryEnterNextStep(nil)
	requireMissing(err, varInput2)

	id, ok, err := s.tryEnterNextStep(stringOutput(t, s, varInput2, "input2"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, substep1, id)

	// leaving substep1 needs varOutput1
	_, _, err = s.tryEnterNextStep(nil)
	requireMissing(err, varOutput1)

	id, ok, err = s.tryEnterNextStep(stringOutput(t, s, varOutput1, "output1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, substep2, id)

	// leaving the flow needs varOutput2
	_, _, err = s.tryEnterNextStep(nil)
	requireMissing(err, varOutput2)

	_, ok, err = s.tryEnterNextStep(stringOutput(t, s, varOutput2, "output2"))
	require.NoError(t, err)
	assert.False(t, ok)

	// still done on repeat
	_, ok, err = s.tryEnterNextStep(nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionDefaultActionVisitsEverySubstep(t *testing.T) {
	s := NewSession()

	substep1 := addRootSubstep(t, s)
	substep2 := addRootSubstep(t, s)
	substep3 := addRootSubstep(t, s)

	s.BindDefaultAction(registerMarker(t, s, true))

	var visited []domain.StepID
	for {
		result, err := s.Advance(nil)
		require.NoError(t, err)
		if result.IsComplete() {
			break
		}
		_, _, started := result.IsStartWith()
		require.True(t, started)

		cur, ok := s.CurrentStep()
		require.True(t, ok)
		visited = append(visited, cur)
	}

	assert.Equal(t, []domain.StepID{substep1, substep2, substep3}, visited)
}

func TestSessionSpecificAndDefaultActions(t *testing.T) {
	s := NewSession()
	varID := newStringVarIn(t, s)

	substep1, err := s.Steps().InsertNew(func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, nil, []schema.VarID{varID}), nil
	})
	require.NoError(t, err)
	s.PushRootSubstep(substep1)

	substep2, err := s.Steps().InsertNew(func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, []schema.VarID{varID}, []schema.VarID{varID}), nil
	})
	require.NoError(t, err)
	s.PushRootSubstep(substep2)

	v, ok := s.Vars().Get(varID)
	require.True(t, ok)
	val, err := schema.NewStringValue("hi")
	require.NoError(t, err)
	setData := schema.NewStateData()
	require.NoError(t, setData.Insert(v, val))

	setActionID, err := s.Actions().InsertNew(func(id action.ActionID) (action.Action, error) {
		return action.NewSetDataAction(id, setData, 2), nil
	})
	require.NoError(t, err)

	s.BindAction(setActionID, substep1)
	s.BindDefaultAction(registerMarker(t, s, true))

	// 1. enter substep1; the set-data action declines, the default pauses
	result, err := s.Advance(nil)
	require.NoError(t, err)
	_, _, started := result.IsStartWith()
	require.True(t, started)
	cur, ok := s.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, substep1, cur)

	// 2. exit still blocked, set-data declines a second time
	result, err = s.Advance(nil)
	require.NoError(t, err)
	_, _, started = result.IsStartWith()
	require.True(t, started)
	assert.False(t, s.StateData().Contains(varID))

	// 3. set-data finally finishes and the cursor reaches substep2
	result, err = s.Advance(nil)
	require.NoError(t, err)
	_, _, started = result.IsStartWith()
	require.True(t, started)
	cur, ok = s.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, substep2, cur)
	assert.True(t, s.StateData().Contains(varID))

	// 4. done
	result, err = s.Advance(nil)
	require.NoError(t, err)
	assert.True(t, result.IsComplete())
}

func TestSessionAutoAdvance(t *testing.T) {
	s := NewSession()
	s.BindDefaultAction(registerMarker(t, s, false))

	addRootSubstep(t, s)
	addRootSubstep(t, s)
	addRootSubstep(t, s)

	// finishing actions never pause, so one call drains the whole flow
	result, err := s.Advance(nil)
	require.NoError(t, err)
	assert.True(t, result.IsComplete())
}

func TestSessionRejectsStaleOutput(t *testing.T) {
	s := NewSession()
	substep1 := addRootSubstep(t, s)
	s.BindDefaultAction(registerMarker(t, s, true))

	_, err := s.Advance(nil)
	require.NoError(t, err)

	wrong := &StepOutput{Step: substep1 + 100, Data: schema.NewStateData()}
	_, err = s.Advance(wrong)
	var unexpected *UnexpectedStepError
	require.ErrorAs(t, err, &unexpected)
}

func TestSessionRejectsOutputOutsideStepOutputs(t *testing.T) {
	s := NewSession()
	varID := newStringVarIn(t, s)
	other := newStringVarIn(t, s)

	step, err := s.Steps().InsertNew(func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, nil, []schema.VarID{varID}), nil
	})
	require.NoError(t, err)
	s.PushRootSubstep(step)

	v, ok := s.Vars().Get(other)
	require.True(t, ok)
	val, err := schema.NewStringValue("smuggled")
	require.NoError(t, err)
	bad := schema.NewStateData()
	require.NoError(t, bad.Insert(v, val))

	badActionID, err := s.Actions().InsertNew(func(id action.ActionID) (action.Action, error) {
		return action.NewSetDataAction(id, bad, 0), nil
	})
	require.NoError(t, err)
	s.BindDefaultAction(badActionID)

	_, err = s.Advance(nil)
	var notAllowed *OutputNotAllowedError
	require.ErrorAs(t, err, &notAllowed)
}

func TestSessionCannotFulfill(t *testing.T) {
	s := NewSession()
	addRootSubstep(t, s)

	decline, err := s.Actions().InsertNew(func(id action.ActionID) (action.Action, error) {
		return action.NewSetDataAction(id, schema.NewStateData(), 1000), nil
	})
	require.NoError(t, err)
	s.BindDefaultAction(decline)

	result, err := s.Advance(nil)
	require.NoError(t, err)
	assert.True(t, result.IsCannotFulfill())
}

func TestSessionBlockedChildEntryKeepsCurrent(t *testing.T) {
	s := NewSession()

	nameVar := newStringVarIn(t, s)
	confirmedVar, err := s.Vars().InsertNew(func(id schema.VarID) (schema.Var, error) {
		return schema.NewBoolVar(id), nil
	})
	require.NoError(t, err)

	greet, err := s.Steps().InsertNew(func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, []schema.VarID{nameVar}, nil), nil
	})
	require.NoError(t, err)
	confirm, err := s.Steps().InsertNew(func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, []schema.VarID{confirmedVar}, nil), nil
	})
	require.NoError(t, err)
	s.PushRootSubstep(greet)
	step, ok := s.Steps().Get(greet)
	require.True(t, ok)
	step.PushSubstep(confirm)

	decline, err := s.Actions().InsertNew(func(id action.ActionID) (action.Action, error) {
		return action.NewSetDataAction(id, schema.NewStateData(), 1000), nil
	})
	require.NoError(t, err)
	s.BindDefaultAction(decline)

	nameV, ok := s.Vars().Get(nameVar)
	require.True(t, ok)
	nameVal, err := nameV.ValueFromString("Ann")
	require.NoError(t, err)
	require.NoError(t, s.Seed(nameV, nameVal))

	// the child's missing input keeps the cursor on the parent until
	// confirmed shows up
	result, err := s.Advance(nil)
	require.NoError(t, err)
	assert.True(t, result.IsCannotFulfill())
	cur, ok := s.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, greet, cur)

	confirmedV, ok := s.Vars().Get(confirmedVar)
	require.True(t, ok)
	require.NoError(t, s.Seed(confirmedV, schema.NewBoolValue(true)))

	result, err = s.Advance(nil)
	require.NoError(t, err)
	assert.True(t, result.IsCannotFulfill())
	cur, ok = s.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, confirm, cur)

	result, err = s.Advance(nil)
	require.NoError(t, err)
	assert.True(t, result.IsComplete())
}

func TestAdvanceResultEqual(t *testing.T) {
	assert.True(t, advanceComplete().Equal(advanceComplete()))
	assert.False(t, advanceComplete().Equal(advanceCannotFulfill()))

	vTrue := schema.NewBoolValue(true)
	vFalse := schema.NewBoolValue(false)
	assert.True(t, advanceStartWith(1, vFalse).Equal(advanceStartWith(1, vFalse)))
	assert.False(t, advanceStartWith(1, vTrue).Equal(advanceStartWith(1, vFalse)))
	assert.False(t, advanceStartWith(1, vFalse).Equal(advanceComplete()))
}
