package stepflow_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/pkg/action"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/schema"
)

// runnerFlow builds a two-step flow collecting a name and an email, with a
// URI default action so every step pauses for input.
func runnerFlow(t *testing.T) *stepflow.Session {
	t.Helper()
	s := stepflow.NewSession()

	nameVar, err := s.Vars().InsertNewNamed("name", func(id schema.VarID) (schema.Var, error) {
		return schema.NewStringVar(id), nil
	})
	require.NoError(t, err)
	emailVar, err := s.Vars().InsertNewNamed("email", func(id schema.VarID) (schema.Var, error) {
		return schema.NewEmailVar(id), nil
	})
	require.NoError(t, err)

	identity, err := s.Steps().InsertNewNamed("identity", func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, nil, []schema.VarID{nameVar}), nil
	})
	require.NoError(t, err)
	contact, err := s.Steps().InsertNewNamed("contact", func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, []schema.VarID{nameVar}, []schema.VarID{emailVar}), nil
	})
	require.NoError(t, err)
	s.PushRootSubstep(identity)
	s.PushRootSubstep(contact)

	ask, err := s.Actions().InsertNew(func(id action.ActionID) (action.Action, error) {
		return action.NewURIAction(id, "/flow"), nil
	})
	require.NoError(t, err)
	s.BindDefaultAction(ask)
	return s
}

func TestRunnerCompletesFlow(t *testing.T) {
	sess := runnerFlow(t)

	var out strings.Builder
	r := stepflow.NewRunner(strings.NewReader("Ada\nada@example.com\n"), &out)
	require.NoError(t, r.Run(sess))

	transcript := out.String()
	assert.Contains(t, transcript, "/flow/identity")
	assert.Contains(t, transcript, "/flow/contact")
	assert.Contains(t, transcript, "flow complete")
	assert.Contains(t, transcript, "name = Ada")
	assert.Contains(t, transcript, "email = ada@example.com")

	_, paused := sess.CurrentStep()
	assert.False(t, paused)
}

func TestRunnerRepromptsInvalidInput(t *testing.T) {
	sess := runnerFlow(t)

	var out strings.Builder
	r := stepflow.NewRunner(strings.NewReader("Ada\nnot-an-email\nada@example.com\n"), &out)
	require.NoError(t, r.Run(sess))

	assert.Contains(t, out.String(), "invalid email")
}

func TestRunnerHeadless(t *testing.T) {
	sess := runnerFlow(t)

	var out strings.Builder
	r := stepflow.NewRunner(strings.NewReader("Ada\nada@example.com\n"), &out)
	r.Headless = true
	require.NoError(t, r.Run(sess))

	assert.NotContains(t, out.String(), "flow complete")
	assert.NotContains(t, out.String(), "/flow/identity")
}

func TestRunnerInputExhausted(t *testing.T) {
	sess := runnerFlow(t)

	var out strings.Builder
	r := stepflow.NewRunner(strings.NewReader("Ada\n"), &out)
	err := r.Run(sess)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestRunnerPromptsOnCannotFulfill(t *testing.T) {
	s := stepflow.NewSession()

	nameVar, err := s.Vars().InsertNewNamed("name", func(id schema.VarID) (schema.Var, error) {
		return schema.NewStringVar(id), nil
	})
	require.NoError(t, err)
	step, err := s.Steps().InsertNewNamed("identity", func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, nil, []schema.VarID{nameVar}), nil
	})
	require.NoError(t, err)
	s.PushRootSubstep(step)
	s.BindDefaultAction(declineAction(t, s))

	var out strings.Builder
	r := stepflow.NewRunner(strings.NewReader("Ada\n"), &out)
	require.NoError(t, r.Run(s))
	assert.Contains(t, out.String(), "name = Ada")
}

func TestRunnerStuckFlow(t *testing.T) {
	s := stepflow.NewSession()

	// nothing in the flow ever produces ghost, so the second step can
	// never be entered
	ghost, err := s.Vars().InsertNewNamed("ghost", func(id schema.VarID) (schema.Var, error) {
		return schema.NewStringVar(id), nil
	})
	require.NoError(t, err)
	first, err := s.Steps().InsertNewNamed("first", func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, nil, nil), nil
	})
	require.NoError(t, err)
	gated, err := s.Steps().InsertNewNamed("gated", func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, []schema.VarID{ghost}, nil), nil
	})
	require.NoError(t, err)
	s.PushRootSubstep(first)
	s.PushRootSubstep(gated)
	s.BindDefaultAction(declineAction(t, s))

	var out strings.Builder
	r := stepflow.NewRunner(strings.NewReader(""), &out)
	assert.ErrorIs(t, r.Run(s), stepflow.ErrFlowStuck)
}

func declineAction(t *testing.T, s *stepflow.Session) action.ActionID {
	t.Helper()
	id, err := s.Actions().InsertNew(func(id action.ActionID) (action.Action, error) {
		return action.NewCallbackAction(id, func(*domain.Step, string, *schema.FilteredData, *registry.Filtered[schema.Var, schema.VarID]) (action.Result, error) {
			return action.CannotFulfill(), nil
		}), nil
	})
	require.NoError(t, err)
	return id
}
