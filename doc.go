/*
Package stepflow is an advancement engine for multi-step flows: signup
funnels, checkout pipelines, guided configuration, any process that walks a
user through an ordered tree of steps while collecting validated data.

A flow is built from three registries that live on a Session:

  - Vars declare the data the flow collects. Every Var owns its validation,
    so a value only enters the session state after the Var accepted it.
  - Steps form an ordered tree. Each step names the vars it needs before it
    can start (inputs) and the vars it must produce before it is done
    (outputs).
  - Actions know how to drive a step forward: render a form, emit a URI to
    send the client to, or fill data programmatically.

Advance moves a depth-first cursor through the step tree. A step is only
entered once its input vars are present and only left once its output vars
are present, so the cursor naturally pauses on the first step that still
needs data. At that point the bound action (or the default action) runs and
either finishes the step with data, hands back a value for the caller to act
on, or declines so the session pauses for external input.

# Usage

	s := stepflow.NewSession()

	name, _ := s.Vars().InsertNewNamed("name", func(id schema.VarID) (schema.Var, error) {
		return schema.NewStringVar(id), nil
	})
	identity, _ := s.Steps().InsertNewNamed("identity", func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, nil, []schema.VarID{name}), nil
	})
	s.PushRootSubstep(identity)

	ask, _ := s.Actions().InsertNew(func(id action.ActionID) (action.Action, error) {
		return action.NewURIAction(id, "/flow"), nil
	})
	s.BindDefaultAction(ask)

	result, err := s.Advance(nil)
	// result points at /flow/identity, submit data and advance again

Sessions snapshot to a portable form (see Snapshot and Restore) so flows
survive process restarts; pkg/adapters/memory and pkg/adapters/redis provide
stores for them. pkg/flowfile compiles YAML flow definitions into sessions,
pkg/session manages many concurrent sessions, and pkg/adapters/http serves
flows to browsers as redirect-driven HTML forms.
*/
package stepflow
