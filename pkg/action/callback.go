package action

import (
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/schema"
)

// StartFunc is the signature of Action.Start as a plain function.
type StartFunc func(step *domain.Step, stepName string, stepData *schema.FilteredData, vars *registry.Filtered[schema.Var, schema.VarID]) (Result, error)

// CallbackAction wraps a closure, the quickest way to hook application
// logic into a flow.
type CallbackAction struct {
	id ActionID
	fn StartFunc
}

func NewCallbackAction(id ActionID, fn StartFunc) *CallbackAction {
	return &CallbackAction{id: id, fn: fn}
}

func (a *CallbackAction) ID() ActionID { return a.id }

func (a *CallbackAction) Start(step *domain.Step, stepName string, stepData *schema.FilteredData, vars *registry.Filtered[schema.Var, schema.VarID]) (Result, error) {
	return a.fn(step, stepName, stepData, vars)
}
