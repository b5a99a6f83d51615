package action

import (
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/schema"
)

// SetDataAction finishes with a fixed set of output data after a number of
// declined attempts. With afterAttempt zero it finishes on the first call.
// Useful for auto-advancing steps and for simulating slow dependencies in
// tests.
type SetDataAction struct {
	id           ActionID
	count        uint64
	afterAttempt uint64
	data         *schema.StateData
}

func NewSetDataAction(id ActionID, data *schema.StateData, afterAttempt uint64) *SetDataAction {
	return &SetDataAction{id: id, afterAttempt: afterAttempt, data: data}
}

func (a *SetDataAction) ID() ActionID { return a.id }

func (a *SetDataAction) Start(_ *domain.Step, _ string, _ *schema.FilteredData, _ *registry.Filtered[schema.Var, schema.VarID]) (Result, error) {
	if a.count >= a.afterAttempt {
		return Finished(a.data), nil
	}
	a.count++
	return CannotFulfill(), nil
}
