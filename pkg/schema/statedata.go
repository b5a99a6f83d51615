package schema

// StateData maps VarIDs to their validated values. The engine only ever
// extends it: entries are overwritable (through re-validation) but never
// deleted, which is what makes a step's satisfied exit condition stay
// satisfied for the rest of a session.
type StateData struct {
	data map[VarID]ValidVal
}

// NewStateData creates an empty store.
func NewStateData() *StateData {
	return &StateData{data: make(map[VarID]ValidVal)}
}

// Insert validates val against v and stores the result under v's id. A
// failed validation leaves the store untouched.
func (d *StateData) Insert(v Var, val Value) error {
	vv, err := NewValidVal(val, v)
	if err != nil {
		return err
	}
	d.data[v.ID()] = vv
	return nil
}

// Get returns the validated value stored for id.
func (d *StateData) Get(id VarID) (ValidVal, bool) {
	vv, ok := d.data[id]
	return vv, ok
}

// Contains reports whether id has a validated value.
func (d *StateData) Contains(id VarID) bool {
	_, ok := d.data[id]
	return ok
}

// ContainsOnly reports whether every stored entry is within the given id set.
func (d *StateData) ContainsOnly(ids []VarID) bool {
	allowed := make(map[VarID]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	for id := range d.data {
		if _, ok := allowed[id]; !ok {
			return false
		}
	}
	return true
}

// MergeFrom copies every entry of src into d, overwriting on collision. The
// entries are already ValidVals, so no re-validation happens here.
func (d *StateData) MergeFrom(src *StateData) {
	if src == nil {
		return
	}
	for id, vv := range src.data {
		d.data[id] = vv
	}
}

// Each calls fn for every stored entry. Iteration order is unspecified.
func (d *StateData) Each(fn func(VarID, ValidVal)) {
	for id, vv := range d.data {
		fn(id, vv)
	}
}

// Len reports the number of stored entries.
func (d *StateData) Len() int {
	return len(d.data)
}

// Equal reports whether both stores hold the same entries.
func (d *StateData) Equal(other *StateData) bool {
	if other == nil || len(d.data) != len(other.data) {
		return false
	}
	for id, vv := range d.data {
		ovv, ok := other.data[id]
		if !ok || !vv.Equal(ovv) {
			return false
		}
	}
	return true
}

// VarValue pairs a Var with a candidate Value for batch validation.
type VarValue struct {
	Var   Var
	Value Value
}

// FromValues validates every pair and builds a StateData. All pairs are
// checked even after a failure so the returned FieldErrors covers every
// invalid field at once (what a form round-trip wants).
func FromValues(pairs []VarValue) (*StateData, error) {
	d := NewStateData()
	errs := make(FieldErrors)
	for _, p := range pairs {
		if err := d.Insert(p.Var, p.Value); err != nil {
			var reason error = err
			if ve, ok := As[*ValidationError](err); ok {
				reason = ve.Reason
			}
			errs[p.Var.ID()] = reason
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return d, nil
}

// FilteredData is a read-only view of a StateData restricted to an allowed
// var set. Actions receive this so they can only read the vars of the step
// they serve.
type FilteredData struct {
	data    *StateData
	allowed map[VarID]struct{}
}

// NewFilteredData creates a view of data restricted to the given ids.
func NewFilteredData(data *StateData, allowed []VarID) *FilteredData {
	set := make(map[VarID]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	return &FilteredData{data: data, allowed: set}
}

// Get returns the validated value for an allowed id.
func (f *FilteredData) Get(id VarID) (ValidVal, bool) {
	if _, ok := f.allowed[id]; !ok {
		return ValidVal{}, false
	}
	return f.data.Get(id)
}

// Contains reports whether an allowed id holds a validated value.
func (f *FilteredData) Contains(id VarID) bool {
	if _, ok := f.allowed[id]; !ok {
		return false
	}
	return f.data.Contains(id)
}
