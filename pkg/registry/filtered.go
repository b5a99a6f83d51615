package registry

// Filtered is a read-only view of a Store restricted to an allowed id set.
// Actions receive filtered views so they can only see the vars of the step
// they are fulfilling.
type Filtered[T Entry[I], I ID] struct {
	store   *Store[T, I]
	allowed map[I]struct{}
}

// NewFiltered creates a view of store restricted to the given ids.
func NewFiltered[T Entry[I], I ID](store *Store[T, I], allowed []I) *Filtered[T, I] {
	set := make(map[I]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	return &Filtered[T, I]{store: store, allowed: set}
}

// Get returns the object for id when id is within the allowed set.
func (f *Filtered[T, I]) Get(id I) (T, bool) {
	if _, ok := f.allowed[id]; !ok {
		var zero T
		return zero, false
	}
	return f.store.Get(id)
}

// NameFromID returns the friendly name for an allowed id.
func (f *Filtered[T, I]) NameFromID(id I) (string, bool) {
	if _, ok := f.allowed[id]; !ok {
		return "", false
	}
	return f.store.NameFromID(id)
}

// IDFromName resolves a friendly name when the resulting id is allowed.
func (f *Filtered[T, I]) IDFromName(name string) (I, bool) {
	id, ok := f.store.IDFromName(name)
	if !ok {
		return id, false
	}
	if _, ok := f.allowed[id]; !ok {
		var zero I
		return zero, false
	}
	return id, true
}

// Contains reports whether id is within the allowed set.
func (f *Filtered[T, I]) Contains(id I) bool {
	_, ok := f.allowed[id]
	return ok
}
