// Package registry provides the id- and name-addressed object stores that
// hold vars, steps and actions. Objects are referenced everywhere else purely
// by identifier; the store is the only owner.
package registry

import (
	"errors"
	"fmt"
	"sync"
)

// ID constrains the identifier types minted by a Store. Each store scopes its
// own id space; ids from different stores are never comparable in a meaningful
// way even when the underlying integers collide.
type ID interface{ ~uint32 }

// Entry is implemented by anything a Store can hold.
type Entry[I ID] interface {
	ID() I
}

var (
	// ErrIDExists is returned when registering an object whose id is already taken.
	ErrIDExists = errors.New("id already registered")
	// ErrNameExists is returned when registering a name that is already taken.
	ErrNameExists = errors.New("name already registered")
	// ErrIDNotReserved is returned by InsertNew when the constructed object
	// did not use the id handed to the callback.
	ErrIDNotReserved = errors.New("object id was not the reserved id")
)

// Store holds objects addressable by id and, optionally, by a unique friendly
// name. A missing object on lookup is a normal (zero, false), not an error.
// Safe for concurrent use.
type Store[T Entry[I], I ID] struct {
	mu     sync.RWMutex
	byID   map[I]T
	byName map[string]I
	names  map[I]string
	nextID uint32
}

// New creates an empty store.
func New[T Entry[I], I ID]() *Store[T, I] {
	return &Store[T, I]{
		byID:   make(map[I]T),
		byName: make(map[string]I),
		names:  make(map[I]string),
	}
}

// ReserveID mints the next id without registering anything. Generally
// followed by a Register call with an object carrying that id.
func (s *Store[T, I]) ReserveID() I {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reserveLocked()
}

func (s *Store[T, I]) reserveLocked() I {
	id := I(s.nextID)
	s.nextID++
	return id
}

// Register adds an object under its own id.
func (s *Store[T, I]) Register(obj T) (I, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerLocked(obj)
}

func (s *Store[T, I]) registerLocked(obj T) (I, error) {
	id := obj.ID()
	if _, exists := s.byID[id]; exists {
		return id, fmt.Errorf("%w: %v", ErrIDExists, id)
	}
	s.byID[id] = obj
	return id, nil
}

// RegisterNamed adds an object under its id and a unique friendly name.
func (s *Store[T, I]) RegisterNamed(name string, obj T) (I, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[name]; exists {
		return obj.ID(), fmt.Errorf("%w: %q", ErrNameExists, name)
	}
	id, err := s.registerLocked(obj)
	if err != nil {
		return id, err
	}
	s.byName[name] = id
	s.names[id] = name
	return id, nil
}

// InsertNew reserves an id and registers the object built by fn in a single
// call. The object must carry the id given to the callback.
func (s *Store[T, I]) InsertNew(fn func(I) (T, error)) (I, error) {
	return s.insert("", false, fn)
}

// InsertNewNamed is InsertNew with a unique friendly name.
func (s *Store[T, I]) InsertNewNamed(name string, fn func(I) (T, error)) (I, error) {
	return s.insert(name, true, fn)
}

func (s *Store[T, I]) insert(name string, named bool, fn func(I) (T, error)) (I, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if named {
		if _, exists := s.byName[name]; exists {
			var zero I
			return zero, fmt.Errorf("%w: %q", ErrNameExists, name)
		}
	}

	id := s.reserveLocked()
	obj, err := fn(id)
	if err != nil {
		return id, err
	}
	if obj.ID() != id {
		return id, fmt.Errorf("%w: got %v, reserved %v", ErrIDNotReserved, obj.ID(), id)
	}
	if _, err := s.registerLocked(obj); err != nil {
		return id, err
	}
	if named {
		s.byName[name] = id
		s.names[id] = name
	}
	return id, nil
}

// Get returns the object for id.
func (s *Store[T, I]) Get(id I) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.byID[id]
	return obj, ok
}

// GetByName returns the object registered under name.
func (s *Store[T, I]) GetByName(name string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		var zero T
		return zero, false
	}
	obj, ok := s.byID[id]
	return obj, ok
}

// IDFromName resolves a friendly name to an id.
func (s *Store[T, I]) IDFromName(name string) (I, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	return id, ok
}

// NameFromID returns the friendly name for id, if one was registered.
func (s *Store[T, I]) NameFromID(id I) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[id]
	return name, ok
}

// Names returns a copy of the name → id table.
func (s *Store[T, I]) Names() map[string]I {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]I, len(s.byName))
	for name, id := range s.byName {
		out[name] = id
	}
	return out
}

// Len reports the number of registered objects.
func (s *Store[T, I]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
