package stepflow

import (
	"fmt"
	"strconv"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/aretw0/stepflow/pkg/schema"
)

const (
	directionDown        = "down"
	directionSiblingOrUp = "sibling-or-up"
	directionDone        = "done"
)

func directionToString(d dfsDirection) string {
	switch d {
	case dirSiblingOrUp:
		return directionSiblingOrUp
	case dirDone:
		return directionDone
	default:
		return directionDown
	}
}

func directionFromString(s string) (dfsDirection, error) {
	switch s {
	case directionDown:
		return dirDown, nil
	case directionSiblingOrUp:
		return dirSiblingOrUp, nil
	case directionDone:
		return dirDone, nil
	default:
		return dirDown, fmt.Errorf("unknown traversal direction %q", s)
	}
}

func (s *Session) varKey(id schema.VarID) string {
	if name, ok := s.vars.NameFromID(id); ok {
		return name
	}
	return strconv.FormatUint(uint64(id), 10)
}

func (s *Session) varByKey(key string) (schema.Var, error) {
	if v, ok := s.vars.GetByName(key); ok {
		return v, nil
	}
	if raw, err := strconv.ParseUint(key, 10, 32); err == nil {
		if v, ok := s.vars.Get(schema.VarID(raw)); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("snapshot names unknown variable %q", key)
}

func (s *Session) stepKey(id domain.StepID) string {
	if name, ok := s.steps.NameFromID(id); ok {
		return name
	}
	return strconv.FormatUint(uint64(id), 10)
}

func (s *Session) stepByKey(key string) (domain.StepID, error) {
	if id, ok := s.steps.IDFromName(key); ok {
		return id, nil
	}
	if raw, err := strconv.ParseUint(key, 10, 32); err == nil {
		if _, ok := s.steps.Get(domain.StepID(raw)); ok {
			return domain.StepID(raw), nil
		}
	}
	return 0, fmt.Errorf("snapshot names unknown step %q", key)
}

// Snapshot captures the session's state values and traversal position in
// a serializable form. Values are stored as canonical strings keyed by
// variable name; the flow definition itself is not part of the snapshot.
func (s *Session) Snapshot() *ports.Snapshot {
	values := make(map[string]string, s.state.Len())
	s.state.Each(func(id schema.VarID, vv schema.ValidVal) {
		values[s.varKey(id)] = vv.Value().String()
	})

	cursor := make([]string, len(s.dfs.stack))
	for i, id := range s.dfs.stack {
		cursor[i] = s.stepKey(id)
	}

	return &ports.Snapshot{
		SessionID: s.id,
		Values:    values,
		Cursor:    cursor,
		Direction: directionToString(s.dfs.direction),
	}
}

// Restore replaces the session's state and cursor with the snapshot. The
// session must already hold the same flow definition the snapshot was
// taken from; every value is re-parsed and re-validated through its
// variable, so a stale or tampered snapshot fails instead of loading.
func (s *Session) Restore(snap *ports.Snapshot) error {
	state := schema.NewStateData()
	for key, raw := range snap.Values {
		v, err := s.varByKey(key)
		if err != nil {
			return err
		}
		val, err := v.ValueFromString(raw)
		if err != nil {
			return fmt.Errorf("snapshot value for %q: %w", key, err)
		}
		if err := state.Insert(v, val); err != nil {
			return fmt.Errorf("snapshot value for %q: %w", key, err)
		}
	}

	stack := make([]domain.StepID, len(snap.Cursor))
	for i, key := range snap.Cursor {
		id, err := s.stepByKey(key)
		if err != nil {
			return err
		}
		stack[i] = id
	}

	direction, err := directionFromString(snap.Direction)
	if err != nil {
		return err
	}

	s.id = snap.SessionID
	s.logger = s.baseLogger.With("session", s.id)
	s.state = state
	s.dfs = &depthFirstSearch{stack: stack, direction: direction}
	return nil
}
