// Package memory provides in-memory adapters, mainly for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/stepflow/pkg/ports"
)

// Store implements ports.SnapshotStore with a process-local map.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*ports.Snapshot
}

// NewStore creates an empty in-memory snapshot store.
func NewStore() *Store {
	return &Store{snapshots: make(map[string]*ports.Snapshot)}
}

// Save stores a deep copy so later mutations of the snapshot by the
// caller don't leak into the store.
func (s *Store) Save(_ context.Context, snap *ports.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.SessionID] = copySnapshot(snap)
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *Store) Load(_ context.Context, sessionID string) (*ports.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[sessionID]
	if !ok {
		return nil, ports.ErrSnapshotNotFound
	}
	return copySnapshot(snap), nil
}

// Delete removes the snapshot. Deleting a missing session is a no-op.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, sessionID)
	return nil
}

// List returns the stored session ids.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}

func copySnapshot(snap *ports.Snapshot) *ports.Snapshot {
	out := &ports.Snapshot{
		SessionID: snap.SessionID,
		Direction: snap.Direction,
	}
	if snap.Values != nil {
		out.Values = make(map[string]string, len(snap.Values))
		for k, v := range snap.Values {
			out.Values[k] = v
		}
	}
	if snap.Cursor != nil {
		out.Cursor = append([]string(nil), snap.Cursor...)
	}
	return out
}
