package ports

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned by Load when no snapshot exists for the
// session id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the serializable picture of a running session: its state
// values in canonical string form plus the traversal position. Values are
// keyed by variable name (or decimal id for unnamed variables) and are
// re-validated against the flow definition on restore, so a snapshot never
// smuggles unvalidated data back into a session.
type Snapshot struct {
	SessionID string            `json:"session_id"`
	Values    map[string]string `json:"values"`
	Cursor    []string          `json:"cursor"`
	Direction string            `json:"direction"`
}

// SnapshotStore persists session snapshots, enabling stop-and-resume
// flows across process restarts.
type SnapshotStore interface {
	// Save persists the snapshot, replacing any previous one for the
	// same session id.
	Save(ctx context.Context, snap *Snapshot) error

	// Load retrieves the snapshot for a session id.
	// Returns ErrSnapshotNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*Snapshot, error)

	// Delete removes the snapshot for a session id.
	Delete(ctx context.Context, sessionID string) error

	// List returns the session ids with a stored snapshot.
	List(ctx context.Context) ([]string, error)
}
