// Package tests holds reusable contract suites for ports implementations.
package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/stepflow/pkg/ports"
)

// SnapshotStoreContractTest verifies an adapter complies with
// ports.SnapshotStore. The store must start empty.
func SnapshotStoreContractTest(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	snap := &ports.Snapshot{
		SessionID: "contract-session",
		Values:    map[string]string{"name": "ada", "email": "ada@example.test"},
		Cursor:    []string{"__root", "identity"},
		Direction: "sibling-or-up",
	}

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-session")
		if !errors.Is(err, ports.ErrSnapshotNotFound) {
			t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
		}
	})

	t.Run("Save_Load", func(t *testing.T) {
		if err := store.Save(ctx, snap); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}

		loaded, err := store.Load(ctx, snap.SessionID)
		if err != nil {
			t.Fatalf("unexpected load error: %v", err)
		}
		if loaded.SessionID != snap.SessionID {
			t.Errorf("session id mismatch: got %q, want %q", loaded.SessionID, snap.SessionID)
		}
		if len(loaded.Values) != len(snap.Values) {
			t.Errorf("expected %d values, got %d", len(snap.Values), len(loaded.Values))
		}
		for k, want := range snap.Values {
			if got := loaded.Values[k]; got != want {
				t.Errorf("value mismatch for %q: got %q, want %q", k, got, want)
			}
		}
		if len(loaded.Cursor) != len(snap.Cursor) {
			t.Fatalf("cursor mismatch: got %v, want %v", loaded.Cursor, snap.Cursor)
		}
		for i, want := range snap.Cursor {
			if loaded.Cursor[i] != want {
				t.Errorf("cursor[%d] mismatch: got %q, want %q", i, loaded.Cursor[i], want)
			}
		}
		if loaded.Direction != snap.Direction {
			t.Errorf("direction mismatch: got %q, want %q", loaded.Direction, snap.Direction)
		}
	})

	t.Run("Save_Replaces", func(t *testing.T) {
		updated := &ports.Snapshot{
			SessionID: snap.SessionID,
			Values:    map[string]string{"name": "grace"},
			Cursor:    []string{"__root"},
			Direction: "down",
		}
		if err := store.Save(ctx, updated); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}

		loaded, err := store.Load(ctx, snap.SessionID)
		if err != nil {
			t.Fatalf("unexpected load error: %v", err)
		}
		if loaded.Values["name"] != "grace" {
			t.Errorf("expected replaced value, got %q", loaded.Values["name"])
		}
		if len(loaded.Values) != 1 {
			t.Errorf("expected 1 value after replace, got %d", len(loaded.Values))
		}
	})

	t.Run("List", func(t *testing.T) {
		other := &ports.Snapshot{SessionID: "contract-session-2", Direction: "down"}
		if err := store.Save(ctx, other); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}

		ids, err := store.List(ctx)
		if err != nil {
			t.Fatalf("unexpected list error: %v", err)
		}
		lookup := make(map[string]bool, len(ids))
		for _, id := range ids {
			lookup[id] = true
		}
		for _, want := range []string{"contract-session", "contract-session-2"} {
			if !lookup[want] {
				t.Errorf("expected %q in list, got %v", want, ids)
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, snap.SessionID); err != nil {
			t.Fatalf("unexpected delete error: %v", err)
		}
		_, err := store.Load(ctx, snap.SessionID)
		if !errors.Is(err, ports.ErrSnapshotNotFound) {
			t.Fatalf("expected ErrSnapshotNotFound after delete, got %v", err)
		}

		// deleting a missing session is not an error
		if err := store.Delete(ctx, "missing-session"); err != nil {
			t.Fatalf("unexpected delete error for missing session: %v", err)
		}
	})
}
