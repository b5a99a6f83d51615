// Package session manages live sessions for multi-client drivers,
// serializing access per session and persisting snapshots between
// requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/ports"
)

// ErrSessionNotFound is returned when no live or persisted session
// matches the id.
var ErrSessionNotFound = errors.New("session not found")

// Factory builds a fresh session holding the flow definition. The manager
// calls it for every new session and again when rebuilding one from a
// snapshot.
type Factory func(opts ...stepflow.Option) (*stepflow.Session, error)

type entry struct {
	mu      sync.Mutex
	session *stepflow.Session
}

// Manager owns the live sessions of a driver. Each session gets its own
// mutex so concurrent requests for different sessions don't serialize,
// while two requests for the same session never interleave an advance.
type Manager struct {
	factory Factory
	store   ports.SnapshotStore
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// Option configures the Manager.
type Option func(*Manager)

// WithSnapshotStore persists a snapshot after every session mutation and
// rebuilds evicted sessions from the store on access.
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(m *Manager) { m.store = store }
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a Manager that builds sessions with the factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory: factory,
		entries: make(map[string]*entry),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create builds a new session, registers it and returns its id.
func (m *Manager) Create(ctx context.Context) (string, error) {
	session, err := m.factory()
	if err != nil {
		return "", fmt.Errorf("failed to build session: %w", err)
	}

	m.mu.Lock()
	m.entries[session.ID()] = &entry{session: session}
	m.mu.Unlock()

	if err := m.persist(ctx, session); err != nil {
		return "", err
	}
	m.logger.Debug("session created", "session", session.ID())
	return session.ID(), nil
}

// lookup returns the live entry, rebuilding it from the snapshot store
// when possible.
func (m *Manager) lookup(ctx context.Context, sessionID string) (*entry, error) {
	m.mu.Lock()
	e, ok := m.entries[sessionID]
	m.mu.Unlock()
	if ok {
		return e, nil
	}
	if m.store == nil {
		return nil, ErrSessionNotFound
	}

	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSnapshotNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	session, err := m.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild session: %w", err)
	}
	if err := session.Restore(snap); err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[sessionID]; ok {
		// lost the race to another request, use theirs
		return existing, nil
	}
	e = &entry{session: session}
	m.entries[sessionID] = e
	m.logger.Debug("session restored", "session", sessionID)
	return e, nil
}

// WithSession runs fn with exclusive access to the session, then persists
// a snapshot when a store is configured.
func (m *Manager) WithSession(ctx context.Context, sessionID string, fn func(*stepflow.Session) error) error {
	e, err := m.lookup(ctx, sessionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.session); err != nil {
		return err
	}
	return m.persist(ctx, e.session)
}

// Delete drops the live session and its snapshot.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.entries, sessionID)
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	return m.store.Delete(ctx, sessionID)
}

func (m *Manager) persist(ctx context.Context, session *stepflow.Session) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Save(ctx, session.Snapshot()); err != nil {
		return fmt.Errorf("failed to persist session %s: %w", session.ID(), err)
	}
	return nil
}
