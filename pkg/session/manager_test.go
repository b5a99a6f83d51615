package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/pkg/action"
	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/schema"
)

// testFactory builds a one-step flow producing a "name" string.
func testFactory(opts ...stepflow.Option) (*stepflow.Session, error) {
	s := stepflow.NewSession(opts...)

	nameVar, err := s.Vars().InsertNewNamed("name", func(id schema.VarID) (schema.Var, error) {
		return schema.NewStringVar(id), nil
	})
	if err != nil {
		return nil, err
	}

	step, err := s.Steps().InsertNewNamed("identity", func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, nil, []schema.VarID{nameVar}), nil
	})
	if err != nil {
		return nil, err
	}
	s.PushRootSubstep(step)

	uriAction, err := s.Actions().InsertNew(func(id action.ActionID) (action.Action, error) {
		return action.NewURIAction(id, "/flow"), nil
	})
	if err != nil {
		return nil, err
	}
	s.BindDefaultAction(uriAction)
	return s, nil
}

func TestManagerCreateAndAccess(t *testing.T) {
	m := NewManager(testFactory)
	ctx := context.Background()

	id, err := m.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	err = m.WithSession(ctx, id, func(s *stepflow.Session) error {
		result, err := s.Advance(nil)
		require.NoError(t, err)
		_, val, started := result.IsStartWith()
		require.True(t, started)
		assert.Equal(t, "/flow/identity", val.String())
		return nil
	})
	require.NoError(t, err)
}

func TestManagerUnknownSession(t *testing.T) {
	m := NewManager(testFactory)
	err := m.WithSession(context.Background(), "ghost", func(*stepflow.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerRestoresFromSnapshotStore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first := NewManager(testFactory, WithSnapshotStore(store))
	id, err := first.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, first.WithSession(ctx, id, func(s *stepflow.Session) error {
		_, err := s.Advance(nil)
		return err
	}))

	// a second manager with an empty live map picks the session up from
	// the store
	second := NewManager(testFactory, WithSnapshotStore(store))
	err = second.WithSession(ctx, id, func(s *stepflow.Session) error {
		cur, ok := s.CurrentStep()
		require.True(t, ok)
		name, ok := s.Steps().NameFromID(cur)
		require.True(t, ok)
		assert.Equal(t, "identity", name)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, second.Delete(ctx, id))
	err = second.WithSession(ctx, id, func(*stepflow.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerSerializesPerSession(t *testing.T) {
	m := NewManager(testFactory)
	ctx := context.Background()

	id, err := m.Create(ctx)
	require.NoError(t, err)

	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithSession(ctx, id, func(*stepflow.Session) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}
