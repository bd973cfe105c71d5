package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Makepad-fr/todomvc/internal/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), DefaultFileName), nil)
	require.NoError(t, err)
	return s
}

func readAll(t *testing.T, s *Store) []model.Todo {
	t.Helper()
	var out []model.Todo
	require.NoError(t, s.Read(model.All(), func(ts []model.Todo) { out = ts }))
	return out
}

func TestMissingFileIsEmpty(t *testing.T) {
	s := newStore(t)
	assert.Empty(t, readAll(t, s))

	cnt, err := s.GetCount()
	require.NoError(t, err)
	assert.Equal(t, model.Count{}, cnt)
}

func TestCreateUpdateRemoveRoundTrip(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Create("Buy milk", func() {}))
	require.NoError(t, s.Create("Walk dog", func() {}))
	require.NoError(t, s.Update(1, model.SetCompleted(true), func() {}))
	require.NoError(t, s.Update(2, model.SetTitle("Walk the dog"), func() {}))

	assert.Equal(t, []model.Todo{
		{ID: 1, Title: "Buy milk", Completed: true},
		{ID: 2, Title: "Walk the dog"},
	}, readAll(t, s))

	require.NoError(t, s.Remove(1, func() {}))
	require.NoError(t, s.Create("Call mum", func() {}))

	// ids are never reused
	assert.Equal(t, []model.Todo{
		{ID: 2, Title: "Walk the dog"},
		{ID: 3, Title: "Call mum"},
	}, readAll(t, s))

	reopened, err := New(s.Path(), nil)
	require.NoError(t, err)
	assert.Equal(t, readAll(t, s), readAll(t, reopened))
}

func TestMissingIDSkipsCallback(t *testing.T) {
	s := newStore(t)
	called := false
	assert.ErrorIs(t, s.Update(3, model.SetTitle("x"), func() { called = true }), model.ErrNotFound)
	assert.ErrorIs(t, s.Remove(3, func() { called = true }), model.ErrNotFound)
	assert.False(t, called)
}

func TestLegacyArrayFormat(t *testing.T) {
	s := newStore(t)
	legacy := `[{"title":"Buy milk","done":true},{"title":"Walk dog","done":false}]`
	require.NoError(t, os.WriteFile(s.Path(), []byte(legacy), 0o644))

	assert.Equal(t, []model.Todo{
		{ID: 1, Title: "Buy milk", Completed: true},
		{ID: 2, Title: "Walk dog"},
	}, readAll(t, s))

	require.NoError(t, s.Create("new", func() {}))
	b, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"next_id": 4`)
}

func TestCorruptFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{nope"), 0o644))

	err := s.Read(model.All(), func([]model.Todo) { t.Fatal("callback on error") })
	assert.ErrorContains(t, err, "json unmarshal")
}

func TestWatchNotifiesOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// give the watcher time to register the directory
	require.Eventually(t, func() bool {
		_ = s.Create("poke", func() {})
		select {
		case <-changed:
			return true
		case <-time.After(300 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
