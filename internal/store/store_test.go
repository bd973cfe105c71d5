package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/todomvc/internal/config"
	"github.com/Makepad-fr/todomvc/internal/controller"
	"github.com/Makepad-fr/todomvc/internal/exception"
	"github.com/Makepad-fr/todomvc/internal/model"
	"github.com/Makepad-fr/todomvc/internal/view"
)

type recordingView struct {
	view.Registry
	entries [][]model.Todo
	counts  []int
}

func (v *recordingView) Render(target view.Target, payload any) {
	switch target {
	case view.ShowEntries:
		v.entries = append(v.entries, payload.([]model.Todo))
	case view.UpdateElementCount:
		v.counts = append(v.counts, payload.(int))
	}
}

// Every backend drives the same controller scenario to the same result.
func TestBackendsBehaveAlike(t *testing.T) {
	dir := t.TempDir()
	backends := []config.StoreConfig{
		{Backend: config.BackendMemory},
		{Backend: config.BackendJSON, Path: filepath.Join(dir, "todos.json")},
		{Backend: config.BackendSQLite, Path: filepath.Join(dir, "todos.db")},
	}
	for _, cfg := range backends {
		t.Run(cfg.Backend, func(t *testing.T) {
			s, err := Open(cfg, nil)
			require.NoError(t, err)
			defer s.Close()

			v := &recordingView{}
			c := controller.New(s, v, controller.WithErrorHandler(exception.Rethrow))
			require.NoError(t, c.SetView(""))

			require.NoError(t, v.Trigger(view.NewTodo, "first"))
			require.NoError(t, v.Trigger(view.NewTodo, "second"))
			require.NoError(t, v.Trigger(view.ItemToggle, view.ItemStatus{ID: 1, Completed: true}))
			require.NoError(t, v.Trigger(view.ItemEditDone, view.ItemTitle{ID: 2, Title: "2nd"}))
			require.NoError(t, c.SetView("active"))

			assert.Equal(t, []model.Todo{{ID: 2, Title: "2nd"}}, v.entries[len(v.entries)-1])

			require.NoError(t, v.Trigger(view.RemoveCompleted, nil))
			require.NoError(t, v.Trigger(view.ItemRemove, view.ItemRef{ID: 2}))
			assert.Equal(t, 0, v.counts[len(v.counts)-1])

			cnt, err := s.GetCount()
			require.NoError(t, err)
			assert.Equal(t, model.Count{}, cnt)
		})
	}
}

func TestUnknownBackend(t *testing.T) {
	_, err := Open(config.StoreConfig{Backend: "redis"}, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
