package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/todomvc/internal/controller"
	"github.com/Makepad-fr/todomvc/internal/model"
	"github.com/Makepad-fr/todomvc/internal/store/memstore"
	"github.com/Makepad-fr/todomvc/internal/view"
)

func plain(t *testing.T) {
	t.Helper()
	SetColorForcing(false, true)
	require.NoError(t, SetTheme("classic"))
	t.Cleanup(func() {
		SetColorForcing(false, false)
		_ = SetTheme("classic")
	})
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░  50%", ProgressBar(1, 2, 10))
	assert.Equal(t, "░░░░░   0%", ProgressBar(0, 0, 1))
	assert.Equal(t, "█████ 300%", ProgressBar(9, 3, 5))
}

func TestPanelPadsToWidestLine(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	Panel(&buf, []string{"ab", "abcd", "☑ x"})

	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, got, 5)
	assert.Equal(t, "┌──────┐", got[0])
	assert.Equal(t, "│ ab   │", got[1])
	assert.Equal(t, "│ abcd │", got[2])
	assert.Equal(t, "└──────┘", got[4])
}

func TestSetTheme(t *testing.T) {
	plain(t)
	require.NoError(t, SetTheme("MONO"))
	assert.Equal(t, "[x]", Current().BoxChecked)
	assert.Error(t, SetTheme("disco"))
	assert.Equal(t, "mono", Current().Name)
	assert.Equal(t, []string{"classic", "mono", "neon"}, ThemeNames())
}

func TestMonoThemeKeepsColorMode(t *testing.T) {
	plain(t)
	SetColorMode("always")

	require.NoError(t, SetTheme("mono"))
	assert.Equal(t, bold+"Todos"+reset, C(Current().Title, "Todos"))
	assert.Equal(t, "ok", C(Current().Success, "ok"))

	require.NoError(t, SetTheme("classic"))
	assert.Equal(t, fgGreen+"ok"+reset, C(Current().Success, "ok"))

	SetColorMode("never")
	require.NoError(t, SetTheme("mono"))
	assert.Equal(t, "Todos", C(Current().Title, "Todos"))
}

func TestFilterBarMono(t *testing.T) {
	plain(t)
	require.NoError(t, SetTheme("mono"))
	assert.Equal(t, "All  [Active]  Completed", FilterBar(model.FilterActive))
}

func TestTermViewThroughController(t *testing.T) {
	plain(t)
	s := memstore.New(
		model.Todo{ID: 1, Title: "Buy milk"},
		model.Todo{ID: 2, Title: "Walk dog", Completed: true},
	)
	tv := NewTermView()
	c := controller.New(s, tv)

	require.NoError(t, c.SetView(""))
	assert.Len(t, tv.Entries(), 2)
	assert.False(t, tv.AllCompleted())

	require.NoError(t, tv.Trigger(view.ItemToggle, view.ItemStatus{ID: 1, Completed: true}))
	e, ok := tv.Entry(1)
	require.True(t, ok)
	assert.True(t, e.Completed)
	assert.True(t, tv.AllCompleted())

	require.NoError(t, tv.Trigger(view.NewTodo, "Call mum"))
	require.NoError(t, tv.Trigger(view.ItemRemove, view.ItemRef{ID: 2}))

	var notes bytes.Buffer
	tv.FlushNotes(&notes)
	assert.Equal(t, "✔ completed #1\n✔ added\n✔ removed #2\n", notes.String())

	var out bytes.Buffer
	tv.Print(&out, false)
	got := out.String()
	assert.Contains(t, got, "Todos  ✔ 1  • 1  Total 2")
	assert.Contains(t, got, "#1 ☑ Buy milk")
	assert.Contains(t, got, "#3 ☐ Call mum")
	assert.NotContains(t, got, "Walk dog")
	assert.Contains(t, got, "1 left")
}

func TestTermViewEditing(t *testing.T) {
	plain(t)
	s := memstore.New(model.Todo{ID: 4, Title: "draft"})
	tv := NewTermView()
	c := controller.New(s, tv)
	require.NoError(t, c.SetView(""))

	require.NoError(t, tv.Trigger(view.ItemEdit, view.ItemRef{ID: 4}))
	it, ok := tv.Editing()
	require.True(t, ok)
	assert.Equal(t, view.ItemTitle{ID: 4, Title: "draft"}, it)

	require.NoError(t, tv.Trigger(view.ItemEditDone, view.ItemTitle{ID: 4, Title: "final"}))
	_, ok = tv.Editing()
	assert.False(t, ok)
	e, _ := tv.Entry(4)
	assert.Equal(t, "final", e.Title)
}

func TestTermViewEmptyAndGrouped(t *testing.T) {
	plain(t)
	tv := NewTermView()
	c := controller.New(memstore.New(), tv)
	require.NoError(t, c.SetView(""))

	lines := strings.Join(tv.Lines(false), "\n")
	assert.Contains(t, lines, "no items")
	assert.Contains(t, lines, "Tip: add with")

	tv = NewTermView()
	c = controller.New(memstore.New(
		model.Todo{ID: 1, Title: "open"},
		model.Todo{ID: 2, Title: "closed", Completed: true},
	), tv)
	require.NoError(t, c.SetView(""))
	lines = strings.Join(tv.Lines(true), "\n")
	assert.Less(t, strings.Index(lines, "Pending"), strings.Index(lines, "open"))
	assert.Less(t, strings.Index(lines, "Done"), strings.Index(lines, "closed"))
	assert.Contains(t, lines, "`todo clear` removes 1 completed")
}
