package ui

import (
	"fmt"
	"io"

	"github.com/Makepad-fr/todomvc/internal/model"
	"github.com/Makepad-fr/todomvc/internal/view"
)

// TermView is the line-oriented view used by one-shot commands. Renders
// update its state and queue short notices; Print draws the list panel.
type TermView struct {
	view.Registry

	entries   []model.Todo
	filter    model.Filter
	active    int
	completed view.ClearCompleted
	allDone   bool
	visible   bool
	editing   *view.ItemTitle

	notes []string
}

func NewTermView() *TermView { return &TermView{} }

func (t *TermView) Render(target view.Target, payload any) {
	switch target {
	case view.ShowEntries:
		todos, _ := payload.([]model.Todo)
		t.entries = append(t.entries[:0], todos...)
	case view.ContentBlockVisibility:
		if p, ok := payload.(view.Visibility); ok {
			t.visible = p.Visible
		}
	case view.ToggleAll:
		if p, ok := payload.(view.Checked); ok {
			t.allDone = p.Checked
		}
	case view.ClearCompletedButton:
		if p, ok := payload.(view.ClearCompleted); ok {
			t.completed = p
		}
	case view.SetFilter:
		if f, ok := payload.(model.Filter); ok {
			t.filter = f
		}
	case view.ClearNewTodo:
		t.note("added")
	case view.RemoveItem:
		if id, ok := payload.(int); ok {
			t.removeEntry(id)
			t.note(fmt.Sprintf("removed #%d", id))
		}
	case view.UpdateElementCount:
		if n, ok := payload.(int); ok {
			t.active = n
		}
	case view.ElementComplete:
		if p, ok := payload.(view.ItemStatus); ok {
			t.setCompleted(p.ID, p.Completed)
			if p.Completed {
				t.note(fmt.Sprintf("completed #%d", p.ID))
			} else {
				t.note(fmt.Sprintf("reopened #%d", p.ID))
			}
		}
	case view.EditItem:
		if p, ok := payload.(view.ItemTitle); ok {
			t.editing = &p
		}
	case view.EditItemDone:
		if p, ok := payload.(view.ItemTitle); ok {
			t.editing = nil
			t.setTitle(p.ID, p.Title)
			t.note(fmt.Sprintf("#%d: %s", p.ID, p.Title))
		}
	}
}

func (t *TermView) note(s string) { t.notes = append(t.notes, s) }

func (t *TermView) removeEntry(id int) {
	for i, e := range t.entries {
		if e.ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

func (t *TermView) setCompleted(id int, completed bool) {
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Completed = completed
		}
	}
}

func (t *TermView) setTitle(id int, title string) {
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Title = title
		}
	}
}

// Entry returns the on-screen todo with id.
func (t *TermView) Entry(id int) (model.Todo, bool) {
	for _, e := range t.entries {
		if e.ID == id {
			return e, true
		}
	}
	return model.Todo{}, false
}

func (t *TermView) Entries() []model.Todo { return t.entries }

// AllCompleted mirrors the toggle-all checkbox.
func (t *TermView) AllCompleted() bool { return t.allDone }

// Editing is the item in edit mode, if any.
func (t *TermView) Editing() (view.ItemTitle, bool) {
	if t.editing == nil {
		return view.ItemTitle{}, false
	}
	return *t.editing, true
}

// FlushNotes prints and clears the queued notices.
func (t *TermView) FlushNotes(w io.Writer) {
	for _, n := range t.notes {
		OK(w, n)
	}
	t.notes = nil
}

// Lines builds the panel contents.
func (t *TermView) Lines(group bool) []string {
	th := Current()
	total := t.active + t.completed.Completed
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		C(th.Title, "Todos"),
		C(th.Success, th.SymDone), t.completed.Completed,
		C(th.Pending, th.SymUnchecked), t.active,
		C(th.Accent, "Total"), total,
	)

	lines := []string{header}
	if t.visible {
		lines = append(lines, C(th.Muted, ProgressBar(t.completed.Completed, total, 28)))
	}
	lines = append(lines, FilterBar(t.filter), "")

	if group && t.filter == model.FilterAll {
		lines = append(lines, groupLines(t.entries)...)
	} else {
		lines = append(lines, flatLines(t.entries)...)
	}

	lines = append(lines, "")
	switch {
	case !t.visible:
		lines = append(lines, C(th.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	case t.completed.Visible:
		lines = append(lines, C(th.Muted, fmt.Sprintf("%d left · `todo clear` removes %d completed", t.active, t.completed.Completed)))
	default:
		lines = append(lines, C(th.Muted, fmt.Sprintf("%d left", t.active)))
	}
	return lines
}

// Print draws the panel.
func (t *TermView) Print(w io.Writer, group bool) {
	Panel(w, t.Lines(group))
}

// -------------- rendering helpers --------------

func flatLines(items []model.Todo) []string {
	th := Current()
	if len(items) == 0 {
		return []string{C(th.Muted, "no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		idx := fmt.Sprintf("%3s", fmt.Sprintf("#%d", it.ID))
		box := th.BoxUnchecked
		color := th.Muted
		if it.Completed {
			box, color = th.BoxChecked, th.Success
		}
		title := it.Title
		if r := []rune(title); len(r) > 80 {
			title = string(r[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s", C(th.Index, idx), C(color, box), title))
	}
	return out
}

func groupLines(items []model.Todo) []string {
	th := Current()
	var pend, done []model.Todo
	for _, it := range items {
		if it.Completed {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	var lines []string
	lines = append(lines, C(th.Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, C(th.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, C(th.Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, C(th.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}
