package controller

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Makepad-fr/todomvc/internal/exception"
	"github.com/Makepad-fr/todomvc/internal/model"
	"github.com/Makepad-fr/todomvc/internal/view"
)

type updateCall struct {
	ID    int
	Patch model.Patch
}

// fakeModel serves a fixed list and records every call. Like a spy it never
// mutates its list.
type fakeModel struct {
	todos []model.Todo
	err   error

	reads   []model.Query
	creates []string
	updates []updateCall
	removes []int
}

func (m *fakeModel) Read(q model.Query, fn func([]model.Todo)) error {
	m.reads = append(m.reads, q)
	if m.err != nil {
		return m.err
	}
	fn(q.Select(m.todos))
	return nil
}

func (m *fakeModel) GetCount() (model.Count, error) {
	if m.err != nil {
		return model.Count{}, m.err
	}
	return model.CountOf(m.todos), nil
}

func (m *fakeModel) Create(title string, fn func()) error {
	m.creates = append(m.creates, title)
	if m.err != nil {
		return m.err
	}
	fn()
	return nil
}

func (m *fakeModel) Update(id int, p model.Patch, fn func()) error {
	m.updates = append(m.updates, updateCall{ID: id, Patch: p})
	if m.err != nil {
		return m.err
	}
	fn()
	return nil
}

func (m *fakeModel) Remove(id int, fn func()) error {
	m.removes = append(m.removes, id)
	if m.err != nil {
		return m.err
	}
	fn()
	return nil
}

type renderCall struct {
	Target  view.Target
	Payload any
}

type fakeView struct {
	view.Registry
	renders []renderCall
}

func (v *fakeView) Render(target view.Target, payload any) {
	v.renders = append(v.renders, renderCall{Target: target, Payload: payload})
}

func (v *fakeView) reset() { v.renders = nil }

func (v *fakeView) trigger(t *testing.T, event view.Event, payload any) {
	t.Helper()
	if err := v.Trigger(event, payload); err != nil {
		t.Fatalf("trigger %s: %v", event, err)
	}
}

// assertRendered fails unless target was rendered with payload at least once.
func (v *fakeView) assertRendered(t *testing.T, target view.Target, payload any) {
	t.Helper()
	for _, r := range v.renders {
		if r.Target == target && cmp.Equal(r.Payload, payload) {
			return
		}
	}
	t.Errorf("render(%s, %#v) not called; calls:\n%s", target, payload, v.dump())
}

func (v *fakeView) assertNotRendered(t *testing.T, target view.Target) {
	t.Helper()
	for _, r := range v.renders {
		if r.Target == target {
			t.Errorf("unexpected render(%s, %#v)", target, r.Payload)
		}
	}
}

func (v *fakeView) targets() []view.Target {
	out := make([]view.Target, 0, len(v.renders))
	for _, r := range v.renders {
		out = append(out, r.Target)
	}
	return out
}

func (v *fakeView) dump() string {
	var b strings.Builder
	for _, r := range v.renders {
		fmt.Fprintf(&b, "  %s %#v\n", r.Target, r.Payload)
	}
	return b.String()
}

func setUp(todos ...model.Todo) (*Controller, *fakeModel, *fakeView) {
	m := &fakeModel{todos: todos}
	v := &fakeView{}
	return New(m, v, WithErrorHandler(exception.Rethrow)), m, v
}
