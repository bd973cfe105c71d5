// Package view defines the contract between the controller and anything that
// draws todos: the named render targets, the events a view emits and the
// payloads both carry.
package view

import (
	"errors"
	"fmt"
)

// Target names a render operation.
type Target string

const (
	ShowEntries            Target = "showEntries"
	ContentBlockVisibility Target = "contentBlockVisibility"
	ToggleAll              Target = "toggleAll"
	ClearCompletedButton   Target = "clearCompletedButton"
	SetFilter              Target = "setFilter"
	ClearNewTodo           Target = "clearNewTodo"
	RemoveItem             Target = "removeItem"
	UpdateElementCount     Target = "updateElementCount"
	ElementComplete        Target = "elementComplete"
	EditItem               Target = "editItem"
	EditItemDone           Target = "editItemDone"
)

// Event names something the user did.
type Event string

const (
	NewTodo         Event = "newTodo"
	ItemEdit        Event = "itemEdit"
	ItemEditDone    Event = "itemEditDone"
	ItemEditCancel  Event = "itemEditCancel"
	ItemRemove      Event = "itemRemove"
	ItemToggle      Event = "itemToggle"
	RemoveCompleted Event = "removeCompleted"
	ToggleAllEvent  Event = "toggleAll"
)

// Render payloads.
type (
	Visibility struct {
		Visible bool
	}
	Checked struct {
		Checked bool
	}
	ClearCompleted struct {
		Completed int
		Visible   bool
	}
	ItemTitle struct {
		ID    int
		Title string
	}
	ItemStatus struct {
		ID        int
		Completed bool
	}
	ItemRef struct {
		ID int
	}
)

// Handler reacts to an event payload.
type Handler func(payload any) error

// View is what the controller renders into.
type View interface {
	Render(target Target, payload any)
	Bind(event Event, handler Handler)
}

var ErrUnbound = errors.New("no handler bound")

// Registry is an event table views embed to satisfy Bind.
type Registry struct {
	handlers map[Event]Handler
}

func (r *Registry) Bind(event Event, handler Handler) {
	if r.handlers == nil {
		r.handlers = make(map[Event]Handler)
	}
	r.handlers[event] = handler
}

// Trigger runs the handler bound to event.
func (r *Registry) Trigger(event Event, payload any) error {
	h, ok := r.handlers[event]
	if !ok {
		return fmt.Errorf("%s: %w", event, ErrUnbound)
	}
	return h(payload)
}

// Bound reports whether a handler exists for event.
func (r *Registry) Bound(event Event) bool {
	_, ok := r.handlers[event]
	return ok
}
