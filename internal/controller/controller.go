// Package controller mediates between a todo Model and a View: view events
// become model calls, model results become render calls.
package controller

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Makepad-fr/todomvc/internal/exception"
	"github.com/Makepad-fr/todomvc/internal/model"
	"github.com/Makepad-fr/todomvc/internal/view"
)

// Model is the data-access side. Callbacks run synchronously on success and
// are not called when an error is returned.
type Model interface {
	Read(q model.Query, fn func([]model.Todo)) error
	GetCount() (model.Count, error)
	Create(title string, fn func()) error
	Update(id int, p model.Patch, fn func()) error
	Remove(id int, fn func()) error
}

// ErrPayload is returned when an event carries a payload of the wrong shape.
var ErrPayload = errors.New("unexpected event payload")

type Controller struct {
	model   Model
	view    view.View
	log     *zap.Logger
	onError exception.Handler

	active model.Filter
	last   model.Filter
	shown  bool
}

type Option func(*Controller)

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithErrorHandler replaces the handler failures are routed through. Without
// it failures are logged and absorbed.
func WithErrorHandler(h exception.Handler) Option {
	return func(c *Controller) {
		if h != nil {
			c.onError = h
		}
	}
}

// New wires the controller to m and v and binds every view event.
func New(m Model, v view.View, opts ...Option) *Controller {
	c := &Controller{
		model: m,
		view:  v,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.onError == nil {
		c.onError = exception.Swallow(c.log)
	}

	c.bind(view.NewTodo, func(p any) error {
		title, ok := p.(string)
		if !ok {
			return payloadErr(view.NewTodo, p)
		}
		return c.addItem(title)
	})
	c.bind(view.ItemEdit, func(p any) error {
		id, err := payloadID(view.ItemEdit, p)
		if err != nil {
			return err
		}
		return c.editItem(id)
	})
	c.bind(view.ItemEditDone, func(p any) error {
		it, ok := p.(view.ItemTitle)
		if !ok {
			return payloadErr(view.ItemEditDone, p)
		}
		return c.editItemSave(it.ID, it.Title)
	})
	c.bind(view.ItemEditCancel, func(p any) error {
		id, err := payloadID(view.ItemEditCancel, p)
		if err != nil {
			return err
		}
		return c.editItemCancel(id)
	})
	c.bind(view.ItemRemove, func(p any) error {
		id, err := payloadID(view.ItemRemove, p)
		if err != nil {
			return err
		}
		return c.removeItem(id)
	})
	c.bind(view.ItemToggle, func(p any) error {
		st, ok := p.(view.ItemStatus)
		if !ok {
			return payloadErr(view.ItemToggle, p)
		}
		return c.toggleComplete(st.ID, st.Completed, false)
	})
	c.bind(view.RemoveCompleted, func(any) error {
		return c.removeCompletedItems()
	})
	c.bind(view.ToggleAllEvent, func(p any) error {
		var completed bool
		switch x := p.(type) {
		case bool:
			completed = x
		case view.Checked:
			completed = x.Checked
		default:
			return payloadErr(view.ToggleAllEvent, p)
		}
		return c.toggleAll(completed)
	})
	return c
}

func (c *Controller) bind(event view.Event, fn view.Handler) {
	c.view.Bind(event, func(p any) error {
		c.log.Debug("event", zap.String("event", string(event)))
		return exception.Guard(c.onError, string(event), func() error { return fn(p) })
	})
}

func (c *Controller) guard(cause string, fn func() error) error {
	return exception.Guard(c.onError, cause, fn)
}

// Filter is the filter currently on screen.
func (c *Controller) Filter() model.Filter { return c.active }

// SetView switches to the filter named by route and refreshes the display.
func (c *Controller) SetView(route string) error {
	return c.guard("setView", func() error {
		f := model.ParseFilter(route)
		c.active = f
		if err := c.filter(false); err != nil {
			return err
		}
		c.view.Render(view.SetFilter, f)
		return nil
	})
}

// Refresh redraws counts and entries for the current filter, e.g. after the
// store was changed by someone else.
func (c *Controller) Refresh() error {
	return c.guard("refresh", func() error {
		if err := c.filter(true); err != nil {
			return err
		}
		c.view.Render(view.SetFilter, c.active)
		return nil
	})
}

func (c *Controller) ShowAll() error {
	return c.guard("showAll", func() error { return c.show(model.All()) })
}

func (c *Controller) ShowActive() error {
	return c.guard("showActive", func() error { return c.show(model.ByCompleted(false)) })
}

func (c *Controller) ShowCompleted() error {
	return c.guard("showCompleted", func() error { return c.show(model.ByCompleted(true)) })
}

// AddItem creates a todo. Blank titles are ignored.
func (c *Controller) AddItem(title string) error {
	return c.guard("addItem", func() error { return c.addItem(title) })
}

func (c *Controller) EditItem(id int) error {
	return c.guard("editItem", func() error { return c.editItem(id) })
}

// EditItemSave stores a new title; an empty title removes the todo.
func (c *Controller) EditItemSave(id int, title string) error {
	return c.guard("editItemSave", func() error { return c.editItemSave(id, title) })
}

func (c *Controller) EditItemCancel(id int) error {
	return c.guard("editItemCancel", func() error { return c.editItemCancel(id) })
}

func (c *Controller) RemoveItem(id int) error {
	return c.guard("removeItem", func() error { return c.removeItem(id) })
}

func (c *Controller) RemoveCompletedItems() error {
	return c.guard("removeCompletedItems", c.removeCompletedItems)
}

// ToggleComplete sets the completed flag of one todo. A silent toggle skips
// the elementComplete render and the refresh.
func (c *Controller) ToggleComplete(id int, completed, silent bool) error {
	return c.guard("toggleComplete", func() error { return c.toggleComplete(id, completed, silent) })
}

func (c *Controller) ToggleAll(completed bool) error {
	return c.guard("toggleAll", func() error { return c.toggleAll(completed) })
}

// -------------- operations ----------------

func (c *Controller) show(q model.Query) error {
	err := c.model.Read(q, func(todos []model.Todo) {
		c.view.Render(view.ShowEntries, todos)
	})
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}

func (c *Controller) addItem(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	var ferr error
	err := c.model.Create(title, func() {
		if ferr = c.filter(true); ferr != nil {
			return
		}
		c.view.Render(view.ClearNewTodo, nil)
	})
	if err != nil {
		return fmt.Errorf("create %q: %w", title, err)
	}
	c.log.Debug("created", zap.String("title", title))
	return ferr
}

func (c *Controller) lookup(id int) (model.Todo, error) {
	var (
		found model.Todo
		ok    bool
	)
	err := c.model.Read(model.ByID(id), func(todos []model.Todo) {
		for _, t := range todos {
			if t.ID == id {
				found, ok = t, true
				return
			}
		}
	})
	if err != nil {
		return model.Todo{}, fmt.Errorf("read %d: %w", id, err)
	}
	if !ok {
		return model.Todo{}, fmt.Errorf("todo %d: %w", id, model.ErrNotFound)
	}
	return found, nil
}

func (c *Controller) editItem(id int) error {
	t, err := c.lookup(id)
	if err != nil {
		return err
	}
	c.view.Render(view.EditItem, view.ItemTitle{ID: id, Title: t.Title})
	return nil
}

func (c *Controller) editItemSave(id int, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return c.removeItem(id)
	}
	err := c.model.Update(id, model.SetTitle(title), func() {
		c.view.Render(view.EditItemDone, view.ItemTitle{ID: id, Title: title})
	})
	if err != nil {
		return fmt.Errorf("update %d: %w", id, err)
	}
	return nil
}

func (c *Controller) editItemCancel(id int) error {
	t, err := c.lookup(id)
	if err != nil {
		return err
	}
	c.view.Render(view.EditItemDone, view.ItemTitle{ID: id, Title: t.Title})
	return nil
}

func (c *Controller) removeItem(id int) error {
	if err := c.remove(id); err != nil {
		return err
	}
	return c.filter(false)
}

func (c *Controller) remove(id int) error {
	err := c.model.Remove(id, func() {
		c.view.Render(view.RemoveItem, id)
	})
	if err != nil {
		return fmt.Errorf("remove %d: %w", id, err)
	}
	c.log.Debug("removed", zap.Int("id", id))
	return nil
}

func (c *Controller) ids(q model.Query) ([]int, error) {
	var ids []int
	err := c.model.Read(q, func(todos []model.Todo) {
		for _, t := range todos {
			ids = append(ids, t.ID)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return ids, nil
}

func (c *Controller) removeCompletedItems() error {
	ids, err := c.ids(model.ByCompleted(true))
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := c.remove(id); err != nil {
			return err
		}
	}
	return c.filter(false)
}

func (c *Controller) toggleComplete(id int, completed, silent bool) error {
	err := c.model.Update(id, model.SetCompleted(completed), func() {
		if !silent {
			c.view.Render(view.ElementComplete, view.ItemStatus{ID: id, Completed: completed})
		}
	})
	if err != nil {
		return fmt.Errorf("update %d: %w", id, err)
	}
	if silent {
		return nil
	}
	return c.filter(false)
}

func (c *Controller) toggleAll(completed bool) error {
	ids, err := c.ids(model.ByCompleted(!completed))
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := c.toggleComplete(id, completed, true); err != nil {
			return err
		}
	}
	return c.filter(true)
}

// -------------- refresh ----------------

func (c *Controller) updateCount() error {
	cnt, err := c.model.GetCount()
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	c.view.Render(view.UpdateElementCount, cnt.Active)
	c.view.Render(view.ClearCompletedButton, view.ClearCompleted{
		Completed: cnt.Completed,
		Visible:   cnt.Completed > 0,
	})
	c.view.Render(view.ToggleAll, view.Checked{Checked: cnt.Completed == cnt.Total})
	c.view.Render(view.ContentBlockVisibility, view.Visibility{Visible: cnt.Total > 0})
	return nil
}

// filter refreshes the counters and, unless nothing could have changed on an
// unfiltered list, re-renders the entries for the active filter.
func (c *Controller) filter(force bool) error {
	if err := c.updateCount(); err != nil {
		return err
	}
	if force || !c.shown || c.last != c.active || c.active != model.FilterAll {
		if err := c.show(c.active.Query()); err != nil {
			return err
		}
	}
	c.last, c.shown = c.active, true
	return nil
}

// -------------- payload helpers ----------------

func payloadErr(event view.Event, p any) error {
	return fmt.Errorf("%s: %T: %w", event, p, ErrPayload)
}

func payloadID(event view.Event, p any) (int, error) {
	switch x := p.(type) {
	case int:
		return x, nil
	case view.ItemRef:
		return x.ID, nil
	case view.ItemTitle:
		return x.ID, nil
	case view.ItemStatus:
		return x.ID, nil
	}
	return 0, payloadErr(event, p)
}
