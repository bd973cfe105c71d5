// Package tui is the interactive Bubble Tea view. The tea model doubles as the
// controller's View: key presses trigger view events and render calls update
// what is drawn.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Makepad-fr/todomvc/internal/controller"
	"github.com/Makepad-fr/todomvc/internal/exception"
	"github.com/Makepad-fr/todomvc/internal/model"
	"github.com/Makepad-fr/todomvc/internal/view"
)

// listItem adapts a Todo to bubbles/list.Item
type listItem struct {
	todo model.Todo
}

func (i listItem) FilterValue() string { return i.todo.Title }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	boxStyled := mutedStyle.Render(boxUnchecked)
	textStyled := it.todo.Title
	if it.todo.Completed {
		boxStyled = successStyle.Render(boxChecked)
		textStyled = doneStyle.Render(it.todo.Title)
	}

	line := fmt.Sprintf("%s %s", boxStyled, textStyled)
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+line)
}

type mode int

const (
	modeList mode = iota
	modeAdding
	modeEditing
)

// changedMsg tells the app the store was modified elsewhere.
type changedMsg struct{}

// WatchFunc blocks until ctx is done, calling onChange on every external edit.
type WatchFunc func(ctx context.Context, onChange func()) error

type Options struct {
	Filter       model.Filter
	Logger       *zap.Logger
	ErrorHandler exception.Handler
	Watch        WatchFunc
}

type App struct {
	view.Registry

	ctrl  *controller.Controller
	log   *zap.Logger
	watch WatchFunc

	list   list.Model
	ti     textinput.Model
	mode   mode
	editID int

	filter  model.Filter
	active  int
	cleared view.ClearCompleted
	allDone bool
	visible bool

	errMsg        string
	width, height int
}

var (
	addBind    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind   = key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit"))
	toggleBind = key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle"))
	removeBind = key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete"))
	allBind    = key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle all"))
	clearBind  = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear done"))
	filterBind = key.NewBinding(key.WithKeys("1", "2", "3", "tab"), key.WithHelp("1-3/tab", "filter"))
	quitBind   = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
)

// New builds the app over m and draws the initial filter.
func New(m controller.Model, opt Options) (*App, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{log: log, watch: opt.Watch, width: 80, height: 24}

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.SetStatusBarItemName("item", "items")
	l.KeyMap.Quit.SetEnabled(false)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{addBind, editBind, toggleBind, removeBind}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{addBind, editBind, toggleBind, removeBind, allBind, clearBind, filterBind, quitBind}
	}
	a.list = l

	// set up text input for inline add/edit
	a.ti = textinput.New()
	a.ti.Prompt = "> "
	a.ti.CharLimit = 200

	a.layout()
	a.refreshTitle()

	a.ctrl = controller.New(m, a,
		controller.WithLogger(log),
		controller.WithErrorHandler(opt.ErrorHandler),
	)
	if err := a.ctrl.SetView(string(opt.Filter)); err != nil {
		return nil, err
	}
	return a, nil
}

// Run starts the Bubble Tea program and, if configured, the store watcher.
// It returns when the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	popts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(a, popts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	if a.watch != nil {
		g.Go(func() error {
			err := a.watch(gctx, func() { p.Send(changedMsg{}) })
			if err != nil {
				a.log.Warn("store watch stopped", zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// -------------- view.View ----------------

func (a *App) Render(target view.Target, payload any) {
	switch target {
	case view.ShowEntries:
		todos, _ := payload.([]model.Todo)
		items := make([]list.Item, 0, len(todos))
		for _, t := range todos {
			items = append(items, listItem{todo: t})
		}
		a.list.SetItems(items)
	case view.ContentBlockVisibility:
		if p, ok := payload.(view.Visibility); ok {
			a.visible = p.Visible
		}
	case view.ToggleAll:
		if p, ok := payload.(view.Checked); ok {
			a.allDone = p.Checked
		}
	case view.ClearCompletedButton:
		if p, ok := payload.(view.ClearCompleted); ok {
			a.cleared = p
			a.refreshTitle()
		}
	case view.SetFilter:
		if f, ok := payload.(model.Filter); ok {
			a.filter = f
		}
	case view.ClearNewTodo:
		a.closeInput()
	case view.RemoveItem:
		id, _ := payload.(int)
		if i := a.indexOf(id); i >= 0 {
			a.list.RemoveItem(i)
		}
		if a.mode == modeEditing && a.editID == id {
			a.closeInput()
		}
	case view.UpdateElementCount:
		if n, ok := payload.(int); ok {
			a.active = n
			a.refreshTitle()
		}
	case view.ElementComplete:
		if p, ok := payload.(view.ItemStatus); ok {
			if i := a.indexOf(p.ID); i >= 0 {
				it := a.list.Items()[i].(listItem)
				it.todo.Completed = p.Completed
				a.list.SetItem(i, it)
			}
		}
	case view.EditItem:
		if p, ok := payload.(view.ItemTitle); ok {
			a.mode = modeEditing
			a.editID = p.ID
			a.errMsg = ""
			a.ti.SetValue(p.Title)
			a.ti.CursorEnd()
			a.ti.Placeholder = "Edit item title..."
			a.ti.Focus()
		}
	case view.EditItemDone:
		if p, ok := payload.(view.ItemTitle); ok {
			if i := a.indexOf(p.ID); i >= 0 {
				it := a.list.Items()[i].(listItem)
				it.todo.Title = p.Title
				a.list.SetItem(i, it)
			}
			if a.mode == modeEditing && a.editID == p.ID {
				a.closeInput()
			}
		}
	}
}

func (a *App) indexOf(id int) int {
	for i, it := range a.list.Items() {
		if li, ok := it.(listItem); ok && li.todo.ID == id {
			return i
		}
	}
	return -1
}

func (a *App) closeInput() {
	a.mode = modeList
	a.ti.SetValue("")
	a.ti.Blur()
}

func (a *App) refreshTitle() {
	done := a.cleared.Completed
	a.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), a.active,
		accentStyle.Render("Total"), done+a.active,
	)
}

// -------------- tea.Model ----------------

func (a *App) Init() tea.Cmd { return nil }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.layout()
		return a, nil
	case changedMsg:
		a.report(a.ctrl.Refresh())
		return a, nil
	case tea.KeyMsg:
		switch a.mode {
		case modeAdding:
			return a.updateAdding(msg)
		case modeEditing:
			return a.updateEditing(msg)
		}
		return a.updateList(msg)
	}

	var cmd tea.Cmd
	if a.mode != modeList {
		a.ti, cmd = a.ti.Update(msg)
		return a, cmd
	}
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

func (a *App) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(a.ti.Value())
		if title == "" {
			a.errMsg = "Title cannot be empty"
			return a, nil
		}
		a.report(a.Trigger(view.NewTodo, title))
		return a, nil
	case "esc":
		a.closeInput()
		a.errMsg = ""
		return a, nil
	}
	var cmd tea.Cmd
	a.ti, cmd = a.ti.Update(msg)
	return a, cmd
}

func (a *App) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.report(a.Trigger(view.ItemEditDone, view.ItemTitle{ID: a.editID, Title: a.ti.Value()}))
		return a, nil
	case "esc":
		a.report(a.Trigger(view.ItemEditCancel, view.ItemRef{ID: a.editID}))
		return a, nil
	}
	var cmd tea.Cmd
	a.ti, cmd = a.ti.Update(msg)
	return a, cmd
}

func (a *App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel, hasSel := a.selected()
	switch {
	case key.Matches(msg, quitBind):
		return a, tea.Quit
	case key.Matches(msg, addBind):
		a.mode = modeAdding
		a.errMsg = ""
		a.ti.SetValue("")
		a.ti.Placeholder = "New item title..."
		return a, a.ti.Focus()
	case key.Matches(msg, editBind):
		if hasSel {
			a.report(a.Trigger(view.ItemEdit, view.ItemRef{ID: sel.ID}))
			if a.mode == modeEditing {
				return a, textinput.Blink
			}
		}
		return a, nil
	case key.Matches(msg, toggleBind):
		if hasSel {
			a.report(a.Trigger(view.ItemToggle, view.ItemStatus{ID: sel.ID, Completed: !sel.Completed}))
		}
		return a, nil
	case key.Matches(msg, removeBind):
		if hasSel {
			a.report(a.Trigger(view.ItemRemove, view.ItemRef{ID: sel.ID}))
		}
		return a, nil
	case key.Matches(msg, allBind):
		a.report(a.Trigger(view.ToggleAllEvent, view.Checked{Checked: !a.allDone}))
		return a, nil
	case key.Matches(msg, clearBind):
		a.report(a.Trigger(view.RemoveCompleted, nil))
		return a, nil
	case key.Matches(msg, filterBind):
		a.report(a.ctrl.SetView(string(a.nextFilter(msg.String()))))
		return a, nil
	}
	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

func (a *App) nextFilter(k string) model.Filter {
	switch k {
	case "1":
		return model.FilterAll
	case "2":
		return model.FilterActive
	case "3":
		return model.FilterCompleted
	}
	switch a.filter {
	case model.FilterAll:
		return model.FilterActive
	case model.FilterActive:
		return model.FilterCompleted
	}
	return model.FilterAll
}

func (a *App) selected() (model.Todo, bool) {
	it, ok := a.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

func (a *App) report(err error) {
	if err == nil {
		a.errMsg = ""
		return
	}
	a.errMsg = err.Error()
	a.log.Warn("event failed", zap.Error(err))
}

func (a *App) layout() {
	listHeight := a.height - 5
	if a.mode != modeList {
		listHeight -= 4
	}
	if a.errMsg != "" {
		listHeight--
	}
	if listHeight < 3 {
		listHeight = 3
	}
	a.list.SetSize(a.width-4, listHeight)
}

func (a *App) filterBar() string {
	parts := make([]string, 0, 3)
	for i, f := range []model.Filter{model.FilterAll, model.FilterActive, model.FilterCompleted} {
		label := fmt.Sprintf("%d %s", i+1, f.Label())
		if f == a.filter {
			label = filterOnStyle.Render(label)
		} else {
			label = mutedStyle.Render(label)
		}
		parts = append(parts, label)
	}
	bar := strings.Join(parts, "   ")
	if a.cleared.Visible {
		bar += "   " + helpStyle.Render(fmt.Sprintf("c: clear %d completed", a.cleared.Completed))
	}
	return bar
}

func (a *App) View() string {
	a.layout()
	content := a.list.View()
	if !a.visible && a.mode == modeList {
		content += "\n" + mutedStyle.Render("Nothing to do. Press a to add an item.")
	}
	content += "\n" + a.filterBar()

	if a.mode != modeList {
		title := "Add new item"
		if a.mode == modeEditing {
			title = fmt.Sprintf("Edit item #%d (esc cancels)", a.editID)
		}
		content += "\n" + inputBar(title+"\n"+a.ti.View())
	}
	if a.errMsg != "" {
		content += "\n" + errorStyle.Render(a.errMsg)
	}
	return panelString(content)
}
