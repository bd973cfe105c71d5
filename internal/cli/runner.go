package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/todomvc/internal/app"
	"github.com/Makepad-fr/todomvc/internal/config"
	"github.com/Makepad-fr/todomvc/internal/ui"
	"github.com/Makepad-fr/todomvc/internal/view"
)

// Exit codes: 0 ok, 1 error, 2 usage.
const (
	exitOK    = 0
	exitErr   = 1
	exitUsage = 2
)

// usageError marks mistakes on the command line.
type usageError struct {
	msg  string
	hint string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// Options tune output behavior from root flags.
type Options struct {
	ConfigPath string
	Verbose    bool
	Theme      string
	Backend    string
	Path       string
	Color      string
	Group      bool // list grouped by pending/done
}

type runner struct {
	opt    Options
	stdout io.Writer
	stderr io.Writer

	app *app.App
}

// Run dispatches subcommands and returns an exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	r := &runner{stdout: stdout, stderr: stderr}
	root := r.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if r.app != nil {
		if cerr := r.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err == nil {
		return exitOK
	}

	var ue *usageError
	switch {
	case errors.As(err, &ue):
		ui.Fail(stderr, ue.msg)
		if ue.hint != "" {
			fmt.Fprintln(stderr, ui.C(ui.Current().Muted, ue.hint))
		}
		return exitUsage
	case strings.HasPrefix(err.Error(), "unknown command"):
		ui.Fail(stderr, err.Error())
		fmt.Fprintln(stderr)
		_ = root.Usage()
		return exitUsage
	}
	ui.Fail(stderr, err.Error())
	return exitErr
}

func (r *runner) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "todo - a tiny todo list",
		Long: `todo keeps a todo list in a JSON file, a SQLite database or memory.

Run "todo tui" for the interactive list, or use the subcommands below.`,
		Example: `  todo add "Buy milk"
  todo ls
  todo ls active
  todo done 2
  todo edit 2 "Buy oat milk"
  todo rm 3`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipBootstrap(cmd) {
				return nil
			}
			cfg, err := r.config()
			if err != nil {
				return err
			}
			a, err := app.Bootstrap(cfg, isInteractive(cmd))
			if err != nil {
				return err
			}
			r.app = a
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usagef("missing subcommand")
		},
	}
	root.Annotations = map[string]string{"bootstrap": "no"}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&r.opt.ConfigPath, "config", config.DefaultPath(), "config file")
	pf.BoolVarP(&r.opt.Verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&r.opt.Theme, "theme", "", "classic, neon or mono")
	pf.StringVar(&r.opt.Backend, "store", "", "json, sqlite or memory")
	pf.StringVar(&r.opt.Path, "path", "", "data file for the store")
	pf.StringVar(&r.opt.Color, "color", "", "auto, always or never")

	root.AddCommand(
		r.addCmd(),
		r.lsCmd(),
		r.doneCmd(),
		r.editCmd(),
		r.rmCmd(),
		r.clearCmd(),
		r.toggleAllCmd(),
		r.tuiCmd(),
		r.configCmd(),
	)
	return root
}

func skipBootstrap(cmd *cobra.Command) bool {
	if cmd.Annotations["bootstrap"] == "no" {
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

func isInteractive(cmd *cobra.Command) bool {
	if cmd.Annotations["interactive"] == "yes" {
		return true
	}
	i, _ := cmd.Flags().GetBool("interactive")
	return i
}

// config loads file and environment, lets flags win, then validates.
func (r *runner) config() (*config.Config, error) {
	cfg, err := r.merged()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	return cfg, nil
}

func (r *runner) merged() (*config.Config, error) {
	cfg, err := config.Load(r.opt.ConfigPath)
	if err != nil {
		return nil, err
	}
	if r.opt.Verbose {
		cfg.Logging.Verbose = true
	}
	if r.opt.Theme != "" {
		cfg.UI.Theme = r.opt.Theme
	}
	if r.opt.Backend != "" {
		cfg.Store.Backend = r.opt.Backend
	}
	if r.opt.Path != "" {
		cfg.Store.Path = r.opt.Path
	}
	if r.opt.Color != "" {
		cfg.UI.Color = r.opt.Color
	}
	if r.opt.Group {
		cfg.UI.Group = true
	}
	return cfg, nil
}

// session is a controller bound to a fresh terminal view, already showing
// every todo.
func (r *runner) session() (*ui.TermView, error) {
	tv := ui.NewTermView()
	c := r.app.Controller(tv)
	if err := c.SetView(""); err != nil {
		return nil, err
	}
	return tv, nil
}

func argsAtLeast(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < n {
			return usagef("usage: %s", usage)
		}
		return nil
	}
}

func argsExactly(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: %s", usage)
		}
		return nil
	}
}

func parseID(cmd, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil {
		return 0, usagef("%s: not a number: %s", cmd, s)
	}
	return n, nil
}

func notFound(tv *ui.TermView, id int) error {
	return &usageError{
		msg:  fmt.Sprintf("no todo #%d (have %d)", id, len(tv.Entries())),
		hint: "Hint: run `todo ls` to see valid ids",
	}
}

// -------------- subcommands ----------------

func (r *runner) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a new item (title can be multiple words)",
		Args:  argsAtLeast(1, "todo add <title...>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return usagef("add: empty title")
			}
			tv, err := r.session()
			if err != nil {
				return err
			}
			if err := tv.Trigger(view.NewTodo, title); err != nil {
				return err
			}
			tv.FlushNotes(r.stdout)
			return nil
		},
	}
}

func (r *runner) lsCmd() *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:       "ls [all|active|completed]",
		Short:     "List items",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"all", "active", "completed"},
		RunE: func(cmd *cobra.Command, args []string) error {
			route := r.app.Config.UI.Filter
			if len(args) == 1 {
				route = args[0]
			}
			if route == "all" {
				route = ""
			}
			if interactive {
				return r.interactive(cmd, route)
			}
			tv := ui.NewTermView()
			c := r.app.Controller(tv)
			if err := c.SetView(route); err != nil {
				return err
			}
			tv.Print(r.stdout, r.app.Config.UI.Group)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&r.opt.Group, "group", "g", false, "group output by pending/done")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "open the interactive list")
	return cmd
}

func (r *runner) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle done for the item with id",
		Args:  argsExactly(1, "todo done <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("done", args[0])
			if err != nil {
				return err
			}
			tv, err := r.session()
			if err != nil {
				return err
			}
			e, ok := tv.Entry(id)
			if !ok {
				return notFound(tv, id)
			}
			if err := tv.Trigger(view.ItemToggle, view.ItemStatus{ID: id, Completed: !e.Completed}); err != nil {
				return err
			}
			tv.FlushNotes(r.stdout)
			return nil
		},
	}
}

func (r *runner) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <title...>",
		Short: "Rename an item; an empty title removes it",
		Args:  argsAtLeast(2, "todo edit <id> <title...>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("edit", args[0])
			if err != nil {
				return err
			}
			tv, err := r.session()
			if err != nil {
				return err
			}
			if _, ok := tv.Entry(id); !ok {
				return notFound(tv, id)
			}
			if err := tv.Trigger(view.ItemEdit, view.ItemRef{ID: id}); err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			if err := tv.Trigger(view.ItemEditDone, view.ItemTitle{ID: id, Title: title}); err != nil {
				return err
			}
			tv.FlushNotes(r.stdout)
			return nil
		},
	}
}

func (r *runner) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove the item with id",
		Args:  argsExactly(1, "todo rm <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("rm", args[0])
			if err != nil {
				return err
			}
			tv, err := r.session()
			if err != nil {
				return err
			}
			if _, ok := tv.Entry(id); !ok {
				return notFound(tv, id)
			}
			if err := tv.Trigger(view.ItemRemove, view.ItemRef{ID: id}); err != nil {
				return err
			}
			tv.FlushNotes(r.stdout)
			return nil
		},
	}
}

func (r *runner) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every completed item",
		Args:  argsExactly(0, "todo clear"),
		RunE: func(cmd *cobra.Command, args []string) error {
			tv, err := r.session()
			if err != nil {
				return err
			}
			if err := tv.Trigger(view.RemoveCompleted, nil); err != nil {
				return err
			}
			tv.FlushNotes(r.stdout)
			return nil
		},
	}
}

func (r *runner) toggleAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all",
		Short: "Mark everything done, or everything pending if all are done",
		Args:  argsExactly(0, "todo toggle-all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			tv, err := r.session()
			if err != nil {
				return err
			}
			completed := !tv.AllCompleted()
			if err := tv.Trigger(view.ToggleAllEvent, view.Checked{Checked: completed}); err != nil {
				return err
			}
			if completed {
				ui.OK(r.stdout, "all done")
			} else {
				ui.OK(r.stdout, "all pending")
			}
			return nil
		},
	}
}

func (r *runner) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "tui [all|active|completed]",
		Short:       "Open the interactive list",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"interactive": "yes"},
		RunE: func(cmd *cobra.Command, args []string) error {
			route := r.app.Config.UI.Filter
			if len(args) == 1 {
				route = args[0]
			}
			return r.interactive(cmd, route)
		},
	}
}

func (r *runner) interactive(cmd *cobra.Command, route string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.app.Interactive(ctx, route)
}

func (r *runner) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Show or create the config file",
		Annotations: map[string]string{"bootstrap": "no"},
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration",
		Args:        argsExactly(0, "todo config show"),
		Annotations: map[string]string{"bootstrap": "no"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := r.merged()
			if err != nil {
				return err
			}
			invalid := cfg.Validate()
			b, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Fprintf(r.stdout, "# %s\n%s", r.opt.ConfigPath, b)
			if invalid != nil {
				return &usageError{msg: invalid.Error()}
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Write the default configuration",
		Args:        argsExactly(0, "todo config init"),
		Annotations: map[string]string{"bootstrap": "no"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(r.opt.ConfigPath); err == nil {
				return usagef("config exists: %s", r.opt.ConfigPath)
			}
			if err := config.Default().Save(r.opt.ConfigPath); err != nil {
				return err
			}
			ui.OK(r.stdout, "wrote "+r.opt.ConfigPath)
			return nil
		},
	})
	return cmd
}
