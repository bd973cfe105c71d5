// Package app wires configuration, logging, the store and the error policy
// together. Every controller built here rethrows failures with their cause
// instead of swallowing them.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Makepad-fr/todomvc/internal/config"
	"github.com/Makepad-fr/todomvc/internal/controller"
	"github.com/Makepad-fr/todomvc/internal/exception"
	"github.com/Makepad-fr/todomvc/internal/logging"
	"github.com/Makepad-fr/todomvc/internal/model"
	"github.com/Makepad-fr/todomvc/internal/store"
	"github.com/Makepad-fr/todomvc/internal/tui"
	"github.com/Makepad-fr/todomvc/internal/ui"
	"github.com/Makepad-fr/todomvc/internal/view"
)

// ErrorHandler is the process-wide policy for failures inside event handlers.
var ErrorHandler exception.Handler = exception.Rethrow

type App struct {
	Config *config.Config
	Log    *zap.Logger
	Store  store.Store
}

// Bootstrap applies cfg to the terminal helpers and opens logger and store.
func Bootstrap(cfg *config.Config, interactive bool) (*App, error) {
	log, err := logging.New(cfg.Logging, interactive)
	if err != nil {
		return nil, err
	}
	ui.SetColorMode(cfg.UI.Color)
	if err := ui.SetTheme(cfg.UI.Theme); err != nil {
		log.Warn("falling back to classic theme", zap.Error(err))
	}

	s, err := store.Open(cfg.Store, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	log.Debug("bootstrapped",
		zap.String("backend", cfg.Store.Backend),
		zap.String("path", cfg.Store.Path),
		zap.Bool("interactive", interactive))
	return &App{Config: cfg, Log: log, Store: s}, nil
}

// Controller binds a controller to v over the app's store.
func (a *App) Controller(v view.View) *controller.Controller {
	return controller.New(a.Store, v,
		controller.WithLogger(a.Log.Named("controller")),
		controller.WithErrorHandler(ErrorHandler),
	)
}

// Interactive runs the Bubble Tea view until the user quits.
func (a *App) Interactive(ctx context.Context, filter string) error {
	opt := tui.Options{
		Filter:       model.ParseFilter(filter),
		Logger:       a.Log.Named("tui"),
		ErrorHandler: ErrorHandler,
	}
	if w, ok := a.Store.(store.Watcher); ok && a.Config.Store.Watch {
		opt.Watch = w.Watch
	}
	t, err := tui.New(a.Store, opt)
	if err != nil {
		return fmt.Errorf("start tui: %w", err)
	}
	return t.Run(ctx)
}

func (a *App) Close() error {
	err := a.Store.Close()
	_ = a.Log.Sync()
	return err
}
