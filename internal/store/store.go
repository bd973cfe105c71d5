// Package store opens the configured todo backend.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Makepad-fr/todomvc/internal/config"
	"github.com/Makepad-fr/todomvc/internal/controller"
	"github.com/Makepad-fr/todomvc/internal/store/jsonstore"
	"github.com/Makepad-fr/todomvc/internal/store/memstore"
	"github.com/Makepad-fr/todomvc/internal/store/sqlstore"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// Store is a controller.Model that owns resources.
type Store interface {
	controller.Model
	Close() error
}

// Watcher is implemented by stores that can report external edits.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

var (
	_ Store   = (*jsonstore.Store)(nil)
	_ Store   = (*sqlstore.Store)(nil)
	_ Store   = (*memstore.Store)(nil)
	_ Watcher = (*jsonstore.Store)(nil)
)

// Open returns the backend named in cfg.
func Open(cfg config.StoreConfig, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("backend", cfg.Backend))
	switch cfg.Backend {
	case config.BackendJSON, "":
		s, err := jsonstore.New(cfg.Path, log)
		if err != nil {
			return nil, fmt.Errorf("json store: %w", err)
		}
		return s, nil
	case config.BackendSQLite:
		s, err := sqlstore.Open(cfg.Path, log)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		return s, nil
	case config.BackendMemory:
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("%q: %w", cfg.Backend, ErrUnknownBackend)
}
