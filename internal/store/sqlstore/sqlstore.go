// Package sqlstore keeps todos in a SQLite database through the pure-Go
// modernc.org/sqlite driver.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Makepad-fr/todomvc/internal/model"
)

const DefaultFileName = "todos.db"

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	title     TEXT    NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
);`

const opTimeout = 5 * time.Second

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (and migrates) the database at path. ":memory:" is accepted.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		path = DefaultFileName
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one connection: ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Debug("sqlite opened", zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Read(q model.Query, fn func([]model.Todo)) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if q.ID != nil {
		where = append(where, "id = ?")
		args = append(args, *q.ID)
	}
	if q.Completed != nil {
		where = append(where, "completed = ?")
		args = append(args, boolInt(*q.Completed))
	}
	stmt := "SELECT id, title, completed FROM todos"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		var (
			t    model.Todo
			done int
		)
		if err := rows.Scan(&t.ID, &t.Title, &done); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		t.Completed = done != 0
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	rows.Close()
	fn(todos)
	return nil
}

func (s *Store) GetCount() (model.Count, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var c model.Count
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM todos`).Scan(&c.Total, &c.Completed)
	if err != nil {
		return model.Count{}, fmt.Errorf("count: %w", err)
	}
	c.Active = c.Total - c.Completed
	return c, nil
}

func (s *Store) Create(title string, fn func()) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `INSERT INTO todos (title) VALUES (?)`, title)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		s.log.Debug("inserted", zap.Int64("id", id))
	}
	fn()
	return nil
}

func (s *Store) Update(id int, p model.Patch, fn func()) error {
	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, boolInt(*p.Completed))
	}
	if len(sets) == 0 {
		// still report a missing id
		if err := s.exists(id); err != nil {
			return err
		}
		fn()
		return nil
	}
	args = append(args, id)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	res, err := s.db.ExecContext(ctx, "UPDATE todos SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update %d: %w", id, err)
	}
	if err := affected(res, "update", id); err != nil {
		return err
	}
	fn()
	return nil
}

func (s *Store) Remove(id int, fn func()) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	if err := affected(res, "remove", id); err != nil {
		return err
	}
	fn()
	return nil
}

func (s *Store) exists(id int) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("lookup %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("todo %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func affected(res sql.Result, op string, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, model.ErrNotFound)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
