package jsonstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Makepad-fr/todomvc/internal/model"
)

// JSON-backed storage. Single file, human-readable, portable.
// Every operation reloads the file so edits made by another process are seen.

const DefaultFileName = "todos.json"

type document struct {
	NextID int          `json:"next_id"`
	Todos  []model.Todo `json:"todos"`
}

// legacyItem is the bare-array format written by the first CLI version.
type legacyItem struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type Store struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

// New returns a store backed by path. An empty path means todos.json in the
// working directory.
func New(path string, log *zap.Logger) (*Store, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(wd, DefaultFileName)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, log: log}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) load() (document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{NextID: 1, Todos: []model.Todo{}}, nil
		}
		return document{}, fmt.Errorf("read file: %w", err)
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return document{NextID: 1, Todos: []model.Todo{}}, nil
	}
	if b[0] == '[' {
		return decodeLegacy(b)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return document{}, fmt.Errorf("json unmarshal: %w", err)
	}
	if doc.Todos == nil {
		doc.Todos = []model.Todo{}
	}
	for _, t := range doc.Todos {
		if t.ID >= doc.NextID {
			doc.NextID = t.ID + 1
		}
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	return doc, nil
}

func decodeLegacy(b []byte) (document, error) {
	var items []legacyItem
	if err := json.Unmarshal(b, &items); err != nil {
		return document{}, fmt.Errorf("json unmarshal: %w", err)
	}
	doc := document{NextID: 1, Todos: make([]model.Todo, 0, len(items))}
	for _, it := range items {
		doc.Todos = append(doc.Todos, model.Todo{ID: doc.NextID, Title: it.Title, Completed: it.Done})
		doc.NextID++
	}
	return doc, nil
}

func (s *Store) save(doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	s.log.Debug("saved", zap.String("path", s.path), zap.Int("todos", len(doc.Todos)))
	return nil
}

// mutate loads, applies fn and saves when fn reports a change.
func (s *Store) mutate(fn func(*document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *Store) Read(q model.Query, fn func([]model.Todo)) error {
	s.mu.Lock()
	doc, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	fn(q.Select(doc.Todos))
	return nil
}

func (s *Store) GetCount() (model.Count, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return model.Count{}, err
	}
	return model.CountOf(doc.Todos), nil
}

func (s *Store) Create(title string, fn func()) error {
	err := s.mutate(func(doc *document) error {
		doc.Todos = append(doc.Todos, model.Todo{ID: doc.NextID, Title: title})
		doc.NextID++
		return nil
	})
	if err != nil {
		return err
	}
	fn()
	return nil
}

func (s *Store) Update(id int, p model.Patch, fn func()) error {
	err := s.mutate(func(doc *document) error {
		for i := range doc.Todos {
			if doc.Todos[i].ID == id {
				p.Apply(&doc.Todos[i])
				return nil
			}
		}
		return fmt.Errorf("update %d: %w", id, model.ErrNotFound)
	})
	if err != nil {
		return err
	}
	fn()
	return nil
}

func (s *Store) Remove(id int, fn func()) error {
	err := s.mutate(func(doc *document) error {
		for i := range doc.Todos {
			if doc.Todos[i].ID == id {
				doc.Todos = append(doc.Todos[:i], doc.Todos[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("remove %d: %w", id, model.ErrNotFound)
	})
	if err != nil {
		return err
	}
	fn()
	return nil
}

func (s *Store) Close() error { return nil }
