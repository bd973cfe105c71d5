package memstore

import (
	"fmt"
	"sync"

	"github.com/Makepad-fr/todomvc/internal/model"
)

// Store keeps todos in memory. Callbacks run after the lock is released, so
// they may call back into the store.
type Store struct {
	mu     sync.Mutex
	todos  []model.Todo
	nextID int
}

// New returns a store seeded with todos; ids of seeds are kept as given.
func New(seed ...model.Todo) *Store {
	s := &Store{nextID: 1}
	for _, t := range seed {
		s.todos = append(s.todos, t)
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	return s
}

func (s *Store) Read(q model.Query, fn func([]model.Todo)) error {
	s.mu.Lock()
	out := q.Select(s.todos)
	s.mu.Unlock()
	fn(out)
	return nil
}

func (s *Store) GetCount() (model.Count, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CountOf(s.todos), nil
}

func (s *Store) Create(title string, fn func()) error {
	s.mu.Lock()
	s.todos = append(s.todos, model.Todo{ID: s.nextID, Title: title})
	s.nextID++
	s.mu.Unlock()
	fn()
	return nil
}

func (s *Store) Update(id int, p model.Patch, fn func()) error {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("update %d: %w", id, model.ErrNotFound)
	}
	p.Apply(&s.todos[i])
	s.mu.Unlock()
	fn()
	return nil
}

func (s *Store) Remove(id int, fn func()) error {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("remove %d: %w", id, model.ErrNotFound)
	}
	s.todos = append(s.todos[:i], s.todos[i+1:]...)
	s.mu.Unlock()
	fn()
	return nil
}

// Todos returns a copy of everything stored.
func (s *Store) Todos() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Todo(nil), s.todos...)
}

func (s *Store) Close() error { return nil }

func (s *Store) index(id int) int {
	for i, t := range s.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
