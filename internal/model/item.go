package model

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by stores when no todo carries the requested id.
var ErrNotFound = errors.New("todo not found")

// Todo is the domain model for a todo entry.
type Todo struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Count summarizes a collection.
type Count struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func CountOf(todos []Todo) Count {
	var c Count
	for _, t := range todos {
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	c.Total = len(todos)
	return c
}

// Filter selects which subset of todos is on screen.
type Filter string

const (
	FilterAll       Filter = ""
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter accepts "active", "/active" or "#/active" style routes.
// Anything it does not recognise falls back to FilterAll.
func ParseFilter(route string) Filter {
	r := strings.TrimSpace(route)
	r = strings.TrimPrefix(r, "#")
	r = strings.Trim(r, "/")
	if i := strings.IndexByte(r, '/'); i >= 0 {
		r = r[:i]
	}
	switch Filter(strings.ToLower(r)) {
	case FilterActive:
		return FilterActive
	case FilterCompleted:
		return FilterCompleted
	}
	return FilterAll
}

// Query is the read predicate for the filter.
func (f Filter) Query() Query {
	switch f {
	case FilterActive:
		return ByCompleted(false)
	case FilterCompleted:
		return ByCompleted(true)
	}
	return All()
}

// Label is the human name shown in filter bars.
func (f Filter) Label() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Completed"
	}
	return "All"
}
