package model

// Query selects todos in Read calls. The zero value matches everything.
type Query struct {
	ID        *int
	Completed *bool
}

func All() Query { return Query{} }

func ByID(id int) Query { return Query{ID: &id} }

func ByCompleted(completed bool) Query { return Query{Completed: &completed} }

// Match reports whether t satisfies every set field of q.
func (q Query) Match(t Todo) bool {
	if q.ID != nil && *q.ID != t.ID {
		return false
	}
	if q.Completed != nil && *q.Completed != t.Completed {
		return false
	}
	return true
}

// Select returns the todos matching q, in order.
func (q Query) Select(todos []Todo) []Todo {
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if q.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title     *string
	Completed *bool
}

func SetTitle(title string) Patch { return Patch{Title: &title} }

func SetCompleted(completed bool) Patch { return Patch{Completed: &completed} }

func (p Patch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
