// Package todo holds the client's in-memory todo collection and its
// confirm-then-apply mutations: every change waits for the backend's
// response and adopts the returned representation, so a failed call
// leaves the local state untouched.
package todo

import (
	"context"
	"errors"
	"strings"

	"github.com/tidylist/tidylist/internal/models"
	"go.uber.org/zap"
)

// ErrEmptyTitle rejects blank titles client-side, before any network call.
var ErrEmptyTitle = errors.New("title is empty")

// Filter selects a subset of the collection.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// API is the slice of the API client the view-model needs.
type API interface {
	GetTodos(ctx context.Context) ([]models.Todo, error)
	CreateTodo(ctx context.Context, req models.CreateTodoRequest) (models.Todo, error)
	UpdateTodo(ctx context.Context, id string, req models.UpdateTodoRequest) (models.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// List mirrors the server's todo collection. It deliberately carries no
// in-flight guard: overlapping mutations on the same id are a last-
// response-wins race.
type List struct {
	api   API
	log   *zap.Logger
	todos []models.Todo
}

// NewList creates an empty view-model over the given API client.
func NewList(api API, log *zap.Logger) *List {
	return &List{api: api, log: log}
}

// Load replaces the collection with the server's current state.
func (l *List) Load(ctx context.Context) error {
	todos, err := l.api.GetTodos(ctx)
	if err != nil {
		return err
	}
	l.todos = todos
	return nil
}

// Add creates a todo with the given title and appends the server's
// returned representation. Blank titles are rejected locally.
func (l *List) Add(ctx context.Context, title string) (models.Todo, error) {
	if strings.TrimSpace(title) == "" {
		return models.Todo{}, ErrEmptyTitle
	}

	created, err := l.api.CreateTodo(ctx, models.CreateTodoRequest{Title: title})
	if err != nil {
		return models.Todo{}, err
	}
	l.todos = append(l.todos, created)
	return created, nil
}

// Toggle flips the completed flag of the todo with the given id, sending
// only that field, and replaces the entry with the server's response.
func (l *List) Toggle(ctx context.Context, id string) (models.Todo, error) {
	current, ok := l.find(id)
	if !ok {
		return models.Todo{}, errors.New("todo not found: " + id)
	}

	completed := !current.Completed
	updated, err := l.api.UpdateTodo(ctx, id, models.UpdateTodoRequest{Completed: &completed})
	if err != nil {
		return models.Todo{}, err
	}
	l.replace(updated)
	return updated, nil
}

// Rename changes a todo's title, sending only that field.
func (l *List) Rename(ctx context.Context, id, title string) (models.Todo, error) {
	if strings.TrimSpace(title) == "" {
		return models.Todo{}, ErrEmptyTitle
	}

	updated, err := l.api.UpdateTodo(ctx, id, models.UpdateTodoRequest{Title: &title})
	if err != nil {
		return models.Todo{}, err
	}
	l.replace(updated)
	return updated, nil
}

// Remove deletes a todo. The local entry is removed only after the
// backend confirms the deletion.
func (l *List) Remove(ctx context.Context, id string) error {
	if err := l.api.DeleteTodo(ctx, id); err != nil {
		return err
	}
	for i, t := range l.todos {
		if t.ID == id {
			l.todos = append(l.todos[:i], l.todos[i+1:]...)
			break
		}
	}
	return nil
}

// Filter returns the todos matching the predicate. It is a pure
// derivation over the current in-memory collection.
func (l *List) Filter(f Filter) []models.Todo {
	var out []models.Todo
	for _, t := range l.todos {
		switch f {
		case FilterActive:
			if !t.Completed {
				out = append(out, t)
			}
		case FilterCompleted:
			if t.Completed {
				out = append(out, t)
			}
		default:
			out = append(out, t)
		}
	}
	return out
}

// Todos returns a copy of the current collection.
func (l *List) Todos() []models.Todo {
	out := make([]models.Todo, len(l.todos))
	copy(out, l.todos)
	return out
}

func (l *List) find(id string) (models.Todo, bool) {
	for _, t := range l.todos {
		if t.ID == id {
			return t, true
		}
	}
	return models.Todo{}, false
}

func (l *List) replace(updated models.Todo) {
	for i, t := range l.todos {
		if t.ID == updated.ID {
			l.todos[i] = updated
			return
		}
	}
	// The server knows a todo we do not; adopt it.
	l.log.Debug("updated todo was not in local state, appending", zap.String("id", updated.ID))
	l.todos = append(l.todos, updated)
}
