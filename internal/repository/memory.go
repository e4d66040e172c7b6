// Package repository provides the dev server's data layer. Everything is
// held in memory: the backend in this repo exists for local development
// and tests, and server-side persistence is deliberately out of scope.
package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidylist/tidylist/internal/models"
)

// Lookup failures shared by the in-memory repositories.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrTodoNotFound  = errors.New("todo not found")
	ErrImageNotFound = errors.New("image not found")
)

// StoredUser is a user record with its password hash, kept server-side only.
type StoredUser struct {
	User         models.User
	PasswordHash []byte
}

// MemoryUserRepository stores users keyed by id with a unique-email index.
type MemoryUserRepository struct {
	mu      sync.Mutex
	byID    map[string]StoredUser
	byEmail map[string]string
}

// NewMemoryUserRepository creates an empty user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]StoredUser),
		byEmail: make(map[string]string),
	}
}

// CreateUser stores a new user, assigning a generated id.
// Returns ErrEmailTaken if the email is already registered.
func (r *MemoryUserRepository) CreateUser(ctx context.Context, name, email string, passwordHash []byte) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[email]; taken {
		return models.User{}, ErrEmailTaken
	}

	user := models.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
	}
	r.byID[user.ID] = StoredUser{User: user, PasswordHash: passwordHash}
	r.byEmail[email] = user.ID
	return user, nil
}

// UserByEmail fetches a stored user by email.
func (r *MemoryUserRepository) UserByEmail(ctx context.Context, email string) (StoredUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return StoredUser{}, ErrUserNotFound
	}
	return r.byID[id], nil
}

// UserByID fetches a stored user by id.
func (r *MemoryUserRepository) UserByID(ctx context.Context, id string) (StoredUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return StoredUser{}, ErrUserNotFound
	}
	return u, nil
}

// UpdateUser replaces the profile fields of an existing user and
// maintains the email index.
func (r *MemoryUserRepository) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	if user.Email != stored.User.Email {
		if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
			return models.User{}, ErrEmailTaken
		}
		delete(r.byEmail, stored.User.Email)
		r.byEmail[user.Email] = user.ID
	}
	stored.User = user
	r.byID[user.ID] = stored
	return user, nil
}

// MemoryTodoRepository stores todos keyed by id.
type MemoryTodoRepository struct {
	mu    sync.Mutex
	todos map[string]models.Todo
	order []string // insertion order, so listings are stable
}

// NewMemoryTodoRepository creates an empty todo repository.
func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{todos: make(map[string]models.Todo)}
}

// ListByOwner returns the owner's todos in insertion order.
func (r *MemoryTodoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Todo, 0)
	for _, id := range r.order {
		if t, ok := r.todos[id]; ok && t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Create stores a new todo for the owner, assigning id and timestamps.
func (r *MemoryTodoRepository) Create(ctx context.Context, ownerID, title string) (models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	todo := models.Todo{
		ID:        uuid.NewString(),
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
		OwnerID:   ownerID,
	}
	r.todos[todo.ID] = todo
	r.order = append(r.order, todo.ID)
	return todo, nil
}

// Get fetches one of the owner's todos by id.
func (r *MemoryTodoRepository) Get(ctx context.Context, ownerID, id string) (models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[id]
	if !ok || t.OwnerID != ownerID {
		return models.Todo{}, ErrTodoNotFound
	}
	return t, nil
}

// Update replaces an existing todo and bumps its UpdatedAt.
func (r *MemoryTodoRepository) Update(ctx context.Context, todo models.Todo) (models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.todos[todo.ID]
	if !ok || current.OwnerID != todo.OwnerID {
		return models.Todo{}, ErrTodoNotFound
	}
	todo.UpdatedAt = time.Now().UTC()
	r.todos[todo.ID] = todo
	return todo, nil
}

// Delete removes one of the owner's todos by id.
func (r *MemoryTodoRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[id]
	if !ok || t.OwnerID != ownerID {
		return ErrTodoNotFound
	}
	delete(r.todos, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryImageRepository stores uploaded profile pictures by filename.
type MemoryImageRepository struct {
	mu     sync.Mutex
	images map[string][]byte
}

// NewMemoryImageRepository creates an empty image repository.
func NewMemoryImageRepository() *MemoryImageRepository {
	return &MemoryImageRepository{images: make(map[string][]byte)}
}

// Save stores image bytes under the given filename.
func (r *MemoryImageRepository) Save(ctx context.Context, filename string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[filename] = data
	return nil
}

// Get returns the image bytes stored under filename.
func (r *MemoryImageRepository) Get(ctx context.Context, filename string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok := r.images[filename]
	if !ok {
		return nil, ErrImageNotFound
	}
	return data, nil
}
