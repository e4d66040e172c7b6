package service

import (
	"context"
	"errors"

	"github.com/tidylist/tidylist/internal/models"
)

// ErrEmptyTitle rejects todo titles that are blank.
var ErrEmptyTitle = errors.New("title must not be empty")

// TodoRepository defines the persistence operations needed by the TodoService.
type TodoRepository interface {
	// ListByOwner returns all todos belonging to the given user.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Todo, error)
	// Create stores a new todo for the owner.
	Create(ctx context.Context, ownerID, title string) (models.Todo, error)
	// Get fetches one of the owner's todos by id.
	Get(ctx context.Context, ownerID, id string) (models.Todo, error)
	// Update replaces an existing todo.
	Update(ctx context.Context, todo models.Todo) (models.Todo, error)
	// Delete removes one of the owner's todos by id.
	Delete(ctx context.Context, ownerID, id string) error
}

// TodoService implements todo CRUD on top of a TodoRepository.
type TodoService struct {
	repo TodoRepository
}

// NewTodoService constructs a TodoService with the provided repository.
func NewTodoService(repo TodoRepository) *TodoService {
	return &TodoService{repo: repo}
}

// List returns the user's todos.
func (s *TodoService) List(ctx context.Context, ownerID string) ([]models.Todo, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Create validates the title and stores a new incomplete todo.
func (s *TodoService) Create(ctx context.Context, ownerID, title string) (models.Todo, error) {
	if title == "" {
		return models.Todo{}, ErrEmptyTitle
	}
	return s.repo.Create(ctx, ownerID, title)
}

// Update applies a partial patch: only the fields present in req change.
func (s *TodoService) Update(ctx context.Context, ownerID, id string, req models.UpdateTodoRequest) (models.Todo, error) {
	todo, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return models.Todo{}, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return models.Todo{}, ErrEmptyTitle
		}
		todo.Title = *req.Title
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	return s.repo.Update(ctx, todo)
}

// Delete removes the user's todo by id.
func (s *TodoService) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, id)
}
