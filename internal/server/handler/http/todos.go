package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tidylist/tidylist/internal/middleware"
	"github.com/tidylist/tidylist/internal/models"
	"github.com/tidylist/tidylist/internal/repository"
	"github.com/tidylist/tidylist/internal/service"
)

// TodoService defines the todo operations required by the HTTP handlers.
type TodoService interface {
	List(ctx context.Context, ownerID string) ([]models.Todo, error)
	Create(ctx context.Context, ownerID, title string) (models.Todo, error)
	Update(ctx context.Context, ownerID, id string, req models.UpdateTodoRequest) (models.Todo, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// TodoHandler handles the bearer-authenticated todo CRUD endpoints.
type TodoHandler struct {
	TodoService TodoService
}

// List handles GET /todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	todos, err := h.TodoService.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list todos")
		return
	}
	writeData(w, http.StatusOK, todos, "Todos retrieved successfully")
}

// Create handles POST /todos.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req models.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	todo, err := h.TodoService.Create(r.Context(), userID, req.Title)
	if err != nil {
		if errors.Is(err, service.ErrEmptyTitle) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create todo")
		return
	}
	writeData(w, http.StatusOK, todo, "Todo created successfully")
}

// Update handles PUT /todos/{id}. The body is a partial patch: only the
// provided fields change.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req models.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	todo, err := h.TodoService.Update(r.Context(), userID, id, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTodoNotFound):
			writeError(w, http.StatusNotFound, "todo not found")
		case errors.Is(err, service.ErrEmptyTitle):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update todo")
		}
		return
	}
	writeData(w, http.StatusOK, todo, "Todo updated successfully")
}

// Delete handles DELETE /todos/{id}.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.TodoService.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			writeError(w, http.StatusNotFound, "todo not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete todo")
		return
	}
	writeData(w, http.StatusOK, nil, "Todo deleted successfully")
}
