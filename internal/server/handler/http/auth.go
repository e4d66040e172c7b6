package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tidylist/tidylist/internal/middleware"
	"github.com/tidylist/tidylist/internal/models"
	"github.com/tidylist/tidylist/internal/repository"
	"github.com/tidylist/tidylist/internal/service"
)

// maxUploadSize bounds profile picture uploads server-side.
const maxUploadSize = 5 * 1024 * 1024

// AuthService defines the authentication operations required by the
// HTTP handlers.
type AuthService interface {
	// Register creates an account and issues a bearer token for it.
	Register(ctx context.Context, name, email, password string) (string, models.User, error)
	// Authenticate verifies email/password and issues a bearer token.
	Authenticate(ctx context.Context, email, password string) (string, models.User, error)
	// UpdateProfile changes the user's name and email.
	UpdateProfile(ctx context.Context, userID, name, email string) (models.User, error)
	// SetProfilePicture records the stored avatar filename on the profile.
	SetProfilePicture(ctx context.Context, userID, filename string) (models.User, error)
}

// ImageStore persists uploaded profile pictures.
type ImageStore interface {
	Save(ctx context.Context, filename string, data []byte) error
	Get(ctx context.Context, filename string) ([]byte, error)
}

// AuthHandler handles registration, login, profile and image requests.
type AuthHandler struct {
	AuthService AuthService
	Images      ImageStore
}

// registerRequest is the JSON payload for registration.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register. On success it returns the access
// token and the created user in the data payload.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	token, user, err := h.AuthService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	writeData(w, http.StatusOK, models.AuthData{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, "User registered successfully")
}

// loginRequest is the JSON payload for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := h.AuthService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	writeData(w, http.StatusOK, models.AuthData{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, "Login successful")
}

// UpdateProfile handles POST /auth/update_profile: a multipart form with
// name and email fields. No new token is returned; the existing
// credential stays valid.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	name := r.FormValue("name")
	email := r.FormValue("email")
	if name == "" || email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	user, err := h.AuthService.UpdateProfile(r.Context(), userID, name, email)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeData(w, http.StatusOK, user, "Profile updated successfully")
}

// UpdateProfilePicture handles POST /auth/update_profile_picture: a
// multipart form with a profile_picture file. The file is stored under a
// generated name and the profile is updated to reference it.
func (h *AuthHandler) UpdateProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("profile_picture")
	if err != nil {
		writeError(w, http.StatusBadRequest, "profile_picture file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}
	if len(data) > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File size exceeds 5MB limit")
		return
	}

	filename := uuid.NewString() + filepath.Ext(header.Filename)
	if err := h.Images.Save(r.Context(), filename, data); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	user, err := h.AuthService.SetProfilePicture(r.Context(), userID, filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeData(w, http.StatusOK, user, "Profile picture updated successfully")
}

// ServeImage handles GET /api/user_images/{filename}.
func (h *AuthHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	data, err := h.Images.Get(r.Context(), filename)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			writeError(w, http.StatusNotFound, "image not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read image")
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
