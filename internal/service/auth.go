// Package service provides the dev server's business logic for
// authentication, todos and the AI agent, delegating storage to
// repository interfaces.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/tidylist/tidylist/internal/models"
	"github.com/tidylist/tidylist/internal/repository"
)

// Authentication failures surfaced to handlers.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = repository.ErrEmailTaken
)

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// CreateUser creates a new user record, assigning an id.
	CreateUser(ctx context.Context, name, email string, passwordHash []byte) (models.User, error)
	// UserByEmail fetches a stored user by email.
	UserByEmail(ctx context.Context, email string) (repository.StoredUser, error)
	// UserByID fetches a stored user by id.
	UserByID(ctx context.Context, id string) (repository.StoredUser, error)
	// UpdateUser replaces an existing user's profile fields.
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
}

// AuthService implements registration, login and profile updates, and
// tracks issued bearer tokens in memory.
type AuthService struct {
	repo UserRepository

	mu     sync.Mutex
	tokens map[string]string // token → user id
}

// NewAuthService constructs an AuthService using the provided repository.
func NewAuthService(repo UserRepository) *AuthService {
	return &AuthService{repo: repo, tokens: make(map[string]string)}
}

// hashPassword derives the stored hash for a password. Good enough for a
// dev server with no persistence.
func hashPassword(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}

// newToken mints an opaque bearer token.
func newToken() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Register creates an account and issues a token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, models.User, error) {
	user, err := s.repo.CreateUser(ctx, name, email, hashPassword(password))
	if err != nil {
		return "", models.User{}, err
	}

	token := newToken()
	s.mu.Lock()
	s.tokens[token] = user.ID
	s.mu.Unlock()
	return token, user, nil
}

// Authenticate verifies email/password and issues a token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, models.User, error) {
	stored, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare(stored.PasswordHash, hashPassword(password)) != 1 {
		return "", models.User{}, ErrInvalidCredentials
	}

	token := newToken()
	s.mu.Lock()
	s.tokens[token] = stored.User.ID
	s.mu.Unlock()
	return token, stored.User, nil
}

// UserIDForToken resolves a bearer token to the user it was issued for.
// It satisfies the middleware's TokenValidator.
func (s *AuthService) UserIDForToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	return id, ok
}

// RevokeToken invalidates a previously issued token. Revoking an unknown
// token is a no-op.
func (s *AuthService) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// UpdateProfile changes the user's name and email. No new token is
// issued; the existing credential stays valid.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, email string) (models.User, error) {
	stored, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	user := stored.User
	user.Name = name
	user.Email = email
	return s.repo.UpdateUser(ctx, user)
}

// SetProfilePicture records the stored avatar filename on the profile.
func (s *AuthService) SetProfilePicture(ctx context.Context, userID, filename string) (models.User, error) {
	stored, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	user := stored.User
	user.ProfilePicture = filename
	return s.repo.UpdateUser(ctx, user)
}
