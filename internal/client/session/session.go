// Package session holds the client's authentication state: the bearer
// credential and the user profile, mirrored to durable storage. The two
// are always present together or not at all.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tidylist/tidylist/internal/client/storage"
	"github.com/tidylist/tidylist/internal/models"
	"go.uber.org/zap"
)

// Authenticator obtains credentials from the backend. The API client
// implements it; tests substitute fakes.
type Authenticator interface {
	// Register creates an account and returns the credential and profile.
	Register(ctx context.Context, name, email, password string) (models.AuthData, error)
	// Login exchanges email/password for the credential and profile.
	Login(ctx context.Context, email, password string) (models.AuthData, error)
}

// Store owns the in-memory session and its durable mirror.
type Store struct {
	mu      sync.Mutex
	token   string
	user    *models.User
	storage *storage.Store
	log     *zap.Logger
}

// NewStore creates a session store backed by the given durable storage.
func NewStore(st *storage.Store, log *zap.Logger) *Store {
	return &Store{storage: st, log: log}
}

// Hydrate restores the session from durable storage. The credential and
// profile are restored together or not at all: if either entry is missing
// or the stored profile does not parse, the session stays empty.
func (s *Store) Hydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, okToken := s.storage.Get(storage.KeyToken)
	rawUser, okUser := s.storage.Get(storage.KeyUser)
	if !okToken || !okUser {
		return
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.log.Warn("stored profile is malformed, starting unauthenticated", zap.Error(err))
		return
	}

	s.token = token
	s.user = &user
}

// Login sets the session state and writes both entries to durable storage.
// Validation is the caller's responsibility.
func (s *Store) Login(token string, user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(token, user)
}

// set stores the pair in memory and storage. Caller must hold the mutex.
func (s *Store) set(token string, user models.User) {
	s.token = token
	s.user = &user

	if err := s.storage.Set(storage.KeyToken, token); err != nil {
		s.log.Error("failed to persist credential", zap.Error(err))
	}
	raw, err := json.Marshal(user)
	if err == nil {
		err = s.storage.Set(storage.KeyUser, string(raw))
	}
	if err != nil {
		s.log.Error("failed to persist profile", zap.Error(err))
	}
}

// Logout clears the in-memory session and removes both durable entries.
// It is idempotent.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil
	_ = s.storage.Remove(storage.KeyToken)
	_ = s.storage.Remove(storage.KeyUser)
}

// Register creates an account through auth and, on success, behaves like
// Login with the returned credential and profile. On failure the session
// state is left untouched and the error is propagated.
func (s *Store) Register(ctx context.Context, auth Authenticator, name, email, password string) error {
	data, err := auth.Register(ctx, name, email, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(data.AccessToken, data.User)
	return nil
}

// Authenticate logs in through auth and adopts the returned credential
// and profile on success.
func (s *Store) Authenticate(ctx context.Context, auth Authenticator, email, password string) error {
	data, err := auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(data.AccessToken, data.User)
	return nil
}

// HandleUnauthorized reacts to a 401 from any API call: both durable
// entries and the in-memory session are cleared in the same step, so a
// later page load cannot resurrect the dead session.
func (s *Store) HandleUnauthorized() {
	s.log.Info("credential rejected by backend, clearing session")
	s.Logout()
}

// Token returns the current bearer credential, or "" when logged out.
// It satisfies the API client's TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns a copy of the current profile, or nil when logged out.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a credential is present.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}
