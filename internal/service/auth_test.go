package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tidylist/tidylist/internal/repository"
)

func TestRegisterIssuesUsableToken(t *testing.T) {
	svc := NewAuthService(repository.NewMemoryUserRepository())

	token, user, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}
	if user.ID == "" {
		t.Fatal("expected an assigned user id")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", user.Email)
	}

	id, ok := svc.UserIDForToken(token)
	if !ok || id != user.ID {
		t.Errorf("UserIDForToken = (%q, %v), want (%q, true)", id, ok, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(repository.NewMemoryUserRepository())

	if _, _, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := svc.Register(context.Background(), "Alice II", "alice@example.com", "other")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewAuthService(repository.NewMemoryUserRepository())
	_, registered, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: "alice@example.com", password: "secret"},
		{name: "wrong password", email: "alice@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "bob@example.com", password: "secret", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, user, err := svc.Authenticate(context.Background(), tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if token == "" {
				t.Error("expected a token on success")
			}
			if user.ID != registered.ID {
				t.Errorf("user id = %q, want %q", user.ID, registered.ID)
			}
		})
	}
}

func TestRevokeToken(t *testing.T) {
	svc := NewAuthService(repository.NewMemoryUserRepository())
	token, _, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	svc.RevokeToken(token)
	if _, ok := svc.UserIDForToken(token); ok {
		t.Error("revoked token must no longer resolve")
	}
	// Revoking again is a no-op.
	svc.RevokeToken(token)
}

func TestUpdateProfileKeepsTokenValid(t *testing.T) {
	svc := NewAuthService(repository.NewMemoryUserRepository())
	token, user, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.UpdateProfile(context.Background(), user.ID, "Alicia", "alicia@example.com")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Alicia" || updated.Email != "alicia@example.com" {
		t.Errorf("updated = %+v", updated)
	}
	if _, ok := svc.UserIDForToken(token); !ok {
		t.Error("existing token must stay valid after a profile update")
	}

	// The new email is now the login identity.
	if _, _, err := svc.Authenticate(context.Background(), "alicia@example.com", "secret"); err != nil {
		t.Errorf("authenticate with new email: %v", err)
	}
	if _, _, err := svc.Authenticate(context.Background(), "alice@example.com", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("authenticate with old email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestSetProfilePicture(t *testing.T) {
	svc := NewAuthService(repository.NewMemoryUserRepository())
	_, user, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.SetProfilePicture(context.Background(), user.ID, "abc123.png")
	if err != nil {
		t.Fatalf("set profile picture: %v", err)
	}
	if updated.ProfilePicture != "abc123.png" {
		t.Errorf("profile picture = %q, want abc123.png", updated.ProfilePicture)
	}
}
