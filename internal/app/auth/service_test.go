package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"fanevents/internal/store"
)

type stubStore struct {
	users map[string]*store.User
}

func newStubStore() *stubStore {
	return &stubStore{users: map[string]*store.User{}}
}

func (s *stubStore) CreateUser(_ context.Context, user store.User) (*store.User, error) {
	if _, ok := s.users[user.ID]; ok {
		return nil, store.ErrConflict
	}
	stored := user
	s.users[user.ID] = &stored
	clone := stored
	return &clone, nil
}

func (s *stubStore) GetUser(_ context.Context, userID string) (*store.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *stubStore) ListUsers(_ context.Context) ([]store.User, error) {
	out := make([]store.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, *user)
	}
	return out, nil
}

func (s *stubStore) UpdateUser(_ context.Context, userID string, patch store.UserPatch) (*store.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.FullName != nil {
		user.FullName = *patch.FullName
	}
	if patch.Area != nil {
		user.Area = *patch.Area
	}
	clone := *user
	return &clone, nil
}

const testSecret = "unit-test-signing-secret"

func newTestService(t *testing.T, s Store) *Service {
	t.Helper()
	svc, err := New(s, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New(newStubStore(), "", time.Minute); !errors.Is(err, ErrNoSecret) {
		t.Errorf("New with empty secret returned %v, want ErrNoSecret", err)
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	st := newStubStore()
	svc := newTestService(t, st)
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{
		Email:    "mika@example.com",
		Username: "mika",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash != "" {
		t.Error("registered user leaked its password hash")
	}
	if stored := st.users[user.ID]; stored.PasswordHash == "" || stored.PasswordHash == "hunter2hunter2" {
		t.Error("stored password is not a hash")
	}

	authed, err := svc.Authenticate(ctx, "mika@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Errorf("authenticated as %s, want %s", authed.ID, user.ID)
	}
	if authed.PasswordHash != "" {
		t.Error("authenticated user leaked its password hash")
	}
}

func TestAuthenticateFailures(t *testing.T) {
	st := newStubStore()
	svc := newTestService(t, st)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Email: "a@b.c", Username: "a", Password: "correct-horse"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "a@b.c", "wrong"},
		{"unknown email", "nobody@b.c", "correct-horse"},
		{"case-sensitive email", "A@B.C", "correct-horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Authenticate returned %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, newStubStore())
	ctx := context.Background()

	tests := []struct {
		name string
		reg  Registration
	}{
		{"missing email", Registration{Username: "a", Password: "p"}},
		{"missing username", Registration{Email: "a@b.c", Password: "p"}},
		{"missing password", Registration{Email: "a@b.c", Username: "a"}},
		{"whitespace email", Registration{Email: "   ", Username: "a", Password: "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.reg); !errors.Is(err, store.ErrValidation) {
				t.Errorf("Register returned %v, want ErrValidation", err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	st := newStubStore()
	svc := newTestService(t, st)
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{Email: "a@b.c", Username: "a", Password: "p4ssword"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := svc.IssueToken(user.ID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	resolved, err := svc.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("resolved user %s, want %s", resolved.ID, user.ID)
	}
}

func TestCurrentUserRejections(t *testing.T) {
	st := newStubStore()
	svc := newTestService(t, st)
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{Email: "a@b.c", Username: "a", Password: "p4ssword"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("garbage token", func(t *testing.T) {
		if _, err := svc.CurrentUser(ctx, "not.a.token"); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := New(st, "a-completely-different-secret", time.Minute)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		token, err := other.IssueToken(user.ID)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		if _, err := svc.CurrentUser(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived := &Service{store: st, secret: []byte(testSecret), expiry: -time.Minute}
		token, err := shortLived.IssueToken(user.ID)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		if _, err := svc.CurrentUser(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("orphaned subject", func(t *testing.T) {
		token, err := svc.IssueToken("gone-user")
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		if _, err := svc.CurrentUser(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})
}
