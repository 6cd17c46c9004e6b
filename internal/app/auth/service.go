package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fanevents/internal/store"
)

var (
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrUnauthorized indicates an invalid, expired, or orphaned token.
	ErrUnauthorized = errors.New("could not validate credentials")
	// ErrNoSecret indicates the signing secret is not configured.
	ErrNoSecret = errors.New("token signing secret is not configured")

	dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

// Store describes the persistence operations required by the auth service.
type Store interface {
	CreateUser(ctx context.Context, user store.User) (*store.User, error)
	GetUser(ctx context.Context, userID string) (*store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	UpdateUser(ctx context.Context, userID string, patch store.UserPatch) (*store.User, error)
}

// Service issues and verifies access tokens and manages credentials.
type Service struct {
	store  Store
	secret []byte
	expiry time.Duration
}

// New wires an auth service. An empty secret is refused outright; there
// is deliberately no built-in default.
func New(s Store, secret string, expiry time.Duration) (*Service, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}
	return &Service{store: s, secret: []byte(secret), expiry: expiry}, nil
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored hash. Any
// failure, including a malformed or missing hash, reads as false.
func VerifyPassword(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Registration is the payload accepted by Register.
type Registration struct {
	Email        string
	Username     string
	Password     string
	FullName     string
	ProfileImage string
}

// Register hashes the password, assigns a fresh id, and persists the
// user. The returned user never carries the password hash. Duplicate
// emails are not rejected here; lookup is by id everywhere else.
func (s *Service) Register(ctx context.Context, reg Registration) (*store.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Username = strings.TrimSpace(reg.Username)
	if reg.Email == "" || reg.Username == "" || reg.Password == "" {
		return nil, fmt.Errorf("%w: email, username and password", store.ErrValidation)
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := store.User{
		ID:           uuid.New().String(),
		Email:        reg.Email,
		Username:     reg.Username,
		PasswordHash: hash,
		FullName:     reg.FullName,
		ProfileImage: reg.ProfileImage,
		Preferences:  []store.ArtistPreference{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	created.PasswordHash = ""
	return created, nil
}

// Authenticate validates credentials by email. The scan over all users
// is linear; acceptable at this scale, an indexed lookup otherwise.
// Missing user, missing hash, and wrong password all fail closed with
// the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*store.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var match *store.User
	for i := range users {
		if users[i].Email == email {
			match = &users[i]
			break
		}
	}
	if match == nil {
		// Equalize timing with the found-user path.
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if !VerifyPassword(password, match.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	user := *match
	user.PasswordHash = ""
	return &user, nil
}

// IssueToken signs a {sub, exp} claim set for the given user.
func (s *Service) IssueToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// CurrentUser verifies a token's signature and expiry and resolves the
// subject user. A valid token whose user no longer exists is rejected
// the same way as a bad token.
func (s *Service) CurrentUser(ctx context.Context, tokenString string) (*store.User, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateCurrentUser applies a partial profile update to the
// authenticated user.
func (s *Service) UpdateCurrentUser(ctx context.Context, userID string, patch store.UserPatch) (*store.User, error) {
	updated, err := s.store.UpdateUser(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	updated.PasswordHash = ""
	return updated, nil
}
