package users

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"fanevents/internal/store"
)

// Store describes the persistence operations required by the user service.
type Store interface {
	GetUser(ctx context.Context, userID string) (*store.User, error)
	UpdateUser(ctx context.Context, userID string, patch store.UserPatch) (*store.User, error)
	Collection(name string) store.Collection
}

// Service manages user profiles and the savings ledger.
type Service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(s Store) *Service {
	return &Service{store: s}
}

// Profile returns the stored user without the password hash.
func (s *Service) Profile(ctx context.Context, userID string) (*store.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile applies a partial update and returns the fresh record.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch store.UserPatch) (*store.User, error) {
	user, err := s.store.UpdateUser(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// SavingsEntry is one row in a user's savings history.
type SavingsEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int       `json:"amount"`
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AddSavings appends a ledger entry and bumps the user's running total.
// The ledger write is authoritative; the total on the user document is a
// derived convenience and updated best-effort after it.
func (s *Service) AddSavings(ctx context.Context, userID string, amount int, memo string) (*SavingsEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}

	entry := SavingsEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    amount,
		Memo:      memo,
		CreatedAt: time.Now().UTC(),
	}
	doc := map[string]any{
		"id":         entry.ID,
		"user_id":    entry.UserID,
		"amount":     entry.Amount,
		"memo":       entry.Memo,
		"created_at": entry.CreatedAt.Format(time.RFC3339),
	}
	if _, err := s.store.Collection("savings").CreateItem(ctx, doc); err != nil {
		return nil, fmt.Errorf("record savings: %w", err)
	}

	if user, err := s.store.GetUser(ctx, userID); err == nil {
		total := user.CurrentSavings + amount
		_, _ = s.store.UpdateUser(ctx, userID, store.UserPatch{CurrentSavings: &total})
	}

	return &entry, nil
}

// SavingsHistory returns a user's ledger entries, newest first.
func (s *Service) SavingsHistory(ctx context.Context, userID string) ([]SavingsEntry, error) {
	items, err := s.store.Collection("savings").QueryItems(ctx,
		"SELECT * FROM c WHERE c.user_id = @userId",
		map[string]any{"@userId": userID})
	if err != nil {
		return nil, fmt.Errorf("query savings: %w", err)
	}

	entries := make([]SavingsEntry, 0, len(items))
	for _, item := range items {
		if asString(item["user_id"]) != userID {
			continue
		}
		entry := SavingsEntry{
			ID:     asString(item["id"]),
			UserID: userID,
			Amount: asInt(item["amount"]),
			Memo:   asString(item["memo"]),
		}
		if ts, err := time.Parse(time.RFC3339, asString(item["created_at"])); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt normalizes the numeric types a decoded JSON document can carry.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}
