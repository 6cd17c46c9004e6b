package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fanevents/internal/store"
)

// ErrArtistNotFound is returned when a preference targets an unknown artist.
var ErrArtistNotFound = errors.New("artist not found")

// Store describes the persistence operations required by the preference service.
type Store interface {
	GetArtist(ctx context.Context, artistID string) (*store.Artist, error)
	CreateFanPreference(ctx context.Context, pref store.FanPreference) (*store.FanPreference, error)
	FanPreferencesByArtist(ctx context.Context, artistID string) ([]store.FanPreference, error)
	FanPreferencesByUser(ctx context.Context, userID string) ([]store.FanPreference, error)
	UpdateFanPreference(ctx context.Context, artistID, userID string, patch store.FanPreferencePatch) (*store.FanPreference, error)
}

// Service manages fan preferences.
type Service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(s Store) *Service {
	return &Service{store: s}
}

// Create registers a preference after checking the artist exists. The
// store rejects a second preference for the same (artist, user) pair.
func (s *Service) Create(ctx context.Context, artistID, userID string, interests []string) (*store.FanPreference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := s.store.GetArtist(ctx, artistID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrArtistNotFound
		}
		return nil, fmt.Errorf("check artist: %w", err)
	}

	now := time.Now().UTC()
	pref := store.FanPreference{
		ArtistID:     artistID,
		UserID:       userID,
		Interests:    interests,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	return s.store.CreateFanPreference(ctx, pref)
}

func (s *Service) ByArtist(ctx context.Context, artistID string) ([]store.FanPreference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.FanPreferencesByArtist(ctx, artistID)
}

func (s *Service) ByUser(ctx context.Context, userID string) ([]store.FanPreference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.FanPreferencesByUser(ctx, userID)
}

func (s *Service) Update(ctx context.Context, artistID, userID string, interests []string) (*store.FanPreference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.UpdateFanPreference(ctx, artistID, userID, store.FanPreferencePatch{Interests: &interests})
}
