package artists

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fanevents/internal/store"
)

// Store describes the persistence operations required by the artist service.
type Store interface {
	CreateArtist(ctx context.Context, artist store.Artist) (*store.Artist, error)
	GetArtist(ctx context.Context, artistID string) (*store.Artist, error)
	ListArtists(ctx context.Context) ([]store.Artist, error)
	UpdateArtist(ctx context.Context, artistID string, patch store.ArtistPatch) (*store.Artist, error)
}

// Service exposes the artist catalogue.
type Service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(s Store) *Service {
	return &Service{store: s}
}

// NewArtist is the payload accepted by Create.
type NewArtist struct {
	Name         string
	Genre        []string
	ProfileImage string
	Description  string
}

func (s *Service) Create(ctx context.Context, input NewArtist) (*store.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name", store.ErrValidation)
	}

	now := time.Now().UTC()
	artist := store.Artist{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Genre:        input.Genre,
		ProfileImage: input.ProfileImage,
		Description:  input.Description,
		FanCount:     0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.store.CreateArtist(ctx, artist)
}

func (s *Service) Get(ctx context.Context, artistID string) (*store.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetArtist(ctx, artistID)
}

func (s *Service) List(ctx context.Context) ([]store.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListArtists(ctx)
}

func (s *Service) Update(ctx context.Context, artistID string, patch store.ArtistPatch) (*store.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.UpdateArtist(ctx, artistID, patch)
}
