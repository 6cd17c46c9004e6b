package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound signals the requested record does not exist. Adapters
	// return it only for a genuine miss; backend faults are wrapped
	// separately so callers can tell the two apart.
	ErrNotFound = errors.New("record not found")
	// ErrConflict signals a record with the same identity already exists.
	ErrConflict = errors.New("record already exists")
	// ErrValidation signals a required field was missing on input.
	ErrValidation = errors.New("missing required field")
)

// Collection is the generic escape hatch for record shapes not modeled
// as first-class entities (cost records, savings entries).
type Collection interface {
	// CreateItem stores a document and returns the stored copy.
	CreateItem(ctx context.Context, item map[string]any) (map[string]any, error)
	// QueryItems runs a query with named parameters (e.g. "@userId").
	// The in-memory implementation ignores the query text and returns
	// every item in the collection; callers filter client-side.
	QueryItems(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// Store is the unified persistence contract shared by the in-memory
// implementation and the Cosmos DB adapter. Every read returns an
// independent copy of the stored record.
type Store interface {
	CreateUser(ctx context.Context, user User) (*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, userID string, patch UserPatch) (*User, error)

	CreateArtist(ctx context.Context, artist Artist) (*Artist, error)
	GetArtist(ctx context.Context, artistID string) (*Artist, error)
	ListArtists(ctx context.Context) ([]Artist, error)
	UpdateArtist(ctx context.Context, artistID string, patch ArtistPatch) (*Artist, error)

	// CreateFanPreference fails with ErrValidation when either id is
	// empty and ErrConflict when the (artist, user) pair already has a
	// preference. On success the matching artist's fanCount is bumped
	// best-effort; a missing artist is not an error.
	CreateFanPreference(ctx context.Context, pref FanPreference) (*FanPreference, error)
	FanPreferencesByArtist(ctx context.Context, artistID string) ([]FanPreference, error)
	FanPreferencesByUser(ctx context.Context, userID string) ([]FanPreference, error)
	UpdateFanPreference(ctx context.Context, artistID, userID string, patch FanPreferencePatch) (*FanPreference, error)

	// GetEventCache returns ErrNotFound for an absent record and for a
	// record whose expiry has passed; the stale record is not deleted.
	GetEventCache(ctx context.Context, artistID string) (*EventCache, error)
	UpsertEventCache(ctx context.Context, cache EventCache) (*EventCache, error)

	Collection(name string) Collection
}

func applyUserPatch(user *User, patch UserPatch) {
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.FullName != nil {
		user.FullName = *patch.FullName
	}
	if patch.ProfileImage != nil {
		user.ProfileImage = *patch.ProfileImage
	}
	if patch.Preferences != nil {
		user.Preferences = clonePreferenceList(*patch.Preferences)
	}
	if patch.Area != nil {
		user.Area = *patch.Area
	}
	if patch.ContentInterests != nil {
		user.ContentInterests = cloneStrings(*patch.ContentInterests)
	}
	if patch.TotalEstimatedExpenses != nil {
		user.TotalEstimatedExpenses = *patch.TotalEstimatedExpenses
	}
	if patch.CurrentSavings != nil {
		user.CurrentSavings = *patch.CurrentSavings
	}
	if patch.MonthlySavingsSuggestion != nil {
		user.MonthlySavingsSuggestion = *patch.MonthlySavingsSuggestion
	}
}

func applyArtistPatch(artist *Artist, patch ArtistPatch) {
	if patch.Name != nil {
		artist.Name = *patch.Name
	}
	if patch.Genre != nil {
		artist.Genre = cloneStrings(*patch.Genre)
	}
	if patch.ProfileImage != nil {
		artist.ProfileImage = *patch.ProfileImage
	}
	if patch.Description != nil {
		artist.Description = *patch.Description
	}
}
