package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is the in-memory stand-in used when Cosmos DB credentials are
// absent. It mirrors the adapter's behavior closely enough that the
// rest of the application cannot tell the two apart: reads return
// independent copies, preference order is insertion-stable, and the
// event cache honors expiry on read.
//
// A single mutex guards the backing maps; operations are atomic
// individually but read-then-write sequences across calls are not,
// matching the live adapter's lack of transactional guarantees.
type Memory struct {
	mu          sync.RWMutex
	users       map[string]*User
	artists     map[string]*Artist
	prefs       []*FanPreference
	caches      map[string]*EventCache
	collections map[string][]map[string]any
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]*User),
		artists:     make(map[string]*Artist),
		caches:      make(map[string]*EventCache),
		collections: make(map[string][]map[string]any),
	}
}

func (m *Memory) CreateUser(_ context.Context, user User) (*User, error) {
	if user.ID == "" {
		return nil, fmt.Errorf("%w: userId", ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return nil, fmt.Errorf("user %q: %w", user.ID, ErrConflict)
	}
	m.users[user.ID] = cloneUser(&user)
	return cloneUser(&user), nil
}

func (m *Memory) GetUser(_ context.Context, userID string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

func (m *Memory) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, *cloneUser(user))
	}
	return out, nil
}

func (m *Memory) UpdateUser(_ context.Context, userID string, patch UserPatch) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	applyUserPatch(user, patch)
	user.UpdatedAt = time.Now().UTC()
	return cloneUser(user), nil
}

func (m *Memory) CreateArtist(_ context.Context, artist Artist) (*Artist, error) {
	if artist.ID == "" {
		return nil, fmt.Errorf("%w: artistId", ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.artists[artist.ID]; ok {
		return nil, fmt.Errorf("artist %q: %w", artist.ID, ErrConflict)
	}
	m.artists[artist.ID] = cloneArtist(&artist)
	return cloneArtist(&artist), nil
}

func (m *Memory) GetArtist(_ context.Context, artistID string) (*Artist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	artist, ok := m.artists[artistID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneArtist(artist), nil
}

func (m *Memory) ListArtists(_ context.Context) ([]Artist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Artist, 0, len(m.artists))
	for _, artist := range m.artists {
		out = append(out, *cloneArtist(artist))
	}
	return out, nil
}

func (m *Memory) UpdateArtist(_ context.Context, artistID string, patch ArtistPatch) (*Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	artist, ok := m.artists[artistID]
	if !ok {
		return nil, ErrNotFound
	}
	applyArtistPatch(artist, patch)
	artist.UpdatedAt = time.Now().UTC()
	return cloneArtist(artist), nil
}

func (m *Memory) CreateFanPreference(_ context.Context, pref FanPreference) (*FanPreference, error) {
	if pref.ArtistID == "" || pref.UserID == "" {
		return nil, fmt.Errorf("%w: artistId and userId", ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.prefs {
		if existing.ArtistID == pref.ArtistID && existing.UserID == pref.UserID {
			return nil, fmt.Errorf("preference for artist %q and user %q: %w", pref.ArtistID, pref.UserID, ErrConflict)
		}
	}
	m.prefs = append(m.prefs, cloneFanPreference(&pref))

	// Best effort: a preference for an unknown artist still succeeds.
	if artist, ok := m.artists[pref.ArtistID]; ok {
		artist.FanCount++
	}

	return cloneFanPreference(&pref), nil
}

func (m *Memory) FanPreferencesByArtist(_ context.Context, artistID string) ([]FanPreference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []FanPreference{}
	for _, pref := range m.prefs {
		if pref.ArtistID == artistID {
			out = append(out, *cloneFanPreference(pref))
		}
	}
	return out, nil
}

func (m *Memory) FanPreferencesByUser(_ context.Context, userID string) ([]FanPreference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []FanPreference{}
	for _, pref := range m.prefs {
		if pref.UserID == userID {
			out = append(out, *cloneFanPreference(pref))
		}
	}
	return out, nil
}

func (m *Memory) UpdateFanPreference(_ context.Context, artistID, userID string, patch FanPreferencePatch) (*FanPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pref := range m.prefs {
		if pref.ArtistID == artistID && pref.UserID == userID {
			if patch.Interests != nil {
				pref.Interests = cloneStrings(*patch.Interests)
			}
			pref.UpdatedAt = time.Now().UTC()
			return cloneFanPreference(pref), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetEventCache(_ context.Context, artistID string) (*EventCache, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cache, ok := m.caches[artistID]
	if !ok {
		return nil, ErrNotFound
	}
	// Expired entries stay in storage but read as a miss.
	if cache.ExpiresAt.Before(time.Now().UTC()) {
		return nil, ErrNotFound
	}
	return cloneEventCache(cache), nil
}

func (m *Memory) UpsertEventCache(_ context.Context, cache EventCache) (*EventCache, error) {
	if cache.ArtistID == "" {
		return nil, fmt.Errorf("%w: artistId", ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.caches[cache.ArtistID] = cloneEventCache(&cache)
	return cloneEventCache(&cache), nil
}

func (m *Memory) Collection(name string) Collection {
	return &memoryCollection{store: m, name: name}
}

type memoryCollection struct {
	store *Memory
	name  string
}

func (c *memoryCollection) CreateItem(_ context.Context, item map[string]any) (map[string]any, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	stored := cloneValueMap(item)
	c.store.collections[c.name] = append(c.store.collections[c.name], stored)
	return cloneValueMap(stored), nil
}

// QueryItems ignores the query text and returns every item. Callers are
// expected to filter the result themselves; this keeps the mock free of
// a query-language parser at the cost of over-fetching.
func (c *memoryCollection) QueryItems(_ context.Context, _ string, _ map[string]any) ([]map[string]any, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	items := c.store.collections[c.name]
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, cloneValueMap(item))
	}
	return out, nil
}
