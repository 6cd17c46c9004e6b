package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/rs/zerolog/log"
)

const (
	usersContainer       = "users"
	artistsContainer     = "artists"
	preferencesContainer = "fan_preferences"
	eventCacheContainer  = "event_cache"
)

// CosmosConfig carries the connection settings for the live adapter.
type CosmosConfig struct {
	Endpoint string
	Key      string
	Database string
}

// Cosmos is the live adapter backed by Azure Cosmos DB. Every entity is
// stored in its own container with the document id as the partition
// key. Updates use read-then-replace and are subject to lost-update
// races under concurrent writers; the external store owns durability.
type Cosmos struct {
	client   *azcosmos.Client
	database *azcosmos.DatabaseClient

	mu         sync.Mutex
	containers map[string]*azcosmos.ContainerClient
}

// NewCosmos connects to Cosmos DB and ensures the database and the
// entity containers exist.
func NewCosmos(ctx context.Context, cfg CosmosConfig) (*Cosmos, error) {
	cred, err := azcosmos.NewKeyCredential(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("cosmos credential: %w", err)
	}
	client, err := azcosmos.NewClientWithKey(cfg.Endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("cosmos client: %w", err)
	}

	if _, err := client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: cfg.Database}, nil); err != nil && !hasStatus(err, http.StatusConflict) {
		return nil, fmt.Errorf("create database %q: %w", cfg.Database, err)
	}
	database, err := client.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", cfg.Database, err)
	}

	c := &Cosmos{
		client:     client,
		database:   database,
		containers: make(map[string]*azcosmos.ContainerClient),
	}

	for _, name := range []string{usersContainer, artistsContainer, preferencesContainer, eventCacheContainer} {
		if _, err := c.container(ctx, name); err != nil {
			return nil, err
		}
	}

	log.Info().Str("database", cfg.Database).Msg("connected to Cosmos DB")
	return c, nil
}

func (c *Cosmos) container(ctx context.Context, name string) (*azcosmos.ContainerClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if container, ok := c.containers[name]; ok {
		return container, nil
	}

	props := azcosmos.ContainerProperties{
		ID: name,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Paths: []string{"/id"},
		},
	}
	if _, err := c.database.CreateContainer(ctx, props, nil); err != nil && !hasStatus(err, http.StatusConflict) {
		return nil, fmt.Errorf("create container %q: %w", name, err)
	}
	container, err := c.database.NewContainer(name)
	if err != nil {
		return nil, fmt.Errorf("open container %q: %w", name, err)
	}
	c.containers[name] = container
	return container, nil
}

func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

func marshalDoc(id, docType string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["id"], _ = json.Marshal(id)
	fields["type"], _ = json.Marshal(docType)
	return json.Marshal(fields)
}

func (c *Cosmos) createDoc(ctx context.Context, containerName, id, docType string, body any) error {
	container, err := c.container(ctx, containerName)
	if err != nil {
		return err
	}
	payload, err := marshalDoc(id, docType, body)
	if err != nil {
		return fmt.Errorf("marshal %s %q: %w", docType, id, err)
	}
	if _, err := container.CreateItem(ctx, azcosmos.NewPartitionKeyString(id), payload, nil); err != nil {
		if hasStatus(err, http.StatusConflict) {
			return fmt.Errorf("%s %q: %w", docType, id, ErrConflict)
		}
		return fmt.Errorf("create %s %q: %w", docType, id, err)
	}
	return nil
}

func (c *Cosmos) readDoc(ctx context.Context, containerName, id string, out any) error {
	container, err := c.container(ctx, containerName)
	if err != nil {
		return err
	}
	resp, err := container.ReadItem(ctx, azcosmos.NewPartitionKeyString(id), id, nil)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("read item %q: %w", id, err)
	}
	if err := json.Unmarshal(resp.Value, out); err != nil {
		return fmt.Errorf("decode item %q: %w", id, err)
	}
	return nil
}

func (c *Cosmos) replaceDoc(ctx context.Context, containerName, id, docType string, body any) error {
	container, err := c.container(ctx, containerName)
	if err != nil {
		return err
	}
	payload, err := marshalDoc(id, docType, body)
	if err != nil {
		return fmt.Errorf("marshal %s %q: %w", docType, id, err)
	}
	if _, err := container.ReplaceItem(ctx, azcosmos.NewPartitionKeyString(id), id, payload, nil); err != nil {
		return fmt.Errorf("replace %s %q: %w", docType, id, err)
	}
	return nil
}

func (c *Cosmos) queryDocs(ctx context.Context, containerName, query string, params []azcosmos.QueryParameter, collect func(raw []byte) error) error {
	container, err := c.container(ctx, containerName)
	if err != nil {
		return err
	}
	opts := &azcosmos.QueryOptions{QueryParameters: params}
	pager := container.NewQueryItemsPager(query, azcosmos.PartitionKey{}, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("query %q: %w", containerName, err)
		}
		for _, raw := range page.Items {
			if err := collect(raw); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Cosmos) CreateUser(ctx context.Context, user User) (*User, error) {
	if user.ID == "" {
		return nil, fmt.Errorf("%w: userId", ErrValidation)
	}
	if err := c.createDoc(ctx, usersContainer, user.ID, "user", user); err != nil {
		return nil, err
	}
	return cloneUser(&user), nil
}

func (c *Cosmos) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := c.readDoc(ctx, usersContainer, userID, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Cosmos) ListUsers(ctx context.Context) ([]User, error) {
	out := []User{}
	err := c.queryDocs(ctx, usersContainer, "SELECT * FROM c WHERE c.type = 'user'", nil, func(raw []byte) error {
		var user User
		if err := json.Unmarshal(raw, &user); err != nil {
			return fmt.Errorf("decode user: %w", err)
		}
		out = append(out, user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Cosmos) UpdateUser(ctx context.Context, userID string, patch UserPatch) (*User, error) {
	user, err := c.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	applyUserPatch(user, patch)
	user.UpdatedAt = time.Now().UTC()
	if err := c.replaceDoc(ctx, usersContainer, userID, "user", user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Cosmos) CreateArtist(ctx context.Context, artist Artist) (*Artist, error) {
	if artist.ID == "" {
		return nil, fmt.Errorf("%w: artistId", ErrValidation)
	}
	if err := c.createDoc(ctx, artistsContainer, artist.ID, "artist", artist); err != nil {
		return nil, err
	}
	return cloneArtist(&artist), nil
}

func (c *Cosmos) GetArtist(ctx context.Context, artistID string) (*Artist, error) {
	var artist Artist
	if err := c.readDoc(ctx, artistsContainer, artistID, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

func (c *Cosmos) ListArtists(ctx context.Context) ([]Artist, error) {
	out := []Artist{}
	err := c.queryDocs(ctx, artistsContainer, "SELECT * FROM c WHERE c.type = 'artist'", nil, func(raw []byte) error {
		var artist Artist
		if err := json.Unmarshal(raw, &artist); err != nil {
			return fmt.Errorf("decode artist: %w", err)
		}
		out = append(out, artist)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Cosmos) UpdateArtist(ctx context.Context, artistID string, patch ArtistPatch) (*Artist, error) {
	artist, err := c.GetArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}
	applyArtistPatch(artist, patch)
	artist.UpdatedAt = time.Now().UTC()
	if err := c.replaceDoc(ctx, artistsContainer, artistID, "artist", artist); err != nil {
		return nil, err
	}
	return artist, nil
}

func preferenceDocID(artistID, userID string) string {
	return userID + "_" + artistID
}

func (c *Cosmos) CreateFanPreference(ctx context.Context, pref FanPreference) (*FanPreference, error) {
	if pref.ArtistID == "" || pref.UserID == "" {
		return nil, fmt.Errorf("%w: artistId and userId", ErrValidation)
	}

	id := preferenceDocID(pref.ArtistID, pref.UserID)
	var existing FanPreference
	err := c.readDoc(ctx, preferencesContainer, id, &existing)
	switch {
	case err == nil:
		return nil, fmt.Errorf("preference for artist %q and user %q: %w", pref.ArtistID, pref.UserID, ErrConflict)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if err := c.createDoc(ctx, preferencesContainer, id, "fan_preference", pref); err != nil {
		return nil, err
	}

	// Best effort; a missing artist or a failed replace is logged, not
	// surfaced. The increment races with concurrent writers.
	if artist, err := c.GetArtist(ctx, pref.ArtistID); err == nil {
		artist.FanCount++
		if err := c.replaceDoc(ctx, artistsContainer, artist.ID, "artist", artist); err != nil {
			log.Warn().Err(err).Str("artist_id", pref.ArtistID).Msg("fan count update failed")
		}
	}

	return cloneFanPreference(&pref), nil
}

func (c *Cosmos) FanPreferencesByArtist(ctx context.Context, artistID string) ([]FanPreference, error) {
	return c.queryPreferences(ctx, "SELECT * FROM c WHERE c.artistId = @artistId AND c.type = 'fan_preference'",
		[]azcosmos.QueryParameter{{Name: "@artistId", Value: artistID}})
}

func (c *Cosmos) FanPreferencesByUser(ctx context.Context, userID string) ([]FanPreference, error) {
	return c.queryPreferences(ctx, "SELECT * FROM c WHERE c.userId = @userId AND c.type = 'fan_preference'",
		[]azcosmos.QueryParameter{{Name: "@userId", Value: userID}})
}

func (c *Cosmos) queryPreferences(ctx context.Context, query string, params []azcosmos.QueryParameter) ([]FanPreference, error) {
	out := []FanPreference{}
	err := c.queryDocs(ctx, preferencesContainer, query, params, func(raw []byte) error {
		var pref FanPreference
		if err := json.Unmarshal(raw, &pref); err != nil {
			return fmt.Errorf("decode preference: %w", err)
		}
		out = append(out, pref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Cosmos) UpdateFanPreference(ctx context.Context, artistID, userID string, patch FanPreferencePatch) (*FanPreference, error) {
	id := preferenceDocID(artistID, userID)
	var pref FanPreference
	if err := c.readDoc(ctx, preferencesContainer, id, &pref); err != nil {
		return nil, err
	}
	if patch.Interests != nil {
		pref.Interests = cloneStrings(*patch.Interests)
	}
	pref.UpdatedAt = time.Now().UTC()
	if err := c.replaceDoc(ctx, preferencesContainer, id, "fan_preference", pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

func (c *Cosmos) GetEventCache(ctx context.Context, artistID string) (*EventCache, error) {
	var cache EventCache
	if err := c.readDoc(ctx, eventCacheContainer, artistID, &cache); err != nil {
		return nil, err
	}
	if cache.ExpiresAt.Before(time.Now().UTC()) {
		return nil, ErrNotFound
	}
	return &cache, nil
}

func (c *Cosmos) UpsertEventCache(ctx context.Context, cache EventCache) (*EventCache, error) {
	if cache.ArtistID == "" {
		return nil, fmt.Errorf("%w: artistId", ErrValidation)
	}
	container, err := c.container(ctx, eventCacheContainer)
	if err != nil {
		return nil, err
	}
	payload, err := marshalDoc(cache.ArtistID, "event_cache", cache)
	if err != nil {
		return nil, fmt.Errorf("marshal event cache %q: %w", cache.ArtistID, err)
	}
	if _, err := container.UpsertItem(ctx, azcosmos.NewPartitionKeyString(cache.ArtistID), payload, nil); err != nil {
		return nil, fmt.Errorf("upsert event cache %q: %w", cache.ArtistID, err)
	}
	return cloneEventCache(&cache), nil
}

func (c *Cosmos) Collection(name string) Collection {
	return &cosmosCollection{store: c, name: name}
}

type cosmosCollection struct {
	store *Cosmos
	name  string
}

func (c *cosmosCollection) CreateItem(ctx context.Context, item map[string]any) (map[string]any, error) {
	container, err := c.store.container(ctx, c.name)
	if err != nil {
		return nil, err
	}
	id, _ := item["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: id", ErrValidation)
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("marshal item %q: %w", id, err)
	}
	if _, err := container.CreateItem(ctx, azcosmos.NewPartitionKeyString(id), payload, nil); err != nil {
		return nil, fmt.Errorf("create item %q in %q: %w", id, c.name, err)
	}
	return cloneValueMap(item), nil
}

func (c *cosmosCollection) QueryItems(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	queryParams := make([]azcosmos.QueryParameter, 0, len(params))
	for name, value := range params {
		queryParams = append(queryParams, azcosmos.QueryParameter{Name: name, Value: value})
	}

	out := []map[string]any{}
	err := c.store.queryDocs(ctx, c.name, query, queryParams, func(raw []byte) error {
		var item map[string]any
		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("decode item from %q: %w", c.name, err)
		}
		out = append(out, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
