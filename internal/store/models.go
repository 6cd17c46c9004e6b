package store

import (
	"time"
)

// ArtistPreference is a user's declared interest set for one artist,
// embedded in the user document.
type ArtistPreference struct {
	ArtistID  string   `json:"artistId"`
	Interests []string `json:"interests"`
}

// User is the stored user document. PasswordHash is the bcrypt hash;
// callers strip it before returning a user in a response.
type User struct {
	ID                       string             `json:"userId"`
	Email                    string             `json:"email"`
	Username                 string             `json:"username"`
	PasswordHash             string             `json:"password,omitempty"`
	FullName                 string             `json:"fullName,omitempty"`
	ProfileImage             string             `json:"profileImage,omitempty"`
	Preferences              []ArtistPreference `json:"preferences"`
	Area                     string             `json:"area,omitempty"`
	ContentInterests         []string           `json:"content_interests,omitempty"`
	TotalEstimatedExpenses   int                `json:"total_estimated_expenses"`
	CurrentSavings           int                `json:"current_savings"`
	MonthlySavingsSuggestion int                `json:"monthly_savings_suggestion"`
	CreatedAt                time.Time          `json:"createdAt"`
	UpdatedAt                time.Time          `json:"updatedAt"`
}

// UserPatch carries partial user updates; nil fields are left untouched.
type UserPatch struct {
	Email                    *string
	Username                 *string
	FullName                 *string
	ProfileImage             *string
	Preferences              *[]ArtistPreference
	Area                     *string
	ContentInterests         *[]string
	TotalEstimatedExpenses   *int
	CurrentSavings           *int
	MonthlySavingsSuggestion *int
}

// Artist is the stored artist document.
type Artist struct {
	ID           string    `json:"artistId"`
	Name         string    `json:"name"`
	Genre        []string  `json:"genre,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Description  string    `json:"description,omitempty"`
	FanCount     int       `json:"fanCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ArtistPatch carries partial artist updates; nil fields are left untouched.
type ArtistPatch struct {
	Name         *string
	Genre        *[]string
	ProfileImage *string
	Description  *string
}

// FanPreference links a user to an artist with a set of interest
// categories. Identity is the (ArtistID, UserID) pair.
type FanPreference struct {
	ArtistID     string    `json:"artistId"`
	UserID       string    `json:"userId"`
	Interests    []string  `json:"interests"`
	RegisteredAt time.Time `json:"registeredAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FanPreferencePatch carries partial preference updates.
type FanPreferencePatch struct {
	Interests *[]string
}

// EventCache holds a stored prediction payload for an artist. A read
// after ExpiresAt behaves as a miss even though the record remains.
type EventCache struct {
	ArtistID   string         `json:"artistId"`
	EventData  map[string]any `json:"eventData"`
	ComputedAt time.Time      `json:"computedAt"`
	ExpiresAt  time.Time      `json:"expiresAt"`
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func clonePreferenceList(src []ArtistPreference) []ArtistPreference {
	if src == nil {
		return nil
	}
	out := make([]ArtistPreference, len(src))
	for i, p := range src {
		out[i] = ArtistPreference{ArtistID: p.ArtistID, Interests: cloneStrings(p.Interests)}
	}
	return out
}

func cloneUser(src *User) *User {
	if src == nil {
		return nil
	}
	clone := *src
	clone.Preferences = clonePreferenceList(src.Preferences)
	clone.ContentInterests = cloneStrings(src.ContentInterests)
	return &clone
}

func cloneArtist(src *Artist) *Artist {
	if src == nil {
		return nil
	}
	clone := *src
	clone.Genre = cloneStrings(src.Genre)
	return &clone
}

func cloneFanPreference(src *FanPreference) *FanPreference {
	if src == nil {
		return nil
	}
	clone := *src
	clone.Interests = cloneStrings(src.Interests)
	return &clone
}

func cloneEventCache(src *EventCache) *EventCache {
	if src == nil {
		return nil
	}
	clone := *src
	clone.EventData = cloneValueMap(src.EventData)
	return &clone
}

// cloneValueMap deep-copies a decoded JSON document so stored state can
// never alias caller-held maps or slices.
func cloneValueMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneValueMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
