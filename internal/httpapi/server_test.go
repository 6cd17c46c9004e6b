package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fanevents/internal/app/artists"
	"fanevents/internal/app/auth"
	"fanevents/internal/app/events"
	"fanevents/internal/app/users"
	"fanevents/internal/store"
)

type stubAuth struct {
	user *store.User
}

func (s *stubAuth) Register(_ context.Context, reg auth.Registration) (*store.User, error) {
	if reg.Email == "" || reg.Password == "" {
		return nil, store.ErrValidation
	}
	return &store.User{ID: "u1", Email: reg.Email, Username: reg.Username}, nil
}

func (s *stubAuth) Authenticate(_ context.Context, email, password string) (*store.User, error) {
	if s.user == nil || email != s.user.Email || password != "correct" {
		return nil, auth.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubAuth) IssueToken(userID string) (string, error) {
	return "token-for-" + userID, nil
}

func (s *stubAuth) CurrentUser(_ context.Context, token string) (*store.User, error) {
	if s.user == nil || token != "token-for-"+s.user.ID {
		return nil, auth.ErrUnauthorized
	}
	return s.user, nil
}

func (s *stubAuth) UpdateCurrentUser(_ context.Context, userID string, patch store.UserPatch) (*store.User, error) {
	if s.user == nil || s.user.ID != userID {
		return nil, store.ErrNotFound
	}
	updated := *s.user
	if patch.FullName != nil {
		updated.FullName = *patch.FullName
	}
	if patch.Area != nil {
		updated.Area = *patch.Area
	}
	s.user = &updated
	return &updated, nil
}

type stubUsers struct {
	savings []users.SavingsEntry
}

func (s *stubUsers) Profile(_ context.Context, userID string) (*store.User, error) {
	return &store.User{ID: userID}, nil
}

func (s *stubUsers) UpdateProfile(_ context.Context, userID string, patch store.UserPatch) (*store.User, error) {
	user := store.User{ID: userID}
	if patch.Area != nil {
		user.Area = *patch.Area
	}
	return &user, nil
}

func (s *stubUsers) AddSavings(_ context.Context, userID string, amount int, memo string) (*users.SavingsEntry, error) {
	if amount <= 0 {
		return nil, store.ErrValidation
	}
	entry := users.SavingsEntry{ID: "sv1", UserID: userID, Amount: amount, Memo: memo}
	s.savings = append(s.savings, entry)
	return &entry, nil
}

func (s *stubUsers) SavingsHistory(_ context.Context, _ string) ([]users.SavingsEntry, error) {
	return s.savings, nil
}

type stubArtists struct {
	artists map[string]*store.Artist
}

func (s *stubArtists) Create(_ context.Context, input artists.NewArtist) (*store.Artist, error) {
	if input.Name == "" {
		return nil, store.ErrValidation
	}
	return &store.Artist{ID: "a1", Name: input.Name}, nil
}

func (s *stubArtists) Get(_ context.Context, artistID string) (*store.Artist, error) {
	artist, ok := s.artists[artistID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return artist, nil
}

func (s *stubArtists) List(_ context.Context) ([]store.Artist, error) {
	out := make([]store.Artist, 0, len(s.artists))
	for _, artist := range s.artists {
		out = append(out, *artist)
	}
	return out, nil
}

func (s *stubArtists) Update(_ context.Context, artistID string, _ store.ArtistPatch) (*store.Artist, error) {
	return s.Get(context.Background(), artistID)
}

type stubPreferences struct {
	updated map[string][]string
}

func (s *stubPreferences) Create(_ context.Context, artistID, userID string, interests []string) (*store.FanPreference, error) {
	return &store.FanPreference{ArtistID: artistID, UserID: userID, Interests: interests}, nil
}

func (s *stubPreferences) ByArtist(_ context.Context, artistID string) ([]store.FanPreference, error) {
	return []store.FanPreference{{ArtistID: artistID, UserID: "u1"}}, nil
}

func (s *stubPreferences) ByUser(_ context.Context, userID string) ([]store.FanPreference, error) {
	return []store.FanPreference{{ArtistID: "a1", UserID: userID}}, nil
}

func (s *stubPreferences) Update(_ context.Context, artistID, userID string, interests []string) (*store.FanPreference, error) {
	if s.updated == nil {
		s.updated = map[string][]string{}
	}
	s.updated[artistID+"/"+userID] = interests
	return &store.FanPreference{ArtistID: artistID, UserID: userID, Interests: interests}, nil
}

type stubEvents struct{}

func (s *stubEvents) Upcoming(_ context.Context, _ string) (*events.UpcomingResponse, error) {
	return &events.UpcomingResponse{Predictions: []events.ArtistPrediction{}, UserArea: "東京"}, nil
}

func (s *stubEvents) MultipleCosts(_ context.Context, _ string, reqs []events.CostRequestEvent) (*events.CostResult, error) {
	if len(reqs) == 0 {
		return nil, store.ErrValidation
	}
	return &events.CostResult{TotalEstimated: 50000}, nil
}

func (s *stubEvents) SaveCost(_ context.Context, userID, artistID string, _ events.CostResult) (*events.SavedCost, error) {
	return &events.SavedCost{ID: "c1", UserID: userID, ArtistID: artistID}, nil
}

func (s *stubEvents) UserCosts(_ context.Context, userID string) ([]events.SavedCost, error) {
	return []events.SavedCost{{ID: "c1", UserID: userID}}, nil
}

func newTestServer() *Server {
	return New(
		&stubAuth{user: &store.User{ID: "u1", Email: "mika@example.com"}},
		&stubUsers{},
		&stubArtists{artists: map[string]*store.Artist{"a1": {ID: "a1", Name: "Glass Harbor"}}},
		&stubPreferences{},
		&stubEvents{},
	)
}

func doRequest(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestServer().Routes(), http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
}

func TestRegister(t *testing.T) {
	rec := doRequest(t, newTestServer().Routes(), http.MethodPost, "/api/auth/register", "",
		`{"email":"a@b.c","username":"a","password":"p4ssword"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
	}

	var user store.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.Email != "a@b.c" {
		t.Errorf("email = %q, want a@b.c", user.Email)
	}
}

func TestRegisterRejectsBadPayload(t *testing.T) {
	rec := doRequest(t, newTestServer().Routes(), http.MethodPost, "/api/auth/register", "", `{"email":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed payload returned %d, want 400", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	routes := newTestServer().Routes()

	rec := doRequest(t, routes, http.MethodPost, "/api/auth/login", "",
		`{"email":"mika@example.com","password":"correct"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken != "token-for-u1" || resp.TokenType != "bearer" {
		t.Errorf("unexpected token response %+v", resp)
	}

	rec = doRequest(t, routes, http.MethodPost, "/api/auth/login", "",
		`{"email":"mika@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password returned %d, want 401", rec.Code)
	}
}

func TestTokenFormLogin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token",
		strings.NewReader("username=mika%40example.com&password=correct"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	newTestServer().Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("token returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("token response carried no access token")
	}
}

func TestUpdateMe(t *testing.T) {
	routes := newTestServer().Routes()
	token := "token-for-u1"

	rec := doRequest(t, routes, http.MethodPut, "/api/auth/me", token, `{"fullName":"New Name"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update me returned %d: %s", rec.Code, rec.Body.String())
	}
	var user store.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.FullName != "New Name" {
		t.Errorf("fullName = %q, want New Name", user.FullName)
	}

	rec = doRequest(t, routes, http.MethodPut, "/api/auth/me", "", `{"fullName":"x"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("update me without token returned %d, want 401", rec.Code)
	}

	rec = doRequest(t, routes, http.MethodPut, "/api/auth/me", token, `{"fullName":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed payload returned %d, want 400", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	routes := newTestServer().Routes()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/users/profile"},
		{http.MethodGet, "/api/events/upcoming"},
		{http.MethodGet, "/api/events/user-costs"},
		{http.MethodGet, "/api/savings/history"},
		{http.MethodGet, "/api/fan-preferences/by-user/u1"},
	}
	for _, tt := range paths {
		rec := doRequest(t, routes, tt.method, tt.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token returned %d, want 401", tt.method, tt.path, rec.Code)
		}
		rec = doRequest(t, routes, tt.method, tt.path, "bogus", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with bad token returned %d, want 401", tt.method, tt.path, rec.Code)
		}
	}
}

func TestGetArtistNotFound(t *testing.T) {
	rec := doRequest(t, newTestServer().Routes(), http.MethodGet, "/api/artists/missing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing artist returned %d, want 404", rec.Code)
	}
}

func TestPreferenceOwnership(t *testing.T) {
	routes := newTestServer().Routes()
	token := "token-for-u1"

	rec := doRequest(t, routes, http.MethodGet, "/api/fan-preferences/by-user/u2", token, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("reading another user's preferences returned %d, want 403", rec.Code)
	}

	rec = doRequest(t, routes, http.MethodPut, "/api/fan-preferences/a1/u2", token, `{"interests":["live"]}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("updating another user's preferences returned %d, want 403", rec.Code)
	}

	rec = doRequest(t, routes, http.MethodPut, "/api/fan-preferences/a1/u1", token, `{"interests":["live"]}`)
	if rec.Code != http.StatusOK {
		t.Errorf("updating own preferences returned %d, want 200", rec.Code)
	}
}

func TestUpcomingEvents(t *testing.T) {
	rec := doRequest(t, newTestServer().Routes(), http.MethodGet, "/api/events/upcoming", "token-for-u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("upcoming returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp events.UpcomingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserArea != "東京" {
		t.Errorf("user_area = %q, want 東京", resp.UserArea)
	}
}

func TestMultipleCostsValidation(t *testing.T) {
	routes := newTestServer().Routes()

	rec := doRequest(t, routes, http.MethodPost, "/api/events/multiple-costs", "token-for-u1", `{"events":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty events returned %d, want 400", rec.Code)
	}

	rec = doRequest(t, routes, http.MethodPost, "/api/events/multiple-costs", "token-for-u1",
		`{"events":[{"event_id":"e1","event_type":"live","location":"Tokyo","date":"2026-03"}]}`)
	if rec.Code != http.StatusOK {
		t.Errorf("valid request returned %d, want 200", rec.Code)
	}
}

func TestSavingsFlow(t *testing.T) {
	routes := newTestServer().Routes()
	token := "token-for-u1"

	rec := doRequest(t, routes, http.MethodPost, "/api/savings/add", token, `{"amount":5000,"memo":"january"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add savings returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, routes, http.MethodPost, "/api/savings/add", token, `{"amount":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero amount returned %d, want 400", rec.Code)
	}

	rec = doRequest(t, routes, http.MethodGet, "/api/savings/history", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history returned %d", rec.Code)
	}
	var resp struct {
		History []users.SavingsEntry `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.History) != 1 {
		t.Errorf("history has %d entries, want 1", len(resp.History))
	}
}
