package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fanevents/internal/app/artists"
	"fanevents/internal/app/auth"
	"fanevents/internal/app/events"
	"fanevents/internal/app/preferences"
	"fanevents/internal/app/users"
	"fanevents/internal/metrics"
	"fanevents/internal/store"
)

// AuthService captures registration, login, and token workflows.
type AuthService interface {
	Register(ctx context.Context, reg auth.Registration) (*store.User, error)
	Authenticate(ctx context.Context, email, password string) (*store.User, error)
	IssueToken(userID string) (string, error)
	CurrentUser(ctx context.Context, token string) (*store.User, error)
	UpdateCurrentUser(ctx context.Context, userID string, patch store.UserPatch) (*store.User, error)
}

// UserService captures profile and savings workflows.
type UserService interface {
	Profile(ctx context.Context, userID string) (*store.User, error)
	UpdateProfile(ctx context.Context, userID string, patch store.UserPatch) (*store.User, error)
	AddSavings(ctx context.Context, userID string, amount int, memo string) (*users.SavingsEntry, error)
	SavingsHistory(ctx context.Context, userID string) ([]users.SavingsEntry, error)
}

// ArtistService describes artist catalogue workflows.
type ArtistService interface {
	Create(ctx context.Context, input artists.NewArtist) (*store.Artist, error)
	Get(ctx context.Context, artistID string) (*store.Artist, error)
	List(ctx context.Context) ([]store.Artist, error)
	Update(ctx context.Context, artistID string, patch store.ArtistPatch) (*store.Artist, error)
}

// PreferenceService describes fan preference workflows.
type PreferenceService interface {
	Create(ctx context.Context, artistID, userID string, interests []string) (*store.FanPreference, error)
	ByArtist(ctx context.Context, artistID string) ([]store.FanPreference, error)
	ByUser(ctx context.Context, userID string) ([]store.FanPreference, error)
	Update(ctx context.Context, artistID, userID string, interests []string) (*store.FanPreference, error)
}

// EventService describes prediction and cost estimation workflows.
type EventService interface {
	Upcoming(ctx context.Context, userID string) (*events.UpcomingResponse, error)
	MultipleCosts(ctx context.Context, userID string, reqs []events.CostRequestEvent) (*events.CostResult, error)
	SaveCost(ctx context.Context, userID, artistID string, result events.CostResult) (*events.SavedCost, error)
	UserCosts(ctx context.Context, userID string) ([]events.SavedCost, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	auth        AuthService
	users       UserService
	artists     ArtistService
	preferences PreferenceService
	events      EventService
}

// New configures a Server with the given services.
func New(
	auth AuthService,
	users UserService,
	artists ArtistService,
	preferences PreferenceService,
	events EventService,
) *Server {
	return &Server{
		auth:        auth,
		users:       users,
		artists:     artists,
		preferences: preferences,
		events:      events,
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/token", s.handleToken)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.handleMe)
	mux.HandleFunc("PUT /api/auth/me", s.handleUpdateMe)

	// Profile routes
	mux.HandleFunc("GET /api/users/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /api/users/profile", s.handleUpdateProfile)

	// Artist routes
	mux.HandleFunc("POST /api/artists", s.handleCreateArtist)
	mux.HandleFunc("GET /api/artists", s.handleListArtists)
	mux.HandleFunc("GET /api/artists/{id}", s.handleGetArtist)
	mux.HandleFunc("PUT /api/artists/{id}", s.handleUpdateArtist)

	// Fan preference routes
	mux.HandleFunc("POST /api/fan-preferences", s.handleCreatePreference)
	mux.HandleFunc("GET /api/fan-preferences/by-artist/{artistID}", s.handlePreferencesByArtist)
	mux.HandleFunc("GET /api/fan-preferences/by-user/{userID}", s.handlePreferencesByUser)
	mux.HandleFunc("PUT /api/fan-preferences/{artistID}/{userID}", s.handleUpdatePreference)

	// Event prediction and cost routes
	mux.HandleFunc("GET /api/events/upcoming", s.handleUpcomingEvents)
	mux.HandleFunc("POST /api/events/multiple-costs", s.handleMultipleCosts)
	mux.HandleFunc("POST /api/events/save-cost", s.handleSaveCost)
	mux.HandleFunc("GET /api/events/user-costs", s.handleUserCosts)

	// Savings routes
	mux.HandleFunc("POST /api/savings/add", s.handleAddSavings)
	mux.HandleFunc("GET /api/savings/history", s.handleSavingsHistory)

	return mux
}

type registerRequest struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	FullName     string `json:"fullName"`
	ProfileImage string `json:"profileImage"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *store.User `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	user, err := s.auth.Register(r.Context(), auth.Registration{
		Email:        req.Email,
		Username:     req.Username,
		Password:     req.Password,
		FullName:     req.FullName,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleToken is the form-encoded OAuth2 style login used by clients
// that speak the password grant shape: username carries the email.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form payload"})
		return
	}

	user, err := s.auth.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	user, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer", User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	updated, err := s.auth.UpdateCurrentUser(r.Context(), user.ID, store.UserPatch{
		Email:                    req.Email,
		Username:                 req.Username,
		FullName:                 req.FullName,
		ProfileImage:             req.ProfileImage,
		Preferences:              req.Preferences,
		Area:                     req.Area,
		ContentInterests:         req.ContentInterests,
		CurrentSavings:           req.CurrentSavings,
		TotalEstimatedExpenses:   req.TotalEstimatedExpenses,
		MonthlySavingsSuggestion: req.MonthlySavingsSuggestion,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	profile, err := s.users.Profile(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type profileUpdateRequest struct {
	Email                    *string                   `json:"email"`
	Username                 *string                   `json:"username"`
	FullName                 *string                   `json:"fullName"`
	ProfileImage             *string                   `json:"profileImage"`
	Preferences              *[]store.ArtistPreference `json:"preferences"`
	Area                     *string                   `json:"area"`
	ContentInterests         *[]string                 `json:"content_interests"`
	CurrentSavings           *int                      `json:"current_savings"`
	TotalEstimatedExpenses   *int                      `json:"total_estimated_expenses"`
	MonthlySavingsSuggestion *int                      `json:"monthly_savings_suggestion"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	updated, err := s.users.UpdateProfile(r.Context(), user.ID, store.UserPatch{
		Email:                    req.Email,
		Username:                 req.Username,
		FullName:                 req.FullName,
		ProfileImage:             req.ProfileImage,
		Preferences:              req.Preferences,
		Area:                     req.Area,
		ContentInterests:         req.ContentInterests,
		CurrentSavings:           req.CurrentSavings,
		TotalEstimatedExpenses:   req.TotalEstimatedExpenses,
		MonthlySavingsSuggestion: req.MonthlySavingsSuggestion,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type artistRequest struct {
	Name         string   `json:"name"`
	Genre        []string `json:"genre"`
	ProfileImage string   `json:"profileImage"`
	Description  string   `json:"description"`
}

func (s *Server) handleCreateArtist(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	var req artistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	artist, err := s.artists.Create(r.Context(), artists.NewArtist{
		Name:         req.Name,
		Genre:        req.Genre,
		ProfileImage: req.ProfileImage,
		Description:  req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, artist)
}

func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	list, err := s.artists.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Artists []store.Artist `json:"artists"`
	}{Artists: list})
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := s.artists.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (s *Server) handleUpdateArtist(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	var req struct {
		Name         *string   `json:"name"`
		Genre        *[]string `json:"genre"`
		ProfileImage *string   `json:"profileImage"`
		Description  *string   `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	artist, err := s.artists.Update(r.Context(), r.PathValue("id"), store.ArtistPatch{
		Name:         req.Name,
		Genre:        req.Genre,
		ProfileImage: req.ProfileImage,
		Description:  req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

type preferenceRequest struct {
	ArtistID  string   `json:"artistId"`
	Interests []string `json:"interests"`
}

func (s *Server) handleCreatePreference(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	pref, err := s.preferences.Create(r.Context(), req.ArtistID, user.ID, req.Interests)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pref)
}

func (s *Server) handlePreferencesByArtist(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	prefs, err := s.preferences.ByArtist(r.Context(), r.PathValue("artistID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Preferences []store.FanPreference `json:"preferences"`
	}{Preferences: prefs})
}

func (s *Server) handlePreferencesByUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if r.PathValue("userID") != user.ID {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "cannot read another user's preferences"})
		return
	}

	prefs, err := s.preferences.ByUser(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Preferences []store.FanPreference `json:"preferences"`
	}{Preferences: prefs})
}

func (s *Server) handleUpdatePreference(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if r.PathValue("userID") != user.ID {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "cannot update another user's preferences"})
		return
	}

	var req struct {
		Interests []string `json:"interests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	pref, err := s.preferences.Update(r.Context(), r.PathValue("artistID"), user.ID, req.Interests)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

func (s *Server) handleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	resp, err := s.events.Upcoming(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMultipleCosts(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Events []events.CostRequestEvent `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	result, err := s.events.MultipleCosts(r.Context(), user.ID, req.Events)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSaveCost(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		ArtistID string            `json:"artistId"`
		Result   events.CostResult `json:"result"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	saved, err := s.events.SaveCost(r.Context(), user.ID, req.ArtistID, req.Result)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUserCosts(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	records, err := s.events.UserCosts(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Costs []events.SavedCost `json:"costs"`
	}{Costs: records})
}

func (s *Server) handleAddSavings(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount int    `json:"amount"`
		Memo   string `json:"memo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	entry, err := s.users.AddSavings(r.Context(), user.ID, req.Amount, req.Memo)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleSavingsHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	history, err := s.users.SavingsHistory(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		History []users.SavingsEntry `json:"history"`
	}{History: history})
}

// authenticate resolves the bearer token on the request. On failure it
// writes the 401 itself and reports ok=false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return nil, false
	}

	user, err := s.auth.CurrentUser(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return user, true
}

// writeError maps service errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, preferences.ErrArtistNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrValidation):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
