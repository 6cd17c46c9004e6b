package main

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"fanevents/internal/app/artists"
	"fanevents/internal/app/auth"
	"fanevents/internal/app/events"
	"fanevents/internal/app/preferences"
	"fanevents/internal/app/users"
	"fanevents/internal/httpapi"
	"fanevents/internal/llm"
	"fanevents/internal/middleware"
	"fanevents/internal/store"
)

func newHTTPHandler(cfg Config, dataStore store.Store) (http.Handler, error) {
	authSvc, err := auth.New(dataStore, cfg.JWTSecret, cfg.TokenExpiry)
	if err != nil {
		return nil, err
	}
	userSvc := users.New(dataStore)
	artistSvc := artists.New(dataStore)
	preferenceSvc := preferences.New(dataStore)
	eventSvc := events.New(dataStore, newCompleter(cfg))

	handler := httpapi.New(authSvc, userSvc, artistSvc, preferenceSvc, eventSvc).Routes()
	handler = middleware.RequestLogging(handler)
	handler = middleware.Recovery(handler)
	return withCORS(cfg.AllowedOrigins, handler), nil
}

// newCompleter returns nil when no model endpoint is configured; the
// event service then serves every estimate from its fallback tables.
func newCompleter(cfg Config) events.Completer {
	if cfg.LLMEndpoint == "" {
		log.Info().Msg("model endpoint not provided, predictions disabled")
		return nil
	}
	log.Info().Str("deployment", cfg.LLMDeployment).Msg("completion client initialized")
	return llm.NewClient(cfg.LLMEndpoint, cfg.LLMDeployment, cfg.LLMAPIKey)
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	originAllowed := func(origin string) bool {
		if len(allowedOrigins) == 0 || origin == "" {
			return false
		}
		for _, o := range allowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
