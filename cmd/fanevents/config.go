package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fanevents/internal/logging"
	"fanevents/internal/store"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	Addr           string
	AllowedOrigins []string
	Logging        logging.Config
	Cosmos         store.CosmosConfig
	JWTSecret      string
	TokenExpiry    time.Duration
	LLMEndpoint    string
	LLMDeployment  string
	LLMAPIKey      string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	cfg := Config{
		Addr:           fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		AllowedOrigins: parseAllowedOrigins(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		Logging: logging.Config{
			Level:  envOrDefault("LOG_LEVEL", "info"),
			Format: envOrDefault("LOG_FORMAT", "json"),
		},
		Cosmos: store.CosmosConfig{
			Endpoint: os.Getenv("AZURE_COSMOS_DB_ENDPOINT"),
			Key:      os.Getenv("AZURE_COSMOS_DB_KEY"),
			Database: envOrDefault("AZURE_COSMOS_DB_DATABASE", "fan_events"),
		},
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LLMEndpoint:   os.Getenv("LLM_ENDPOINT"),
		LLMDeployment: os.Getenv("LLM_DEPLOYMENT"),
		LLMAPIKey:     os.Getenv("LLM_API_KEY"),
	}

	expireMinutes, err := strconv.Atoi(envOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", "30"))
	if err != nil {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
	}
	cfg.TokenExpiry = time.Duration(expireMinutes) * time.Minute

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would run insecurely or half-wired.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET env var is required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if (c.Cosmos.Endpoint == "") != (c.Cosmos.Key == "") {
		return errors.New("AZURE_COSMOS_DB_ENDPOINT and AZURE_COSMOS_DB_KEY must be set together")
	}
	if c.LLMEndpoint != "" && (c.LLMDeployment == "" || c.LLMAPIKey == "") {
		return errors.New("LLM_ENDPOINT requires LLM_DEPLOYMENT and LLM_API_KEY")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseAllowedOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	var origins []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
