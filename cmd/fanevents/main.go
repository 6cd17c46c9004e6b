package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"fanevents/internal/logging"
	"fanevents/internal/store"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logging.Setup(logging.Config{})
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logging.Setup(cfg.Logging)

	ctx := context.Background()
	dataStore, err := store.Open(ctx, cfg.Cosmos)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}

	if err := bootstrapDemoData(ctx, dataStore); err != nil {
		log.Fatal().Err(err).Msg("bootstrap demo data")
	}

	handler, err := newHTTPHandler(cfg, dataStore)
	if err != nil {
		log.Fatal().Err(err).Msg("wire services")
	}

	log.Info().Str("addr", cfg.Addr).Msg("API listening")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
