package store

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Open selects the persistence implementation once at startup: the live
// Cosmos DB adapter when both endpoint and key are configured, the
// in-memory store otherwise. There is no runtime switchover. The
// returned Store is handed to services by constructor injection; no
// package-level instance exists.
func Open(ctx context.Context, cfg CosmosConfig) (Store, error) {
	if cfg.Endpoint != "" && cfg.Key != "" {
		return NewCosmos(ctx, cfg)
	}
	log.Info().Msg("Cosmos DB credentials not provided, using in-memory store")
	return NewMemory(), nil
}
