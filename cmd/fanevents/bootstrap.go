package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fanevents/internal/store"
)

// bootstrapDemoData seeds a starter artist catalogue so a fresh
// in-memory instance is usable immediately. Seeding only runs against
// the in-memory store; a live database manages its own catalogue.
func bootstrapDemoData(ctx context.Context, dataStore store.Store) error {
	if _, ok := dataStore.(*store.Memory); !ok {
		return nil
	}

	now := time.Now().UTC()
	seed := []store.Artist{
		{
			ID:          "artist-glass-harbor",
			Name:        "Glass Harbor",
			Genre:       []string{"J-Pop"},
			Description: "Five-piece pop group touring domestically every spring.",
		},
		{
			ID:          "artist-neon-tide",
			Name:        "Neon Tide",
			Genre:       []string{"K-Pop"},
			Description: "Seoul-based group with an annual fan meeting cycle.",
		},
		{
			ID:          "artist-paper-lanterns",
			Name:        "Paper Lanterns",
			Genre:       []string{"Rock", "Indie"},
			Description: "Indie rock trio known for small-venue album tours.",
		},
	}

	for _, artist := range seed {
		artist.CreatedAt = now
		artist.UpdatedAt = now
		if _, err := dataStore.CreateArtist(ctx, artist); err != nil && !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("seed artist %s: %w", artist.Name, err)
		}
	}
	return nil
}
