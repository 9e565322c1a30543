package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/DiegoVF1391/music-tracker/internal/logging"
	"github.com/DiegoVF1391/music-tracker/internal/store"
)

var (
	defaultStatuses = []string{"Idea", "Writing", "Recording", "Mixing", "Mastering", "Released"}
	defaultGenres   = []string{"Pop", "Rock", "Hip Hop", "Electronic", "R&B", "Folk"}
)

func seed(ctx context.Context, c *cli.Command) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	return seedReferenceData(ctx, backend)
}

// seedReferenceData fills the status and genre tables when they are empty.
func seedReferenceData(ctx context.Context, backend store.Backend) error {
	for entity, names := range map[store.Entity][]string{
		store.Statuses: defaultStatuses,
		store.Genres:   defaultGenres,
	} {
		count, err := backend.Count(ctx, entity, nil)
		if err != nil {
			return fmt.Errorf("count %s: %w", entity, err)
		}
		if count > 0 {
			continue
		}

		for _, name := range names {
			if _, err := backend.Insert(ctx, entity, store.Row{"name": name}); err != nil {
				return fmt.Errorf("seed %s: %w", entity, err)
			}
		}
		logging.WithContext(ctx).Info().Str("entity", string(entity)).Int("rows", len(names)).Msg("Seeded reference data")
	}
	return nil
}
