package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/DiegoVF1391/music-tracker/internal/config"
	"github.com/DiegoVF1391/music-tracker/internal/logging"
	"github.com/DiegoVF1391/music-tracker/internal/migrations"
)

var errMemoryMigrate = errors.New("migrations require STORE_DRIVER=postgres")

func migrateUp(_ context.Context, c *cli.Command) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.DriverPostgres {
		return errMemoryMigrate
	}
	if err := migrations.Up(cfg.Database.URL); err != nil {
		return err
	}
	logging.Info("Migrations applied successfully")
	return nil
}

func migrateDown(_ context.Context, c *cli.Command) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.DriverPostgres {
		return errMemoryMigrate
	}
	if err := migrations.Down(cfg.Database.URL); err != nil {
		return err
	}
	logging.Info("Migrations rolled back successfully")
	return nil
}
