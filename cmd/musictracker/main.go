package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/DiegoVF1391/music-tracker/internal/config"
	"github.com/DiegoVF1391/music-tracker/internal/logging"
)

func main() {
	app := &cli.Command{
		Name:  "musictracker",
		Usage: "Track songs from first idea to release",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
				Sources: cli.EnvVars("CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file loaded before reading the environment",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Apply or roll back the database schema",
				Commands: []*cli.Command{
					{Name: "up", Usage: "Apply pending migrations", Action: migrateUp},
					{Name: "down", Usage: "Roll back all migrations", Action: migrateDown},
				},
			},
			{
				Name:   "seed",
				Usage:  "Insert default statuses and genres into empty tables",
				Action: seed,
			},
		},
		Action: serve,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logging.Error(err, "musictracker failed")
		os.Exit(1)
	}
}

// setup loads configuration and installs the global logger.
func setup(c *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, err
	}

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}))
	return cfg, nil
}
