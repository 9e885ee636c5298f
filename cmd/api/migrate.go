package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/spec-kit/hms-service/internal/config"
	"github.com/spec-kit/hms-service/internal/observability"
	"github.com/spec-kit/hms-service/internal/persistence"
)

func newMigrateCommand() *cobra.Command {
	var dir string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("missing database: set POSTGRES_DSN")
			}
			if dir == "" {
				dir = cfg.Postgres.MigrationsDir
			}

			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), dir, logger); err != nil {
				return err
			}
			cmd.Printf("Applied migrations from %s\n", dir)
			return nil
		},
	}

	migrateCmd.Flags().StringVar(&dir, "dir", "", "Directory holding .sql migrations. Defaults to POSTGRES_MIGRATIONS_DIR.")
	return migrateCmd
}
