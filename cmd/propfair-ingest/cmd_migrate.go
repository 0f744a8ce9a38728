package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lhgjose/propfair/internal/db"
	"github.com/lhgjose/propfair/internal/db/migrations"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(flagConfig)
			if err != nil {
				return err
			}

			log := newLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := connectWithRetry(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
				return err
			}

			log.Info("migrations up to date")

			return nil
		},
	}
}
