package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kou-oishi/Elogbook-Backend/internal/config"
	"github.com/kou-oishi/Elogbook-Backend/internal/db"
	"github.com/kou-oishi/Elogbook-Backend/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			logger.Info("migrations complete", slog.String("driver", cfg.DB.Driver))
			return nil
		},
	}
}
