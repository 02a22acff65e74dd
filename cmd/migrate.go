package cmd

import (
	"context"
	"fmt"
	"time"

	"practice-service/internal/adaptive"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create indexes (mongo) or tables (postgres, sqlite)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		s, err := openStores(ctx, cfg, adaptive.NewManager(&cfg.Engine.Thresholds), log)
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info("migration complete", "driver", cfg.Storage.Driver)
		return nil
	},
}
