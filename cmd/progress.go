package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"practice-service/internal/adaptive"
	"practice-service/internal/service"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Print a learner's mastery records as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		certification, _ := cmd.Flags().GetString("certification")
		if userID == "" {
			return fmt.Errorf("--user is required")
		}

		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		policy := adaptive.NewManager(&cfg.Engine.Thresholds)
		s, err := openStores(ctx, cfg, policy, log)
		if err != nil {
			return err
		}
		defer s.close()

		progress := service.NewProgressService(s.mastery, s.catalog, newPoolManager(s, policy, log), policy)
		report, err := progress.Progress(ctx, userID, certification)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	progressCmd.Flags().String("user", "", "Learner id")
	progressCmd.Flags().String("certification", "", "Limit to one certification's topics")
}
