package cmd

import (
	"fmt"

	"practice-service/internal/config"
	"practice-service/internal/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "practice-service",
	Short: "Adaptive practice engine for certification exams",
	Long:  "Selects practice questions from a learner's weak topics, grades answers and tracks per-topic mastery.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to an env file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(progressCmd)
}

// loadConfig reads the configuration and builds the logger. Env values that
// fell back to defaults are reported once the logger exists.
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.HashSalt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	for _, w := range cfg.Warnings {
		log.Warn("configuration fallback", "detail", w)
	}
	return cfg, log, nil
}
