package main

import (
	"apply-agent/internal/application/port/output"
	"apply-agent/internal/di"
	"apply-agent/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

var (
	envDir     string
	dbPath     string
	envService *env.EnvService
)

var rootCmd = &cobra.Command{
	Use:          "applier",
	Short:        "Discover, score, fill and submit job applications in a real browser.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envService = env.NewEnvService(envDir)
		if dbPath == "" {
			dbPath = envService.GetString("APPLIER_DB", "data/applier.db")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envDir, "env-dir", ".", "Directory holding .env and .env.$APP_ENV")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite DB, or :memory: (default $APPLIER_DB or data/applier.db)")
}

func containerConfig() di.Config {
	cfg := di.ConfigFromEnv(envService)
	cfg.DBPath = dbPath
	return cfg
}

func openStore() (output.TaskStore, error) {
	return di.OpenStore(dbPath)
}
