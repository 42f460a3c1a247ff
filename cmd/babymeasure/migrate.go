package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Long: `Create or upgrade the database schema of the configured store and exit.

Migrations also run on every start, so this is only needed to prepare a
database ahead of a deployment.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		st, err := openStores(cfg.Store)
		if err != nil {
			return err
		}
		logger.Info("schema up to date", zap.String("store", cfg.Store.Driver))
		return st.close()
	},
}
