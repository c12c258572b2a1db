package main

// Check storage and database connectivity:
//   go run ./cmd/conncheck [storage|db]

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"image-gateway/internal/bootstrap"
	"image-gateway/internal/conncheck"
	"image-gateway/internal/shared/config"
	"image-gateway/internal/shared/storage/db"
)

var rootCmd = &cobra.Command{
	Use:          "conncheck",
	Short:        "Verify object storage and database connectivity",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := storageCmd.RunE(cmd, args); err != nil {
			return err
		}
		return dbCmd.RunE(cmd, args)
	},
}

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Write, sign and remove a probe object in the images bucket",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		store, err := bootstrap.BuildStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer bootstrap.CloseStore(store)
		return conncheck.Storage(cmd.Context(), store, cfg.ImagesBucket, cmd.OutOrStdout())
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Ping the database and count gateway rows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		sqlDB, err := db.Connect(cmd.Context(), cfg.DatabaseURL, db.CLIOptions(cfg.DB))
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return conncheck.Database(cmd.Context(), sqlDB, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(storageCmd, dbCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("connectivity check failed", "error", err)
		os.Exit(1)
	}
}
