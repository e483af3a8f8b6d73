package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peachtree-labs/happyhour/internal/config"
	"github.com/peachtree-labs/happyhour/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "happyhour",
	Short: "Atlanta happy-hour directory",
	Long:  "Maintains a directory of restaurant happy-hour deals: extracts structured deals from photos and text via Claude, matches them against known venues, and serves the public venue list.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore picks the configured backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
