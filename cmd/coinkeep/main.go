package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coinkeep/coinkeep/internal/config"
	"github.com/coinkeep/coinkeep/internal/logger"
	"github.com/coinkeep/coinkeep/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "coinkeep",
	Short: "Offline-first personal finance store with cloud sync",
	Long: `CoinKeep keeps accounts, transactions, budgets, and goals in a local
SQLite database and reconciles them with a cloud backend in the
background. Every command works offline; sync happens when it can.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		logger.SetLevel(cfg.LogLevel)
		if cfg.LogFile != "" {
			logger.SetFile(cfg.LogFile)
		}
		return nil
	},
}

// openStore opens the configured database and brings its schema current.
func openStore(ctx context.Context) (*store.DB, error) {
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
