package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Bring the local database schema up to the current version.

Migrations are versioned and recorded in a ledger table; re-running this
command is always safe. Each migration applies atomically — a failure
rolls back and leaves the schema at the last good version.`,
	Run: func(cmd *cobra.Command, args []string) {
		db, err := openStore(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error migrating database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		fmt.Printf("Database at %s is up to date\n", db.Path())
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert default settings, categories, and preferences",
	Long: `Populate a fresh database with its defaults: the currency setting,
the singleton preferences row, and the starter category set. Existing
rows are never touched; re-running is a no-op.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Seed(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding defaults: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Defaults seeded")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
