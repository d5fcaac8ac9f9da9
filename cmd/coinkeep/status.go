package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coinkeep/coinkeep/internal/dal"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local database and sync state",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		fmt.Printf("Database: %s\n\n", db.Path())

		tables := []string{
			"accounts", "categories", "transactions", "budgets",
			"goals", "monthly_budgets", "settings",
		}
		fmt.Printf("%-16s %8s %8s %8s\n", "TABLE", "ROWS", "PENDING", "DELETED")
		for _, table := range tables {
			total, err := db.CountWhere(ctx, table, "")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error counting %s: %v\n", table, err)
				os.Exit(1)
			}
			pending, err := db.CountWhere(ctx, table, "synced = 0")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error counting %s: %v\n", table, err)
				os.Exit(1)
			}
			deleted := 0
			if table != "settings" {
				deleted, err = db.CountWhere(ctx, table, "deleted = 1")
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error counting %s: %v\n", table, err)
					os.Exit(1)
				}
			}
			fmt.Printf("%-16s %8d %8d %8d\n", table, total, pending, deleted)
		}

		d := dal.New(db)
		prefs, err := d.UserPreferences(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading preferences: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()
		if prefs == nil {
			fmt.Println("Preferences: not seeded")
			return
		}
		onboarded := prefs.HasOnboarded
		if onboarded == "" {
			onboarded = "not started"
		}
		fmt.Printf("Currency:   %s\n", prefs.Currency)
		fmt.Printf("Onboarding: %s\n", onboarded)
		if prefs.Email != "" {
			fmt.Printf("Account:    %s\n", prefs.Email)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
