package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coinkeep/coinkeep/internal/connectivity"
	"github.com/coinkeep/coinkeep/internal/store"
	"github.com/coinkeep/coinkeep/internal/sync"
)

var (
	syncUser    string
	pullReplace bool
)

// newEngine wires an engine against the configured backend for a one-shot
// command. No connectivity monitor: CLI invocations assume the network is
// there and report the failure if it is not.
func newEngine(db *store.DB, userID string) *sync.Engine {
	client := sync.NewHTTPClient(cfg.RemoteURL)
	opts := sync.DefaultOptions()
	opts.Interval = cfg.SyncInterval
	opts.CallTimeout = cfg.HTTPTimeout
	return sync.New(db, client, userID, opts)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending local changes to the cloud",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		before, err := pendingCount(cmd, db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting pending rows: %v\n", err)
			os.Exit(1)
		}
		if before == 0 {
			fmt.Println("Nothing to sync")
			return
		}

		newEngine(db, syncUser).SyncNow(ctx)

		after, err := pendingCount(cmd, db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting pending rows: %v\n", err)
			os.Exit(1)
		}
		if after > 0 {
			fmt.Fprintf(os.Stderr, "Sync incomplete: %d of %d rows still pending\n", after, before)
			os.Exit(1)
		}
		fmt.Printf("Synced %d rows\n", before)
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the cloud snapshot into the local database",
	Long: `Fetch the account's complete cloud snapshot and fold it into the
local database. By default remote rows only fill gaps; rows that already
exist locally are left alone. With --replace the local data tables are
wiped first and the cloud copy wins wholesale.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if newEngine(db, syncUser).PullFromCloud(ctx, pullReplace) {
			fmt.Println("Pull applied")
			return
		}
		fmt.Println("No cloud data")
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run background sync until interrupted",
	Long: `Start the connectivity monitor and the sync engine, then block.
Pending changes are pushed every interval while the network is reachable
and immediately when connectivity returns. Ctrl-C stops cleanly; any push
in flight completes first.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		monitor := connectivity.New(connectivity.Options{
			Probe:    connectivity.TCPProbe(cfg.ProbeAddr, cfg.HTTPTimeout),
			Interval: cfg.ProbeInterval,
		})
		monitor.Start(ctx)
		defer monitor.Stop()

		client := sync.NewHTTPClient(cfg.RemoteURL)
		opts := sync.DefaultOptions()
		opts.Interval = cfg.SyncInterval
		opts.CallTimeout = cfg.HTTPTimeout
		opts.Monitor = monitor

		engine := sync.New(db, client, syncUser, opts)
		engine.Start(ctx)
		defer engine.Stop()

		fmt.Printf("Syncing every %s, Ctrl-C to stop\n", cfg.SyncInterval)
		<-ctx.Done()
		fmt.Println("\nShutting down")
	},
}

// pendingCount totals unsynced rows across every syncable table.
func pendingCount(cmd *cobra.Command, db *store.DB) (int, error) {
	total := 0
	for _, table := range []string{
		"accounts", "categories", "transactions", "budgets", "goals",
		"monthly_budgets", "settings", "user_preferences",
	} {
		n, err := db.CountWhere(cmd.Context(), table, "synced = 0")
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func init() {
	for _, c := range []*cobra.Command{syncCmd, pullCmd, daemonCmd} {
		c.Flags().StringVar(&syncUser, "user", "", "user id the cloud data is scoped to")
		c.MarkFlagRequired("user")
		rootCmd.AddCommand(c)
	}
	pullCmd.Flags().BoolVar(&pullReplace, "replace", false, "wipe local data tables before applying the snapshot")
}
