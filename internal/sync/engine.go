package sync

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/coinkeep/coinkeep/internal/logger"
	"github.com/coinkeep/coinkeep/internal/store"
	"github.com/rs/zerolog"
)

// Reachability reports network state. The connectivity monitor implements
// it; tests substitute their own.
type Reachability interface {
	// Online reports current reachability with an immediate check.
	Online(ctx context.Context) bool

	// Subscribe returns a channel receiving the new state on every
	// transition, plus a cancel func releasing the subscription.
	Subscribe() (<-chan bool, func())
}

// Options configures an Engine.
type Options struct {
	// Interval between periodic push attempts while online.
	Interval time.Duration

	// CallTimeout is the deadline applied to every network call. A hung
	// request is abandoned at the deadline and retried on the next tick.
	CallTimeout time.Duration

	// Monitor provides reachability. Nil means assume always online
	// (useful for one-shot CLI pushes and tests).
	Monitor Reachability

	// Logger for engine activity. Nil uses the global logger.
	Logger *zerolog.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Interval:    30 * time.Second,
		CallTimeout: 15 * time.Second,
	}
}

// Engine reconciles the local store with the cloud for one user identity.
// An engine is bound to its user id for its whole lifetime; sign-out
// discards the instance.
type Engine struct {
	db     *store.DB
	client CloudClient
	userID string
	opts   Options
	log    zerolog.Logger

	// mu serializes every store-affecting sync operation: at most one
	// push in flight, and pull can never interleave with push.
	mu sync.Mutex

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates an Engine for the given user.
//
// The store must be migrated before the engine touches it. The engine never
// owns the store; callers keep responsibility for Close.
func New(db *store.DB, client CloudClient, userID string, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions().Interval
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultOptions().CallTimeout
	}
	log := logger.Log
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Engine{
		db:     db,
		client: client,
		userID: userID,
		opts:   opts,
		log:    log.With().Str("component", "sync").Logger(),
	}
}

// UserID returns the identity this engine is bound to.
func (e *Engine) UserID() string {
	return e.userID
}

// Start begins background syncing: one immediate reachability check and
// push, a push on every offline-to-online transition, and a push every
// interval tick while online. Returns immediately; work happens on
// goroutines until Stop.
func (e *Engine) Start(ctx context.Context) {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	if e.cancel != nil {
		return // already started
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	var transitions <-chan bool
	unsubscribe := func() {}
	if e.opts.Monitor != nil {
		transitions, unsubscribe = e.opts.Monitor.Subscribe()
	}

	// Pushes run on a context that survives Stop: a batch the cloud has
	// acknowledged must finish its synced-marking, or acknowledged rows
	// are left at synced=0. Stop only ends the loop below; the call
	// timeout still bounds a hung request.
	pushCtx := context.WithoutCancel(runCtx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer unsubscribe()

		// Immediately check and sync
		if e.online(runCtx) {
			e.SyncNow(pushCtx)
		}

		ticker := time.NewTicker(e.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return

			case online, ok := <-transitions:
				if !ok {
					transitions = nil
					continue
				}
				if online {
					e.SyncNow(pushCtx)
				}

			case <-ticker.C:
				if e.online(runCtx) {
					e.SyncNow(pushCtx)
				}
			}
		}
	}()

	e.log.Info().Str("user", e.userID).Msg("sync engine started")
}

// Stop cancels the timer and connectivity subscription. A push already in
// flight completes, so no row is left in an ambiguous synced state.
// Idempotent.
func (e *Engine) Stop() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	if e.cancel == nil {
		return
	}
	e.cancel()
	e.cancel = nil
	e.wg.Wait()
	e.log.Info().Str("user", e.userID).Msg("sync engine stopped")
}

// online reports reachability, assuming online when no monitor is wired.
func (e *Engine) online(ctx context.Context) bool {
	if e.opts.Monitor == nil {
		return true
	}
	return e.opts.Monitor.Online(ctx)
}

// SyncNow attempts one push. If a push is already in flight for this
// engine the call is a no-op — overlapping pushes would race on the same
// unsynced-row snapshot. Errors never escape: a failed push leaves every
// affected row synced=0 for automatic retry on the next trigger.
func (e *Engine) SyncNow(ctx context.Context) {
	if !e.mu.TryLock() {
		return
	}
	defer e.mu.Unlock()

	if err := e.push(ctx); err != nil {
		e.log.Warn().Err(err).Msg("push failed")
	}
}

// push collects dirty rows, uploads them in one batch, then marks exactly
// the pushed row versions synced and purges confirmed soft-deletes.
// Caller holds e.mu.
func (e *Engine) push(ctx context.Context) error {
	batch, marks, err := e.collectBatch(ctx)
	if err != nil {
		return err
	}
	if batch.Size() == 0 {
		return nil // nothing dirty, no network call
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	if err := e.client.PushBatch(callCtx, batch); err != nil {
		return fmt.Errorf("failed to push batch of %d: %w", batch.Size(), err)
	}

	// Mark only the exact row versions we pushed. The updated_at condition
	// keeps a row that changed between batch-read and acknowledgment at
	// synced=0 so the newer version is resent.
	for _, m := range marks {
		query := fmt.Sprintf("UPDATE %s SET synced = 1 WHERE %s = ? AND updated_at = ?",
			m.table, m.keyCol)
		if _, err := e.db.RawDB().ExecContext(ctx, query, m.key, m.updatedAt); err != nil {
			return fmt.Errorf("failed to mark %s row synced: %w", m.table, err)
		}
	}

	// Purge soft-deleted rows the cloud has acknowledged. Children first
	// so foreign keys stay satisfied.
	for _, table := range []string{
		"transactions", "budgets", "goals", "monthly_budgets", "categories", "accounts",
	} {
		if _, err := e.db.RawDB().ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE deleted = 1 AND synced = 1", table)); err != nil {
			return fmt.Errorf("failed to purge %s: %w", table, err)
		}
	}

	e.log.Debug().Int("records", batch.Size()).Msg("push complete")
	return nil
}

// markRef identifies one pushed row version for conditional synced marking.
type markRef struct {
	table     string
	keyCol    string
	key       string
	updatedAt string
}

// collectBatch reads every synced=0 row across all syncable tables.
func (e *Engine) collectBatch(ctx context.Context) (*Batch, []markRef, error) {
	batch := &Batch{UserID: e.userID}
	var marks []markRef

	// collect runs one unsynced-rows query; the scan callback appends the
	// wire record to the batch and returns the mark for conditional
	// synced-setting after acknowledgment.
	collect := func(table, query string, scan func(*sql.Rows) (markRef, error)) error {
		rows, err := e.db.RawDB().QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to query unsynced %s: %w", table, err)
		}
		defer rows.Close()
		for rows.Next() {
			m, err := scan(rows)
			if err != nil {
				return fmt.Errorf("failed to scan unsynced %s row: %w", table, err)
			}
			marks = append(marks, m)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating unsynced %s: %w", table, err)
		}
		return nil
	}

	err := collect("accounts",
		"SELECT id, name, type, balance, icon, updated_at, deleted FROM accounts WHERE synced = 0",
		func(rows *sql.Rows) (markRef, error) {
			var r AccountRecord
			var deleted int
			if err := rows.Scan(&r.LocalID, &r.Name, &r.Type, &r.Balance, &r.Icon, &r.UpdatedAt, &deleted); err != nil {
				return markRef{}, err
			}
			r.Deleted = deleted == 1
			batch.Accounts = append(batch.Accounts, r)
			return markRef{"accounts", "id", r.LocalID, r.UpdatedAt}, nil
		})
	if err != nil {
		return nil, nil, err
	}

	err = collect("categories",
		"SELECT id, name, icon, type, color, updated_at, deleted FROM categories WHERE synced = 0",
		func(rows *sql.Rows) (markRef, error) {
			var r CategoryRecord
			var deleted int
			if err := rows.Scan(&r.LocalID, &r.Name, &r.Icon, &r.Type, &r.Color, &r.UpdatedAt, &deleted); err != nil {
				return markRef{}, err
			}
			r.Deleted = deleted == 1
			batch.Categories = append(batch.Categories, r)
			return markRef{"categories", "id", r.LocalID, r.UpdatedAt}, nil
		})
	if err != nil {
		return nil, nil, err
	}

	err = collect("transactions",
		"SELECT id, title, amount, note, date, category_id, account_id, updated_at, deleted FROM transactions WHERE synced = 0",
		func(rows *sql.Rows) (markRef, error) {
			var r TransactionRecord
			var deleted int
			if err := rows.Scan(&r.LocalID, &r.Title, &r.Amount, &r.Note, &r.Date,
				&r.CategoryLocalID, &r.AccountLocalID, &r.UpdatedAt, &deleted); err != nil {
				return markRef{}, err
			}
			r.Deleted = deleted == 1
			batch.Transactions = append(batch.Transactions, r)
			return markRef{"transactions", "id", r.LocalID, r.UpdatedAt}, nil
		})
	if err != nil {
		return nil, nil, err
	}

	err = collect("budgets",
		"SELECT id, category_id, limit_amount, month, updated_at, deleted FROM budgets WHERE synced = 0",
		func(rows *sql.Rows) (markRef, error) {
			var r BudgetRecord
			var deleted int
			if err := rows.Scan(&r.LocalID, &r.CategoryLocalID, &r.LimitAmount, &r.Month, &r.UpdatedAt, &deleted); err != nil {
				return markRef{}, err
			}
			r.Deleted = deleted == 1
			batch.Budgets = append(batch.Budgets, r)
			return markRef{"budgets", "id", r.LocalID, r.UpdatedAt}, nil
		})
	if err != nil {
		return nil, nil, err
	}

	err = collect("goals",
		"SELECT id, name, icon, target, saved, color, updated_at, deleted FROM goals WHERE synced = 0",
		func(rows *sql.Rows) (markRef, error) {
			var r GoalRecord
			var deleted int
			if err := rows.Scan(&r.LocalID, &r.Name, &r.Icon, &r.Target, &r.Saved, &r.Color, &r.UpdatedAt, &deleted); err != nil {
				return markRef{}, err
			}
			r.Deleted = deleted == 1
			batch.Goals = append(batch.Goals, r)
			return markRef{"goals", "id", r.LocalID, r.UpdatedAt}, nil
		})
	if err != nil {
		return nil, nil, err
	}

	err = collect("monthly_budgets",
		"SELECT id, month, budget, updated_at, deleted FROM monthly_budgets WHERE synced = 0",
		func(rows *sql.Rows) (markRef, error) {
			var r MonthlyBudgetRecord
			var deleted int
			if err := rows.Scan(&r.LocalID, &r.Month, &r.Budget, &r.UpdatedAt, &deleted); err != nil {
				return markRef{}, err
			}
			r.Deleted = deleted == 1
			batch.MonthlyBudgets = append(batch.MonthlyBudgets, r)
			return markRef{"monthly_budgets", "id", r.LocalID, r.UpdatedAt}, nil
		})
	if err != nil {
		return nil, nil, err
	}

	err = collect("settings",
		"SELECT key, value, updated_at FROM settings WHERE synced = 0",
		func(rows *sql.Rows) (markRef, error) {
			var r SettingRecord
			if err := rows.Scan(&r.Key, &r.Value, &r.UpdatedAt); err != nil {
				return markRef{}, err
			}
			batch.Settings = append(batch.Settings, r)
			return markRef{"settings", "key", r.Key, r.UpdatedAt}, nil
		})
	if err != nil {
		return nil, nil, err
	}

	prefs, prefsMark, err := e.collectPreferences(ctx)
	if err != nil {
		return nil, nil, err
	}
	if prefs != nil {
		batch.UserPreferences = prefs
		marks = append(marks, prefsMark)
	}

	return batch, marks, nil
}

// collectPreferences reads the singleton preferences row when unsynced.
func (e *Engine) collectPreferences(ctx context.Context) (*PreferencesRecord, markRef, error) {
	row := e.db.RawDB().QueryRowContext(ctx, `
		SELECT id, COALESCE(email, ''), currency, overall_balance, track_income,
		       notifications_enabled, daily_reminder, weekly_report, sync_enabled,
		       COALESCE(has_onboarded, ''), updated_at
		FROM user_preferences WHERE synced = 0 LIMIT 1`)

	var r PreferencesRecord
	var trackIncome, notifications, daily, weekly, syncEnabled int
	err := row.Scan(&r.LocalID, &r.Email, &r.Currency, &r.OverallBalance, &trackIncome,
		&notifications, &daily, &weekly, &syncEnabled, &r.HasOnboarded, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, markRef{}, nil
	}
	if err != nil {
		return nil, markRef{}, fmt.Errorf("failed to scan unsynced preferences: %w", err)
	}

	r.TrackIncome = trackIncome == 1
	r.NotificationsEnabled = notifications == 1
	r.DailyReminder = daily == 1
	r.WeeklyReport = weekly == 1
	r.SyncEnabled = syncEnabled == 1
	return &r, markRef{"user_preferences", "id", r.LocalID, r.UpdatedAt}, nil
}
