// Package model provides the domain entities stored in the local database.
//
// Every syncable entity carries the same reconciliation metadata: a
// client-generated id that is stable across devices (the join key between
// local and remote copies), an updated_at timestamp that is the sole
// ordering signal, a synced flag, and — for entities supporting removal —
// a deleted soft-delete flag.
package model

import (
	"fmt"
	"time"
)

// Account types.
const (
	AccountTypeCash   = "cash"
	AccountTypeBank   = "bank"
	AccountTypeCredit = "credit"
	AccountTypeWallet = "wallet"
)

// Category types.
const (
	CategoryTypeExpense = "expense"
	CategoryTypeIncome  = "income"
)

// Onboarding states stored in UserPreferences.HasOnboarded.
const (
	OnboardingPendingAuth = "pending_auth"
	OnboardingComplete    = "complete"
)

// Account is a money container whose balance is an authoritative running
// total, mutated by transaction creation/removal rather than recomputed
// from a ledger scan.
type Account struct {
	ID        string
	Name      string
	Type      string // cash, bank, credit, wallet
	Balance   float64
	Icon      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Synced    bool
	Deleted   bool
}

// Validate checks if the Account has valid field values.
func (a *Account) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("id is required")
	}
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch a.Type {
	case AccountTypeCash, AccountTypeBank, AccountTypeCredit, AccountTypeWallet:
	default:
		return fmt.Errorf("invalid account type %q", a.Type)
	}
	return nil
}

// Category labels transactions as a kind of expense or income.
type Category struct {
	ID        string
	Name      string
	Icon      string
	Type      string // expense, income
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Synced    bool
	Deleted   bool
}

// Validate checks if the Category has valid field values.
func (c *Category) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Type != CategoryTypeExpense && c.Type != CategoryTypeIncome {
		return fmt.Errorf("invalid category type %q", c.Type)
	}
	return nil
}

// Transaction is a single ledger entry. Amount is signed: positive means
// income, negative means expense. Date is a YYYY-MM-DD string.
type Transaction struct {
	ID         string
	Title      string
	Amount     float64
	Note       string
	Date       string
	CategoryID string
	AccountID  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Synced     bool
	Deleted    bool
}

// TransactionWithCategory joins in the category name and icon for display.
type TransactionWithCategory struct {
	Transaction
	CategoryName string
	CategoryIcon string
}

// Budget is a per-category spending limit for one month (YYYY-MM).
// Spent is derived from transactions on read, never stored.
type Budget struct {
	ID          string
	CategoryID  string
	LimitAmount float64
	Month       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Synced      bool
	Deleted     bool
}

// BudgetWithCategory carries the joined category plus derived spend.
type BudgetWithCategory struct {
	Budget
	CategoryName string
	CategoryIcon string
	Spent        float64
}

// Goal is a savings target.
type Goal struct {
	ID        string
	Name      string
	Icon      string
	Target    float64
	Saved     float64
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Synced    bool
	Deleted   bool
}

// MonthlyBudget is the overall budget for one calendar month; one row per
// month. Lookups fall back to the most recent prior month so budgets carry
// forward until changed.
type MonthlyBudget struct {
	ID        string
	Month     string // YYYY-MM, unique
	Budget    float64
	CreatedAt time.Time
	UpdatedAt time.Time
	Synced    bool
	Deleted   bool
}

// UserPreferences is the single-row preferences entity. It has no delete
// concept; sync reconciles it by explicit merge (local-unsynced wins).
type UserPreferences struct {
	ID                   string
	Email                string
	Currency             string
	OverallBalance       float64
	TrackIncome          bool
	NotificationsEnabled bool
	DailyReminder        bool
	WeeklyReport         bool
	SyncEnabled          bool
	HasOnboarded         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Synced               bool
}

// Setting is one key/value pair in the generic settings table. Settings
// have no delete concept, only overwrite.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
	Synced    bool
}

// CategoryBreakdown is the per-category share of one month's spending.
type CategoryBreakdown struct {
	Name    string
	Icon    string
	Amount  float64
	Percent int
}

// DailySpending is the spend total for one day.
type DailySpending struct {
	Day    string
	Amount float64
}
