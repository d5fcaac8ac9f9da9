// Package dal is the data access layer: the only code besides migrations
// and the sync engine permitted to read or write the local store.
//
// Two rules hold for every method here:
//   - every mutation marks the row synced=0 and re-stamps updated_at, so
//     the sync engine picks it up on the next push;
//   - every entity read filters out soft-deleted rows.
package dal

import (
	"database/sql"
	"time"

	"github.com/coinkeep/coinkeep/internal/store"
	"github.com/google/uuid"
)

// DAL provides database operations over the local store.
type DAL struct {
	db *store.DB
}

// New creates a DAL backed by the given store.
func New(db *store.DB) *DAL {
	return &DAL{db: db}
}

// Store returns the underlying store. Used by the sync engine and tests.
func (d *DAL) Store() *store.DB {
	return d.db
}

// nowStamp returns the timestamp written to created_at/updated_at columns.
// Nanosecond precision keeps rapid successive writes distinguishable, which
// the push race guard depends on.
func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// newID generates a client-side id, stable across devices once created.
func newID() string {
	return uuid.NewString()
}

// timeFormats are the layouts found in timestamp columns: DAL writes
// RFC3339Nano, SQLite column defaults produce datetime('now').
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTime parses a stored timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// nullString converts a nullable column to its string value.
func nullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
