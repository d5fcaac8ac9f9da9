package dal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coinkeep/coinkeep/internal/model"
)

// Goals returns all live goals, newest first.
func (d *DAL) Goals(ctx context.Context) ([]model.Goal, error) {
	rows, err := d.db.RawDB().QueryContext(ctx, `
		SELECT id, name, icon, target, saved, color, created_at, updated_at, synced, deleted
		FROM goals WHERE deleted = 0 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}
	return goals, nil
}

// GoalByID retrieves a single live goal.
// Returns sql.ErrNoRows if the goal is not found or soft-deleted.
func (d *DAL) GoalByID(ctx context.Context, id string) (*model.Goal, error) {
	row := d.db.RawDB().QueryRowContext(ctx, `
		SELECT id, name, icon, target, saved, color, created_at, updated_at, synced, deleted
		FROM goals WHERE id = ? AND deleted = 0`, id)
	return scanGoal(row)
}

// CreateGoal inserts a new goal with zero saved amount.
func (d *DAL) CreateGoal(ctx context.Context, g *model.Goal) error {
	if g.ID == "" {
		g.ID = newID()
	}
	if g.Name == "" {
		return fmt.Errorf("invalid goal: name is required")
	}
	if g.Target <= 0 {
		return fmt.Errorf("invalid goal: target must be positive (got %v)", g.Target)
	}

	now := nowStamp()
	_, err := d.db.RawDB().ExecContext(ctx, `
		INSERT INTO goals (id, name, icon, target, saved, color, created_at, updated_at, synced, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		g.ID, g.Name, g.Icon, g.Target, g.Saved, g.Color, now, now)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}

	g.CreatedAt = parseTime(now)
	g.UpdatedAt = parseTime(now)
	g.Synced = false
	g.Deleted = false
	return nil
}

// UpdateGoalSaved sets the amount saved toward a goal.
func (d *DAL) UpdateGoalSaved(ctx context.Context, id string, saved float64) error {
	_, err := d.db.RawDB().ExecContext(ctx, `
		UPDATE goals SET saved = ?, updated_at = ?, synced = 0 WHERE id = ?`,
		saved, nowStamp(), id)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return nil
}

// DeleteGoal soft-deletes a goal.
func (d *DAL) DeleteGoal(ctx context.Context, id string) error {
	_, err := d.db.RawDB().ExecContext(ctx, `
		UPDATE goals SET deleted = 1, synced = 0, updated_at = ? WHERE id = ?`,
		nowStamp(), id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

func scanGoal(row interface{ Scan(dest ...any) error }) (*model.Goal, error) {
	var g model.Goal
	var createdAt, updatedAt string
	var synced, deleted int
	err := row.Scan(&g.ID, &g.Name, &g.Icon, &g.Target, &g.Saved, &g.Color,
		&createdAt, &updatedAt, &synced, &deleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	g.Synced = synced == 1
	g.Deleted = deleted == 1
	return &g, nil
}
