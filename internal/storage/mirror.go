// Package storage is the local SQLite mirror of the remote collections.
// It exists for offline review and to make month-rollover archival
// idempotent across restarts; the server stays authoritative.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"ganhos/internal/core"

	_ "modernc.org/sqlite"
)

type Mirror struct {
	db *sql.DB
}

// NewMirror opens (and migrates) the local database at dbPath.
func NewMirror(dbPath string) (*Mirror, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Mirror{db: db}, nil
}

func (m *Mirror) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// UpsertRevenue writes or replaces one revenue row.
func (m *Mirror) UpsertRevenue(ctx context.Context, r core.Revenue) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO revenues
			(id, user_id, amount, date, description, platform, hours_worked, kilometers_ridden, trips_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Amount.String(), r.Date, r.Description, string(r.Platform),
		r.HoursWorked.String(), r.KilometersRidden.String(), r.TripsCount, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert revenue: %w", err)
	}
	return nil
}

// DeleteRevenue removes one revenue row. Missing rows are fine.
func (m *Mirror) DeleteRevenue(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM revenues WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete revenue: %w", err)
	}
	return nil
}

// UpsertExpense writes or replaces one expense row.
func (m *Mirror) UpsertExpense(ctx context.Context, e core.Expense) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO expenses
			(id, user_id, amount, date, description, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount.String(), e.Date, e.Description, string(e.Category), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert expense: %w", err)
	}
	return nil
}

// DeleteExpense removes one expense row.
func (m *Mirror) DeleteExpense(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ReplaceAll swaps the full mirrored collections in one transaction,
// reconciling the mirror with a fresh server load.
func (m *Mirror) ReplaceAll(ctx context.Context, revenues []core.Revenue, expenses []core.Expense) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM revenues`); err != nil {
		return fmt.Errorf("clear revenues: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}

	for _, r := range revenues {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO revenues
				(id, user_id, amount, date, description, platform, hours_worked, kilometers_ridden, trips_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.UserID, r.Amount.String(), r.Date, r.Description, string(r.Platform),
			r.HoursWorked.String(), r.KilometersRidden.String(), r.TripsCount, r.CreatedAt, r.UpdatedAt); err != nil {
			return fmt.Errorf("insert revenue %s: %w", r.ID, err)
		}
	}
	for _, e := range expenses {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expenses
				(id, user_id, amount, date, description, category, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.Amount.String(), e.Date, e.Description, string(e.Category), e.CreatedAt, e.UpdatedAt); err != nil {
			return fmt.Errorf("insert expense %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}

	slog.InfoContext(ctx, "Mirror reconciled",
		"revenues", len(revenues),
		"expenses", len(expenses))
	return nil
}

// ListRevenues returns mirrored revenues with dates inside [start, end]
// inclusive, ordered by date.
func (m *Mirror) ListRevenues(ctx context.Context, start, end string) ([]core.Revenue, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, amount, date, description, platform, hours_worked, kilometers_ridden, trips_count, created_at, updated_at
		FROM revenues WHERE date >= ? AND date <= ? ORDER BY date, id`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list revenues: %w", err)
	}
	defer rows.Close()

	var out []core.Revenue
	for rows.Next() {
		var (
			r                    core.Revenue
			amount, hours, km    string
			platform             string
			createdAt, updatedAt sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.UserID, &amount, &r.Date, &r.Description, &platform,
			&hours, &km, &r.TripsCount, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan revenue: %w", err)
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse revenue amount %q: %w", amount, err)
		}
		if r.HoursWorked, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("parse hours %q: %w", hours, err)
		}
		if r.KilometersRidden, err = decimal.NewFromString(km); err != nil {
			return nil, fmt.Errorf("parse kilometers %q: %w", km, err)
		}
		r.Platform = core.Platform(platform)
		r.CreatedAt = createdAt.Time
		r.UpdatedAt = updatedAt.Time
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListExpenses returns mirrored expenses with dates inside [start, end]
// inclusive, ordered by date.
func (m *Mirror) ListExpenses(ctx context.Context, start, end string) ([]core.Expense, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, amount, date, description, category, created_at, updated_at
		FROM expenses WHERE date >= ? AND date <= ? ORDER BY date, id`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e                    core.Expense
			amount, category     string
			createdAt, updatedAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.UserID, &amount, &e.Date, &e.Description, &category, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse expense amount %q: %w", amount, err)
		}
		e.Category = core.Category(category)
		e.CreatedAt = createdAt.Time
		e.UpdatedAt = updatedAt.Time
		out = append(out, e)
	}
	return out, rows.Err()
}

// MonthRevenueTotal sums mirrored revenue amounts for a YYYY-MM month.
func (m *Mirror) MonthRevenueTotal(ctx context.Context, month string) (decimal.Decimal, error) {
	revenues, err := m.ListRevenues(ctx, month+"-01", month+"-31")
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range revenues {
		total = total.Add(r.Amount)
	}
	return total, nil
}

// IsMonthArchived reports whether a goal archive row exists for month.
func (m *Mirror) IsMonthArchived(ctx context.Context, month string) (bool, error) {
	var got string
	err := m.db.QueryRowContext(ctx, `SELECT month FROM goal_archive WHERE month = ?`, month).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check goal archive: %w", err)
	}
	return true, nil
}

// MarkMonthArchived records the rollover and stores the history entry.
func (m *Mirror) MarkMonthArchived(ctx context.Context, entry core.GoalHistoryEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO goal_archive (month, archived_at) VALUES (?, ?)`,
		entry.Month, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert goal archive: %w", err)
	}

	achieved := 0
	if entry.Achieved {
		achieved = 1
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO goal_history
			(id, month, target_amount, achieved_amount, percentage, achieved, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Month, entry.TargetAmount.String(), entry.AchievedAmount.String(),
		entry.Percentage.String(), achieved, entry.UserID, entry.CreatedAt, entry.UpdatedAt); err != nil {
		return fmt.Errorf("insert goal history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}

	slog.InfoContext(ctx, "Goal archive persisted", "month", entry.Month, "achieved", entry.Achieved)
	return nil
}

// ListHistory returns archived goal outcomes, most recent month first.
func (m *Mirror) ListHistory(ctx context.Context) ([]core.GoalHistoryEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, month, target_amount, achieved_amount, percentage, achieved, user_id, created_at, updated_at
		FROM goal_history ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list goal history: %w", err)
	}
	defer rows.Close()

	var out []core.GoalHistoryEntry
	for rows.Next() {
		var (
			e                        core.GoalHistoryEntry
			target, achievedAmt, pct string
			achieved                 int
			createdAt, updatedAt     sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.Month, &target, &achievedAmt, &pct, &achieved, &e.UserID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan goal history: %w", err)
		}
		if e.TargetAmount, err = decimal.NewFromString(target); err != nil {
			return nil, fmt.Errorf("parse target %q: %w", target, err)
		}
		if e.AchievedAmount, err = decimal.NewFromString(achievedAmt); err != nil {
			return nil, fmt.Errorf("parse achieved %q: %w", achievedAmt, err)
		}
		if e.Percentage, err = decimal.NewFromString(pct); err != nil {
			return nil, fmt.Errorf("parse percentage %q: %w", pct, err)
		}
		e.Achieved = achieved != 0
		e.CreatedAt = createdAt.Time
		e.UpdatedAt = updatedAt.Time
		out = append(out, e)
	}
	return out, rows.Err()
}
