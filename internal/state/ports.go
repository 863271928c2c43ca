package state

import (
	"context"

	"ganhos/internal/api"
	"ganhos/internal/core"
)

// Remote is the slice of the API client the store depends on.
// *api.Client satisfies it; tests plug in fakes.
type Remote interface {
	ListRevenues(ctx context.Context, f core.Filter, page, limit int) ([]core.Revenue, api.Pagination, error)
	CreateRevenue(ctx context.Context, in api.RevenueInput) (core.Revenue, error)
	UpdateRevenue(ctx context.Context, id string, in api.RevenueUpdate) (core.Revenue, error)
	DeleteRevenue(ctx context.Context, id string) error

	ListExpenses(ctx context.Context, f core.Filter, page, limit int) ([]core.Expense, api.Pagination, error)
	CreateExpense(ctx context.Context, in api.ExpenseInput) (core.Expense, error)
	UpdateExpense(ctx context.Context, id string, in api.ExpenseUpdate) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	GetDashboard(ctx context.Context, f core.Filter) (core.DashboardTotals, error)
	GetMonthlyGoal(ctx context.Context, month string) (*core.MonthlyGoal, error)
}

// EventSink receives successful mutations for downstream consumers.
// Failures are logged and never fail the originating operation.
type EventSink interface {
	RevenueChanged(ctx context.Context, op string, r core.Revenue) error
	ExpenseChanged(ctx context.Context, op string, e core.Expense) error
}

// Mirror keeps a local replica of the remote collections.
type Mirror interface {
	UpsertRevenue(ctx context.Context, r core.Revenue) error
	DeleteRevenue(ctx context.Context, id string) error
	UpsertExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, revenues []core.Revenue, expenses []core.Expense) error
}

// RolloverGuard makes month-rollover archival idempotent across
// restarts: an already-archived month is not archived again.
type RolloverGuard interface {
	IsMonthArchived(ctx context.Context, month string) (bool, error)
	MarkMonthArchived(ctx context.Context, entry core.GoalHistoryEntry) error
}

// memoryGuard is the storeless fallback: idempotent within one process
// lifetime only.
type memoryGuard struct {
	archived map[string]bool
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{archived: make(map[string]bool)}
}

func (g *memoryGuard) IsMonthArchived(_ context.Context, month string) (bool, error) {
	return g.archived[month], nil
}

func (g *memoryGuard) MarkMonthArchived(_ context.Context, entry core.GoalHistoryEntry) error {
	g.archived[entry.Month] = true
	return nil
}
