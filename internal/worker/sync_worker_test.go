package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"ganhos/internal/api"
	"ganhos/internal/core"
	"ganhos/internal/state"
)

// countingRemote counts list calls so tests can observe reloads.
type countingRemote struct {
	lists atomic.Int64
}

func (r *countingRemote) ListRevenues(_ context.Context, _ core.Filter, _ int, _ int) ([]core.Revenue, api.Pagination, error) {
	r.lists.Add(1)
	return nil, api.Pagination{TotalPages: 1}, nil
}

func (r *countingRemote) CreateRevenue(_ context.Context, _ api.RevenueInput) (core.Revenue, error) {
	return core.Revenue{}, nil
}

func (r *countingRemote) UpdateRevenue(_ context.Context, _ string, _ api.RevenueUpdate) (core.Revenue, error) {
	return core.Revenue{}, nil
}

func (r *countingRemote) DeleteRevenue(_ context.Context, _ string) error { return nil }

func (r *countingRemote) ListExpenses(_ context.Context, _ core.Filter, _ int, _ int) ([]core.Expense, api.Pagination, error) {
	return nil, api.Pagination{TotalPages: 1}, nil
}

func (r *countingRemote) CreateExpense(_ context.Context, _ api.ExpenseInput) (core.Expense, error) {
	return core.Expense{}, nil
}

func (r *countingRemote) UpdateExpense(_ context.Context, _ string, _ api.ExpenseUpdate) (core.Expense, error) {
	return core.Expense{}, nil
}

func (r *countingRemote) DeleteExpense(_ context.Context, _ string) error { return nil }

func (r *countingRemote) GetDashboard(_ context.Context, _ core.Filter) (core.DashboardTotals, error) {
	return core.DashboardTotals{}, nil
}

func (r *countingRemote) GetMonthlyGoal(_ context.Context, _ string) (*core.MonthlyGoal, error) {
	return nil, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestStartStopLifecycle(t *testing.T) {
	remote := &countingRemote{}
	store := state.NewStore(remote)
	w := NewSyncWorker(store, Config{SyncInterval: time.Hour, RolloverInterval: time.Hour})

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("second start should fail")
	}
	if !w.IsRunning() {
		t.Fatal("worker should report running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if w.IsRunning() {
		t.Fatal("worker should report stopped")
	}
	// Stop on a stopped worker is a no-op.
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestStartupReload(t *testing.T) {
	remote := &countingRemote{}
	store := state.NewStore(remote)
	w := NewSyncWorker(store, Config{SyncInterval: time.Hour, RolloverInterval: time.Hour})

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = w.Stop(context.Background()) }()

	waitFor(t, 2*time.Second, func() bool { return remote.lists.Load() >= 1 })
}

func TestPeriodicReload(t *testing.T) {
	remote := &countingRemote{}
	store := state.NewStore(remote)
	w := NewSyncWorker(store, Config{SyncInterval: 20 * time.Millisecond, RolloverInterval: time.Hour})

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = w.Stop(context.Background()) }()

	// Startup reload plus at least two ticks.
	waitFor(t, 2*time.Second, func() bool { return remote.lists.Load() >= 3 })
}

func TestContextCancelStopsLoop(t *testing.T) {
	remote := &countingRemote{}
	store := state.NewStore(remote)
	w := NewSyncWorker(store, Config{SyncInterval: time.Hour, RolloverInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after context cancel")
	}
}

func TestZeroIntervalsFallBackToDefaults(t *testing.T) {
	w := NewSyncWorker(state.NewStore(&countingRemote{}), Config{})
	if w.config.SyncInterval != DefaultConfig().SyncInterval {
		t.Fatalf("sync interval = %v", w.config.SyncInterval)
	}
	if w.config.RolloverInterval != DefaultConfig().RolloverInterval {
		t.Fatalf("rollover interval = %v", w.config.RolloverInterval)
	}
}
