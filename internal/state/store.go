package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ganhos/internal/api"
	"ganhos/internal/cache"
	"ganhos/internal/core"
	"ganhos/internal/metrics"
)

const (
	opCreated = "created"
	opUpdated = "updated"
	opDeleted = "deleted"

	// listPageLimit is the page size used when draining paginated
	// listings on load.
	listPageLimit = 200

	dashboardCacheSize = 64
	dashboardCacheTTL  = 2 * time.Minute
)

// Store mediates every mutation through the remote API and keeps the
// local snapshot consistent after each round trip. Concurrent callers
// are serialized per dispatch, not per operation: two in-flight
// mutations race remotely and the last response to land wins locally.
type Store struct {
	mu    sync.Mutex
	state State

	remote Remote
	clock  func() time.Time
	events EventSink
	mirror Mirror
	guard  RolloverGuard

	dashCache *cache.LRUCache[core.DashboardTotals]

	subMu sync.Mutex
	subs  []chan struct{}
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) { s.clock = clock }
}

// WithEvents attaches a mutation event sink.
func WithEvents(sink EventSink) StoreOption {
	return func(s *Store) { s.events = sink }
}

// WithMirror attaches a local replica store.
func WithMirror(m Mirror) StoreOption {
	return func(s *Store) { s.mirror = m }
}

// WithRolloverGuard replaces the in-memory archival guard with a
// durable one.
func WithRolloverGuard(g RolloverGuard) StoreOption {
	return func(s *Store) { s.guard = g }
}

// WithDashboardCacheTTL overrides how long fetched dashboard totals
// are served from cache.
func WithDashboardCacheTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.dashCache = cache.NewLRUCache[core.DashboardTotals](dashboardCacheSize, ttl)
		}
	}
}

// NewStore creates a store backed by the given remote.
func NewStore(remote Remote, opts ...StoreOption) *Store {
	s := &Store{
		remote:    remote,
		clock:     time.Now,
		guard:     newMemoryGuard(),
		dashCache: cache.NewLRUCache[core.DashboardTotals](dashboardCacheSize, dashboardCacheTTL),
		state:     State{Period: core.PeriodMonthly},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state. The snapshot is safe to read
// concurrently; slices are shared but never mutated in place.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that receives a coalesced signal after
// every dispatch. Consumers re-read Snapshot on signal.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) dispatch(a Action) State {
	s.mu.Lock()
	s.state = reduce(s.state, a, s.clock())
	next := s.state
	s.mu.Unlock()

	s.subMu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.subMu.Unlock()
	return next
}

func (s *Store) fail(err error) {
	s.dispatch(loadFailed{msg: err.Error()})
}

// AddRevenue submits a new revenue and, on success, appends the
// server's record and re-derives the goal's current amount.
func (s *Store) AddRevenue(ctx context.Context, in api.RevenueInput) (core.Revenue, error) {
	s.dispatch(loadStarted{})
	record, err := s.remote.CreateRevenue(ctx, in)
	if err != nil {
		s.fail(err)
		return core.Revenue{}, err
	}
	s.dispatch(revenueAdded{record: record})
	s.afterRevenueMutation(ctx, opCreated, record)
	return record, nil
}

// UpdateRevenue applies a partial edit and replaces the record by id.
func (s *Store) UpdateRevenue(ctx context.Context, id string, in api.RevenueUpdate) (core.Revenue, error) {
	s.dispatch(loadStarted{})
	record, err := s.remote.UpdateRevenue(ctx, id, in)
	if err != nil {
		s.fail(err)
		return core.Revenue{}, err
	}
	s.dispatch(revenueUpdated{record: record})
	s.afterRevenueMutation(ctx, opUpdated, record)
	return record, nil
}

// DeleteRevenue removes the record by id.
func (s *Store) DeleteRevenue(ctx context.Context, id string) error {
	s.dispatch(loadStarted{})
	if err := s.remote.DeleteRevenue(ctx, id); err != nil {
		s.fail(err)
		return err
	}
	s.dispatch(revenueDeleted{id: id})
	s.afterRevenueMutation(ctx, opDeleted, core.Revenue{ID: id})
	return nil
}

// AddExpense submits a new expense and appends the server's record.
func (s *Store) AddExpense(ctx context.Context, in api.ExpenseInput) (core.Expense, error) {
	s.dispatch(loadStarted{})
	record, err := s.remote.CreateExpense(ctx, in)
	if err != nil {
		s.fail(err)
		return core.Expense{}, err
	}
	s.dispatch(expenseAdded{record: record})
	s.afterExpenseMutation(ctx, opCreated, record)
	return record, nil
}

// UpdateExpense applies a partial edit and replaces the record by id.
func (s *Store) UpdateExpense(ctx context.Context, id string, in api.ExpenseUpdate) (core.Expense, error) {
	s.dispatch(loadStarted{})
	record, err := s.remote.UpdateExpense(ctx, id, in)
	if err != nil {
		s.fail(err)
		return core.Expense{}, err
	}
	s.dispatch(expenseUpdated{record: record})
	s.afterExpenseMutation(ctx, opUpdated, record)
	return record, nil
}

// DeleteExpense removes the record by id.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.dispatch(loadStarted{})
	if err := s.remote.DeleteExpense(ctx, id); err != nil {
		s.fail(err)
		return err
	}
	s.dispatch(expenseDeleted{id: id})
	s.afterExpenseMutation(ctx, opDeleted, core.Expense{ID: id})
	return nil
}

// SetFilter replaces the filter. No server call; consuming views
// recompute from the snapshot.
func (s *Store) SetFilter(f core.Filter) {
	s.dispatch(filterSet{filter: f})
	s.dashCache.Purge()
}

// SetPeriod replaces the selected granularity.
func (s *Store) SetPeriod(p core.Period) {
	s.dispatch(periodSet{period: p})
}

// Load fetches revenues, expenses and the current month's goal
// concurrently and replaces the three state slices in one dispatch.
// The first failure surfaces; loading is always cleared.
func (s *Store) Load(ctx context.Context) error {
	s.dispatch(loadStarted{})
	filter := s.Snapshot().Filter

	var (
		revenues []core.Revenue
		expenses []core.Expense
		goal     *core.MonthlyGoal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		revenues, err = s.drainRevenues(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.drainExpenses(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		goal, err = s.remote.GetMonthlyGoal(gctx, core.MonthKey(s.clock()))
		return err
	})

	if err := g.Wait(); err != nil {
		s.fail(err)
		return err
	}

	s.dispatch(loadFinished{revenues: revenues, expenses: expenses, goal: goal})
	s.dashCache.Purge()

	if s.mirror != nil {
		if err := s.mirror.ReplaceAll(ctx, revenues, expenses); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror loaded data", "error", err)
		}
	}
	return nil
}

// Reload is Load under its UI-facing name.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Store) drainRevenues(ctx context.Context, f core.Filter) ([]core.Revenue, error) {
	var out []core.Revenue
	for page := 1; ; page++ {
		batch, pg, err := s.remote.ListRevenues(ctx, f, page, listPageLimit)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if page >= pg.TotalPages || len(batch) == 0 {
			return out, nil
		}
	}
}

func (s *Store) drainExpenses(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	var out []core.Expense
	for page := 1; ; page++ {
		batch, pg, err := s.remote.ListExpenses(ctx, f, page, listPageLimit)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if page >= pg.TotalPages || len(batch) == 0 {
			return out, nil
		}
	}
}

// FilteredRevenues applies the current filter over the in-memory list.
func (s *Store) FilteredRevenues() []core.Revenue {
	snap := s.Snapshot()
	out := make([]core.Revenue, 0, len(snap.Revenues))
	for _, r := range snap.Revenues {
		if snap.Filter.MatchRevenue(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilteredExpenses applies the current filter over the in-memory list.
func (s *Store) FilteredExpenses() []core.Expense {
	snap := s.Snapshot()
	out := make([]core.Expense, 0, len(snap.Expenses))
	for _, e := range snap.Expenses {
		if snap.Filter.MatchExpense(e) {
			out = append(out, e)
		}
	}
	return out
}

// Dashboard fetches the server aggregates for the current filter
// window. Unlike the mutating operations, a failure here propagates to
// the caller instead of being parked in state.
func (s *Store) Dashboard(ctx context.Context) (core.DashboardTotals, error) {
	filter := s.Snapshot().Filter
	key := filter.StartDate + "|" + filter.EndDate
	if totals, ok := s.dashCache.Get(key); ok {
		return totals, nil
	}

	totals, err := s.remote.GetDashboard(ctx, filter)
	if err != nil {
		return core.DashboardTotals{}, err
	}
	s.dashCache.Set(key, totals)
	return totals, nil
}

// PeriodMetrics reshapes the dashboard aggregates for period views.
func (s *Store) PeriodMetrics(ctx context.Context) (core.PeriodMetrics, error) {
	totals, err := s.Dashboard(ctx)
	if err != nil {
		return core.PeriodMetrics{}, err
	}
	return totals.ToPeriodMetrics(), nil
}

// Indicators derives the full indicator set from the dashboard
// aggregates and the locally filtered revenues.
func (s *Store) Indicators(ctx context.Context) (metrics.Indicators, error) {
	totals, err := s.Dashboard(ctx)
	if err != nil {
		return metrics.Indicators{}, err
	}
	snap := s.Snapshot()
	return metrics.Compute(totals, s.FilteredRevenues(), snap.Period, s.clock()), nil
}

// CheckAndResetMonthlyGoal archives the active goal once its month no
// longer matches the wall clock, clears it and triggers a full reload
// so the new month's goal is fetched. Archival is idempotent per month
// through the rollover guard.
func (s *Store) CheckAndResetMonthlyGoal(ctx context.Context) error {
	snap := s.Snapshot()
	now := s.clock()
	if snap.Goal == nil || snap.Goal.Month == core.MonthKey(now) {
		return nil
	}

	entry := core.NewGoalHistoryEntry(*snap.Goal, now)

	archived, err := s.guard.IsMonthArchived(ctx, entry.Month)
	if err != nil {
		slog.WarnContext(ctx, "Rollover guard check failed, archiving anyway", "month", entry.Month, "error", err)
	}
	if !archived {
		s.dispatch(goalArchived{entry: entry})
		if err := s.guard.MarkMonthArchived(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to persist goal archive", "month", entry.Month, "error", err)
		}
		slog.InfoContext(ctx, "Monthly goal archived",
			"month", entry.Month,
			"achieved", entry.Achieved,
			"percentage", entry.Percentage.StringFixed(1))
	} else {
		// Already archived by an earlier session: just clear the goal.
		s.dispatch(goalCleared{})
	}

	return s.Reload(ctx)
}

func (s *Store) afterRevenueMutation(ctx context.Context, op string, r core.Revenue) {
	s.dashCache.Purge()
	if s.events != nil {
		if err := s.events.RevenueChanged(ctx, op, r); err != nil {
			slog.ErrorContext(ctx, "Failed to publish revenue event", "op", op, "id", r.ID, "error", err)
		}
	}
	if s.mirror == nil {
		return
	}
	var err error
	if op == opDeleted {
		err = s.mirror.DeleteRevenue(ctx, r.ID)
	} else {
		err = s.mirror.UpsertRevenue(ctx, r)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to mirror revenue", "op", op, "id", r.ID, "error", err)
	}
}

func (s *Store) afterExpenseMutation(ctx context.Context, op string, e core.Expense) {
	s.dashCache.Purge()
	if s.events != nil {
		if err := s.events.ExpenseChanged(ctx, op, e); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense event", "op", op, "id", e.ID, "error", err)
		}
	}
	if s.mirror == nil {
		return
	}
	var err error
	if op == opDeleted {
		err = s.mirror.DeleteExpense(ctx, e.ID)
	} else {
		err = s.mirror.UpsertExpense(ctx, e)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to mirror expense", "op", op, "id", e.ID, "error", err)
	}
}
