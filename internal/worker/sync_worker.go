// Package worker keeps the store fresh in the background: a periodic
// full reload plus a month-rollover check so goals archive even while
// nobody touches the app.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ganhos/internal/state"
)

type Config struct {
	SyncInterval     time.Duration
	RolloverInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		SyncInterval:     5 * time.Minute,
		RolloverInterval: time.Hour,
	}
}

// SyncWorker drives the store's Reload and rollover checks on timers.
type SyncWorker struct {
	store  *state.Store
	config Config

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncWorker(store *state.Store, config Config) *SyncWorker {
	if config.SyncInterval <= 0 {
		config.SyncInterval = DefaultConfig().SyncInterval
	}
	if config.RolloverInterval <= 0 {
		config.RolloverInterval = DefaultConfig().RolloverInterval
	}
	return &SyncWorker{
		store:  store,
		config: config,
	}
}

// Start begins the loop. Returns an error if already running.
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("sync worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Sync worker started",
		"sync_interval", w.config.SyncInterval,
		"rollover_interval", w.config.RolloverInterval)

	return nil
}

// Stop gracefully stops the worker and waits for completion.
func (w *SyncWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Sync worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

// IsRunning reports whether the loop is active.
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *SyncWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	syncTicker := time.NewTicker(w.config.SyncInterval)
	defer syncTicker.Stop()

	rolloverTicker := time.NewTicker(w.config.RolloverInterval)
	defer rolloverTicker.Stop()

	// Check for a pending rollover from before the last shutdown, then
	// do the first load.
	w.checkRollover(ctx)
	w.reload(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-syncTicker.C:
			w.reload(ctx)
		case <-rolloverTicker.C:
			w.checkRollover(ctx)
		}
	}
}

func (w *SyncWorker) reload(ctx context.Context) {
	if err := w.store.Reload(ctx); err != nil {
		slog.ErrorContext(ctx, "Background reload failed", "error", err)
		return
	}
	slog.DebugContext(ctx, "Background reload completed")
}

func (w *SyncWorker) checkRollover(ctx context.Context) {
	if err := w.store.CheckAndResetMonthlyGoal(ctx); err != nil {
		slog.ErrorContext(ctx, "Month rollover check failed", "error", err)
	}
}
