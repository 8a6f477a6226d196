package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

// MinIntervalMs is the smallest valid periodic sync interval. Configured
// intervals below it mean "periodic syncing disabled", not an error.
const MinIntervalMs int64 = 60_000

// State describes the scheduler's position in its lifecycle.
type State int

const (
	StateIdle    State = iota // Initialize not yet called
	StatePending              // waiting out the remainder of the last interval
	StateRunning              // periodic ticks armed
	StatePaused               // running, but interval below minimum
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// SyncStore is the slice of the storage collaborator the scheduler needs.
type SyncStore interface {
	LastSyncAt() (time.Time, error)
	SetLastSyncAt(t time.Time) error
	SyncInterval() (int64, error)
	WatchInterval(ctx context.Context) <-chan models.IntervalChange
}

// Sink receives outbound sync requests. Fire-and-forget.
type Sink interface {
	Submit(ctx context.Context, req models.SyncRequest)
}

// SessionLister supplies the sessions a periodic tick fans out to.
type SessionLister interface {
	All() []models.SessionEntry
}

// Warmer populates the special-playlist cache for a user. Warm must complete
// before the scheduler's first tick so periodic updates never race cache
// construction.
type Warmer interface {
	Warm(ctx context.Context, userID string) error
}

// Scheduler decides when periodic full syncs run.
//
// The next sync time is computed from the persisted last-sync timestamp plus
// the configured interval, so process restarts do not reset the cadence. After
// Initialize, a single goroutine owns the timer state exclusively and consumes
// interval changes from the storage watch stream; reconfiguration always
// cancels the old timer before arming a new one, within one loop iteration.
type Scheduler struct {
	store    SyncStore
	sink     Sink
	sessions SessionLister
	warmer   Warmer
	logger   *log.Logger

	now func() time.Time

	mu          sync.Mutex
	initialized bool // Initialize's effects ran (warm-up, timer arming)
	started     bool // one-way latch, set on entering Running
	state       State
}

// New creates a Scheduler. All collaborators are required.
func New(store SyncStore, sink Sink, sessions SessionLister, warmer Warmer, logger *log.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		sink:     sink,
		sessions: sessions,
		warmer:   warmer,
		logger:   logger,
		now:      time.Now,
	}
}

// Started reports whether the Running latch has been set.
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Initialize performs one-time setup and arms the schedule. Repeated calls
// after the first are deliberate no-ops, logged and not errors.
//
// Ordering requirement: the special-playlist cache warm-up completes before
// any periodic tick can occur. If the last persisted sync is already overdue
// the scheduler enters Running within this call (immediate tick included);
// otherwise it waits out the remainder, treating any interval change during
// the wait as cause to stop waiting and catch up now.
func (s *Scheduler) Initialize(ctx context.Context, userID string) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		s.logger.Debug("scheduler already initialized", "user", userID)
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	if err := s.warmer.Warm(ctx, userID); err != nil {
		// Allow a later call to retry: the schedule never armed.
		s.mu.Lock()
		s.initialized = false
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", shared.ErrWarmupFailed, err)
	}

	lastSync, err := s.store.LastSyncAt()
	if err != nil {
		return fmt.Errorf("failed to read last sync time: %w", err)
	}
	intervalMs, err := s.store.SyncInterval()
	if err != nil {
		return fmt.Errorf("failed to read sync interval: %w", err)
	}

	// Initialize arrives on a request-scoped context, but the schedule must
	// outlive the caller: the watch subscription and the timer loop run for
	// the rest of the process. Only the warm-up above uses the caller's ctx.
	runCtx := context.WithoutCancel(ctx)

	// Subscribed before any timer is armed so no change can slip between
	// the deferred wait and the running loop.
	changes := s.store.WatchInterval(runCtx)

	nextExpected := lastSync.Add(time.Duration(intervalMs) * time.Millisecond)
	wait := nextExpected.Sub(s.now())

	if wait <= 0 {
		s.enterRunning(runCtx, changes)
		return nil
	}

	s.setState(StatePending)
	s.logger.Info("deferring first sync", "wait", wait, "next", nextExpected)

	go func() {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-timer.C:
		case change := <-changes:
			s.logger.Info("interval changed during deferred wait, catching up now",
				"old", change.Old, "new", change.New)
		case <-runCtx.Done():
			return
		}
		s.enterRunning(runCtx, changes)
	}()

	return nil
}

// enterRunning sets the started latch, performs the initial tick when the
// interval is valid, and hands the timer state to the run loop. Idempotent.
func (s *Scheduler) enterRunning(ctx context.Context, changes <-chan models.IntervalChange) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	intervalMs, err := s.store.SyncInterval()
	if err != nil {
		s.logger.Error("failed to read sync interval", "err", err)
		intervalMs = 0
	}

	if intervalMs >= MinIntervalMs {
		s.setState(StateRunning)
		s.tick(ctx)
	} else {
		s.setState(StatePaused)
		s.logger.Info("periodic syncing disabled", "interval_ms", intervalMs)
	}

	go s.run(ctx, changes, intervalMs)
}

// run owns the periodic timer for the rest of the process lifetime. It is the
// only goroutine that touches the ticker, so cancel-then-arm on
// reconfiguration happens within one uninterrupted iteration.
func (s *Scheduler) run(ctx context.Context, changes <-chan models.IntervalChange, intervalMs int64) {
	var ticker *time.Ticker
	var tickC <-chan time.Time

	arm := func(ms int64) {
		ticker = time.NewTicker(time.Duration(ms) * time.Millisecond)
		tickC = ticker.C
	}
	disarm := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	defer disarm()

	if intervalMs >= MinIntervalMs {
		arm(intervalMs)
	}

	for {
		select {
		case <-tickC:
			s.tick(ctx)

		case change := <-changes:
			disarm()
			if change.New >= MinIntervalMs {
				// Turning syncing back on from fully-disabled catches up
				// immediately; moving between two valid intervals does not.
				if change.Old == 0 {
					s.tick(ctx)
				}
				arm(change.New)
				s.setState(StateRunning)
				s.logger.Info("rescheduled periodic sync", "interval_ms", change.New)
			} else {
				s.setState(StatePaused)
				s.logger.Info("periodic syncing disabled", "interval_ms", change.New)
			}

		case <-ctx.Done():
			return
		}
	}
}

// tick persists the sync timestamp and emits one update-all request per known
// session.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	if err := s.store.SetLastSyncAt(now); err != nil {
		s.logger.Error("failed to persist sync timestamp", "err", err)
	}

	entries := s.sessions.All()
	s.logger.Info("periodic sync tick", "sessions", len(entries))

	for _, entry := range entries {
		s.sink.Submit(ctx, models.SyncRequest{
			UserID: entry.UserID,
			Action: models.ActionUpdateAll,
		})
	}
}
