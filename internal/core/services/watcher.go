package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/juju/clock"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
	"github.com/custodia-labs/couchfeed/internal/logger"
)

// Ensure DatabaseWatcher implements the interface.
var _ driving.WatchService = (*DatabaseWatcher)(nil)

// databaseInfoSource reports the current update sequence of a database.
type databaseInfoSource interface {
	Info(ctx context.Context, database string) (*domain.DatabaseInfo, error)
}

// DatabaseWatcher runs one polling loop per watched database.
//
// Each loop is a single-shot timer that is re-armed only after its poll
// cycle has finished, so cycles for one database never overlap. A cycle
// left running by Unwatch still holds its database: a new watch of that
// database skips its turns until the old cycle returns. Different
// databases poll independently.
type DatabaseWatcher struct {
	clock      clock.Clock
	baseURL    string
	config     domain.WatchConfig
	info       databaseInfoSource
	reader     *ChangeFeedReader
	reconciler *ChangeReconciler
	bus        *EventBus

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	watches  map[string]*watch
	inflight map[string]*watch
	closed   bool
	wg       sync.WaitGroup
}

// watch is the watcher-owned state of one database.
type watch struct {
	state   domain.ChangeWatchState
	timer   clock.Timer
	polling bool
	stopped bool
}

// NewDatabaseWatcher creates a watcher. baseURL decides the poll interval
// through config; clk drives the timers.
func NewDatabaseWatcher(
	clk clock.Clock,
	baseURL string,
	config domain.WatchConfig,
	info databaseInfoSource,
	reader *ChangeFeedReader,
	reconciler *ChangeReconciler,
	bus *EventBus,
) *DatabaseWatcher {
	if clk == nil {
		clk = clock.WallClock
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DatabaseWatcher{
		clock:      clk,
		baseURL:    baseURL,
		config:     config,
		info:       info,
		reader:     reader,
		reconciler: reconciler,
		bus:        bus,
		ctx:        ctx,
		cancel:     cancel,
		watches:    make(map[string]*watch),
		inflight:   make(map[string]*watch),
	}
}

// Watch starts polling a database from its current update sequence, so
// documents that already exist produce no notifications.
func (w *DatabaseWatcher) Watch(ctx context.Context, database string) error {
	if err := requireName("database", database); err != nil {
		return err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return domain.ErrWatcherClosed
	}
	if _, ok := w.watches[database]; ok {
		w.mu.Unlock()
		logger.Warn("already listening for changes in %q database", database)
		return nil
	}
	w.mu.Unlock()

	info, err := w.info.Info(ctx, database)
	if err != nil {
		return fmt.Errorf("watch %s: get database info: %w", database, err)
	}

	interval := w.config.PollInterval(w.baseURL)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return domain.ErrWatcherClosed
	}
	if _, ok := w.watches[database]; ok {
		logger.Warn("already listening for changes in %q database", database)
		return nil
	}

	wt := &watch{
		state: domain.ChangeWatchState{
			Database:     database,
			Cursor:       info.UpdateSequence,
			PollInterval: interval,
			StartedAt:    w.clock.Now(),
		},
	}
	w.watches[database] = wt
	w.arm(wt)

	logger.Info("watching %s from sequence %d every %s", database, info.UpdateSequence, interval)
	return nil
}

// arm schedules the next poll. Caller must hold the lock.
func (w *DatabaseWatcher) arm(wt *watch) {
	wt.timer = w.clock.AfterFunc(wt.state.PollInterval, func() {
		w.poll(wt)
	})
}

// poll runs one cycle: read the feed, reconcile, notify, advance the cursor.
func (w *DatabaseWatcher) poll(wt *watch) {
	w.mu.Lock()
	if wt.stopped || wt.polling {
		w.mu.Unlock()
		return
	}
	database := wt.state.Database
	if prev, busy := w.inflight[database]; busy && prev != wt {
		logger.Debug("skipping poll of %s: previous cycle still running", database)
		w.arm(wt)
		w.mu.Unlock()
		return
	}
	wt.polling = true
	w.inflight[database] = wt
	cursor := wt.state.Cursor
	w.wg.Add(1)
	w.mu.Unlock()

	defer w.wg.Done()

	logger.Section("poll " + database)
	entries, newCursor, err := w.reader.ReadSince(w.ctx, database, cursor)
	if err != nil {
		logger.Error("poll %s since %d: %v", database, cursor, err)
		w.finish(wt, cursor, err)
		return
	}

	// Stop is checked before each delivery. An Unwatch that lands while a
	// listener call is already underway lets that one change through.
	changes := w.reconciler.ReconcileAll(w.ctx, database, entries)
	for _, change := range changes {
		if w.isStopped(wt) {
			break
		}
		w.bus.PublishRemote(change)
	}

	w.finish(wt, newCursor, nil)
}

// finish records the cycle result and re-arms the timer unless the watch
// was stopped while the cycle was in flight.
func (w *DatabaseWatcher) finish(wt *watch, cursor int64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wt.polling = false
	if w.inflight[wt.state.Database] == wt {
		delete(w.inflight, wt.state.Database)
	}
	if wt.stopped {
		logger.Debug("discarding poll result for stopped watch on %s", wt.state.Database)
		return
	}

	wt.state.LastPoll = w.clock.Now()
	if err != nil {
		wt.state.LastError = err.Error()
	} else {
		wt.state.Advance(cursor)
		wt.state.LastError = ""
	}
	w.arm(wt)
}

func (w *DatabaseWatcher) isStopped(wt *watch) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return wt.stopped
}

// Unwatch stops polling a database. An in-flight cycle finishes but its
// results are discarded.
func (w *DatabaseWatcher) Unwatch(database string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked(database)
}

func (w *DatabaseWatcher) stopLocked(database string) {
	wt, ok := w.watches[database]
	if !ok {
		return
	}
	wt.stopped = true
	if wt.timer != nil {
		wt.timer.Stop()
	}
	delete(w.watches, database)
	logger.Info("stopped watching %s", database)
}

// Watching returns the watched database names, sorted.
func (w *DatabaseWatcher) Watching() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.watches))
	for name := range w.watches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// State returns a copy of a database's watch state.
func (w *DatabaseWatcher) State(database string) (domain.ChangeWatchState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wt, ok := w.watches[database]
	if !ok {
		return domain.ChangeWatchState{}, fmt.Errorf("%s: %w", database, domain.ErrNotWatching)
	}
	return wt.state, nil
}

// Close stops every watch, cancels in-flight requests and waits for
// running cycles to return.
func (w *DatabaseWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for name := range w.watches {
		w.stopLocked(name)
	}
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	return nil
}
