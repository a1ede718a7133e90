// Package engine orchestrates the timeline and analytics pipeline: it
// owns the query state, the snapshot cache, and the boundary to the data
// platform.
package engine

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"example.com/engagement/internal/analytics"
	"example.com/engagement/internal/cache"
	"example.com/engagement/internal/debounce"
	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/observability"
	"example.com/engagement/internal/provider"
	"example.com/engagement/internal/query"
	"example.com/engagement/internal/timeline"
)

// DefaultDebounceDelay is applied to search input before it reaches the
// query state.
const DefaultDebounceDelay = 300 * time.Millisecond

type fetchCall struct {
	done chan struct{}
	snap domain.Snapshot
	err  error
}

// Engine is the single entry point the transport layer talks to. All
// methods are safe for concurrent use.
type Engine struct {
	provider provider.Provider
	cache    *cache.Store
	logger   *log.Logger
	now      func() time.Time
	topN     int

	search *debounce.Debouncer

	mu       sync.Mutex
	params   query.Params
	lastSnap domain.Snapshot
	lastErr  error
	pending  map[string]*fetchCall

	refreshCancel context.CancelFunc
	refreshDone   chan struct{}
}

// Option configures optional behaviour for the Engine.
type Option func(*Engine)

// WithCache overrides the snapshot store.
func WithCache(store *cache.Store) Option {
	return func(e *Engine) {
		e.cache = store
	}
}

// WithLogger overrides the logger used to report background errors.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source, letting tests control "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithTopN overrides the top-performer list length.
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// WithDebounceDelay overrides the search debounce window.
func WithDebounceDelay(delay time.Duration) Option {
	return func(e *Engine) {
		if delay > 0 {
			e.search = debounce.New(delay)
		}
	}
}

// New constructs an Engine over the given provider.
func New(p provider.Provider, opts ...Option) *Engine {
	e := &Engine{
		provider: p,
		cache:    cache.New(cache.DefaultTTL),
		logger:   log.New(log.Writer(), "[engine] ", log.LstdFlags|log.Lshortfile),
		now:      time.Now,
		topN:     analytics.DefaultTopN,
		search:   debounce.New(DefaultDebounceDelay),
		params:   query.NewParams(),
		pending:  make(map[string]*fetchCall),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params returns a copy of the current query state.
func (e *Engine) Params() query.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// LastError reports the most recent fetch failure, or nil after a
// successful fetch.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Query state mutators. Each delegates to the corresponding query.Params
// mutator under the engine lock; the next read observes the new state.

func (e *Engine) SetTypes(types []domain.ActivityType) { e.update(func(p *query.Params) { p.SetTypes(types) }) }

// SetDateRange replaces the inclusive activity-date range.
func (e *Engine) SetDateRange(from, to *time.Time) {
	e.update(func(p *query.Params) { p.SetDateRange(from, to) })
}

// SetSearch applies the search term immediately.
func (e *Engine) SetSearch(term string) { e.update(func(p *query.Params) { p.SetSearch(term) }) }

// SetSearchDebounced schedules the search term behind the debounce
// window. Only the last value scheduled inside the window is applied.
func (e *Engine) SetSearchDebounced(term string) {
	e.search.Trigger(func() { e.SetSearch(term) })
}

func (e *Engine) SetPrincipals(ids []string) { e.update(func(p *query.Params) { p.SetPrincipals(ids) }) }

func (e *Engine) SetSourceTables(tables []string) {
	e.update(func(p *query.Params) { p.SetSourceTables(tables) })
}

func (e *Engine) SetStatuses(statuses []string) {
	e.update(func(p *query.Params) { p.SetStatuses(statuses) })
}

func (e *Engine) SetFollowUpRequired(required *bool) {
	e.update(func(p *query.Params) { p.SetFollowUpRequired(required) })
}

func (e *Engine) SetOverdueOnly(overdue bool) {
	e.update(func(p *query.Params) { p.SetOverdueOnly(overdue) })
}

func (e *Engine) SetSort(field query.SortField, direction query.SortDirection) {
	e.update(func(p *query.Params) { p.SetSort(field, direction) })
}

func (e *Engine) SetPage(page int) { e.update(func(p *query.Params) { p.SetPage(page) }) }

func (e *Engine) SetPageSize(size int) { e.update(func(p *query.Params) { p.SetPageSize(size) }) }

// ResetQuery restores the default query state.
func (e *Engine) ResetQuery() { e.update(func(p *query.Params) { p.Reset() }) }

func (e *Engine) update(fn func(*query.Params)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.params)
}

// ShareState encodes the current query state as URL values.
func (e *Engine) ShareState() url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.Encode()
}

// ImportState replaces the query state from URL values. On any malformed
// known key it reports false and leaves the state untouched.
func (e *Engine) ImportState(values url.Values) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.Import(values)
}

// View resolves the current snapshot and runs the timeline pipeline over
// it. When the fetch fails, the view is built from the last known
// snapshot and the fetch error is returned alongside it.
func (e *Engine) View(ctx context.Context) (timeline.View, error) {
	snap, err := e.snapshot(ctx)
	params := e.Params()
	return timeline.Build(snap.Entries, params, e.now()), err
}

// Analytics resolves the current snapshot and builds the report over it.
func (e *Engine) Analytics(ctx context.Context) (analytics.Report, error) {
	snap, err := e.snapshot(ctx)
	return analytics.BuildReport(snap.Summaries, snap.Entries, e.now(), e.topN), err
}

// FilteredEntries returns the full filtered, sorted population for the
// current query state, ignoring pagination. Exports consume this.
func (e *Engine) FilteredEntries(ctx context.Context) ([]domain.ActivityEntry, error) {
	snap, err := e.snapshot(ctx)
	params := e.Params()
	entries := timeline.Filter(snap.Entries, params.Criteria, e.now())
	return timeline.Sort(entries, params.SortField, params.SortDirection), err
}

// Refresh drops the cached snapshot for the current descriptor and
// refetches it.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	key := e.params.Canonical()
	e.mu.Unlock()

	e.cache.Delete(key)
	_, err := e.snapshot(ctx)
	return err
}

// Invalidate drops every cached snapshot. The change-feed consumer calls
// this when records move underneath the engine.
func (e *Engine) Invalidate(context.Context) error {
	e.cache.Clear()
	return nil
}

// AddEntry proposes a new entry to the platform. On success cached
// snapshots are dropped so the next read sees the new record.
func (e *Engine) AddEntry(ctx context.Context, input provider.EntryInput) (domain.ActivityEntry, error) {
	entry, err := e.provider.AddEntry(ctx, input)
	if err != nil {
		return domain.ActivityEntry{}, err
	}
	e.cache.Clear()
	return entry, nil
}

// UpdateEntry rewrites an entry at the platform.
func (e *Engine) UpdateEntry(ctx context.Context, id string, input provider.EntryInput) (domain.ActivityEntry, error) {
	entry, err := e.provider.UpdateEntry(ctx, id, input)
	if err != nil {
		return domain.ActivityEntry{}, err
	}
	e.cache.Clear()
	return entry, nil
}

// DeleteEntry removes an entry at the platform.
func (e *Engine) DeleteEntry(ctx context.Context, id string) error {
	if err := e.provider.DeleteEntry(ctx, id); err != nil {
		return err
	}
	e.cache.Clear()
	return nil
}

// MarkForFollowUp flags an entry with a due date.
func (e *Engine) MarkForFollowUp(ctx context.Context, id string, due time.Time) (domain.ActivityEntry, error) {
	entry, err := e.provider.MarkForFollowUp(ctx, id, due)
	if err != nil {
		return domain.ActivityEntry{}, err
	}
	e.cache.Clear()
	return entry, nil
}

// CompleteFollowUp clears an entry's follow-up flag and date.
func (e *Engine) CompleteFollowUp(ctx context.Context, id string) (domain.ActivityEntry, error) {
	entry, err := e.provider.CompleteFollowUp(ctx, id)
	if err != nil {
		return domain.ActivityEntry{}, err
	}
	e.cache.Clear()
	return entry, nil
}

// StartAutoRefresh refetches the current descriptor on the given
// interval until Close. A failed tick is logged and surfaced through
// LastError; the loop never retries early.
func (e *Engine) StartAutoRefresh(interval time.Duration) {
	if interval <= 0 || e.refreshCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.refreshCancel = cancel
	e.refreshDone = make(chan struct{})

	go func() {
		defer close(e.refreshDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.Refresh(ctx); err != nil && ctx.Err() == nil {
					e.logger.Printf("auto-refresh failed: %v", err)
				}
			}
		}
	}()
}

// Close stops the auto-refresh loop and drops any pending debounced
// search.
func (e *Engine) Close() {
	if e.refreshCancel != nil {
		e.refreshCancel()
		<-e.refreshDone
		e.refreshCancel = nil
	}
	e.search.Cancel()
}

// snapshot returns the snapshot for the current canonical descriptor:
// from the cache when fresh, otherwise via a single platform fetch shared
// by all concurrent callers of the same descriptor. On fetch failure the
// last known snapshot is returned together with the error; there is no
// automatic retry.
func (e *Engine) snapshot(ctx context.Context) (domain.Snapshot, error) {
	e.mu.Lock()
	key := e.params.Canonical()
	scope := append([]string(nil), e.params.Criteria.PrincipalIDs...)
	e.mu.Unlock()

	if snap, ok := e.cache.Get(key); ok {
		observability.RecordCacheHit()
		return snap, nil
	}
	observability.RecordCacheMiss()

	e.mu.Lock()
	if call, ok := e.pending[key]; ok {
		e.mu.Unlock()
		select {
		case <-call.done:
			if call.err != nil {
				return e.lastKnown(), call.err
			}
			return call.snap, nil
		case <-ctx.Done():
			return e.lastKnown(), ctx.Err()
		}
	}
	call := &fetchCall{done: make(chan struct{})}
	e.pending[key] = call
	e.mu.Unlock()

	started := time.Now()
	snap, err := e.provider.FetchSnapshot(ctx, scope)
	observability.RecordFetch(time.Since(started))

	e.mu.Lock()
	delete(e.pending, key)
	if err != nil {
		observability.RecordFetchFailure()
		e.lastErr = err
		fallback := e.lastSnap
		e.mu.Unlock()

		call.err = err
		close(call.done)
		return fallback, err
	}
	e.lastErr = nil
	e.lastSnap = snap
	e.mu.Unlock()

	e.cache.Set(key, snap)
	observability.RecordRefresh(time.Now())

	call.snap = snap
	close(call.done)
	return snap, nil
}

func (e *Engine) lastKnown() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSnap
}
