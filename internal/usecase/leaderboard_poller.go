package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/leaderboard-sync/internal/domain/leaderboard"
	"github.com/riskibarqy/leaderboard-sync/internal/platform/logging"
)

const DefaultPollInterval = 5 * time.Second

type PollerState string

const (
	PollerStateIdle      PollerState = "idle"
	PollerStateFetching  PollerState = "fetching"
	PollerStateActive    PollerState = "active"
	PollerStateDestroyed PollerState = "destroyed"
)

// LeaderboardListener receives view changes. Callbacks run on the poller goroutine
// and must not call blocking poller methods (Snapshot, Refresh).
type LeaderboardListener interface {
	OnRowsChanged(rows []leaderboard.Entry)
	OnPendingUpdateChanged(pending bool)
	OnFetchError(err error)
}

// ErrorReporter is the generic sink for failures that do not stop the poller.
type ErrorReporter interface {
	ReportError(err error)
}

type ErrorReporterFunc func(err error)

func (f ErrorReporterFunc) ReportError(err error) { f(err) }

type TickerFactory func(interval time.Duration) (<-chan time.Time, func())

type LeaderboardPollerConfig struct {
	Interval  time.Duration
	Sort      leaderboard.SortSpec
	Highlight string
	Clock     func() time.Time
	Listener  LeaderboardListener
	Reporter  ErrorReporter
	Logger    *logging.Logger
	// NewTicker replaces time.NewTicker.
	NewTicker TickerFactory
}

// ViewSnapshot is a copy of the view state at one point in time.
type ViewSnapshot struct {
	Selection        leaderboard.Selection
	State            PollerState
	Rows             []leaderboard.Entry
	Sort             leaderboard.SortSpec
	Highlight        string
	HasPendingUpdate bool
	Labels           []string
	DefaultOrderBy   string
	LastError        error
	StaleDiscards    int
	UpdatedAt        time.Time
}

// LeaderboardPoller keeps one leaderboard view in sync with the platform.
//
// All view state is owned by a single loop goroutine. Fetches run on their own
// goroutines and post results back tagged with the selection generation they were
// issued for; results from an older generation are dropped.
type LeaderboardPoller struct {
	source    leaderboard.Source
	interval  time.Duration
	clock     func() time.Time
	listener  LeaderboardListener
	reporter  ErrorReporter
	logger    *logging.Logger
	newTicker TickerFactory

	rootCtx    context.Context
	rootCancel context.CancelFunc

	cmds        chan func(*pollerView)
	closed      chan struct{}
	loopDone    chan struct{}
	destroyOnce sync.Once
	fetches     conc.WaitGroup
}

type pollerView struct {
	selection  leaderboard.Selection
	state      PollerState
	generation uint64
	genCtx     context.Context
	genCancel  context.CancelFunc

	// base holds the last batch in arrival order; rows is always Sort(base, sort).
	base           []leaderboard.Entry
	rows           []leaderboard.Entry
	labels         []string
	defaultOrderBy string
	ranks          *leaderboard.RankTable
	sort           leaderboard.SortSpec
	highlight      string
	pending        bool
	lastErr        error
	staleDiscards  int
	updatedAt      time.Time

	fetchInFlight bool
	peekInFlight  bool

	tickC    <-chan time.Time
	stopTick func()
}

func NewLeaderboardPoller(source leaderboard.Source, cfg LeaderboardPollerConfig) *LeaderboardPoller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Listener == nil {
		cfg.Listener = nopListener{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = func(d time.Duration) (<-chan time.Time, func()) {
			ticker := time.NewTicker(d)
			return ticker.C, ticker.Stop
		}
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	p := &LeaderboardPoller{
		source:     source,
		interval:   cfg.Interval,
		clock:      cfg.Clock,
		listener:   cfg.Listener,
		reporter:   cfg.Reporter,
		logger:     cfg.Logger.Named("poller"),
		newTicker:  cfg.NewTicker,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		cmds:       make(chan func(*pollerView), 64),
		closed:     make(chan struct{}),
		loopDone:   make(chan struct{}),
	}

	view := &pollerView{
		state:     PollerStateIdle,
		sort:      cfg.Sort,
		highlight: cfg.Highlight,
		ranks:     leaderboard.NewRankTable(),
	}
	go p.run(view)

	return p
}

// Select starts following another selection. The previous timer and in-flight requests
// are cancelled and the rank table starts over.
func (p *LeaderboardPoller) Select(ctx context.Context, selection leaderboard.Selection) error {
	selection = selection.Normalize()
	if selection.IsZero() {
		return fmt.Errorf("%w: phase split id is required", ErrInvalidInput)
	}

	link := trace.SpanContextFromContext(ctx)
	if !p.enqueue(func(v *pollerView) { p.selectOn(v, selection, link) }) {
		return ErrViewDestroyed
	}
	return nil
}

// Refresh fetches and reconciles the current selection and clears the pending-update flag.
// After a failed initial fetch it retries that fetch. It is a no-op while a fetch is in flight.
func (p *LeaderboardPoller) Refresh(ctx context.Context) error {
	link := trace.SpanContextFromContext(ctx)
	return p.call(func(v *pollerView) error {
		if v.selection.IsZero() {
			return fmt.Errorf("%w: no phase split selected", ErrInvalidInput)
		}
		if v.fetchInFlight {
			return nil
		}

		kind := fetchKindRefresh
		if v.state == PollerStateIdle {
			kind = fetchKindInitial
			v.state = PollerStateFetching
			v.lastErr = nil
		}
		v.fetchInFlight = true
		p.dispatchFetch(v, kind, link)
		return nil
	})
}

// Cancel stops polling and drops in-flight responses. Rows stay as last shown.
func (p *LeaderboardPoller) Cancel() error {
	return p.call(func(v *pollerView) error {
		p.newGeneration(v)
		v.selection = leaderboard.Selection{}
		v.state = PollerStateIdle
		p.logger.Info("leaderboard polling cancelled")
		return nil
	})
}

// SetSort reorders the current rows without refetching.
func (p *LeaderboardPoller) SetSort(spec leaderboard.SortSpec) error {
	return p.call(func(v *pollerView) error {
		if spec.Column.Kind == leaderboard.ColumnMetric && spec.Column.Metric < 0 {
			return fmt.Errorf("%w: metric index must be >= 0", ErrInvalidInput)
		}
		v.sort = spec
		if v.base == nil {
			return nil
		}
		v.rows = leaderboard.Sort(v.base, spec)
		p.emitRows(v)
		return nil
	})
}

// SetHighlight changes the highlighted team without refetching.
func (p *LeaderboardPoller) SetHighlight(target string) error {
	return p.call(func(v *pollerView) error {
		v.highlight = target
		if v.base == nil {
			return nil
		}
		v.base = leaderboard.ApplyHighlight(v.base, target)
		v.rows = leaderboard.Sort(v.base, v.sort)
		p.emitRows(v)
		return nil
	})
}

func (p *LeaderboardPoller) Snapshot() ViewSnapshot {
	reply := make(chan ViewSnapshot, 1)
	if !p.enqueue(func(v *pollerView) { reply <- v.snapshot() }) {
		return ViewSnapshot{State: PollerStateDestroyed}
	}
	select {
	case snap := <-reply:
		return snap
	case <-p.loopDone:
		return ViewSnapshot{State: PollerStateDestroyed}
	}
}

func (p *LeaderboardPoller) State() PollerState {
	return p.Snapshot().State
}

// Destroy cancels the timer and every in-flight request, then waits for fetch goroutines.
// No listener callback fires after Destroy returns.
func (p *LeaderboardPoller) Destroy() {
	p.destroyOnce.Do(func() {
		close(p.closed)
		<-p.loopDone
		p.rootCancel()
		p.fetches.Wait()
	})
}

func (p *LeaderboardPoller) run(v *pollerView) {
	defer close(p.loopDone)
	for {
		select {
		case <-p.closed:
			p.newGeneration(v)
			v.state = PollerStateDestroyed
			p.logger.Info("leaderboard view destroyed", "selection", v.selection.String())
			return
		case cmd := <-p.cmds:
			cmd(v)
		case <-v.tickC:
			p.onTick(v)
		}
	}
}

func (p *LeaderboardPoller) enqueue(cmd func(*pollerView)) bool {
	select {
	case <-p.closed:
		return false
	default:
	}
	select {
	case p.cmds <- cmd:
		return true
	case <-p.closed:
		return false
	}
}

func (p *LeaderboardPoller) call(cmd func(*pollerView) error) error {
	reply := make(chan error, 1)
	if !p.enqueue(func(v *pollerView) { reply <- cmd(v) }) {
		return ErrViewDestroyed
	}
	select {
	case err := <-reply:
		return err
	case <-p.loopDone:
		return ErrViewDestroyed
	}
}

func (p *LeaderboardPoller) selectOn(v *pollerView, selection leaderboard.Selection, link trace.SpanContext) {
	p.newGeneration(v)
	v.selection = selection
	v.base = nil
	v.rows = nil
	v.labels = nil
	v.defaultOrderBy = ""
	v.ranks = leaderboard.NewRankTable()
	v.lastErr = nil
	v.state = PollerStateFetching
	if v.pending {
		v.pending = false
		p.listener.OnPendingUpdateChanged(false)
	}

	p.logger.Info("leaderboard selection changed", "selection", selection.String(), "generation", v.generation)
	v.fetchInFlight = true
	p.dispatchFetch(v, fetchKindInitial, link)
}

// newGeneration invalidates everything issued for the previous selection.
func (p *LeaderboardPoller) newGeneration(v *pollerView) {
	if v.stopTick != nil {
		v.stopTick()
	}
	v.tickC = nil
	v.stopTick = nil
	if v.genCancel != nil {
		v.genCancel()
	}
	v.generation++
	v.genCtx, v.genCancel = context.WithCancel(p.rootCtx)
	v.fetchInFlight = false
	v.peekInFlight = false
}

func (p *LeaderboardPoller) armTicker(v *pollerView) {
	if v.stopTick != nil {
		v.stopTick()
	}
	v.tickC, v.stopTick = p.newTicker(p.interval)
}

func (p *LeaderboardPoller) onTick(v *pollerView) {
	if v.state != PollerStateActive {
		return
	}
	if v.fetchInFlight || v.peekInFlight {
		leaderboardSkippedTicks.Inc()
		p.logger.Debug("poll tick skipped, fetch in flight", "selection", v.selection.String())
		return
	}
	v.peekInFlight = true
	p.dispatchPeek(v)
}

func (p *LeaderboardPoller) dispatchFetch(v *pollerView, kind string, link trace.SpanContext) {
	generation := v.generation
	selection := v.selection
	ctx := v.genCtx
	if link.IsValid() {
		ctx = trace.ContextWithSpanContext(ctx, link)
	}

	p.fetches.Go(func() {
		ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardPoller.fetch",
			attribute.String("leaderboard.phase_split_id", selection.PhaseSplitID),
			attribute.Bool("leaderboard.complete", selection.Complete),
			attribute.String("leaderboard.fetch_kind", kind),
		)
		defer span.End()

		page, err := leaderboard.Fetch(ctx, p.source, selection)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		p.enqueue(func(v *pollerView) { p.applyFetch(v, generation, kind, page, err) })
	})
}

func (p *LeaderboardPoller) dispatchPeek(v *pollerView) {
	generation := v.generation
	selection := v.selection
	ctx := v.genCtx

	p.fetches.Go(func() {
		count, err := p.source.CountLeaderboard(ctx, selection)
		p.enqueue(func(v *pollerView) { p.applyPeek(v, generation, count, err) })
	})
}

func (p *LeaderboardPoller) applyFetch(v *pollerView, generation uint64, kind string, page leaderboard.Page, err error) {
	if generation != v.generation {
		p.discardStale(v, kind, generation)
		return
	}
	v.fetchInFlight = false
	observeFetch(kind, err)

	if err != nil {
		v.lastErr = err
		if kind == fetchKindInitial {
			v.state = PollerStateIdle
			p.logger.ErrorContext(v.genCtx, "initial leaderboard fetch failed", "selection", v.selection.String(), "error", err)
		} else {
			p.logger.ErrorContext(v.genCtx, "leaderboard refresh failed, keeping last rows", "selection", v.selection.String(), "error", err)
		}
		p.listener.OnFetchError(err)
		return
	}

	now := p.clock()
	v.base = leaderboard.ReconcileBatch(page.Results, v.ranks, leaderboard.ReconcileOptions{
		Highlight: v.highlight,
		Now:       now,
		Sort:      v.sort,
	})
	v.rows = leaderboard.Sort(v.base, v.sort)
	v.labels = append([]string(nil), page.Labels...)
	v.defaultOrderBy = page.DefaultOrderBy
	v.lastErr = nil
	v.updatedAt = now
	leaderboardRows.Set(float64(len(v.rows)))

	p.logger.Debug("leaderboard reconciled", "selection", v.selection.String(), "rows", len(v.rows), "kind", kind)
	p.emitRows(v)
	if v.pending {
		v.pending = false
		p.listener.OnPendingUpdateChanged(false)
	}

	if kind == fetchKindInitial {
		v.state = PollerStateActive
		p.armTicker(v)
	}
}

func (p *LeaderboardPoller) applyPeek(v *pollerView, generation uint64, count int, err error) {
	if generation != v.generation {
		p.discardStale(v, fetchKindPeek, generation)
		return
	}
	v.peekInFlight = false
	observeFetch(fetchKindPeek, err)

	if err != nil {
		p.logger.Warn("leaderboard peek failed, retrying next tick", "selection", v.selection.String(), "error", err)
		if p.reporter != nil {
			p.reporter.ReportError(err)
		}
		return
	}
	// A refresh issued after this peek will bring newer rows anyway.
	if v.fetchInFlight {
		return
	}
	if count != len(v.rows) && !v.pending {
		v.pending = true
		p.logger.Info("leaderboard update available", "selection", v.selection.String(), "rows", len(v.rows), "count", count)
		p.listener.OnPendingUpdateChanged(true)
	}
}

func (p *LeaderboardPoller) discardStale(v *pollerView, kind string, generation uint64) {
	v.staleDiscards++
	leaderboardStaleDiscards.Inc()
	p.logger.Debug("stale leaderboard response discarded", "kind", kind, "generation", generation, "current_generation", v.generation)
}

func (p *LeaderboardPoller) emitRows(v *pollerView) {
	p.listener.OnRowsChanged(append([]leaderboard.Entry(nil), v.rows...))
}

func (v *pollerView) snapshot() ViewSnapshot {
	return ViewSnapshot{
		Selection:        v.selection,
		State:            v.state,
		Rows:             append([]leaderboard.Entry(nil), v.rows...),
		Sort:             v.sort,
		Highlight:        v.highlight,
		HasPendingUpdate: v.pending,
		Labels:           append([]string(nil), v.labels...),
		DefaultOrderBy:   v.defaultOrderBy,
		LastError:        v.lastErr,
		StaleDiscards:    v.staleDiscards,
		UpdatedAt:        v.updatedAt,
	}
}

type nopListener struct{}

func (nopListener) OnRowsChanged([]leaderboard.Entry) {}
func (nopListener) OnPendingUpdateChanged(bool)       {}
func (nopListener) OnFetchError(error)                {}
