package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Mode selects how page navigation materializes rows.
type Mode string

const (
	// ModeReplace is the classic pager: each page replaces the visible rows.
	ModeReplace Mode = "pager"
	// ModeAppend is infinite scroll: new rows are appended, deduplicated by id.
	ModeAppend Mode = "scroll"
)

// DefaultWindow is the quiescence window of filter changes.
const DefaultWindow = 300 * time.Millisecond

// Fetcher loads one page of products for a query.
type Fetcher func(ctx context.Context, q Query) (Page, error)

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arms a timer that calls f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// View is a snapshot of the materialized listing.
type View struct {
	Rows          []Product `json:"rows"`
	Query         Query     `json:"query"`
	Mode          Mode      `json:"mode"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
	Last          bool      `json:"last"`
	Loading       bool      `json:"loading"`
	Pending       bool      `json:"pending"`
	Err           error     `json:"-"`
	Error         string    `json:"error,omitempty"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithMode selects replace or append materialization.
func WithMode(mode Mode) Option {
	return func(c *Controller) { c.mode = mode }
}

// WithWindow overrides the debounce window.
func WithWindow(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithAfterFunc injects the timer factory.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = fn }
}

// WithPageSize sets the initial page size.
func WithPageSize(size int) Option {
	return func(c *Controller) { c.query = NewQuery(size) }
}

// WithNotifier registers a callback invoked after each applied response.
func WithNotifier(fn func(View)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithLogger sets the logger used for failed fetches.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller reconciles listing events into remote fetches. Filter changes are
// debounced, page navigation is immediate, and only the response of the most
// recently issued request is applied.
type Controller struct {
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	fetch     Fetcher
	mode      Mode
	window    time.Duration
	afterFunc AfterFunc
	notify    func(View)
	logger    *slog.Logger

	query      Query
	loadedPage int
	rows       []Product
	total      int64
	totalPages int
	last       bool
	err        error

	seq     uint64
	loading bool
	idle    chan struct{}
	timer   Timer
	timerID uint64
	closed  bool
}

// NewController builds a controller. ctx carries the credentials used by fetch
// and bounds the controller's lifetime.
func NewController(ctx context.Context, fetch Fetcher, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(ctx)
	c := &Controller{
		ctx:       ctx,
		cancel:    cancel,
		fetch:     fetch,
		mode:      ModeReplace,
		window:    DefaultWindow,
		afterFunc: realAfterFunc,
		logger:    slog.Default(),
		query:     NewQuery(DefaultPageSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.mode != ModeAppend {
		c.mode = ModeReplace
	}
	return c
}

// Start issues the first fetch.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.issueLocked(c.query, false, false)
}

// Dispatch applies ev and schedules the fetch it requires.
func (c *Controller) Dispatch(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.dispatchLocked(ev)
}

func (c *Controller) dispatchLocked(ev Event) {
	next, effect := Reduce(c.query, ev)
	c.query = next
	switch effect {
	case EffectDebounce:
		c.armLocked()
	case EffectReload:
		c.disarmLocked()
		c.issueLocked(c.query, false, false)
	case EffectFetch:
		c.disarmLocked()
		c.issueLocked(c.query, c.mode == ModeAppend, true)
	}
}

// LoadMore requests the page after the current one. It is a no-op on the last
// page, while a fetch is in flight, or while a filter change is pending.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.last || c.loading || c.timer != nil {
		return
	}
	c.dispatchLocked(PageRequested{Page: c.query.Page + 1})
}

// Refresh re-fetches the visible rows, for example after an archive toggle.
// In append mode the listing restarts from the first page.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.disarmLocked()
	if c.mode == ModeAppend {
		c.query.Page = 0
	}
	c.issueLocked(c.query, false, false)
}

// Close stops the pending timer, cancels in-flight fetches and ignores any
// response that still arrives.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.disarmLocked()
	c.cancel()
	if c.loading {
		c.loading = false
		close(c.idle)
	}
}

// View returns a snapshot of the listing.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Settle waits until no fetch is in flight or ctx is done, then returns the view.
func (c *Controller) Settle(ctx context.Context) View {
	c.mu.Lock()
	if !c.loading {
		v := c.viewLocked()
		c.mu.Unlock()
		return v
	}
	idle := c.idle
	c.mu.Unlock()
	select {
	case <-idle:
	case <-ctx.Done():
	}
	return c.View()
}

func (c *Controller) armLocked() {
	c.disarmLocked()
	c.timerID++
	id := c.timerID
	c.timer = c.afterFunc(c.window, func() { c.fire(id) })
}

func (c *Controller) disarmLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerID++
}

func (c *Controller) fire(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || id != c.timerID {
		return
	}
	c.timer = nil
	c.issueLocked(c.query, false, false)
}

// issueLocked starts a fetch of q. navigate marks a page request: when it fails
// the cursor returns to the last page that loaded.
func (c *Controller) issueLocked(q Query, appendRows, navigate bool) {
	c.seq++
	seq := c.seq
	if !c.loading {
		c.loading = true
		c.idle = make(chan struct{})
	}
	go c.run(seq, q, appendRows, navigate)
}

func (c *Controller) run(seq uint64, q Query, appendRows, navigate bool) {
	page, err := c.fetch(c.ctx, q)

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.loading = false
	close(c.idle)
	if err != nil {
		c.err = err
		c.logger.Warn("catalog fetch failed", slog.Any("error", err), slog.String("search", q.Search), slog.Int("page", q.Page))
		if navigate && c.query.Page == q.Page {
			c.query.Page = c.loadedPage
		}
	} else {
		c.err = nil
		c.applyLocked(page, appendRows)
		c.loadedPage = q.Page
	}
	view := c.viewLocked()
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify(view)
	}
}

func (c *Controller) applyLocked(page Page, appendRows bool) {
	if appendRows {
		seen := make(map[int64]struct{}, len(c.rows))
		for _, p := range c.rows {
			seen[p.ID] = struct{}{}
		}
		for _, p := range page.Content {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			c.rows = append(c.rows, p)
		}
	} else {
		c.rows = append([]Product(nil), page.Content...)
	}
	c.total = page.TotalElements
	c.totalPages = page.TotalPages
	c.last = page.Last
}

func (c *Controller) viewLocked() View {
	v := View{
		Rows:          append([]Product(nil), c.rows...),
		Query:         c.query,
		Mode:          c.mode,
		TotalElements: c.total,
		TotalPages:    c.totalPages,
		Last:          c.last,
		Loading:       c.loading,
		Pending:       c.timer != nil,
		Err:           c.err,
	}
	if v.Rows == nil {
		v.Rows = []Product{}
	}
	if c.err != nil {
		v.Error = shared.Reason(c.err, "could not load products")
	}
	return v
}
