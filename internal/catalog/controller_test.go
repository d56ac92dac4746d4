package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type reply struct {
	page Page
	err  error
}

type pendingFetch struct {
	q     Query
	reply chan reply
}

func (p *pendingFetch) respond(page Page) { p.reply <- reply{page: page} }
func (p *pendingFetch) fail(err error)    { p.reply <- reply{err: err} }

type stubFetcher struct {
	calls chan *pendingFetch
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{calls: make(chan *pendingFetch, 16)}
}

func (s *stubFetcher) fetch(ctx context.Context, q Query) (Page, error) {
	p := &pendingFetch{q: q, reply: make(chan reply, 1)}
	s.calls <- p
	select {
	case r := <-p.reply:
		return r.page, r.err
	case <-ctx.Done():
		return Page{}, ctx.Err()
	}
}

func (s *stubFetcher) next(t *testing.T) *pendingFetch {
	t.Helper()
	select {
	case p := <-s.calls:
		return p
	case <-time.After(time.Second):
		t.Fatal("expected a fetch to be issued")
		return nil
	}
}

func (s *stubFetcher) none(t *testing.T) {
	t.Helper()
	select {
	case p := <-s.calls:
		t.Fatalf("unexpected fetch for %+v", p.q)
	case <-time.After(30 * time.Millisecond):
	}
}

type fakeTimer struct {
	mu      sync.Mutex
	f       func()
	d       time.Duration
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := !t.stopped
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f, d: d}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) active() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		t.mu.Lock()
		if !t.stopped {
			out = append(out, t)
		}
		t.mu.Unlock()
	}
	return out
}

// elapse fires every armed timer, as if the window passed.
func (c *fakeClock) elapse() {
	for _, t := range c.active() {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()
		t.f()
	}
}

func products(ids ...int64) []Product {
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, Product{ID: id, Name: "P"})
	}
	return out
}

func ids(rows []Product) []int64 {
	out := make([]int64, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.ID)
	}
	return out
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *stubFetcher, *fakeClock) {
	t.Helper()
	stub := newStubFetcher()
	clock := &fakeClock{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	all := append([]Option{WithAfterFunc(clock.AfterFunc), WithLogger(logger)}, opts...)
	c := NewController(context.Background(), stub.fetch, all...)
	t.Cleanup(c.Close)
	return c, stub, clock
}

func settle(t *testing.T, c *Controller) View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v := c.Settle(ctx)
	require.False(t, v.Loading, "controller did not settle")
	return v
}

func TestControllerStartFetchesDefaultQuery(t *testing.T) {
	c, stub, _ := newTestController(t, WithPageSize(20))
	c.Start()

	p := stub.next(t)
	assert.Equal(t, 0, p.q.Page)
	assert.Equal(t, 20, p.q.Size)
	assert.Equal(t, DefaultSort, p.q.Sort)
	assert.True(t, p.q.Active())
	assert.True(t, c.View().Loading)

	p.respond(Page{Content: products(1, 2), TotalPages: 3, TotalElements: 25})
	v := settle(t, c)
	assert.Equal(t, []int64{1, 2}, ids(v.Rows))
	assert.Equal(t, int64(25), v.TotalElements)
	assert.Equal(t, 3, v.TotalPages)
	assert.False(t, v.Last)
}

func TestControllerDebouncesFilterChanges(t *testing.T) {
	c, stub, clock := newTestController(t)
	c.Start()
	stub.next(t).respond(Page{Content: products(1)})
	settle(t, c)

	c.Dispatch(PageRequested{Page: 2})
	stub.next(t).respond(Page{Content: products(9)})
	settle(t, c)

	c.Dispatch(SearchChanged{Text: "l"})
	c.Dispatch(SearchChanged{Text: "la"})
	c.Dispatch(SearchChanged{Text: "lap"})
	stub.none(t)

	armed := clock.active()
	require.Len(t, armed, 1)
	assert.Equal(t, DefaultWindow, armed[0].d)
	assert.True(t, c.View().Pending)

	clock.elapse()
	p := stub.next(t)
	assert.Equal(t, "lap", p.q.Search)
	assert.Equal(t, 0, p.q.Page)
	stub.none(t)
	p.respond(Page{Content: products(5)})
	v := settle(t, c)
	assert.Equal(t, []int64{5}, ids(v.Rows))
	assert.False(t, v.Pending)
}

func TestControllerIgnoresSupersededTimer(t *testing.T) {
	c, stub, clock := newTestController(t)
	c.Start()
	stub.next(t).respond(Page{})
	settle(t, c)

	c.Dispatch(SortClicked{Key: "price"})
	first := clock.active()[0]
	c.Dispatch(SortClicked{Key: "price"})

	first.f()
	stub.none(t)

	clock.elapse()
	p := stub.next(t)
	assert.Equal(t, "price,desc", p.q.Sort.Param())
}

func TestControllerPageNavigationIsImmediate(t *testing.T) {
	c, stub, clock := newTestController(t)
	c.Start()
	stub.next(t).respond(Page{Content: products(1, 2), TotalPages: 3})
	settle(t, c)

	c.Dispatch(PageRequested{Page: 1})
	p := stub.next(t)
	assert.Equal(t, 1, p.q.Page)
	assert.Empty(t, clock.active())

	p.respond(Page{Content: products(3, 4), TotalPages: 3})
	v := settle(t, c)
	assert.Equal(t, []int64{3, 4}, ids(v.Rows))
}

func TestControllerLatestResponseWinsWhenStaleArrivesFirst(t *testing.T) {
	c, stub, clock := newTestController(t)
	c.Start()
	stub.next(t).respond(Page{Content: products(1)})
	settle(t, c)

	c.Dispatch(SearchChanged{Text: "arroz"})
	clock.elapse()
	stale := stub.next(t)

	c.Dispatch(SearchChanged{Text: "azucar"})
	clock.elapse()
	latest := stub.next(t)
	require.Equal(t, "azucar", latest.q.Search)

	stale.respond(Page{Content: products(10, 11)})
	assert.Never(t, func() bool { return !c.View().Loading }, 50*time.Millisecond, 5*time.Millisecond)

	latest.respond(Page{Content: products(20)})
	v := settle(t, c)
	assert.Equal(t, []int64{20}, ids(v.Rows))
	assert.Equal(t, "azucar", v.Query.Search)
}

func TestControllerLatestResponseWinsWhenStaleArrivesLast(t *testing.T) {
	c, stub, clock := newTestController(t)
	c.Start()
	stub.next(t).respond(Page{Content: products(1)})
	settle(t, c)

	c.Dispatch(SearchChanged{Text: "arroz"})
	clock.elapse()
	stale := stub.next(t)

	c.Dispatch(SearchChanged{Text: "azucar"})
	clock.elapse()
	latest := stub.next(t)

	latest.respond(Page{Content: products(20)})
	settle(t, c)

	stale.respond(Page{Content: products(10, 11)})
	assert.Never(t, func() bool {
		return len(c.View().Rows) != 1 || c.View().Rows[0].ID != 20
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestControllerFailureKeepsRows(t *testing.T) {
	c, stub, _ := newTestController(t)
	c.Start()
	stub.next(t).respond(Page{Content: products(1, 2), TotalPages: 1, Last: true})
	settle(t, c)

	c.Refresh()
	stub.next(t).fail(&shared.Error{Kind: shared.ErrTransport})
	v := settle(t, c)

	assert.Equal(t, []int64{1, 2}, ids(v.Rows))
	require.Error(t, v.Err)
	assert.ErrorIs(t, v.Err, shared.ErrTransport)
	assert.Equal(t, "could not load products", v.Error)
	stub.none(t)

	c.Refresh()
	stub.next(t).respond(Page{Content: products(3)})
	v = settle(t, c)
	assert.NoError(t, v.Err)
	assert.Empty(t, v.Error)
}

func TestControllerFailedPageKeepsCursorInPagerMode(t *testing.T) {
	c, stub, _ := newTestController(t)
	c.Start()
	stub.next(t).respond(Page{Content: products(1, 2), TotalPages: 3})
	settle(t, c)

	c.Dispatch(PageRequested{Page: 2})
	p := stub.next(t)
	assert.Equal(t, 2, p.q.Page)
	p.fail(&shared.Error{Kind: shared.ErrTransport})
	v := settle(t, c)

	assert.Equal(t, []int64{1, 2}, ids(v.Rows))
	assert.Equal(t, 0, v.Query.Page)
	assert.ErrorIs(t, v.Err, shared.ErrTransport)

	c.Dispatch(PageRequested{Page: 2})
	p = stub.next(t)
	assert.Equal(t, 2, p.q.Page)
	p.respond(Page{Content: products(5, 6), TotalPages: 3, Last: true})
	v = settle(t, c)
	assert.Equal(t, []int64{5, 6}, ids(v.Rows))
	assert.Equal(t, 2, v.Query.Page)
	assert.NoError(t, v.Err)
}

func TestControllerLoadMoreRetriesFailedPage(t *testing.T) {
	c, stub, _ := newTestController(t, WithMode(ModeAppend))
	c.Start()
	stub.next(t).respond(Page{Content: products(1, 2), TotalPages: 3})
	settle(t, c)

	c.LoadMore()
	p := stub.next(t)
	assert.Equal(t, 1, p.q.Page)
	p.fail(&shared.Error{Kind: shared.ErrTransport})
	v := settle(t, c)

	assert.Equal(t, []int64{1, 2}, ids(v.Rows))
	assert.Equal(t, 0, v.Query.Page)
	assert.ErrorIs(t, v.Err, shared.ErrTransport)

	c.LoadMore()
	p = stub.next(t)
	assert.Equal(t, 1, p.q.Page)
	p.respond(Page{Content: products(3, 4), TotalPages: 3})
	v = settle(t, c)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(v.Rows))
	assert.Equal(t, 1, v.Query.Page)
}

func TestControllerAppendModeDeduplicates(t *testing.T) {
	c, stub, clock := newTestController(t, WithMode(ModeAppend))
	c.Start()
	stub.next(t).respond(Page{Content: products(1, 2), TotalPages: 2})
	settle(t, c)

	c.LoadMore()
	p := stub.next(t)
	assert.Equal(t, 1, p.q.Page)
	p.respond(Page{Content: products(2, 3), TotalPages: 2, Last: true})
	v := settle(t, c)
	assert.Equal(t, []int64{1, 2, 3}, ids(v.Rows))
	assert.True(t, v.Last)

	c.LoadMore()
	stub.none(t)

	c.Dispatch(SearchChanged{Text: "pan"})
	clock.elapse()
	p = stub.next(t)
	assert.Equal(t, 0, p.q.Page)
	p.respond(Page{Content: products(7), TotalPages: 1, Last: true})
	v = settle(t, c)
	assert.Equal(t, []int64{7}, ids(v.Rows), "filter changes replace accumulated rows")
}

func TestControllerLoadMoreWaitsForPendingFilter(t *testing.T) {
	c, stub, _ := newTestController(t, WithMode(ModeAppend))
	c.Start()
	stub.next(t).respond(Page{Content: products(1), TotalPages: 4})
	settle(t, c)

	c.Dispatch(SearchChanged{Text: "cafe"})
	c.LoadMore()
	stub.none(t)
}

func TestControllerNotifiesAndCloses(t *testing.T) {
	notified := make(chan View, 4)
	c, stub, clock := newTestController(t, WithNotifier(func(v View) { notified <- v }))
	c.Start()
	stub.next(t).respond(Page{Content: products(4)})

	select {
	case v := <-notified:
		assert.Equal(t, []int64{4}, ids(v.Rows))
	case <-time.After(time.Second):
		t.Fatal("notifier not called")
	}

	c.Dispatch(ArchivedChanged{Archived: true})
	c.Close()
	assert.Empty(t, clock.active())
	c.Dispatch(SearchChanged{Text: "x"})
	c.Refresh()
	stub.none(t)
	assert.False(t, c.View().Loading)
}

func TestControllerCloseReleasesInFlightFetch(t *testing.T) {
	c, stub, _ := newTestController(t)
	c.Start()
	p := stub.next(t)
	c.Close()

	v := settle(t, c)
	assert.Empty(t, v.Rows)
	p.fail(errors.New("late"))
}
