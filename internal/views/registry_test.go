package views

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mcpbinder/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// retireRecorder captures retirement callbacks for assertions.
type retireRecorder struct {
	mu      sync.Mutex
	reasons map[string]RetireReason
	counts  map[string]int
}

func newRetireRecorder() *retireRecorder {
	return &retireRecorder{
		reasons: make(map[string]RetireReason),
		counts:  make(map[string]int),
	}
}

func (rr *retireRecorder) record(s *Session, reason RetireReason) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.reasons[s.ID] = reason
	rr.counts[s.ID]++
}

func (rr *retireRecorder) reason(id string) (RetireReason, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	r, ok := rr.reasons[id]
	return r, ok
}

func (rr *retireRecorder) count(id string) int {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.counts[id]
}

// testClock pins registry time to the instant newTestSession stamps on its
// sessions, so helpers stay live unless a test advances time itself.
func testClock() time.Time { return time.Unix(1700000000, 0) }

func TestRegistryRegister_ReplacesLiveViewPerRequester(t *testing.T) {
	rec := newRetireRecorder()
	r := NewRegistry(5*time.Minute, time.Minute, testClock, rec.record)

	v1 := newTestSession("v-1", "req-a", 25)
	require.Nil(t, r.Register(v1))
	require.Equal(t, 1, r.Count())

	v2 := newTestSession("v-2", "req-a", 25)
	replaced := r.Register(v2)
	require.Same(t, v1, replaced)
	require.Equal(t, 1, r.Count())

	reason, ok := rec.reason("v-1")
	require.True(t, ok)
	require.Equal(t, RetireReplaced, reason)

	// The replaced view is gone; the new one responds.
	_, err := r.Dispatch("v-1", "req-a", "next")
	require.ErrorIs(t, err, ErrViewNotFound)
	res, err := r.Dispatch("v-2", "req-a", "next")
	require.NoError(t, err)
	require.Equal(t, 2, res.Page.Page)

	// A different requester gets an independent view.
	v3 := newTestSession("v-3", "req-b", 25)
	require.Nil(t, r.Register(v3))
	require.Equal(t, 2, r.Count())
}

func TestRegistryDispatch_ExpiredViewRetiredLazily(t *testing.T) {
	// Custom clock we can advance.
	var now atomic.Int64
	base := time.Unix(1700000000, 0)
	now.Store(base.UnixNano())
	clock := func() time.Time { return time.Unix(0, now.Load()) }

	rec := newRetireRecorder()
	r := NewRegistry(time.Minute, time.Minute, clock, rec.record)

	s := NewSession(Config{
		ID:        "v-1",
		Requester: "req-a",
		Owner:     "Kara",
		Items:     testItems(25),
		PageSize:  12,
		Renderer:  render.Renderer{MaxPayloadBytes: 64 * 1024},
		Now:       clock(),
		TTL:       time.Minute,
	})
	r.Register(s)

	// Within the TTL the view responds.
	res, err := r.Dispatch("v-1", "req-a", "next")
	require.NoError(t, err)
	require.Equal(t, 2, res.Page.Page)

	// Past the TTL the first touch retires it.
	now.Store(base.Add(2 * time.Minute).UnixNano())
	_, err = r.Dispatch("v-1", "req-a", "next")
	require.ErrorIs(t, err, ErrViewExpired)
	require.Equal(t, 0, r.Count())

	reason, ok := rec.reason("v-1")
	require.True(t, ok)
	require.Equal(t, RetireExpired, reason)

	// Navigation never extended the lifetime, and a retired view is unknown.
	_, err = r.Dispatch("v-1", "req-a", "next")
	require.ErrorIs(t, err, ErrViewNotFound)

	// A sweep arriving after the lazy retirement finds nothing left to do;
	// the clear-controls callback fired exactly once.
	r.EvictExpired()
	require.Equal(t, 1, rec.count("v-1"))
}

func TestRegistryDispatch_IgnoresForeignRequester(t *testing.T) {
	r := NewRegistry(5*time.Minute, time.Minute, testClock, nil)
	s := newTestSession("v-1", "req-a", 25)
	r.Register(s)

	res, err := r.Dispatch("v-1", "req-b", "next")
	require.NoError(t, err)
	require.True(t, res.Ignored)
	require.Equal(t, 1, s.State().Page, "a foreign action must not move the cursor")

	res, err = r.Dispatch("v-1", "req-a", "next")
	require.NoError(t, err)
	require.False(t, res.Ignored)
	require.Equal(t, 2, res.Page.Page)
}

func TestRegistryEvictExpired_SweepsOnlyExpiredViews(t *testing.T) {
	var now atomic.Int64
	base := time.Unix(1700000000, 0)
	now.Store(base.UnixNano())
	clock := func() time.Time { return time.Unix(0, now.Load()) }

	rec := newRetireRecorder()
	r := NewRegistry(time.Minute, time.Minute, clock, rec.record)

	old := NewSession(Config{
		ID: "v-old", Requester: "req-a", Items: testItems(5),
		Renderer: render.Renderer{}, Now: base, TTL: time.Minute,
	})
	fresh := NewSession(Config{
		ID: "v-fresh", Requester: "req-b", Items: testItems(5),
		Renderer: render.Renderer{}, Now: base.Add(5 * time.Minute), TTL: time.Minute,
	})
	r.Register(old)
	r.Register(fresh)

	now.Store(base.Add(2 * time.Minute).UnixNano())
	r.EvictExpired()

	require.Equal(t, 1, r.Count())
	_, ok := rec.reason("v-old")
	require.True(t, ok)
	_, ok = rec.reason("v-fresh")
	require.False(t, ok)
}

func TestRegistryClose_RetiresEverything(t *testing.T) {
	rec := newRetireRecorder()
	r := NewRegistry(5*time.Minute, 10*time.Millisecond, testClock, rec.record)
	r.Start()

	r.Register(newTestSession("v-1", "req-a", 5))
	r.Register(newTestSession("v-2", "req-b", 5))

	require.NoError(t, r.Close(context.Background()))
	require.Equal(t, 0, r.Count())

	for _, id := range []string{"v-1", "v-2"} {
		reason, ok := rec.reason(id)
		require.True(t, ok, "view %s", id)
		require.Equal(t, RetireClosed, reason)
	}
}

func TestRegistryDispatch_ConcurrentActionsSerialize(t *testing.T) {
	r := NewRegistry(5*time.Minute, time.Minute, testClock, nil)
	s := newTestSession("v-1", "req-a", 25) // 3 pages at size 12
	r.Register(s)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Dispatch("v-1", "req-a", "next")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// Ten nexts from page 1 clamp at the final page.
	require.Equal(t, 3, s.State().Page)
}
