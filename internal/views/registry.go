package views

import (
	"context"
	"errors"
	"sync"
	"time"

	"mcpbinder/config"
	"mcpbinder/internal/render"
)

var (
	// ErrViewNotFound indicates an unknown view ID.
	ErrViewNotFound = errors.New("views: view not found")
	// ErrViewExpired indicates a view past its TTL or already retired.
	ErrViewExpired = errors.New("views: view expired")
	// ErrUnknownAction indicates an action identifier outside the control
	// vocabulary. Callers treat it as a no-op rather than a failure.
	ErrUnknownAction = errors.New("views: unknown action")
)

// RetireFunc observes a session leaving the registry. It runs outside the
// registry lock; implementations typically log and deliver the cleared
// control strip.
type RetireFunc func(s *Session, reason RetireReason)

// Result is the outcome of a dispatched action.
type Result struct {
	// Ignored is set when the action came from someone other than the view's
	// requester. The view is untouched and no payload is produced.
	Ignored bool
	Page    render.Page
	Payload []byte
}

// Registry tracks live browse views and enforces one live view per
// requester. Expired views are retired lazily on dispatch and by a periodic
// sweep.
type Registry struct {
	mu          sync.RWMutex
	views       map[string]*Session
	byRequester map[string]string

	ttl        time.Duration
	sweepEvery time.Duration
	clock      func() time.Time
	onRetire   RetireFunc

	stopCh  chan struct{}
	sweepWG sync.WaitGroup
}

// NewRegistry constructs a view registry. Pass ttl or sweepEvery <= 0 to use
// defaults from config; clock defaults to time.Now when nil.
func NewRegistry(ttl, sweepEvery time.Duration, clock func() time.Time, onRetire RetireFunc) *Registry {
	if ttl <= 0 {
		ttl = config.DefaultViewTTL
	}
	if sweepEvery <= 0 {
		sweepEvery = config.DefaultViewSweepPeriod
	}
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		views:       make(map[string]*Session),
		byRequester: make(map[string]string),
		ttl:         ttl,
		sweepEvery:  sweepEvery,
		clock:       clock,
		onRetire:    onRetire,
		stopCh:      make(chan struct{}),
	}
}

// TTL returns the registry's view lifetime.
func (r *Registry) TTL() time.Duration { return r.ttl }

// Clock returns the registry's time source, for stamping new sessions.
func (r *Registry) Clock() func() time.Time { return r.clock }

// Start launches periodic eviction of expired views.
func (r *Registry) Start() {
	r.sweepWG.Add(1)
	ticker := time.NewTicker(r.sweepEvery)
	go func() {
		defer r.sweepWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.EvictExpired()
			}
		}
	}()
}

// Close stops the sweep loop and retires every remaining view.
func (r *Registry) Close(ctx context.Context) error {
	close(r.stopCh)
	done := make(chan struct{})
	go func() { r.sweepWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	remaining := make([]*Session, 0, len(r.views))
	for id, s := range r.views {
		remaining = append(remaining, s)
		delete(r.views, id)
	}
	r.byRequester = make(map[string]string)
	r.mu.Unlock()

	for _, s := range remaining {
		r.retire(s, RetireClosed)
	}
	return nil
}

// Register adds a live session. An existing live view for the same requester
// is retired as replaced; the caller gets it back for logging. The registry
// itself is unbounded, replacement is the only eviction besides TTL.
func (r *Registry) Register(s *Session) *Session {
	r.mu.Lock()
	var replaced *Session
	if oldID, ok := r.byRequester[s.Requester]; ok {
		if old := r.views[oldID]; old != nil {
			replaced = old
			delete(r.views, oldID)
		}
	}
	r.views[s.ID] = s
	r.byRequester[s.Requester] = s.ID
	r.mu.Unlock()

	if replaced != nil {
		r.retire(replaced, RetireReplaced)
	}
	return replaced
}

// Dispatch routes an action to a view. Unknown views return ErrViewNotFound;
// views past their TTL are retired on the spot and return ErrViewExpired.
// Actions from anyone but the view's requester are ignored without touching
// the view.
func (r *Registry) Dispatch(viewID, requester, action string) (Result, error) {
	r.mu.RLock()
	s, ok := r.views[viewID]
	r.mu.RUnlock()
	if !ok {
		return Result{}, ErrViewNotFound
	}

	if s.Expired(r.clock()) {
		if r.removeIfCurrent(s) {
			r.retire(s, RetireExpired)
		}
		return Result{}, ErrViewExpired
	}

	if requester != s.Requester {
		return Result{Ignored: true}, nil
	}

	page, payload, err := s.Handle(action)
	if err != nil {
		return Result{}, err
	}
	return Result{Page: page, Payload: payload}, nil
}

// EvictExpired retires every view past its TTL.
func (r *Registry) EvictExpired() {
	now := r.clock()

	r.mu.RLock()
	var expired []*Session
	for _, s := range r.views {
		if s.Expired(now) {
			expired = append(expired, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range expired {
		if r.removeIfCurrent(s) {
			r.retire(s, RetireExpired)
		}
	}
}

// Count returns the number of live views.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}

// removeIfCurrent deletes the session from the registry only when the map
// still holds this exact session; a concurrent replacement or sweep may have
// removed it already. Reports whether this call removed it.
func (r *Registry) removeIfCurrent(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.views[s.ID] != s {
		return false
	}
	delete(r.views, s.ID)
	if r.byRequester[s.Requester] == s.ID {
		delete(r.byRequester, s.Requester)
	}
	return true
}

func (r *Registry) retire(s *Session, reason RetireReason) {
	s.retire()
	if r.onRetire != nil {
		r.onRetire(s, reason)
	}
}
