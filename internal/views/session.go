// Package views manages live browse views: per-requester sessions that hold
// a frozen query result and a navigation cursor, and a TTL registry that
// retires them on expiry or replacement.
package views

import (
	"fmt"
	"sync"
	"time"

	"mcpbinder/config"
	"mcpbinder/internal/catalog"
	"mcpbinder/internal/render"
	"mcpbinder/pkg/pagination"
)

// Phase tracks a session's lifecycle.
type Phase int

const (
	PhaseLive Phase = iota
	PhaseRetired
)

// RetireReason records why a session left the registry.
type RetireReason string

const (
	RetireExpired  RetireReason = "expired"
	RetireReplaced RetireReason = "replaced"
	RetireClosed   RetireReason = "closed"
)

// Step computes the next cursor for a navigation action. first and last land
// on the boundary pages, prev and next clamp at the edges, and codes keeps
// the page while toggling the code catalog. Unknown actions are an error and
// leave the returned state equal to the input.
func Step(st pagination.State, showCodes bool, action string) (pagination.State, bool, error) {
	next := st
	codes := showCodes
	switch action {
	case render.ControlFirst:
		next.Page = 1
	case render.ControlPrev:
		if next.Page > 1 {
			next.Page--
		}
	case render.ControlNext:
		if next.Page < next.TotalPages {
			next.Page++
		}
	case render.ControlLast:
		next.Page = next.TotalPages
	case render.ControlCodes:
		codes = !codes
	default:
		return st, showCodes, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return next, codes, nil
}

// Session is one live browse view: an immutable, sorted result set plus the
// cursor that navigates it. A session processes one action at a time; the
// cursor only moves when the new page rendered successfully.
type Session struct {
	ID        string
	Requester string
	Owner     string
	Query     string
	CreatedAt time.Time
	// ExpiresAt is fixed at construction. Navigation does not extend it.
	ExpiresAt time.Time

	renderer render.Renderer

	mu        sync.Mutex
	items     []catalog.Item
	state     pagination.State
	showCodes bool
	phase     Phase
}

// Config seeds a session.
type Config struct {
	ID        string
	Requester string
	Owner     string
	Query     string
	Items     []catalog.Item
	PageSize  int
	Page      int
	Renderer  render.Renderer
	Now       time.Time
	TTL       time.Duration
}

// NewSession builds a live session over a sorted result set. The requested
// page clamps into range. Pass PageSize or TTL <= 0 to use defaults from
// config; a zero Now falls back to the wall clock.
func NewSession(cfg Config) *Session {
	if cfg.PageSize <= 0 {
		cfg.PageSize = config.DefaultPageSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = config.DefaultViewTTL
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	return &Session{
		ID:        cfg.ID,
		Requester: cfg.Requester,
		Owner:     cfg.Owner,
		Query:     cfg.Query,
		CreatedAt: cfg.Now,
		ExpiresAt: cfg.Now.Add(cfg.TTL),
		renderer:  cfg.Renderer,
		items:     cfg.Items,
		state:     pagination.Paginate(len(cfg.Items), cfg.PageSize, cfg.Page),
	}
}

// Expired reports whether the session has passed its fixed expiry instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// RenderCurrent renders the page the cursor points at without moving it.
func (s *Session) RenderCurrent() (render.Page, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.buildPage(s.state, s.showCodes)
	payload, err := s.renderer.Render(page)
	if err != nil {
		return render.Page{}, nil, err
	}
	return page, payload, nil
}

// Handle applies one action. The transition commits only after the new page
// rendered successfully; on any failure the cursor and catalog toggle keep
// their previous values.
func (s *Session) Handle(action string) (render.Page, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseLive {
		return render.Page{}, nil, ErrViewExpired
	}
	nextState, nextCodes, err := Step(s.state, s.showCodes, action)
	if err != nil {
		return render.Page{}, nil, err
	}
	page := s.buildPage(nextState, nextCodes)
	payload, err := s.renderer.Render(page)
	if err != nil {
		return render.Page{}, nil, err
	}
	s.state = nextState
	s.showCodes = nextCodes
	return page, payload, nil
}

// State returns the current cursor. Mainly for logging and tests.
func (s *Session) State() pagination.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RenderCleared is the terminal payload for a retired view: the same page
// header with no items and every control disabled.
func (s *Session) RenderCleared() render.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := render.NewPage(render.PageInput{
		ViewID:     s.ID,
		Owner:      s.Owner,
		Query:      s.Query,
		State:      s.state,
		TotalItems: len(s.items),
		ExpiresAt:  s.ExpiresAt,
	})
	page.Controls = render.ClearedControls()
	return page
}

func (s *Session) retire() {
	s.mu.Lock()
	s.phase = PhaseRetired
	s.mu.Unlock()
}

// buildPage slices the current window out of the result set. Callers hold mu.
func (s *Session) buildPage(st pagination.State, showCodes bool) render.Page {
	lo, hi := st.Window(len(s.items))
	return render.NewPage(render.PageInput{
		ViewID:     s.ID,
		Owner:      s.Owner,
		Query:      s.Query,
		State:      st,
		TotalItems: len(s.items),
		Window:     s.items[lo:hi],
		ShowCodes:  showCodes,
		ExpiresAt:  s.ExpiresAt,
	})
}
