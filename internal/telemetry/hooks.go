// Package telemetry centralizes lifecycle logging for the binder server.
// It is intentionally minimal; metrics backends can be added later under
// this package.
package telemetry

import (
	"github.com/rs/zerolog"

	"mcpbinder/internal/views"
)

// Hooks logs server and view lifecycle events.
type Hooks struct {
	logger zerolog.Logger
}

// NewHooks constructs a Hooks instance with the provided logger.
func NewHooks(logger zerolog.Logger) *Hooks {
	return &Hooks{logger: logger}
}

// OnSessionStart records the start of a client session.
func (h *Hooks) OnSessionStart(sessionID string) {
	h.logger.Info().Str("session_id", sessionID).Msg("session registered")
}

// OnSessionEnd records the end of a client session. Views the session opened
// are not torn down here; they lapse through their own TTL.
func (h *Hooks) OnSessionEnd(sessionID string) {
	h.logger.Info().Str("session_id", sessionID).Msg("session unregistered")
}

// OnViewRetired records a browse view leaving the registry. The cleared
// control strip is rendered here so the terminal state of the view appears
// in the log even though stdio transports cannot push it to the client.
func (h *Hooks) OnViewRetired(s *views.Session, reason views.RetireReason) {
	cleared := s.RenderCleared()
	h.logger.Debug().
		Str("view_id", s.ID).
		Str("requester", s.Requester).
		Str("owner", s.Owner).
		Str("reason", string(reason)).
		Int("page", cleared.Page).
		Int("total_pages", cleared.TotalPages).
		Msg("view retired, controls cleared")
}
