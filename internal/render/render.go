// Package render builds the structured page payloads a browse view returns
// to its requester, including the navigation control strip and the optional
// code catalog.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mcpbinder/internal/catalog"
	"mcpbinder/pkg/pagination"
)

// Control ids. view_action accepts these as its action argument.
const (
	ControlFirst = "first"
	ControlPrev  = "prev"
	ControlNext  = "next"
	ControlLast  = "last"
	ControlCodes = "codes"
)

// Control is one navigation affordance attached to a rendered page. IDs are
// stable across renders; clients dispatch view_action with them.
type Control struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// Controls returns the navigation strip for a page, always in the same
// order. Edge controls disable instead of disappearing so the strip shape
// never changes between pages.
func Controls(st pagination.State) []Control {
	return []Control{
		{ID: ControlFirst, Label: "First", Enabled: st.HasPrev()},
		{ID: ControlPrev, Label: "Previous", Enabled: st.HasPrev()},
		{ID: ControlNext, Label: "Next", Enabled: st.HasNext()},
		{ID: ControlLast, Label: "Last", Enabled: st.HasNext()},
		{ID: ControlCodes, Label: "Codes", Enabled: true},
	}
}

// ClearedControls returns the strip with every control disabled. It stands
// in for the live strip once a view has expired or been superseded.
func ClearedControls() []Control {
	cleared := Controls(pagination.State{Page: 1, TotalPages: 1, PageSize: 1})
	for i := range cleared {
		cleared[i].Enabled = false
	}
	return cleared
}

// Page is the structured payload for one rendered page of a browse view.
type Page struct {
	ViewID     string         `json:"view_id"`
	Owner      string         `json:"owner"`
	Query      string         `json:"query,omitempty"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	TotalItems int            `json:"total_items"`
	Items      []catalog.Item `json:"items"`
	Codes      []string       `json:"codes,omitempty"`
	Controls   []Control      `json:"controls"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// PageInput carries everything NewPage needs to assemble a Page.
type PageInput struct {
	ViewID     string
	Owner      string
	Query      string
	State      pagination.State
	TotalItems int
	Window     []catalog.Item
	ShowCodes  bool
	ExpiresAt  time.Time
}

// NewPage assembles the payload for one window of a result set.
func NewPage(in PageInput) Page {
	p := Page{
		ViewID:     in.ViewID,
		Owner:      in.Owner,
		Query:      in.Query,
		Page:       in.State.Page,
		TotalPages: in.State.TotalPages,
		TotalItems: in.TotalItems,
		Items:      in.Window,
		Controls:   Controls(in.State),
		ExpiresAt:  in.ExpiresAt,
	}
	if in.Window == nil {
		p.Items = []catalog.Item{}
	}
	if in.ShowCodes {
		p.Codes = CodeLines(in.Window)
	}
	return p
}

// CodeLines formats the code catalog for the cards on a page.
func CodeLines(items []catalog.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		code := it.Code
		if code == "" {
			code = "(no code)"
		}
		out = append(out, fmt.Sprintf("%s  %s [%s/%s]", code, it.Name, it.Rarity, it.Condition))
	}
	return out
}

// Summary is the one-line text fallback for clients that only surface text.
func Summary(p Page) string {
	if p.TotalItems == 0 {
		return fmt.Sprintf("%s's binder: no cards for this query", p.Owner)
	}
	return fmt.Sprintf("%s's binder: page %d of %d (%d cards)", p.Owner, p.Page, p.TotalPages, p.TotalItems)
}

// ErrPayloadTooLarge reports an encoded page over the configured ceiling.
var ErrPayloadTooLarge = errors.New("rendered page exceeds payload limit")

// Renderer encodes pages and enforces the payload ceiling.
type Renderer struct {
	// MaxPayloadBytes caps the encoded page size. Zero means no cap.
	MaxPayloadBytes int
}

// Render encodes the page as JSON. When the encoding exceeds the ceiling the
// page is not delivered and the caller keeps its previous state.
func (r Renderer) Render(p Page) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding page: %w", err)
	}
	if r.MaxPayloadBytes > 0 && len(b) > r.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes over %d", ErrPayloadTooLarge, len(b), r.MaxPayloadBytes)
	}
	return b, nil
}
