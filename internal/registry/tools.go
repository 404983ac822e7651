package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"mcpbinder/internal/alias"
	"mcpbinder/internal/catalog"
	"mcpbinder/internal/render"
	"mcpbinder/internal/runtime"
	"mcpbinder/internal/storage"
	"mcpbinder/internal/views"
	"mcpbinder/pkg/mcperr"
	"mcpbinder/pkg/validation"
)

// --- Input / Output Schemas (typed for discovery) ---

// BrowseCollectionInput defines parameters for opening a browse view.
type BrowseCollectionInput struct {
	Query string `json:"query,omitempty" jsonschema_description:"Search text: include terms, -exclusions, @owner mention, page:N selector, dupes keyword"`
	Owner string `json:"owner,omitempty" validate:"ownerref" jsonschema_description:"Owner handle to browse; an @mention in the query takes precedence"`
}

// BrowseCollectionOutput documents the response for browse_collection.
type BrowseCollectionOutput struct {
	View           render.Page `json:"view" jsonschema_description:"Rendered first page with navigation controls"`
	PageSize       int         `json:"page_size" jsonschema_description:"Cards per page"`
	TTLSeconds     int         `json:"ttl_seconds" jsonschema_description:"Seconds until the view expires; navigation does not extend it"`
	ReplacedViewID string      `json:"replaced_view_id,omitempty" jsonschema_description:"ID of the previous view this one superseded, when any"`
}

// ViewActionInput defines parameters for acting on a live view.
type ViewActionInput struct {
	ViewID string `json:"view_id" validate:"required,viewid" jsonschema_description:"View ID returned by browse_collection"`
	Action string `json:"action" validate:"required" jsonschema_description:"Control id: first, prev, next, last, or codes. Unknown ids are ignored"`
}

// ViewActionOutput documents the response for view_action.
type ViewActionOutput struct {
	Updated bool         `json:"updated" jsonschema_description:"False when the action was ignored and the view is unchanged"`
	View    *render.Page `json:"view,omitempty" jsonschema_description:"Rendered page after the action, when it updated the view"`
}

// ListOwnersOutput documents the response for list_owners.
type ListOwnersOutput struct {
	Owners []storage.Owner `json:"owners"`
	Count  int             `json:"count"`
}

// FetchGate bounds concurrent collection store access (backed by
// runtime.Controller).
type FetchGate interface {
	AcquireFetch(ctx context.Context) error
	ReleaseFetch()
}

// Deps carries the shared services the tool handlers close over.
type Deps struct {
	Store    storage.Store
	Views    *views.Registry
	Expander *alias.Expander
	Limits   runtime.Limits
	Gate     FetchGate
	// DefaultOwner is browsed when neither the owner argument nor an
	// @mention names one. Empty means the caller must always name an owner.
	DefaultOwner string
	Logger       zerolog.Logger
}

// RegisterBinderTools wires the card binder tool surface.
func RegisterBinderTools(s *server.MCPServer, reg *Registry, deps Deps) {
	registerBrowseCollection(s, reg, deps)
	registerViewAction(s, reg, deps)
	registerListOwners(s, reg, deps)
}

func registerBrowseCollection(s *server.MCPServer, reg *Registry, deps Deps) {
	tool := mcp.NewTool(
		"browse_collection",
		mcp.WithDescription("Open a paginated browse view over a card collection and return its first page with navigation controls. The query is a space-separated token list: plain words are required match terms (case-insensitive substring over name, group, rarity, condition, and code; shorthand like mint, nm, dmg, leg, fa expands to the full form), -word excludes, @handle picks whose binder to browse (first mention wins), page:N / p:N / #N opens at page N, and dupe/dupes/dups/duplicates restricts to cards whose artwork appears more than once in the filtered set. Results sort by rarity (best first), condition (best first), then group and name. The view lives for a fixed TTL and only the caller can drive it; opening a new view replaces the caller's previous one."),
		mcp.WithString("query", mcp.Description("Search tokens; empty browses the whole collection")),
		mcp.WithString("owner", mcp.Description("Owner handle, with or without @; a mention in the query takes precedence")),
		mcp.WithOutputSchema[BrowseCollectionOutput](),
	)
	s.AddTool(tool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in BrowseCollectionInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.FromText(msg), nil
		}

		opts := catalog.ParseOptions(strings.Fields(in.Query))
		ref := opts.OwnerRef
		if ref == "" {
			ref = in.Owner
		}
		if ref == "" {
			ref = deps.DefaultOwner
		}
		if ref == "" {
			return mcperr.New(mcperr.OwnerNotFound, "no owner named; pass owner or mention @handle"), nil
		}

		if err := deps.Gate.AcquireFetch(ctx); err != nil {
			return mcperr.New(mcperr.BusyResource, "collection fetch capacity reached"), nil
		}
		defer deps.Gate.ReleaseFetch()

		owner, err := deps.Store.ResolveOwner(ctx, ref)
		if err != nil {
			if errors.Is(err, storage.ErrOwnerNotFound) {
				return mcperr.Wrapf(mcperr.OwnerNotFound, "no collection for %q", ref), nil
			}
			return mcperr.Wrapf(mcperr.StoreFailed, "resolving owner: %v", err), nil
		}

		items, err := deps.Store.FetchItems(ctx, owner.ID)
		if err != nil {
			return mcperr.Wrapf(mcperr.StoreFailed, "fetching cards: %v", err), nil
		}

		results := catalog.Search(items, opts, deps.Expander)
		if len(results) == 0 {
			return mcperr.Wrapf(mcperr.EmptyResult, "no cards matched %q", in.Query), nil
		}

		session := views.NewSession(views.Config{
			ID:        uuid.NewString(),
			Requester: requesterID(ctx),
			Owner:     displayName(owner),
			Query:     in.Query,
			Items:     results,
			PageSize:  deps.Limits.PageSize,
			Page:      opts.Page,
			Renderer:  render.Renderer{MaxPayloadBytes: deps.Limits.MaxPayloadBytes},
			Now:       deps.Views.Clock()(),
			TTL:       deps.Views.TTL(),
		})

		// The view joins the registry only once its first page rendered;
		// a failed render must not tear down the caller's previous view.
		page, _, err := session.RenderCurrent()
		if err != nil {
			return renderError(err), nil
		}
		replaced := deps.Views.Register(session)

		out := BrowseCollectionOutput{
			View:       page,
			PageSize:   deps.Limits.PageSize,
			TTLSeconds: int(deps.Views.TTL().Seconds()),
		}
		if replaced != nil {
			out.ReplacedViewID = replaced.ID
		}

		evt := deps.Logger.Info().
			Str("view_id", session.ID).
			Str("owner", owner.Handle).
			Int("total_items", page.TotalItems).
			Int("total_pages", page.TotalPages)
		if replaced != nil {
			evt = evt.Str("replaced_view_id", replaced.ID)
		}
		evt.Msg("browse view opened")

		text := render.Summary(page)
		res := mcp.NewToolResultStructured(out, text)
		res.Content = []mcp.Content{mcp.NewTextContent(text)}
		return res, nil
	}))
	reg.Register(tool)
}

func registerViewAction(s *server.MCPServer, reg *Registry, deps Deps) {
	// The action parameter is deliberately not enum-restricted: identifiers
	// outside the control vocabulary must reach the handler and be ignored
	// there, not rejected by schema validation.
	tool := mcp.NewTool(
		"view_action",
		mcp.WithDescription("Drive a live browse view: first/prev/next/last move between pages, codes toggles a catalog of the card codes on the current page. Only the caller who opened the view can drive it; anyone else's actions are ignored without touching the view. Expired or replaced views report VIEW_EXPIRED."),
		mcp.WithString("view_id", mcp.Required(), mcp.Description("View ID returned by browse_collection")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Control id: first, prev, next, last, or codes")),
		mcp.WithOutputSchema[ViewActionOutput](),
	)
	s.AddTool(tool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ViewActionInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.FromText(msg), nil
		}

		requester := requesterID(ctx)
		result, err := deps.Views.Dispatch(in.ViewID, requester, in.Action)
		switch {
		case errors.Is(err, views.ErrViewNotFound), errors.Is(err, views.ErrViewExpired):
			return mcperr.New(mcperr.ViewExpired, ""), nil
		case errors.Is(err, views.ErrUnknownAction):
			deps.Logger.Debug().Str("view_id", in.ViewID).Str("action", in.Action).Msg("unknown action ignored")
			return neutralResult("action ignored"), nil
		case err != nil:
			return renderError(err), nil
		}

		if result.Ignored {
			deps.Logger.Debug().Str("view_id", in.ViewID).Str("requester", requester).Msg("foreign action ignored")
			return neutralResult("action ignored"), nil
		}

		page := result.Page
		text := render.Summary(page)
		if in.Action == render.ControlCodes && len(page.Codes) > 0 {
			text = text + "\n" + strings.Join(page.Codes, "\n")
		}

		out := ViewActionOutput{Updated: true, View: &page}
		res := mcp.NewToolResultStructured(out, render.Summary(page))
		res.Content = []mcp.Content{mcp.NewTextContent(text)}
		return res, nil
	}))
	reg.Register(tool)
}

func registerListOwners(s *server.MCPServer, reg *Registry, deps Deps) {
	tool := mcp.NewTool(
		"list_owners",
		mcp.WithDescription("List the collection owners known to this server, ordered by handle. Hidden from discovery unless MCPBINDER_EXPOSE_OWNERS is set."),
		mcp.WithOutputSchema[ListOwnersOutput](),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := deps.Gate.AcquireFetch(ctx); err != nil {
			return mcperr.New(mcperr.BusyResource, "collection fetch capacity reached"), nil
		}
		defer deps.Gate.ReleaseFetch()

		owners, err := deps.Store.ListOwners(ctx)
		if err != nil {
			return mcperr.Wrapf(mcperr.StoreFailed, "listing owners: %v", err), nil
		}

		out := ListOwnersOutput{Owners: owners, Count: len(owners)}
		text := ownersSummary(owners)
		res := mcp.NewToolResultStructured(out, text)
		res.Content = []mcp.Content{mcp.NewTextContent(text)}
		return res, nil
	})
	reg.Register(tool)
}

// requesterID identifies the client driving this call. Views are bound to it
// at creation and ignore everyone else.
func requesterID(ctx context.Context) string {
	if s := server.ClientSessionFromContext(ctx); s != nil {
		return s.SessionID()
	}
	return ""
}

func displayName(o storage.Owner) string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.Handle
}

// renderError maps a failed page render to its tool error code.
func renderError(err error) *mcp.CallToolResult {
	if errors.Is(err, render.ErrPayloadTooLarge) {
		return mcperr.Wrapf(mcperr.PayloadTooLarge, "%v", err)
	}
	return mcperr.Wrapf(mcperr.RenderFailed, "%v", err)
}

// neutralResult reports an ignored action without failing the call.
func neutralResult(text string) *mcp.CallToolResult {
	res := mcp.NewToolResultStructured(ViewActionOutput{Updated: false}, text)
	res.Content = []mcp.Content{mcp.NewTextContent(text)}
	return res
}

func ownersSummary(owners []storage.Owner) string {
	if len(owners) == 0 {
		return "no owners configured"
	}
	handles := make([]string, 0, len(owners))
	for _, o := range owners {
		handles = append(handles, "@"+o.Handle)
	}
	const maxShown = 10
	if len(handles) > maxShown {
		return fmt.Sprintf("%d owners: %s, ...", len(owners), strings.Join(handles[:maxShown], ", "))
	}
	return fmt.Sprintf("%d owners: %s", len(owners), strings.Join(handles, ", "))
}
