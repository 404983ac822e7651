package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation    Code = "VALIDATION"
	OwnerNotFound Code = "OWNER_NOT_FOUND"
	EmptyResult   Code = "EMPTY_RESULT"

	// Views & Navigation
	ViewExpired  Code = "VIEW_EXPIRED"
	RenderFailed Code = "RENDER_FAILED"

	// Resource & Limits
	BusyResource    Code = "BUSY_RESOURCE"
	Timeout         Code = "TIMEOUT"
	PayloadTooLarge Code = "PAYLOAD_TOO_LARGE"

	// Storage & Formats
	StoreFailed       Code = "STORE_FAILED"
	OpenFailed        Code = "OPEN_FAILED"
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:    {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry", "See examples in tool description"}},
	OwnerNotFound: {Code: OwnerNotFound, Message: "collection owner not found", Retryable: true, NextSteps: []string{"Call list_owners to see known handles", "Check spelling of the @mention"}},
	EmptyResult:   {Code: EmptyResult, Message: "no cards matched the query", Retryable: true, NextSteps: []string{"Drop or loosen search terms", "Remove the duplicates keyword if set"}},

	ViewExpired:  {Code: ViewExpired, Message: "browse view expired or was replaced", Retryable: true, NextSteps: []string{"Start a new view with browse_collection"}},
	RenderFailed: {Code: RenderFailed, Message: "failed to render the requested page", Retryable: true, NextSteps: []string{"Retry the action", "Lower the page size if the payload is too large"}},

	BusyResource:    {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:         {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Narrow the query or increase the timeout"}},
	PayloadTooLarge: {Code: PayloadTooLarge, Message: "rendered page exceeds configured size", Retryable: true, NextSteps: []string{"Lower the page size", "Narrow the query"}},

	StoreFailed:       {Code: StoreFailed, Message: "collection store query failed", Retryable: true, NextSteps: []string{"Retry after a short delay", "Check server logs if the failure persists"}},
	OpenFailed:        {Code: OpenFailed, Message: "failed to open collection source", Retryable: true, NextSteps: []string{"Verify path, permissions, and format"}},
	UnsupportedFormat: {Code: UnsupportedFormat, Message: "unsupported collection source format", Retryable: false, NextSteps: []string{"Provide a .db or .xlsx source"}},
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		// Unknown code; preserve as-is
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	// Append compact nextSteps guidance inline to aid clients lacking structured fields.
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// FromText parses a "CODE: message" string, enriches it with catalog guidance,
// and returns an MCP tool error result.
func FromText(text string) *mcp.CallToolResult {
	t := strings.TrimSpace(text)
	if t == "" {
		return mcp.NewToolResultError(normalize(Validation, ""))
	}
	parts := strings.SplitN(t, ":", 2)
	if len(parts) == 0 {
		return mcp.NewToolResultError(normalize(Validation, t))
	}
	code := Code(strings.TrimSpace(parts[0]))
	msg := ""
	if len(parts) > 1 {
		msg = strings.TrimSpace(parts[1])
	}
	return mcp.NewToolResultError(normalize(code, msg))
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}
