package registry

import (
	"context"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// OwnerListingFilter hides the owner enumeration tool unless explicitly
// enabled. Enable by setting environment variable MCPBINDER_EXPOSE_OWNERS=true.
type OwnerListingFilter struct {
	exposeOwners bool
}

// NewOwnerListingFilterFromEnv constructs a filter using MCPBINDER_EXPOSE_OWNERS.
func NewOwnerListingFilterFromEnv() *OwnerListingFilter {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("MCPBINDER_EXPOSE_OWNERS")))
	expose := v == "1" || v == "true" || v == "yes"
	return &OwnerListingFilter{exposeOwners: expose}
}

// FilterTools implements server tool filtering semantics. When owner listing
// is disabled, list_owners is excluded from discovery; browsing a known
// handle still works.
func (f *OwnerListingFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if f.exposeOwners {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if strings.EqualFold(t.Name, "list_owners") {
			continue
		}
		out = append(out, t)
	}
	return out
}
