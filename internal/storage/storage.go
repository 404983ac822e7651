// Package storage loads card collections from their backing sources. Two
// backends exist: a SQLite database for live collections and an xlsx workbook
// snapshot for exported ones. Open picks the backend from the path extension.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"mcpbinder/internal/catalog"
)

// Owner is a collection owner addressable by @handle. Handles are stored
// folded lowercase; DisplayName keeps the original casing for presentation.
type Owner struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
}

var (
	// ErrOwnerNotFound reports that no owner matches a reference.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrUnsupportedFormat reports a source path with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported collection source format")
)

// Store reads owners and cards from a collection source. Implementations are
// safe for concurrent use.
type Store interface {
	// ResolveOwner maps a reference (handle with or without a leading @, or
	// an owner ID) to the owner record. Returns ErrOwnerNotFound when no
	// owner matches.
	ResolveOwner(ctx context.Context, ref string) (Owner, error)
	// FetchItems returns every card held by the owner, in no particular
	// order. An owner without cards yields an empty slice, not an error.
	FetchItems(ctx context.Context, ownerID string) ([]catalog.Item, error)
	// ListOwners returns all owners ordered by handle.
	ListOwners(ctx context.Context) ([]Owner, error)
	// Ping verifies the source is reachable.
	Ping(ctx context.Context) error
	// Close releases the source.
	Close() error
}

// Open selects a backend by extension: .db, .sqlite, and .sqlite3 open a
// SQLite store; .xlsx loads a workbook snapshot.
func Open(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	case ".xlsx":
		return OpenWorkbook(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// NormalizeRef folds an owner reference for lookup: trims whitespace, strips
// one leading @, lowercases.
func NormalizeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, "@")
	return strings.ToLower(ref)
}
