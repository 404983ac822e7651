package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"mcpbinder/internal/catalog"
)

// CollectionSheet is the sheet a workbook source must carry.
const CollectionSheet = "Collection"

// requiredColumns are the header names a Collection sheet must include.
// Header matching folds case, spaces, and underscores, so "Image Key",
// "image_key", and "ImageKey" are the same column.
var requiredColumns = []string{"owner", "name", "group", "rarity", "condition"}

// WorkbookStore serves a collection snapshot loaded from an xlsx export. The
// file is read once at open; later edits to it are not observed.
type WorkbookStore struct {
	owners []Owner
	byRef  map[string]Owner
	items  map[string][]catalog.Item
}

// OpenWorkbook loads the Collection sheet from the workbook at path. Owners
// are derived from the distinct values of the Owner column; the first
// spelling seen becomes the display name.
func OpenWorkbook(path string) (*WorkbookStore, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	r, err := f.Rows(CollectionSheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", CollectionSheet, err)
	}
	defer r.Close()

	ws := &WorkbookStore{
		byRef: make(map[string]Owner),
		items: make(map[string][]catalog.Item),
	}
	var cols map[string]int
	rowIdx := 0
	for r.Next() {
		rowIdx++
		vals, cerr := r.Columns()
		if cerr != nil {
			return nil, fmt.Errorf("reading row %d: %w", rowIdx, cerr)
		}
		if cols == nil {
			cols, err = headerIndex(vals)
			if err != nil {
				return nil, err
			}
			continue
		}
		ws.addRow(rowIdx, vals, cols)
	}
	if err := r.Error(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	if cols == nil {
		return nil, fmt.Errorf("sheet %q has no header row", CollectionSheet)
	}

	sort.Slice(ws.owners, func(i, j int) bool { return ws.owners[i].Handle < ws.owners[j].Handle })
	return ws, nil
}

func headerIndex(vals []string) (map[string]int, error) {
	idx := make(map[string]int, len(vals))
	for i, v := range vals {
		key := strings.ToLower(strings.TrimSpace(v))
		key = strings.ReplaceAll(key, " ", "")
		key = strings.ReplaceAll(key, "_", "")
		if key != "" {
			idx[key] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("sheet %q is missing column %q", CollectionSheet, name)
		}
	}
	return idx, nil
}

// addRow records one card row. Rows without an owner are skipped; rows with
// malformed fields are kept as-is and dropped later by query validation.
func (ws *WorkbookStore) addRow(row int, vals []string, cols map[string]int) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(vals) {
			return ""
		}
		return strings.TrimSpace(vals[i])
	}

	handle := cell("owner")
	if handle == "" {
		return
	}
	id := NormalizeRef(handle)
	owner, ok := ws.byRef[id]
	if !ok {
		owner = Owner{ID: id, Handle: id, DisplayName: handle}
		ws.byRef[id] = owner
		ws.owners = append(ws.owners, owner)
	}

	ws.items[owner.ID] = append(ws.items[owner.ID], catalog.Item{
		ID:        fmt.Sprintf("%s-r%d", id, row),
		OwnerID:   owner.ID,
		Name:      cell("name"),
		Group:     cell("group"),
		Rarity:    catalog.ParseRarity(cell("rarity")),
		Condition: catalog.ParseCondition(cell("condition")),
		Code:      cell("code"),
		ImageKey:  cell("imagekey"),
	})
}

// ResolveOwner resolves against the snapshot. In this backend an owner's ID
// is its folded handle, so both forms hit the same entry.
func (ws *WorkbookStore) ResolveOwner(_ context.Context, ref string) (Owner, error) {
	if o, ok := ws.byRef[NormalizeRef(ref)]; ok {
		return o, nil
	}
	return Owner{}, fmt.Errorf("%w: %s", ErrOwnerNotFound, ref)
}

// FetchItems returns a copy of the owner's cards so callers cannot alter the
// snapshot.
func (ws *WorkbookStore) FetchItems(_ context.Context, ownerID string) ([]catalog.Item, error) {
	return append([]catalog.Item(nil), ws.items[ownerID]...), nil
}

// ListOwners returns the snapshot's owners ordered by handle.
func (ws *WorkbookStore) ListOwners(_ context.Context) ([]Owner, error) {
	return append([]Owner(nil), ws.owners...), nil
}

// Ping always succeeds; the snapshot is in memory.
func (ws *WorkbookStore) Ping(_ context.Context) error { return nil }

// Close is a no-op; the backing file is released at open.
func (ws *WorkbookStore) Close() error { return nil }
