package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"mcpbinder/internal/catalog"
)

// schema is the full collection database schema. "group" is a SQL keyword,
// so the column is card_group.
const schema = `
CREATE TABLE IF NOT EXISTS owners (
    id           TEXT PRIMARY KEY,
    handle       TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_owners_handle ON owners(handle);

CREATE TABLE IF NOT EXISTS cards (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL REFERENCES owners(id),
    name       TEXT NOT NULL,
    card_group TEXT NOT NULL,
    rarity     TEXT NOT NULL,
    condition  TEXT NOT NULL,
    code       TEXT NOT NULL DEFAULT '',
    image_key  TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cards_owner ON cards(owner_id);
`

// SQLiteStore reads collections from a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path, configures pragmas, and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == ":memory:" {
		// Each pool connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	// Set pragmas for concurrency and correctness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// AddOwner inserts an owner. Handles are stored folded so lookups stay
// case-insensitive; the unique index rejects a second owner with the same
// folded handle.
func (s *SQLiteStore) AddOwner(ctx context.Context, o Owner) error {
	if o.ID == "" || o.Handle == "" {
		return fmt.Errorf("owner id and handle are required")
	}
	if o.DisplayName == "" {
		o.DisplayName = o.Handle
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO owners (id, handle, display_name) VALUES (?, ?, ?)`,
		o.ID, NormalizeRef(o.Handle), o.DisplayName,
	)
	if err != nil {
		return fmt.Errorf("inserting owner: %w", err)
	}
	return nil
}

// AddCard inserts a card. Rarity and condition are stored as given; the
// query pipeline validates them on read.
func (s *SQLiteStore) AddCard(ctx context.Context, it catalog.Item) error {
	if it.ID == "" || it.OwnerID == "" {
		return fmt.Errorf("card id and owner id are required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (id, owner_id, name, card_group, rarity, condition, code, image_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.OwnerID, it.Name, it.Group, string(it.Rarity), string(it.Condition), it.Code, it.ImageKey,
	)
	if err != nil {
		return fmt.Errorf("inserting card: %w", err)
	}
	return nil
}

// ResolveOwner looks a reference up by folded handle first, then by ID.
func (s *SQLiteStore) ResolveOwner(ctx context.Context, ref string) (Owner, error) {
	norm := NormalizeRef(ref)
	if norm == "" {
		return Owner{}, fmt.Errorf("%w: empty reference", ErrOwnerNotFound)
	}
	var o Owner
	err := s.db.QueryRowContext(ctx,
		`SELECT id, handle, display_name FROM owners WHERE handle = ? OR id = ?`,
		norm, norm,
	).Scan(&o.ID, &o.Handle, &o.DisplayName)
	if err == sql.ErrNoRows {
		return Owner{}, fmt.Errorf("%w: %s", ErrOwnerNotFound, ref)
	}
	if err != nil {
		return Owner{}, fmt.Errorf("resolving owner: %w", err)
	}
	return o, nil
}

// FetchItems returns the owner's cards with rarity and condition folded to
// their canonical forms.
func (s *SQLiteStore) FetchItems(ctx context.Context, ownerID string) ([]catalog.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, name, card_group, rarity, condition, code, image_key
		 FROM cards WHERE owner_id = ?`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cards: %w", err)
	}
	defer rows.Close()

	items := make([]catalog.Item, 0, 64)
	for rows.Next() {
		var it catalog.Item
		var rarity, condition string
		if err := rows.Scan(&it.ID, &it.OwnerID, &it.Name, &it.Group, &rarity, &condition, &it.Code, &it.ImageKey); err != nil {
			return nil, fmt.Errorf("scanning card: %w", err)
		}
		it.Rarity = catalog.ParseRarity(rarity)
		it.Condition = catalog.ParseCondition(condition)
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListOwners returns all owners ordered by handle.
func (s *SQLiteStore) ListOwners(ctx context.Context) ([]Owner, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, handle, display_name FROM owners ORDER BY handle`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}
	defer rows.Close()

	var owners []Owner
	for rows.Next() {
		var o Owner
		if err := rows.Scan(&o.ID, &o.Handle, &o.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning owner: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
