// Package sqlite persists pantries in a single SQLite file using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pantrymatch/backend/internal/domain"
)

const schemaVersion = 1

const entryColumns = `id, owner_id, item_name, display_name, unit, unit_key,
	quantity, quantity_added, previous_quantity, note, created_at, updated_at`

// PantryStore is a domain.PantryRepository backed by SQLite.
// Quantity mutations run as one UPDATE ... RETURNING statement so the stored
// quantity and both ledger columns always come from the same prior row.
type PantryStore struct {
	db *sql.DB
	// mu serializes writers; SQLite allows one at a time anyway and this
	// avoids burning the busy timeout under load
	mu  sync.Mutex
	now func() time.Time
}

// Open opens (or creates) the database at dbPath and applies the schema
func Open(dbPath string) (*PantryStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &PantryStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PantryStore) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the database
func (s *PantryStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *PantryStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PantryStore) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pantry_items (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			item_name TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			unit TEXT NOT NULL,
			unit_key TEXT NOT NULL DEFAULT '',
			quantity REAL NOT NULL CHECK (quantity >= 0),
			quantity_added REAL NOT NULL DEFAULT 0,
			previous_quantity REAL NOT NULL DEFAULT 0,
			note TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (owner_id, item_name, unit_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pantry_owner ON pantry_items(owner_id, item_name)`,
		`CREATE TABLE IF NOT EXISTS pantry_versions (
			owner_id TEXT PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 0
		)`,
		fmt.Sprintf("PRAGMA user_version = %d", schemaVersion),
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Get returns the owner's primary entry for itemName
func (s *PantryStore) Get(ctx context.Context, ownerID, itemName string) (*domain.PantryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM pantry_items
		WHERE owner_id = ? AND item_name = ? AND unit_key = ''
	`, ownerID, itemName)
	return scanEntry(row)
}

// GetByID returns an entry if ownerID owns it
func (s *PantryStore) GetByID(ctx context.Context, ownerID, id string) (*domain.PantryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM pantry_items
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	return scanEntry(row)
}

// Insert stores a new entry. A taken (owner, item, unit key) is ErrDuplicateEntry.
func (s *PantryStore) Insert(ctx context.Context, entry domain.PantryEntry) (*domain.PantryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out *domain.PantryEntry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO pantry_items (`+entryColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING `+entryColumns,
			entry.ID, entry.OwnerID, entry.ItemName, entry.DisplayName, entry.Unit, entry.UnitKey,
			entry.Quantity, entry.QuantityAdded, entry.PreviousQuantity, entry.Note,
			formatTime(entry.CreatedAt), formatTime(entry.UpdatedAt),
		)
		var err error
		if out, err = scanEntry(row); err != nil {
			return err
		}
		return bumpVersion(ctx, tx, entry.OwnerID)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEntry
		}
		if isCheckViolation(err) {
			return nil, domain.ErrInvalidQuantity
		}
		return nil, fmt.Errorf("insert pantry entry: %w", err)
	}
	return out, nil
}

// Mutate applies m in a single UPDATE and bumps the owner's version in the same transaction
func (s *PantryStore) Mutate(ctx context.Context, ownerID, id string, m domain.Mutation) (*domain.PantryEntry, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	var (
		query string
		args  []any
		now   = formatTime(s.now())
	)
	switch m.Mode {
	case domain.MutationAdd:
		query = `
			UPDATE pantry_items SET
				previous_quantity = quantity,
				quantity_added = ?,
				quantity = quantity + ?,
				updated_at = ?
			WHERE id = ? AND owner_id = ? AND quantity + ? >= 0
			RETURNING ` + entryColumns
		args = []any{m.Amount, m.Amount, now, id, ownerID, m.Amount}
	case domain.MutationSet:
		query = `
			UPDATE pantry_items SET
				previous_quantity = quantity,
				quantity_added = ? - quantity,
				quantity = ?,
				unit = CASE WHEN ? = '' THEN unit ELSE ? END,
				updated_at = ?
			WHERE id = ? AND owner_id = ?
			RETURNING ` + entryColumns
		args = []any{m.Amount, m.Amount, m.Unit, m.Unit, now, id, ownerID}
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidMutation, m.Mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out *domain.PantryEntry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = scanEntry(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, domain.ErrEntryNotFound) && m.Mode == domain.MutationAdd {
			// Either the row is gone or the guard rejected the delta
			var qty float64
			lookup := tx.QueryRowContext(ctx, `SELECT quantity FROM pantry_items WHERE id = ? AND owner_id = ?`, id, ownerID)
			if lerr := lookup.Scan(&qty); lerr == nil {
				return fmt.Errorf("%w: %.3f%+.3f", domain.ErrInsufficientQuantity, qty, m.Amount)
			}
			return err
		}
		if err != nil {
			return err
		}
		return bumpVersion(ctx, tx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateNote replaces the entry's note
func (s *PantryStore) UpdateNote(ctx context.Context, ownerID, id, note string) (*domain.PantryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out *domain.PantryEntry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = scanEntry(tx.QueryRowContext(ctx, `
			UPDATE pantry_items SET note = ?, updated_at = ?
			WHERE id = ? AND owner_id = ?
			RETURNING `+entryColumns,
			note, formatTime(s.now()), id, ownerID,
		))
		if err != nil {
			return err
		}
		return bumpVersion(ctx, tx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an entry
func (s *PantryStore) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ? AND owner_id = ?`, id, ownerID)
		if err != nil {
			return fmt.Errorf("delete pantry entry: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete pantry entry: %w", err)
		}
		if n == 0 {
			return domain.ErrEntryNotFound
		}
		return bumpVersion(ctx, tx, ownerID)
	})
}

// ListForOwner returns the owner's entries ordered by name then unit key
func (s *PantryStore) ListForOwner(ctx context.Context, ownerID string) ([]domain.PantryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM pantry_items
		WHERE owner_id = ?
		ORDER BY item_name ASC, unit_key ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pantry: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PantryEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pantry entry: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pantry: %w", err)
	}
	return out, nil
}

// Version returns the owner's write counter, 0 for an owner never written
func (s *PantryStore) Version(ctx context.Context, ownerID string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM pantry_versions WHERE owner_id = ?`, ownerID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read pantry version: %w", err)
	}
	return v, nil
}

func (s *PantryStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func bumpVersion(ctx context.Context, tx *sql.Tx, ownerID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO pantry_versions (owner_id, version) VALUES (?, 1)
		ON CONFLICT(owner_id) DO UPDATE SET version = version + 1
	`, ownerID)
	if err != nil {
		return fmt.Errorf("bump pantry version: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.PantryEntry, error) {
	var (
		e                domain.PantryEntry
		created, updated string
	)
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.ItemName, &e.DisplayName, &e.Unit, &e.UnitKey,
		&e.Quantity, &e.QuantityAdded, &e.PreviousQuantity, &e.Note, &created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt = parseTime(created)
	e.UpdatedAt = parseTime(updated)
	return &e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}
