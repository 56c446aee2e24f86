package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/tempmail/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations. Parent
// directories are created as needed so a fresh install works without
// any manual setup.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceMessages replaces a mailbox's cached list wholesale while
// carrying over locally recorded seen flags for surviving ids.
func (s *SQLiteStore) ReplaceMessages(
	ctx context.Context,
	mailbox string,
	msgs []model.MessageSummary,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remember which cached messages were already opened locally.
	rows, err := tx.QueryxContext(ctx,
		"SELECT id FROM messages WHERE mailbox = ? AND seen = 1", mailbox,
	)
	if err != nil {
		return fmt.Errorf("reading seen ids: %w", err)
	}
	seenIDs := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scanning seen id: %w", err)
		}
		seenIDs[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading seen ids: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM messages WHERE mailbox = ?", mailbox,
	); err != nil {
		return fmt.Errorf("clearing mailbox %s: %w", mailbox, err)
	}

	const query = `
		INSERT INTO messages (
			id, mailbox, from_address, from_name,
			subject, intro, seen, created_at, position, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	cachedAt := time.Now().UTC()
	for i, m := range msgs {
		seen := m.Seen || seenIDs[m.ID]
		_, err := stmt.ExecContext(ctx,
			m.ID, mailbox, m.From.Address, m.From.Name,
			m.Subject, m.Intro, boolToInt(seen),
			m.CreatedAt.UTC(), i, cachedAt,
		)
		if err != nil {
			return fmt.Errorf("caching message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// Messages returns the cached list for a mailbox in provider order.
func (s *SQLiteStore) Messages(
	ctx context.Context,
	mailbox string,
) ([]model.MessageSummary, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, from_address, from_name, subject, intro, seen, created_at
		FROM messages WHERE mailbox = ? ORDER BY position`,
		mailbox,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cached messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.MessageSummary
	for rows.Next() {
		var (
			m         model.MessageSummary
			seen      int
			createdAt time.Time
		)
		err := rows.Scan(
			&m.ID, &m.From.Address, &m.From.Name,
			&m.Subject, &m.Intro, &seen, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning cached message: %w", err)
		}
		m.Seen = seen != 0
		m.CreatedAt = createdAt
		msgs = append(msgs, m)
	}

	return msgs, rows.Err()
}

// MarkSeen records that a cached message has been opened locally.
func (s *SQLiteStore) MarkSeen(ctx context.Context, mailbox string, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE messages SET seen = 1 WHERE mailbox = ? AND id = ?",
		mailbox, id,
	)
	if err != nil {
		return fmt.Errorf("marking message %s seen: %w", id, err)
	}
	return nil
}

// UnseenCount returns how many cached messages have not been opened.
func (s *SQLiteStore) UnseenCount(ctx context.Context, mailbox string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM messages WHERE mailbox = ? AND seen = 0",
		mailbox,
	)
	if err != nil {
		return 0, fmt.Errorf("counting unseen messages: %w", err)
	}
	return count, nil
}

// Clear drops all cached rows for a mailbox.
func (s *SQLiteStore) Clear(ctx context.Context, mailbox string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM messages WHERE mailbox = ?", mailbox,
	)
	if err != nil {
		return fmt.Errorf("clearing cache for %s: %w", mailbox, err)
	}
	return nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
