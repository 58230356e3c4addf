package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"seerrbot/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
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

	// Check if schema_version table exists.
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

// Upsert inserts or replaces a pending notification. If the entry has
// no ID, a new UUID is generated. An existing entry with the same
// (user, title, edition) key is replaced wholesale.
func (s *SQLiteStore) Upsert(ctx context.Context, n model.PendingNotification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO pending_notifications (
			id, user_id, username, tmdb_id, media_type,
			title, is_4k, requested_at, last_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Username, n.TmdbID, string(n.Kind),
		n.Title, boolToInt(n.Is4K), n.RequestedAt.UTC(), int(n.LastStatus),
	)
	if err != nil {
		return fmt.Errorf("upserting pending notification for user %s: %w", n.UserID, err)
	}

	return nil
}

// All retrieves every pending notification, oldest request first.
func (s *SQLiteStore) All(ctx context.Context) ([]model.PendingNotification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM pending_notifications ORDER BY requested_at",
	)
	if err != nil {
		return nil, fmt.Errorf("querying pending notifications: %w", err)
	}
	defer rows.Close()

	var pending []model.PendingNotification
	for rows.Next() {
		n, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pending notification: %w", err)
		}
		pending = append(pending, n)
	}

	return pending, rows.Err()
}

// ForUser retrieves a single user's pending notifications, oldest
// request first.
func (s *SQLiteStore) ForUser(ctx context.Context, userID string) ([]model.PendingNotification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM pending_notifications WHERE user_id = ? ORDER BY requested_at",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying pending notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var pending []model.PendingNotification
	for rows.Next() {
		n, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pending notification: %w", err)
		}
		pending = append(pending, n)
	}

	return pending, rows.Err()
}

// Get retrieves the entry with the given key, or nil when none exists.
func (s *SQLiteStore) Get(ctx context.Context, key model.PendingKey) (*model.PendingNotification, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM pending_notifications WHERE user_id = ? AND tmdb_id = ? AND is_4k = ?",
		key.UserID, key.TmdbID, boolToInt(key.Is4K),
	)

	n, err := scanPending(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting pending notification: %w", err)
	}

	return &n, nil
}

// SetLastStatus records the most recently observed availability state
// for an entry.
func (s *SQLiteStore) SetLastStatus(ctx context.Context, key model.PendingKey, status model.MediaStatus) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE pending_notifications SET last_status = ? WHERE user_id = ? AND tmdb_id = ? AND is_4k = ?",
		int(status), key.UserID, key.TmdbID, boolToInt(key.Is4K),
	)
	if err != nil {
		return fmt.Errorf("updating last status: %w", err)
	}
	return nil
}

// Remove deletes the entry with the given key. Removing an absent key
// is a no-op.
func (s *SQLiteStore) Remove(ctx context.Context, key model.PendingKey) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM pending_notifications WHERE user_id = ? AND tmdb_id = ? AND is_4k = ?",
		key.UserID, key.TmdbID, boolToInt(key.Is4K),
	)
	if err != nil {
		return fmt.Errorf("removing pending notification: %w", err)
	}
	return nil
}

// RemoveUser deletes all of a user's entries and reports how many were
// removed.
func (s *SQLiteStore) RemoveUser(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM pending_notifications WHERE user_id = ?", userID,
	)
	if err != nil {
		return 0, fmt.Errorf("removing pending notifications for user %s: %w", userID, err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting removed notifications: %w", err)
	}

	return int(count), nil
}

// scanPending scans a pending notification from a row or result set.
func scanPending(row interface{ Scan(dest ...interface{}) error }) (model.PendingNotification, error) {
	var (
		n           model.PendingNotification
		mediaType   string
		is4K        int
		requestedAt time.Time
		lastStatus  int
	)

	err := row.Scan(
		&n.ID, &n.UserID, &n.Username, &n.TmdbID, &mediaType,
		&n.Title, &is4K, &requestedAt, &lastStatus,
	)
	if err != nil {
		return model.PendingNotification{}, err
	}

	n.Kind = model.MediaKind(mediaType)
	n.Is4K = is4K != 0
	n.RequestedAt = requestedAt
	n.LastStatus = model.StatusFromInt(lastStatus)

	return n, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
