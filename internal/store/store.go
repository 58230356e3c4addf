package store

import (
	"context"

	"seerrbot/internal/model"
)

// Store defines the persistence interface for pending availability
// notifications. Every write is applied to durable storage before it
// returns, and every mutation is a single statement, so a crash never
// leaves a half-applied entry behind.
type Store interface {
	// Upsert records a pending notification, replacing any existing
	// entry with the same natural key (user, title, edition).
	Upsert(ctx context.Context, n model.PendingNotification) error

	// All returns every pending entry.
	All(ctx context.Context) ([]model.PendingNotification, error)

	// ForUser returns the pending entries of a single user, oldest
	// request first.
	ForUser(ctx context.Context, userID string) ([]model.PendingNotification, error)

	// Get returns the entry with the given key, or nil when no such
	// entry exists.
	Get(ctx context.Context, key model.PendingKey) (*model.PendingNotification, error)

	// SetLastStatus records the most recently observed availability
	// state for an entry.
	SetLastStatus(ctx context.Context, key model.PendingKey, status model.MediaStatus) error

	// Remove deletes the entry with the given key. Removing an absent
	// key is not an error.
	Remove(ctx context.Context, key model.PendingKey) error

	// RemoveUser deletes all of a user's entries and reports how many
	// were removed.
	RemoveUser(ctx context.Context, userID string) (int, error)

	// Close releases the underlying storage.
	Close() error
}
