package model

import "time"

// PendingKey is the natural identity of a pending notification: one
// user waiting on one edition of one title. The standard and 4K
// editions of the same title are tracked separately.
type PendingKey struct {
	UserID string
	TmdbID int
	Is4K   bool
}

// PendingNotification records that a user should be told when a
// requested title becomes available. Entries are durable and survive
// restarts; they are removed once the notification has been delivered
// (or delivery was attempted) or the user clears them.
type PendingNotification struct {
	// ID is the internal unique identifier for this record.
	ID string `json:"id"`

	// UserID is the chat user to notify.
	UserID string `json:"user_id"`

	// Username is the user's display name at request time, kept for
	// logs and listings.
	Username string `json:"username"`

	// TmdbID is the awaited title's external identifier.
	TmdbID int `json:"tmdb_id"`

	// Kind distinguishes movies from series.
	Kind MediaKind `json:"kind"`

	// Title is the display title captured at request time, so the
	// notification text needs no further lookup.
	Title string `json:"title"`

	// Is4K marks the 4K edition of the title.
	Is4K bool `json:"is_4k"`

	// RequestedAt is when the request was accepted, in UTC.
	RequestedAt time.Time `json:"requested_at"`

	// LastStatus is the title's availability state as of the most
	// recent check.
	LastStatus MediaStatus `json:"last_status"`
}

// Key returns the record's natural identity.
func (n PendingNotification) Key() PendingKey {
	return PendingKey{UserID: n.UserID, TmdbID: n.TmdbID, Is4K: n.Is4K}
}
