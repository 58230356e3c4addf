// Package testutil provides shared fixtures for store-backed tests.
package testutil

import (
	"testing"

	"seerrbot/internal/store"
)

// NewTestStore opens a migrated in-memory pending-notification store and
// closes it when the test finishes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})

	return s
}
