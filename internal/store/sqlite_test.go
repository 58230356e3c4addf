package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seerrbot/internal/model"
	"seerrbot/tests/testutil"
)

func pendingFixture() model.PendingNotification {
	return model.PendingNotification{
		UserID:      "111",
		Username:    "alice",
		TmdbID:      603,
		Kind:        model.KindMovie,
		Title:       "The Matrix (1999)",
		Is4K:        false,
		RequestedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		LastStatus:  model.StatusPending,
	}
}

func TestUpsertRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	want := pendingFixture()
	require.NoError(t, s.Upsert(ctx, want))

	got, err := s.Get(ctx, want.Key())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.Username, got.Username)
	assert.Equal(t, want.TmdbID, got.TmdbID)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Is4K, got.Is4K)
	assert.True(t, want.RequestedAt.Equal(got.RequestedAt))
	assert.Equal(t, want.LastStatus, got.LastStatus)
}

func TestUpsertReplacesSameKey(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first := pendingFixture()
	require.NoError(t, s.Upsert(ctx, first))

	second := first
	second.Title = "The Matrix Reloaded (2003)"
	second.LastStatus = model.StatusProcessing
	require.NoError(t, s.Upsert(ctx, second))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "The Matrix Reloaded (2003)", all[0].Title)
	assert.Equal(t, model.StatusProcessing, all[0].LastStatus)
}

func TestEditionsTrackedSeparately(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	sd := pendingFixture()
	uhd := pendingFixture()
	uhd.Is4K = true

	require.NoError(t, s.Upsert(ctx, sd))
	require.NoError(t, s.Upsert(ctx, uhd))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAllOrdersByRequestTime(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	newer := pendingFixture()
	newer.TmdbID = 604
	newer.RequestedAt = newer.RequestedAt.Add(time.Hour)
	require.NoError(t, s.Upsert(ctx, newer))

	older := pendingFixture()
	require.NoError(t, s.Upsert(ctx, older))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 603, all[0].TmdbID)
	assert.Equal(t, 604, all[1].TmdbID)
}

func TestForUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	mine := pendingFixture()
	require.NoError(t, s.Upsert(ctx, mine))

	theirs := pendingFixture()
	theirs.UserID = "222"
	theirs.Username = "bob"
	require.NoError(t, s.Upsert(ctx, theirs))

	got, err := s.ForUser(ctx, "111")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := testutil.NewTestStore(t)

	got, err := s.Get(context.Background(), model.PendingKey{UserID: "111", TmdbID: 999})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetLastStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	n := pendingFixture()
	require.NoError(t, s.Upsert(ctx, n))
	require.NoError(t, s.SetLastStatus(ctx, n.Key(), model.StatusPartiallyAvailable))

	got, err := s.Get(ctx, n.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusPartiallyAvailable, got.LastStatus)
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	n := pendingFixture()
	require.NoError(t, s.Upsert(ctx, n))

	require.NoError(t, s.Remove(ctx, n.Key()))
	require.NoError(t, s.Remove(ctx, n.Key()))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRemoveUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first := pendingFixture()
	require.NoError(t, s.Upsert(ctx, first))

	second := pendingFixture()
	second.TmdbID = 604
	require.NoError(t, s.Upsert(ctx, second))

	other := pendingFixture()
	other.UserID = "222"
	require.NoError(t, s.Upsert(ctx, other))

	removed, err := s.RemoveUser(ctx, "111")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "222", all[0].UserID)
}

func TestEmptyStoreStartsEmpty(t *testing.T) {
	s := testutil.NewTestStore(t)

	all, err := s.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
