package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/ccpace/internal/kvstore"
	"github.com/theirongolddev/ccpace/internal/usage"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ccpace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func intp(v int) *int { return &v }

func TestBucketIsolation(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	favs := db.Bucket("favorites")
	uses := db.Bucket("usage")

	require.NoError(t, favs.Set(ctx, "tool-a", "1"))
	require.NoError(t, uses.Set(ctx, "tool-a", `{"use_count":1}`))
	require.NoError(t, uses.Set(ctx, "tool-a", `{"use_count":2}`))

	v, err := favs.Get(ctx, "tool-a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	v, err = uses.Get(ctx, "tool-a")
	require.NoError(t, err)
	assert.Equal(t, `{"use_count":2}`, v)

	require.NoError(t, favs.Delete(ctx, "tool-a"))
	_, err = favs.Get(ctx, "tool-a")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	keys, err := uses.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"tool-a"}, keys)
}

func TestSnapshotHistory(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

	first := usage.Snapshot{
		Session:   usage.Session{UsedPercent: intp(30), ResetIn: "2h 30m"},
		AllModels: usage.Weekly{UsedPercent: intp(40), ResetsAt: "Wed 10:00 AM"},
		FetchedAt: base,
	}
	_, err := db.InsertSnapshot(ctx, SnapshotRecord{Snapshot: first, SessionPacing: "20% ahead", WeeklyPacing: "59% ahead"})
	require.NoError(t, err)

	second := usage.Empty("NO_TAB")
	second.FetchedAt = base.Add(time.Minute)
	_, err = db.InsertSnapshot(ctx, SnapshotRecord{Snapshot: second})
	require.NoError(t, err)

	recs, err := db.RecentSnapshots(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "NO_TAB", recs[0].Snapshot.Err)
	assert.Nil(t, recs[0].Snapshot.Session.UsedPercent)

	got := recs[1]
	require.NotNil(t, got.Snapshot.Session.UsedPercent)
	assert.Equal(t, 30, *got.Snapshot.Session.UsedPercent)
	assert.Equal(t, "Wed 10:00 AM", got.Snapshot.AllModels.ResetsAt)
	assert.Nil(t, got.Snapshot.Sonnet.UsedPercent)
	assert.Equal(t, "20% ahead", got.SessionPacing)
	assert.True(t, got.Snapshot.FetchedAt.Equal(base))

	n, err := db.PruneSnapshots(ctx, base.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err = db.RecentSnapshots(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
