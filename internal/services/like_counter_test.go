package services

import (
	"context"
	"testing"

	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRepairsDrift(t *testing.T) {
	f := newEngagementFixture(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, f.db, "author")
	alice := testutil.CreateUser(t, f.db, "alice")

	// batch size is 2, so three posts span two batches
	first := testutil.CreatePost(t, f.db, author, "one")
	second := testutil.CreatePost(t, f.db, author, "two")
	third := testutil.CreatePost(t, f.db, author, "three")

	_, _, err := f.engagement.LikePost(ctx, alice.ID, first.ID)
	require.NoError(t, err)
	_, _, err = f.engagement.LikePost(ctx, alice.ID, third.ID)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Post{}).Where("id = ?", first.ID).UpdateColumn("like_count", 7).Error)
	require.NoError(t, f.db.Model(&models.Post{}).Where("id = ?", second.ID).UpdateColumn("like_count", 3).Error)

	report, err := f.counter.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Scanned: 3, Corrected: 2}, report)

	assert.Equal(t, int64(1), testutil.LikeCount(t, f.db, first.ID))
	assert.Equal(t, int64(0), testutil.LikeCount(t, f.db, second.ID))
	assert.Equal(t, int64(1), testutil.LikeCount(t, f.db, third.ID))

	report, err = f.counter.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Scanned: 3, Corrected: 0}, report)
}

func TestReconcileEmpty(t *testing.T) {
	f := newEngagementFixture(t)

	report, err := f.counter.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
}

func TestReconcileSkipsMissingPost(t *testing.T) {
	f := newEngagementFixture(t)

	corrected, err := f.counter.ReconcilePost(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, corrected)
}

func TestReconcileStopsOnCancelledContext(t *testing.T) {
	f := newEngagementFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.counter.Reconcile(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
