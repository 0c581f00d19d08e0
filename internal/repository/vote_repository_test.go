package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/course-forum/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Enrollment{},
		&model.Discussion{}, &model.Message{}, &model.MessageEdit{},
		&model.Vote{}, &model.PresenceSnapshot{},
	))
	return db
}

func TestVoteToggleReplacesDirection(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Cast(ctx, model.VoteTargetDiscussion, "d1", "u1", model.VoteUp))
	require.NoError(t, repo.Cast(ctx, model.VoteTargetDiscussion, "d1", "u1", model.VoteDown))

	var cnt int64
	require.NoError(t, db.Model(&model.Vote{}).
		Where("target_id = ? AND voter_id = ?", "d1", "u1").Count(&cnt).Error)
	require.Equal(t, int64(1), cnt)

	agg, err := repo.Aggregate(ctx, model.VoteTargetDiscussion, "d1", "u1")
	require.NoError(t, err)
	require.Equal(t, int64(0), agg.Upvotes)
	require.Equal(t, int64(1), agg.Downvotes)
	require.Equal(t, int64(-1), agg.Total)
	require.Equal(t, model.VoteDown, agg.UserVote)
}

func TestVoteRemoveLeavesNothing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Cast(ctx, model.VoteTargetMessage, "m1", "u1", model.VoteUp))
	require.NoError(t, repo.Remove(ctx, model.VoteTargetMessage, "m1", "u1"))

	var cnt int64
	require.NoError(t, db.Model(&model.Vote{}).
		Where("target_id = ? AND voter_id = ?", "m1", "u1").Count(&cnt).Error)
	require.Equal(t, int64(0), cnt)

	// 没投过票时 remove 也不报错
	require.NoError(t, repo.Remove(ctx, model.VoteTargetMessage, "m1", "u1"))
}

func TestAggregateManyMixedVotes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Cast(ctx, model.VoteTargetDiscussion, "d1", "a", model.VoteUp))
	require.NoError(t, repo.Cast(ctx, model.VoteTargetDiscussion, "d1", "b", model.VoteDown))
	require.NoError(t, repo.Cast(ctx, model.VoteTargetDiscussion, "d2", "a", model.VoteUp))

	aggs, err := repo.AggregateMany(ctx, model.VoteTargetDiscussion, []string{"d1", "d2", "d3"}, "a")
	require.NoError(t, err)

	require.Equal(t, int64(1), aggs["d1"].Upvotes)
	require.Equal(t, int64(1), aggs["d1"].Downvotes)
	require.Equal(t, int64(0), aggs["d1"].Total)
	require.Equal(t, model.VoteUp, aggs["d1"].UserVote)

	require.Equal(t, int64(1), aggs["d2"].Total)
	require.Empty(t, aggs["d3"].UserVote)
	require.Equal(t, int64(0), aggs["d3"].Total)
}

func TestMessageVotesScopedSeparately(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	// 同一 ID 下讨论票与消息票互不串台
	require.NoError(t, repo.Cast(ctx, model.VoteTargetDiscussion, "x", "u1", model.VoteUp))
	require.NoError(t, repo.Cast(ctx, model.VoteTargetMessage, "x", "u1", model.VoteDown))

	dAgg, err := repo.Aggregate(ctx, model.VoteTargetDiscussion, "x", "u1")
	require.NoError(t, err)
	require.Equal(t, int64(1), dAgg.Upvotes)

	mAgg, err := repo.Aggregate(ctx, model.VoteTargetMessage, "x", "u1")
	require.NoError(t, err)
	require.Equal(t, int64(1), mAgg.Downvotes)
}
