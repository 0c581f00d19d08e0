package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/course-forum/internal/model"
	"github.com/d60-Lab/course-forum/internal/repository"
)

func setupPresence(t *testing.T) (*forumFixture, PresenceService, *redis.Client) {
	t.Helper()
	f := setupForum(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := NewPresenceService(rdb, f.store, 5*time.Minute, 24*time.Hour, nil)
	return f, svc, rdb
}

func TestHeartbeatUpsertsAndLists(t *testing.T) {
	f, svc, _ := setupPresence(t)
	ctx := context.Background()

	p, err := svc.Heartbeat(ctx, f.alice, f.courseID, model.ActivityViewingCourse, "")
	require.NoError(t, err)
	require.Equal(t, model.PresenceOnline, p.Status)
	require.False(t, p.LastSeen.IsZero())

	_, err = svc.Heartbeat(ctx, f.bob, f.courseID, model.ActivityInDiscussion, "disc-1")
	require.NoError(t, err)

	list, err := svc.ListOnline(ctx, f.alice, f.courseID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byUser := make(map[string]*model.Presence)
	for _, item := range list {
		byUser[item.UserID] = item
	}
	require.Equal(t, model.ActivityViewingCourse, byUser[f.alice.ID].Activity)
	require.Equal(t, "disc-1", byUser[f.bob.ID].TypingIn)
	require.NotNil(t, byUser[f.bob.ID].TypingSince)

	// 下一次不带 typing 的心跳清掉输入中指示
	_, err = svc.Heartbeat(ctx, f.bob, f.courseID, model.ActivityInDiscussion, "")
	require.NoError(t, err)
	list, err = svc.ListOnline(ctx, f.alice, f.courseID)
	require.NoError(t, err)
	for _, item := range list {
		if item.UserID == f.bob.ID {
			require.Empty(t, item.TypingIn)
		}
	}
}

func TestHeartbeatRequiresEnrollmentAndValidActivity(t *testing.T) {
	f, svc, _ := setupPresence(t)
	ctx := context.Background()

	_, err := svc.Heartbeat(ctx, f.outsider, f.courseID, model.ActivityIdle, "")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Heartbeat(ctx, f.alice, f.courseID, "sleeping", "")
	require.ErrorIs(t, err, ErrValidation)

	// 活动缺省为 idle
	p, err := svc.Heartbeat(ctx, f.alice, f.courseID, "", "")
	require.NoError(t, err)
	require.Equal(t, model.ActivityIdle, p.Activity)

	_, err = svc.ListOnline(ctx, f.outsider, f.courseID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestStaleHeartbeatDropsOut(t *testing.T) {
	f, svc, rdb := setupPresence(t)
	ctx := context.Background()

	_, err := svc.Heartbeat(ctx, f.alice, f.courseID, model.ActivityIdle, "")
	require.NoError(t, err)
	_, err = svc.Heartbeat(ctx, f.bob, f.courseID, model.ActivityIdle, "")
	require.NoError(t, err)

	// alice 的 last_seen 拨回窗口之外：存储的 status 仍是 online，但窗口说了算
	stale := time.Now().Add(-6 * time.Minute).UTC().Format(time.RFC3339Nano)
	require.NoError(t, rdb.HSet(ctx, "presence:user:"+f.alice.ID, "last_seen", stale).Err())

	list, err := svc.ListOnline(ctx, f.bob, f.courseID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, f.bob.ID, list[0].UserID)

	// 再来一次心跳即恢复
	_, err = svc.Heartbeat(ctx, f.alice, f.courseID, model.ActivityIdle, "")
	require.NoError(t, err)
	list, err = svc.ListOnline(ctx, f.bob, f.courseID)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestSetAwayStillListedInsideWindow(t *testing.T) {
	f, svc, _ := setupPresence(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.SetAway(ctx, f.alice), ErrNotFound)

	_, err := svc.Heartbeat(ctx, f.alice, f.courseID, model.ActivityIdle, "")
	require.NoError(t, err)
	require.NoError(t, svc.SetAway(ctx, f.alice))

	list, err := svc.ListOnline(ctx, f.alice, f.courseID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, model.PresenceAway, list[0].Status)
}

func TestHeartbeatSwitchesCourse(t *testing.T) {
	f, svc, _ := setupPresence(t)
	ctx := context.Background()

	other := "course-b"
	require.NoError(t, f.store.Enroll(ctx, f.alice.ID, other, "student"))

	_, err := svc.Heartbeat(ctx, f.alice, f.courseID, model.ActivityIdle, "")
	require.NoError(t, err)
	_, err = svc.Heartbeat(ctx, f.alice, other, model.ActivityIdle, "")
	require.NoError(t, err)

	list, err := svc.ListOnline(ctx, f.owner, f.courseID)
	require.NoError(t, err)
	require.Empty(t, list)

	list, err = svc.ListOnline(ctx, f.alice, other)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestPresenceReplicatorMirrorsSnapshot(t *testing.T) {
	f := setupForum(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := repository.NewPresenceRepository(f.db)
	repl := NewPresenceReplicator(repo, 16)
	stop := repl.Start(1)
	svc := NewPresenceService(rdb, f.store, 5*time.Minute, 24*time.Hour, repl)

	ctx := context.Background()
	_, err := svc.Heartbeat(ctx, f.alice, f.courseID, model.ActivityWatchingLesson, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := repo.GetByUser(ctx, f.alice.ID)
		return err == nil && snap.Status == model.PresenceOnline &&
			snap.CourseID == f.courseID && snap.Activity == model.ActivityWatchingLesson
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, stop(ctx))
}
