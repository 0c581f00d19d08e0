package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/course-forum/internal/membership"
	"github.com/d60-Lab/course-forum/internal/model"
)

func (f *forumFixture) reload(t *testing.T, id string) *model.Discussion {
	t.Helper()
	var d model.Discussion
	require.NoError(t, f.db.Where("id = ?", id).First(&d).Error)
	return &d
}

func TestMessageAndReplyCounters(t *testing.T) {
	f := setupForum(t)
	ctx := context.Background()
	d := f.createDiscussion(t, f.alice, "Need help")

	// B 连发两条顶层消息
	m1, err := f.messages.Create(ctx, f.bob, d.ID, "first", nil)
	require.NoError(t, err)
	_, err = f.messages.Create(ctx, f.bob, d.ID, "second", nil)
	require.NoError(t, err)

	got := f.reload(t, d.ID)
	require.Equal(t, int64(2), got.MessageCount)

	// 第三条作为 m1 的回复：m1.replyCount=1，讨论 messageCount=3
	reply, err := f.messages.Create(ctx, f.alice, d.ID, "third", &m1.ID)
	require.NoError(t, err)

	got = f.reload(t, d.ID)
	require.Equal(t, int64(3), got.MessageCount)
	require.NotNil(t, got.LastMessageID)
	require.Equal(t, reply.ID, *got.LastMessageID)

	var parent model.Message
	require.NoError(t, f.db.Where("id = ?", m1.ID).First(&parent).Error)
	require.Equal(t, int64(1), parent.ReplyCount)
}

func TestLockedDiscussionRejectsEveryRole(t *testing.T) {
	f := setupForum(t)
	ctx := context.Background()
	d := f.createDiscussion(t, f.alice, "locked")

	_, err := f.discussions.Moderate(ctx, f.owner, d.ID, "lock", true)
	require.NoError(t, err)

	// 作者、所有者、管理员一个都不放行
	for _, caller := range []*membership.Identity{f.bob, f.alice, f.owner, f.admin} {
		_, err = f.messages.Create(ctx, caller, d.ID, "hi", nil)
		require.ErrorIs(t, err, ErrLocked, caller.Name)
	}

	// 解锁后恢复
	_, err = f.discussions.Moderate(ctx, f.owner, d.ID, "lock", false)
	require.NoError(t, err)
	_, err = f.messages.Create(ctx, f.bob, d.ID, "hi", nil)
	require.NoError(t, err)
}

func TestReplyToReplyRejected(t *testing.T) {
	f := setupForum(t)
	ctx := context.Background()
	d := f.createDiscussion(t, f.alice, "nesting")

	top, err := f.messages.Create(ctx, f.bob, d.ID, "top", nil)
	require.NoError(t, err)
	reply, err := f.messages.Create(ctx, f.alice, d.ID, "reply", &top.ID)
	require.NoError(t, err)

	_, err = f.messages.Create(ctx, f.bob, d.ID, "nested", &reply.ID)
	require.ErrorIs(t, err, ErrValidation)

	// 父消息必须在同一讨论内
	other := f.createDiscussion(t, f.alice, "other")
	_, err = f.messages.Create(ctx, f.bob, other.ID, "cross", &top.ID)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSoftDeleteCounterSplit(t *testing.T) {
	f := setupForum(t)
	ctx := context.Background()
	d := f.createDiscussion(t, f.alice, "split")

	top, err := f.messages.Create(ctx, f.bob, d.ID, "top", nil)
	require.NoError(t, err)
	reply, err := f.messages.Create(ctx, f.alice, d.ID, "reply", &top.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), f.reload(t, d.ID).MessageCount)

	// 删回复：父 replyCount-1，讨论 messageCount 不动
	require.NoError(t, f.messages.SoftDelete(ctx, f.alice, reply.ID))
	require.Equal(t, int64(2), f.reload(t, d.ID).MessageCount)
	var parent model.Message
	require.NoError(t, f.db.Where("id = ?", top.ID).First(&parent).Error)
	require.Equal(t, int64(0), parent.ReplyCount)

	// 重复删除幂等，不再扣计数
	require.NoError(t, f.messages.SoftDelete(ctx, f.alice, reply.ID))
	require.NoError(t, f.db.Where("id = ?", top.ID).First(&parent).Error)
	require.Equal(t, int64(0), parent.ReplyCount)

	// 删顶层：讨论 messageCount-1
	require.NoError(t, f.messages.SoftDelete(ctx, f.bob, top.ID))
	require.Equal(t, int64(1), f.reload(t, d.ID).MessageCount)

	// 内容保留供审计
	var deleted model.Message
	require.NoError(t, f.db.Where("id = ?", reply.ID).First(&deleted).Error)
	require.True(t, deleted.IsDeleted)
	require.Equal(t, "reply", deleted.Body)
	require.NotNil(t, deleted.DeletedBy)
	require.Equal(t, f.alice.ID, *deleted.DeletedBy)
}

func TestSoftDeleteAuthorization(t *testing.T) {
	f := setupForum(t)
	ctx := context.Background()
	d := f.createDiscussion(t, f.alice, "auth")
	m, err := f.messages.Create(ctx, f.bob, d.ID, "mine", nil)
	require.NoError(t, err)

	require.ErrorIs(t, f.messages.SoftDelete(ctx, f.alice, m.ID), ErrForbidden)
	require.ErrorIs(t, f.messages.SoftDelete(ctx, f.owner, m.ID), ErrForbidden)
	require.NoError(t, f.messages.SoftDelete(ctx, f.admin, m.ID))
}

func TestEditKeepsHistory(t *testing.T) {
	f := setupForum(t)
	ctx := context.Background()
	d := f.createDiscussion(t, f.alice, "edits")
	m, err := f.messages.Create(ctx, f.bob, d.ID, "v1", nil)
	require.NoError(t, err)

	_, err = f.messages.Edit(ctx, f.alice, m.ID, "hijack")
	require.ErrorIs(t, err, ErrForbidden)

	got, err := f.messages.Edit(ctx, f.bob, m.ID, "v2")
	require.NoError(t, err)
	require.True(t, got.IsEdited)
	require.NotNil(t, got.EditedAt)
	require.Equal(t, "v2", got.Body)

	_, err = f.messages.Edit(ctx, f.bob, m.ID, "v3")
	require.NoError(t, err)

	edits, err := f.messages.ListEdits(ctx, f.bob, m.ID)
	require.NoError(t, err)
	require.Len(t, edits, 2)
	require.Equal(t, "v1", edits[0].Body)
	require.Equal(t, "v2", edits[1].Body)
}

func TestBestAnswerExclusiveAndResolves(t *testing.T) {
	f := setupForum(t)
	ctx := context.Background()
	d := f.createDiscussion(t, f.alice, "best answer")

	m1, err := f.messages.Create(ctx, f.bob, d.ID, "answer one", nil)
	require.NoError(t, err)
	m2, err := f.messages.Create(ctx, f.bob, d.ID, "answer two", nil)
	require.NoError(t, err)

	// bob 无权选
	_, err = f.messages.MarkBestAnswer(ctx, f.bob, m1.ID)
	require.ErrorIs(t, err, ErrForbidden)

	got, err := f.messages.MarkBestAnswer(ctx, f.owner, m1.ID)
	require.NoError(t, err)
	require.True(t, got.IsBestAnswer)

	disc := f.reload(t, d.ID)
	require.True(t, disc.IsResolved)
	require.NotNil(t, disc.ResolvedBy)
	require.Equal(t, f.owner.ID, *disc.ResolvedBy)

	// 换目标：旧最佳被清
	_, err = f.messages.MarkBestAnswer(ctx, f.alice, m2.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&model.Message{}).
		Where("discussion_id = ? AND is_best_answer = ? AND is_deleted = ?", d.ID, true, false).
		Count(&count).Error)
	require.Equal(t, int64(1), count)

	var old model.Message
	require.NoError(t, f.db.Where("id = ?", m1.ID).First(&old).Error)
	require.False(t, old.IsBestAnswer)
	require.Nil(t, old.BestAnswerBy)

	// 重复标记同一条幂等
	_, err = f.messages.MarkBestAnswer(ctx, f.alice, m2.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&model.Message{}).
		Where("discussion_id = ? AND is_best_answer = ?", d.ID, true).
		Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestListMessagesOrderingAndReplies(t *testing.T) {
	f := setupForum(t)
	ctx := context.Background()
	d := f.createDiscussion(t, f.alice, "listing")

	m1, err := f.messages.Create(ctx, f.bob, d.ID, "first", nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	m2, err := f.messages.Create(ctx, f.alice, d.ID, "second", nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	r1, err := f.messages.Create(ctx, f.alice, d.ID, "reply to first", &m1.ID)
	require.NoError(t, err)
	deletedReply, err := f.messages.Create(ctx, f.bob, d.ID, "gone", &m1.ID)
	require.NoError(t, err)
	require.NoError(t, f.messages.SoftDelete(ctx, f.bob, deletedReply.ID))

	_, err = f.messages.Vote(ctx, f.alice, m1.ID, model.VoteUp)
	require.NoError(t, err)

	// 最佳答案排最前，其余按时间正序
	_, err = f.messages.MarkBestAnswer(ctx, f.owner, m2.ID)
	require.NoError(t, err)

	list, total, err := f.messages.List(ctx, f.alice, d.ID, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, m2.ID, list[0].ID)
	require.Equal(t, m1.ID, list[1].ID)

	// 软删除的回复不出现
	require.Len(t, list[1].Replies, 1)
	require.Equal(t, r1.ID, list[1].Replies[0].ID)

	// 每条带票数与调用者方向
	require.Equal(t, int64(1), list[1].Votes.Upvotes)
	require.Equal(t, model.VoteUp, list[1].Votes.UserVote)
	require.Equal(t, int64(0), list[0].Votes.Total)

	// 软删除顶层消息从列表消失
	require.NoError(t, f.messages.SoftDelete(ctx, f.bob, m1.ID))
	list, total, err = f.messages.List(ctx, f.alice, d.ID, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	require.Equal(t, m2.ID, list[0].ID)
}
