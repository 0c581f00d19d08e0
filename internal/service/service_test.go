package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/course-forum/internal/membership"
	"github.com/d60-Lab/course-forum/internal/model"
	"github.com/d60-Lab/course-forum/internal/repository"
)

// forumFixture 一门课 + 所有者/两个学生/管理员/未选课用户
type forumFixture struct {
	db          *gorm.DB
	store       *membership.Store
	discussions DiscussionService
	messages    MessageService

	courseID string
	owner    *membership.Identity
	alice    *membership.Identity
	bob      *membership.Identity
	admin    *membership.Identity
	outsider *membership.Identity
}

func setupForum(t *testing.T) *forumFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Enrollment{},
		&model.Discussion{}, &model.Message{}, &model.MessageEdit{},
		&model.Vote{}, &model.PresenceSnapshot{},
	))

	store := membership.NewStore(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	voteRepo := repository.NewVoteRepository(db)

	f := &forumFixture{
		db:          db,
		store:       store,
		discussions: NewDiscussionService(discussionRepo, voteRepo, store),
		messages:    NewMessageService(messageRepo, discussionRepo, voteRepo, store),
		courseID:    uuid.New().String(),
	}

	ctx := context.Background()
	mk := func(name, role, enrollRole string) *membership.Identity {
		u, err := store.CreateUser(ctx, name, name+"@example.com", "secret", role)
		require.NoError(t, err)
		if enrollRole != "" {
			require.NoError(t, store.Enroll(ctx, u.ID, f.courseID, enrollRole))
		}
		return &membership.Identity{ID: u.ID, Name: name, Role: role}
	}
	f.owner = mk("owner", model.RoleCourseOwner, "owner")
	f.alice = mk("alice", model.RoleStudent, "student")
	f.bob = mk("bob", model.RoleStudent, "student")
	f.admin = mk("admin", model.RolePlatformAdmin, "")
	f.outsider = mk("mallory", model.RoleStudent, "")
	return f
}

func (f *forumFixture) createDiscussion(t *testing.T, author *membership.Identity, title string) *model.Discussion {
	t.Helper()
	d, err := f.discussions.Create(context.Background(), author, f.courseID,
		title, "Stuck on lesson 3", model.CategoryQuestion, []string{"help"})
	require.NoError(t, err)
	return d
}
