package membership

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/course-forum/internal/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Enrollment{}))
	return NewStore(db)
}

func TestEnrollmentGate(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice", "alice@example.com", "secret", model.RoleStudent)
	require.NoError(t, err)
	o, err := s.CreateUser(ctx, "owner", "owner@example.com", "secret", model.RoleCourseOwner)
	require.NoError(t, err)

	require.NoError(t, s.Enroll(ctx, u.ID, "c1", "student"))
	require.NoError(t, s.Enroll(ctx, o.ID, "c1", "owner"))
	// 重复选课幂等
	require.NoError(t, s.Enroll(ctx, u.ID, "c1", "student"))

	ok, err := s.IsEnrolled(ctx, u.ID, "c1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.IsEnrolled(ctx, u.ID, "c2")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.IsCourseOwner(ctx, o.ID, "c1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.IsCourseOwner(ctx, u.ID, "c1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIdentityLookup(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "bob", "bob@example.com", "hunter2", model.RoleStudent)
	require.NoError(t, err)

	// 密码入库前已哈希
	require.NotEqual(t, "hunter2", u.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("hunter2")))

	id, err := s.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "bob", id.Name)
	require.Equal(t, model.RoleStudent, id.Role)
	require.False(t, id.IsAdmin())

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrUnknownUser)
}
