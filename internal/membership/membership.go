package membership

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/course-forum/internal/model"
)

var ErrUnknownUser = errors.New("unknown user")

// Identity 身份提供方返回的最小视图
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == model.RolePlatformAdmin }

// Gate 课程成员资格门卫：回答 "用户 U 是不是课程 C 的成员/所有者"
type Gate interface {
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
	IsCourseOwner(ctx context.Context, userID, courseID string) (bool, error)
}

// Identities 身份提供方契约
type Identities interface {
	Get(ctx context.Context, userID string) (*Identity, error)
}

// Store 外部协作者的 gorm 落地（users + enrollments 只读查询为主）
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (s *Store) IsCourseOwner(ctx context.Context, userID, courseID string) (bool, error) {
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("course_id = ? AND user_id = ? AND role = ?", courseID, userID, "owner").
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (s *Store) Get(ctx context.Context, userID string) (*Identity, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	return &Identity{ID: u.ID, Name: name, Role: u.Role}, nil
}

// CreateUser 开发/填充数据用；密码入库前 bcrypt 哈希
func (s *Store) CreateUser(ctx context.Context, username, email, password, role string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:          uuid.New().String(),
		Username:    username,
		Email:       email,
		Password:    string(hash),
		DisplayName: username,
		Role:        role,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// Enroll 幂等：重复选课不报错
func (s *Store) Enroll(ctx context.Context, userID, courseID, role string) error {
	e := &model.Enrollment{
		ID:       uuid.New().String(),
		CourseID: courseID,
		UserID:   userID,
		Role:     role,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e).Error
}
