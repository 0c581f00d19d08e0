package model

import "time"

// 平台角色
const (
	RoleStudent       = "student"
	RoleCourseOwner   = "course_owner"
	RolePlatformAdmin = "platform_admin"
)

// User 身份提供方的用户记录（本子系统只读）
type User struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Username    string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email       string `gorm:"type:varchar(128);uniqueIndex;not null"`
	Password    string `gorm:"type:varchar(128);not null"`
	DisplayName string `gorm:"type:varchar(128)"`
	Role        string `gorm:"type:varchar(16);not null;default:student"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (User) TableName() string { return "users" }

// Enrollment 选课关系（课程成员资格门卫的数据来源）
type Enrollment struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	CourseID string `gorm:"type:varchar(36);index:idx_enroll_course;index:idx_enroll_pair,unique;not null"`
	UserID   string `gorm:"type:varchar(36);not null;index:idx_enroll_pair,unique"`
	// 复合唯一键，避免重复选课
	// idx_enroll_pair = (course_id, user_id)
	Role      string `gorm:"type:varchar(16);not null;default:student"` // student, owner
	CreatedAt time.Time
}

func (Enrollment) TableName() string { return "enrollments" }
