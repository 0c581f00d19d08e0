package model

import "time"

// 讨论分类
const (
	CategoryGeneral      = "general"
	CategoryQuestion     = "question"
	CategoryAssignment   = "assignment"
	CategoryAnnouncement = "announcement"
	CategoryTechnical    = "technical"
)

// ValidCategory 校验分类枚举
func ValidCategory(c string) bool {
	switch c {
	case CategoryGeneral, CategoryQuestion, CategoryAssignment, CategoryAnnouncement, CategoryTechnical:
		return true
	}
	return false
}

// Discussion 课程内的讨论主题
type Discussion struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	CourseID string `gorm:"type:varchar(36);index:idx_discussion_course;not null"`
	AuthorID string `gorm:"type:varchar(36);index;not null"`
	Title    string `gorm:"type:varchar(200);not null"`
	Body     string `gorm:"type:text;not null"`
	Category string `gorm:"type:varchar(16);not null;default:general;index"`
	// Tags 逗号拼接存储，读取时拆分
	Tags string `gorm:"type:varchar(255)"`

	IsPinned   bool `gorm:"not null;default:false;index"`
	IsLocked   bool `gorm:"not null;default:false"`
	IsResolved bool `gorm:"not null;default:false"`
	// isResolved = true 时 ResolvedBy/ResolvedAt 必须同时设置，清除时一起清
	ResolvedBy *string `gorm:"type:varchar(36)"`
	ResolvedAt *time.Time

	Views         int64 `gorm:"not null;default:0"`
	MessageCount  int64 `gorm:"not null;default:0"`
	LastMessageID *string
	LastActivity  time.Time `gorm:"index:idx_discussion_activity"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Discussion) TableName() string { return "discussions" }
