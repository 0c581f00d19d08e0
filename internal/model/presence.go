package model

import "time"

// 在线状态与当前活动
const (
	PresenceOnline  = "online"
	PresenceAway    = "away"
	PresenceOffline = "offline"

	ActivityViewingCourse  = "viewing_course"
	ActivityInDiscussion   = "in_discussion"
	ActivityWatchingLesson = "watching_lesson"
	ActivityIdle           = "idle"
)

// ValidActivity 校验活动枚举
func ValidActivity(a string) bool {
	switch a {
	case ActivityViewingCourse, ActivityInDiscussion, ActivityWatchingLesson, ActivityIdle:
		return true
	}
	return false
}

// Presence 单用户的在线记录（redis 为准；见 PresenceSnapshot）
type Presence struct {
	UserID   string    `json:"user_id"`
	CourseID string    `json:"course_id"`
	Status   string    `json:"status"`
	Activity string    `json:"activity"`
	LastSeen time.Time `json:"last_seen"`
	// 输入中指示（可选）：正在哪个讨论里输入、何时开始
	TypingIn    string     `json:"typing_in,omitempty"`
	TypingSince *time.Time `json:"typing_since,omitempty"`
}

// PresenceSnapshot 异步落库的展示用快照，可能滞后于 redis
type PresenceSnapshot struct {
	UserID    string `gorm:"primaryKey;type:varchar(36)"`
	CourseID  string `gorm:"type:varchar(36);index:idx_presence_course"`
	Status    string `gorm:"type:varchar(16);not null;default:offline"`
	Activity  string `gorm:"type:varchar(32)"`
	LastSeen  time.Time
	UpdatedAt time.Time
}

func (PresenceSnapshot) TableName() string { return "presence_snapshots" }
