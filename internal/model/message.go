package model

import "time"

// Message 讨论内的发言；ParentID 为空表示顶层，否则是一级回复
type Message struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	DiscussionID string `gorm:"type:varchar(36);index:idx_message_discussion;not null"`
	AuthorID     string `gorm:"type:varchar(36);index;not null"`
	Body         string `gorm:"type:text;not null"`
	// 只允许一级回复：ParentID 指向的消息必须是顶层消息
	ParentID *string `gorm:"type:varchar(36);index:idx_message_parent"`

	IsEdited bool `gorm:"not null;default:false"`
	EditedAt *time.Time

	IsDeleted bool `gorm:"not null;default:false;index"`
	// 软删除保留内容供审计，列表与回复展开一律排除
	DeletedBy *string `gorm:"type:varchar(36)"`
	DeletedAt *time.Time

	ReplyCount int64 `gorm:"not null;default:0"`

	IsBestAnswer bool `gorm:"not null;default:false"`
	// 同一讨论内未删除消息至多一条 IsBestAnswer = true
	BestAnswerBy *string `gorm:"type:varchar(36)"`
	BestAnswerAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Message) TableName() string { return "messages" }

// MessageEdit 编辑历史（改写前的旧正文，追加不删）
type MessageEdit struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	MessageID string    `gorm:"type:varchar(36);index:idx_edit_message;not null"`
	Body      string    `gorm:"type:text;not null"`
	EditedAt  time.Time `gorm:"not null"`
}

func (MessageEdit) TableName() string { return "message_edits" }
