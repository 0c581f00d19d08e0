package model

import "time"

// 投票目标与方向
const (
	VoteTargetDiscussion = "discussion"
	VoteTargetMessage    = "message"

	VoteUp     = "up"
	VoteDown   = "down"
	VoteRemove = "remove" // 仅作为请求方向，不落库
)

// Vote 单用户对单目标的方向性投票；换方向是原地更新不是追加
type Vote struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	TargetType string `gorm:"type:varchar(16);not null;index:idx_vote_target;index:idx_vote_key,unique"`
	TargetID   string `gorm:"type:varchar(36);not null;index:idx_vote_target;index:idx_vote_key,unique"`
	VoterID    string `gorm:"type:varchar(36);not null;index:idx_vote_key,unique"`
	// 复合唯一键，保证 (目标, 用户) 至多一票
	// idx_vote_key = (target_type, target_id, voter_id)
	Direction string `gorm:"type:varchar(8);not null"` // up, down
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Vote) TableName() string { return "votes" }

// VoteAggregate 目标的票数汇总（净值读取时计算，不预存）
type VoteAggregate struct {
	Upvotes   int64  `json:"upvotes"`
	Downvotes int64  `json:"downvotes"`
	Total     int64  `json:"total"` // upvotes - downvotes
	UserVote  string `json:"user_vote,omitempty"`
}
