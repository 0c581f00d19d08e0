package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/course-forum/internal/model"
)

// VoteRepository 讨论与消息共用的投票台账
type VoteRepository interface {
	// Cast 投票/换方向：(目标, 用户) 唯一键上做 upsert，后写覆盖
	Cast(ctx context.Context, targetType, targetID, voterID, direction string) error
	// Remove 撤销该用户在该目标上的投票
	Remove(ctx context.Context, targetType, targetID, voterID string) error
	Aggregate(ctx context.Context, targetType, targetID, voterID string) (*model.VoteAggregate, error)
	// AggregateMany 批量汇总，供列表页一次查齐
	AggregateMany(ctx context.Context, targetType string, targetIDs []string, voterID string) (map[string]*model.VoteAggregate, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository { return &voteRepository{db: db} }

func (r *voteRepository) Cast(ctx context.Context, targetType, targetID, voterID, direction string) error {
	v := &model.Vote{
		ID:         uuid.New().String(),
		TargetType: targetType,
		TargetID:   targetID,
		VoterID:    voterID,
		Direction:  direction,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "target_type"}, {Name: "target_id"}, {Name: "voter_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"direction":  direction,
			"updated_at": time.Now(),
		}),
	}).Create(v).Error
}

func (r *voteRepository) Remove(ctx context.Context, targetType, targetID, voterID string) error {
	return r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ? AND voter_id = ?", targetType, targetID, voterID).
		Delete(&model.Vote{}).Error
}

func (r *voteRepository) Aggregate(ctx context.Context, targetType, targetID, voterID string) (*model.VoteAggregate, error) {
	m, err := r.AggregateMany(ctx, targetType, []string{targetID}, voterID)
	if err != nil {
		return nil, err
	}
	if agg, ok := m[targetID]; ok {
		return agg, nil
	}
	return &model.VoteAggregate{}, nil
}

func (r *voteRepository) AggregateMany(ctx context.Context, targetType string, targetIDs []string, voterID string) (map[string]*model.VoteAggregate, error) {
	res := make(map[string]*model.VoteAggregate, len(targetIDs))
	for _, id := range targetIDs {
		res[id] = &model.VoteAggregate{}
	}
	if len(targetIDs) == 0 {
		return res, nil
	}

	var rows []struct {
		TargetID  string
		Direction string
		Cnt       int64
	}
	err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Select("target_id, direction, COUNT(*) AS cnt").
		Where("target_type = ? AND target_id IN ?", targetType, targetIDs).
		Group("target_id, direction").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		agg := res[row.TargetID]
		if agg == nil {
			continue
		}
		switch row.Direction {
		case model.VoteUp:
			agg.Upvotes = row.Cnt
		case model.VoteDown:
			agg.Downvotes = row.Cnt
		}
	}
	for _, agg := range res {
		agg.Total = agg.Upvotes - agg.Downvotes
	}

	if voterID != "" {
		var own []struct {
			TargetID  string
			Direction string
		}
		err = r.db.WithContext(ctx).Model(&model.Vote{}).
			Select("target_id, direction").
			Where("target_type = ? AND target_id IN ? AND voter_id = ?", targetType, targetIDs, voterID).
			Scan(&own).Error
		if err != nil {
			return nil, err
		}
		for _, o := range own {
			if agg := res[o.TargetID]; agg != nil {
				agg.UserVote = o.Direction
			}
		}
	}
	return res, nil
}
