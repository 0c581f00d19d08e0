package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/course-forum/internal/model"
)

// 列表排序键
const (
	SortByActivity = "activity"
	SortByCreated  = "created"
	SortByVotes    = "votes"
)

// DiscussionFilter 列表过滤条件
type DiscussionFilter struct {
	Category string
	Search   string
	Tags     []string
}

type DiscussionRepository interface {
	Create(ctx context.Context, d *model.Discussion) error
	GetByID(ctx context.Context, id string) (*model.Discussion, error)
	// List 置顶恒排最前，分区内再按排序键；votes 排序读取时算净值
	List(ctx context.Context, courseID string, f DiscussionFilter, sortBy, dir string, offset, limit int) ([]*model.Discussion, int64, error)
	// IncrementViews 原子自增，不走读-改-写
	IncrementViews(ctx context.Context, id string) error
	SetPinned(ctx context.Context, id string, pinned bool) error
	SetLocked(ctx context.Context, id string, locked bool) error
	// SetResolved 置位时一并写 resolver 与时间戳，清除时一起清
	SetResolved(ctx context.Context, id string, resolved bool, by string) error
	Touch(ctx context.Context, id string) error
	// Delete 硬删：同事务级联消息、编辑历史与两类投票
	Delete(ctx context.Context, id string) error
}

type discussionRepository struct {
	db *gorm.DB
}

func NewDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

func (r *discussionRepository) Create(ctx context.Context, d *model.Discussion) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *discussionRepository) GetByID(ctx context.Context, id string) (*model.Discussion, error) {
	var d model.Discussion
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *discussionRepository) baseQuery(ctx context.Context, courseID string, f DiscussionFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Discussion{}).Where("course_id = ?", courseID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("title LIKE ? OR body LIKE ?", like, like)
	}
	for _, tag := range f.Tags {
		q = q.Where("tags LIKE ?", "%"+tag+"%")
	}
	return q
}

func (r *discussionRepository) List(ctx context.Context, courseID string, f DiscussionFilter, sortBy, dir string, offset, limit int) ([]*model.Discussion, int64, error) {
	var total int64
	if err := r.baseQuery(ctx, courseID, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "DESC"
	if dir == "asc" {
		order = "ASC"
	}

	q := r.baseQuery(ctx, courseID, f)
	switch sortBy {
	case SortByVotes:
		q = q.Select("discussions.*, COALESCE(v.net, 0) AS net").
			Joins(`LEFT JOIN (
				SELECT target_id, SUM(CASE WHEN direction = 'up' THEN 1 ELSE -1 END) AS net
				FROM votes WHERE target_type = 'discussion' GROUP BY target_id
			) v ON v.target_id = discussions.id`).
			Order("is_pinned DESC").Order("net " + order)
	case SortByCreated:
		q = q.Order("is_pinned DESC").Order("created_at " + order)
	default:
		q = q.Order("is_pinned DESC").Order("last_activity " + order)
	}

	var list []*model.Discussion
	if err := q.Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *discussionRepository) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.Discussion{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *discussionRepository) SetPinned(ctx context.Context, id string, pinned bool) error {
	return r.db.WithContext(ctx).Model(&model.Discussion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_pinned": pinned, "last_activity": time.Now()}).Error
}

func (r *discussionRepository) SetLocked(ctx context.Context, id string, locked bool) error {
	return r.db.WithContext(ctx).Model(&model.Discussion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_locked": locked, "last_activity": time.Now()}).Error
}

func (r *discussionRepository) SetResolved(ctx context.Context, id string, resolved bool, by string) error {
	now := time.Now()
	fields := map[string]interface{}{
		"is_resolved":   resolved,
		"resolved_by":   nil,
		"resolved_at":   nil,
		"last_activity": now,
	}
	if resolved {
		fields["resolved_by"] = by
		fields["resolved_at"] = now
	}
	return r.db.WithContext(ctx).Model(&model.Discussion{}).
		Where("id = ?", id).Updates(fields).Error
}

func (r *discussionRepository) Touch(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.Discussion{}).
		Where("id = ?", id).
		UpdateColumn("last_activity", time.Now()).Error
}

func (r *discussionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var messageIDs []string
		if err := tx.Model(&model.Message{}).
			Where("discussion_id = ?", id).
			Pluck("id", &messageIDs).Error; err != nil {
			return err
		}
		if len(messageIDs) > 0 {
			if err := tx.Where("message_id IN ?", messageIDs).Delete(&model.MessageEdit{}).Error; err != nil {
				return err
			}
			if err := tx.Where("target_type = ? AND target_id IN ?", model.VoteTargetMessage, messageIDs).
				Delete(&model.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("discussion_id = ?", id).Delete(&model.Message{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("target_type = ? AND target_id = ?", model.VoteTargetDiscussion, id).
			Delete(&model.Vote{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Discussion{}).Error
	})
}
