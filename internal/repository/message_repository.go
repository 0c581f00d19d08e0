package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/course-forum/internal/model"
)

type MessageRepository interface {
	// Create 同事务写消息并同步所属讨论的计数与活跃时间：
	// message_count+1、last_activity、last_message_id；回复再给父消息 reply_count+1
	Create(ctx context.Context, m *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	// ListTopLevel 仅顶层未删除消息：最佳答案最前，其余按时间正序
	ListTopLevel(ctx context.Context, discussionID string, offset, limit int) ([]*model.Message, int64, error)
	// ListReplies 展开未删除回复，按时间正序
	ListReplies(ctx context.Context, parentIDs []string) ([]*model.Message, error)
	// Edit 覆盖正文前把旧正文追加进编辑历史
	Edit(ctx context.Context, m *model.Message, newBody string) error
	// SoftDelete 顶层消息减讨论 message_count，回复减父消息 reply_count，二者互斥
	SoftDelete(ctx context.Context, m *model.Message, deleterID string) error
	// MarkBestAnswer 同事务先清兄弟消息再置目标，并把讨论标记为已解决
	MarkBestAnswer(ctx context.Context, m *model.Message, selectorID string) error
	ListEdits(ctx context.Context, messageID string) ([]*model.MessageEdit, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository { return &messageRepository{db: db} }

func (r *messageRepository) Create(ctx context.Context, m *model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if m.ParentID != nil {
			if err := tx.Model(&model.Message{}).
				Where("id = ?", *m.ParentID).
				UpdateColumn("reply_count", gorm.Expr("reply_count + 1")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Discussion{}).
			Where("id = ?", m.DiscussionID).
			Updates(map[string]interface{}{
				"message_count":   gorm.Expr("message_count + 1"),
				"last_activity":   time.Now(),
				"last_message_id": m.ID,
			}).Error
	})
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageRepository) ListTopLevel(ctx context.Context, discussionID string, offset, limit int) ([]*model.Message, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("discussion_id = ? AND parent_id IS NULL AND is_deleted = ?", discussionID, false)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []*model.Message
	err := r.db.WithContext(ctx).
		Where("discussion_id = ? AND parent_id IS NULL AND is_deleted = ?", discussionID, false).
		Order("is_best_answer DESC").Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (r *messageRepository) ListReplies(ctx context.Context, parentIDs []string) ([]*model.Message, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var list []*model.Message
	err := r.db.WithContext(ctx).
		Where("parent_id IN ? AND is_deleted = ?", parentIDs, false).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *messageRepository) Edit(ctx context.Context, m *model.Message, newBody string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edit := &model.MessageEdit{
			ID:        uuid.New().String(),
			MessageID: m.ID,
			Body:      m.Body,
			EditedAt:  now,
		}
		if err := tx.Create(edit).Error; err != nil {
			return err
		}
		return tx.Model(&model.Message{}).
			Where("id = ?", m.ID).
			Updates(map[string]interface{}{
				"body":      newBody,
				"is_edited": true,
				"edited_at": now,
			}).Error
	})
}

func (r *messageRepository) SoftDelete(ctx context.Context, m *model.Message, deleterID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Message{}).
			Where("id = ? AND is_deleted = ?", m.ID, false).
			Updates(map[string]interface{}{
				"is_deleted": true,
				"deleted_by": deleterID,
				"deleted_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		// 已是删除态则不再动计数，保证重复删除幂等
		if res.RowsAffected == 0 {
			return nil
		}
		if m.ParentID != nil {
			if err := tx.Model(&model.Message{}).
				Where("id = ?", *m.ParentID).
				UpdateColumn("reply_count", gorm.Expr("reply_count - 1")).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&model.Discussion{}).
				Where("id = ?", m.DiscussionID).
				UpdateColumn("message_count", gorm.Expr("message_count - 1")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Discussion{}).
			Where("id = ?", m.DiscussionID).
			UpdateColumn("last_activity", now).Error
	})
}

func (r *messageRepository) MarkBestAnswer(ctx context.Context, m *model.Message, selectorID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Message{}).
			Where("discussion_id = ? AND id <> ?", m.DiscussionID, m.ID).
			Updates(map[string]interface{}{
				"is_best_answer": false,
				"best_answer_by": nil,
				"best_answer_at": nil,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Message{}).
			Where("id = ?", m.ID).
			Updates(map[string]interface{}{
				"is_best_answer": true,
				"best_answer_by": selectorID,
				"best_answer_at": now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Discussion{}).
			Where("id = ?", m.DiscussionID).
			Updates(map[string]interface{}{
				"is_resolved":   true,
				"resolved_by":   selectorID,
				"resolved_at":   now,
				"last_activity": now,
			}).Error
	})
}

func (r *messageRepository) ListEdits(ctx context.Context, messageID string) ([]*model.MessageEdit, error) {
	var list []*model.MessageEdit
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("edited_at ASC").
		Find(&list).Error
	return list, err
}
