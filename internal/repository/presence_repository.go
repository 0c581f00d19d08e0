package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/course-forum/internal/model"
)

// PresenceRepository 展示用快照表；redis 里的心跳才是在线判定依据
type PresenceRepository interface {
	Upsert(ctx context.Context, s *model.PresenceSnapshot) error
	GetByUser(ctx context.Context, userID string) (*model.PresenceSnapshot, error)
	ListByCourse(ctx context.Context, courseID string) ([]*model.PresenceSnapshot, error)
}

type presenceRepository struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) PresenceRepository { return &presenceRepository{db: db} }

func (r *presenceRepository) Upsert(ctx context.Context, s *model.PresenceSnapshot) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"course_id", "status", "activity", "last_seen", "updated_at",
		}),
	}).Create(s).Error
}

func (r *presenceRepository) GetByUser(ctx context.Context, userID string) (*model.PresenceSnapshot, error) {
	var s model.PresenceSnapshot
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *presenceRepository) ListByCourse(ctx context.Context, courseID string) ([]*model.PresenceSnapshot, error) {
	var list []*model.PresenceSnapshot
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("last_seen DESC").
		Find(&list).Error
	return list, err
}
