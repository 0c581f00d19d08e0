package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/course-forum/internal/membership"
	"github.com/d60-Lab/course-forum/internal/model"
	"github.com/d60-Lab/course-forum/internal/repository"
)

const (
	maxTitleLen = 200
	maxBodyLen  = 10000
	maxTags     = 10
)

// DiscussionListParams 列表查询参数
type DiscussionListParams struct {
	Filter   repository.DiscussionFilter
	SortBy   string // activity, created, votes
	Dir      string // asc, desc
	Page     int
	PageSize int
}

// DiscussionView 讨论 + 票数汇总 + 拆分后的标签
type DiscussionView struct {
	*model.Discussion
	TagList []string             `json:"tag_list"`
	Votes   *model.VoteAggregate `json:"votes"`
}

// DiscussionService 讨论主题库
type DiscussionService interface {
	List(ctx context.Context, caller *membership.Identity, courseID string, p DiscussionListParams) ([]*DiscussionView, int64, error)
	Create(ctx context.Context, caller *membership.Identity, courseID, title, body, category string, tags []string) (*model.Discussion, error)
	// Get 每次成功读取都自增浏览数；courseID 非空时校验归属
	Get(ctx context.Context, caller *membership.Identity, courseID, id string) (*DiscussionView, error)
	Vote(ctx context.Context, caller *membership.Identity, id, direction string) (*model.VoteAggregate, error)
	Moderate(ctx context.Context, caller *membership.Identity, id, action string, value bool) (*model.Discussion, error)
	Delete(ctx context.Context, caller *membership.Identity, id string) error
}

type discussionService struct {
	discussions repository.DiscussionRepository
	votes       repository.VoteRepository
	gate        membership.Gate
}

func NewDiscussionService(discussions repository.DiscussionRepository, votes repository.VoteRepository, gate membership.Gate) DiscussionService {
	return &discussionService{discussions: discussions, votes: votes, gate: gate}
}

// requireEnrolled 平台管理员不受成员资格门卫限制
func (s *discussionService) requireEnrolled(ctx context.Context, caller *membership.Identity, courseID string) error {
	if caller.IsAdmin() {
		return nil
	}
	ok, err := s.gate.IsEnrolled(ctx, caller.ID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: not enrolled in course %s", ErrForbidden, courseID)
	}
	return nil
}

// canModerate 作者、课程所有者或平台管理员
func (s *discussionService) canModerate(ctx context.Context, caller *membership.Identity, d *model.Discussion) (bool, error) {
	if caller.IsAdmin() || caller.ID == d.AuthorID {
		return true, nil
	}
	return s.gate.IsCourseOwner(ctx, caller.ID, d.CourseID)
}

func (s *discussionService) List(ctx context.Context, caller *membership.Identity, courseID string, p DiscussionListParams) ([]*DiscussionView, int64, error) {
	if err := s.requireEnrolled(ctx, caller, courseID); err != nil {
		return nil, 0, err
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	offset := (p.Page - 1) * p.PageSize

	list, total, err := s.discussions.List(ctx, courseID, p.Filter, p.SortBy, p.Dir, offset, p.PageSize)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(list))
	for i, d := range list {
		ids[i] = d.ID
	}
	aggs, err := s.votes.AggregateMany(ctx, model.VoteTargetDiscussion, ids, caller.ID)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*DiscussionView, len(list))
	for i, d := range list {
		views[i] = &DiscussionView{Discussion: d, TagList: splitTags(d.Tags), Votes: aggs[d.ID]}
	}
	return views, total, nil
}

func (s *discussionService) Create(ctx context.Context, caller *membership.Identity, courseID, title, body, category string, tags []string) (*model.Discussion, error) {
	if err := s.requireEnrolled(ctx, caller, courseID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, fmt.Errorf("%w: title and body are required", ErrValidation)
	}
	if len(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLen)
	}
	if len(body) > maxBodyLen {
		return nil, fmt.Errorf("%w: body exceeds %d characters", ErrValidation, maxBodyLen)
	}
	if category == "" {
		category = model.CategoryGeneral
	}
	if !model.ValidCategory(category) {
		return nil, fmt.Errorf("%w: invalid category %q", ErrValidation, category)
	}
	if len(tags) > maxTags {
		return nil, fmt.Errorf("%w: at most %d tags", ErrValidation, maxTags)
	}

	d := &model.Discussion{
		ID:           uuid.New().String(),
		CourseID:     courseID,
		AuthorID:     caller.ID,
		Title:        title,
		Body:         body,
		Category:     category,
		Tags:         joinTags(tags),
		LastActivity: time.Now(),
	}
	if err := s.discussions.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *discussionService) Get(ctx context.Context, caller *membership.Identity, courseID, id string) (*DiscussionView, error) {
	d, err := s.getDiscussion(ctx, id)
	if err != nil {
		return nil, err
	}
	if courseID != "" && d.CourseID != courseID {
		return nil, fmt.Errorf("%w: discussion %s", ErrNotFound, id)
	}
	if err := s.requireEnrolled(ctx, caller, d.CourseID); err != nil {
		return nil, err
	}
	// 重复读取合法地重复计数，无幂等要求
	if err := s.discussions.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	d.Views++

	agg, err := s.votes.Aggregate(ctx, model.VoteTargetDiscussion, id, caller.ID)
	if err != nil {
		return nil, err
	}
	return &DiscussionView{Discussion: d, TagList: splitTags(d.Tags), Votes: agg}, nil
}

func (s *discussionService) Vote(ctx context.Context, caller *membership.Identity, id, direction string) (*model.VoteAggregate, error) {
	d, err := s.getDiscussion(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnrolled(ctx, caller, d.CourseID); err != nil {
		return nil, err
	}
	if err := castVote(ctx, s.votes, model.VoteTargetDiscussion, id, caller.ID, direction); err != nil {
		return nil, err
	}
	if err := s.discussions.Touch(ctx, id); err != nil {
		return nil, err
	}
	return s.votes.Aggregate(ctx, model.VoteTargetDiscussion, id, caller.ID)
}

func (s *discussionService) Moderate(ctx context.Context, caller *membership.Identity, id, action string, value bool) (*model.Discussion, error) {
	d, err := s.getDiscussion(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.canModerate(ctx, caller, d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: moderation requires author, course owner or admin", ErrForbidden)
	}

	switch action {
	case "pin":
		err = s.discussions.SetPinned(ctx, id, value)
	case "lock":
		err = s.discussions.SetLocked(ctx, id, value)
	case "resolve":
		err = s.discussions.SetResolved(ctx, id, value, caller.ID)
	default:
		return nil, fmt.Errorf("%w: invalid moderation action %q", ErrValidation, action)
	}
	if err != nil {
		return nil, err
	}
	return s.getDiscussion(ctx, id)
}

func (s *discussionService) Delete(ctx context.Context, caller *membership.Identity, id string) error {
	d, err := s.getDiscussion(ctx, id)
	if err != nil {
		return err
	}
	// 硬删权限比 moderation 更窄：仅作者或平台管理员
	if caller.ID != d.AuthorID && !caller.IsAdmin() {
		return fmt.Errorf("%w: delete requires author or admin", ErrForbidden)
	}
	return s.discussions.Delete(ctx, id)
}

func (s *discussionService) getDiscussion(ctx context.Context, id string) (*model.Discussion, error) {
	d, err := s.discussions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: discussion %s", ErrNotFound, id)
		}
		return nil, err
	}
	return d, nil
}

// castVote 共用的切换语义：先清旧票，remove 之外再落新方向
func castVote(ctx context.Context, votes repository.VoteRepository, targetType, targetID, voterID, direction string) error {
	switch direction {
	case model.VoteUp, model.VoteDown:
		return votes.Cast(ctx, targetType, targetID, voterID, direction)
	case model.VoteRemove:
		return votes.Remove(ctx, targetType, targetID, voterID)
	default:
		return fmt.Errorf("%w: invalid vote direction %q", ErrValidation, direction)
	}
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}
