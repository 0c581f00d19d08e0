package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/course-forum/internal/membership"
	"github.com/d60-Lab/course-forum/internal/model"
	"github.com/d60-Lab/course-forum/internal/repository"
)

const maxMessageLen = 5000

// MessageView 消息 + 票数汇总 + 展开的一级回复
type MessageView struct {
	*model.Message
	Votes   *model.VoteAggregate `json:"votes"`
	Replies []*MessageView       `json:"replies,omitempty"`
}

// MessageService 讨论内消息库；计数同步在仓储事务内完成
type MessageService interface {
	Create(ctx context.Context, caller *membership.Identity, discussionID, body string, parentID *string) (*model.Message, error)
	Edit(ctx context.Context, caller *membership.Identity, messageID, newBody string) (*model.Message, error)
	SoftDelete(ctx context.Context, caller *membership.Identity, messageID string) error
	Vote(ctx context.Context, caller *membership.Identity, messageID, direction string) (*model.VoteAggregate, error)
	MarkBestAnswer(ctx context.Context, caller *membership.Identity, messageID string) (*model.Message, error)
	// List 顶层未删除消息分页，最佳答案最前；每条带未删除回复与票数
	List(ctx context.Context, caller *membership.Identity, discussionID string, page, pageSize int) ([]*MessageView, int64, error)
	ListEdits(ctx context.Context, caller *membership.Identity, messageID string) ([]*model.MessageEdit, error)
}

type messageService struct {
	messages    repository.MessageRepository
	discussions repository.DiscussionRepository
	votes       repository.VoteRepository
	gate        membership.Gate
}

func NewMessageService(messages repository.MessageRepository, discussions repository.DiscussionRepository, votes repository.VoteRepository, gate membership.Gate) MessageService {
	return &messageService{messages: messages, discussions: discussions, votes: votes, gate: gate}
}

func (s *messageService) requireEnrolled(ctx context.Context, caller *membership.Identity, courseID string) error {
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

func (s *messageService) Create(ctx context.Context, caller *membership.Identity, discussionID, body string, parentID *string) (*model.Message, error) {
	d, err := s.getDiscussion(ctx, discussionID)
	if err != nil {
		return nil, err
	}
	// 锁定的讨论对所有角色一视同仁地拒绝发言
	if d.IsLocked {
		return nil, fmt.Errorf("%w: discussion %s", ErrLocked, discussionID)
	}
	if err := s.requireEnrolled(ctx, caller, d.CourseID); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrValidation)
	}
	if len(body) > maxMessageLen {
		return nil, fmt.Errorf("%w: body exceeds %d characters", ErrValidation, maxMessageLen)
	}

	if parentID != nil {
		parent, err := s.getMessage(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.DiscussionID != discussionID {
			return nil, fmt.Errorf("%w: parent message belongs to another discussion", ErrValidation)
		}
		// 只允许一级回复：父消息自身是回复时直接拒绝
		if parent.ParentID != nil {
			return nil, fmt.Errorf("%w: replies to replies are not supported", ErrValidation)
		}
		if parent.IsDeleted {
			return nil, fmt.Errorf("%w: message %s", ErrNotFound, *parentID)
		}
	}

	m := &model.Message{
		ID:           uuid.New().String(),
		DiscussionID: discussionID,
		AuthorID:     caller.ID,
		Body:         body,
		ParentID:     parentID,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *messageService) Edit(ctx context.Context, caller *membership.Identity, messageID, newBody string) (*model.Message, error) {
	m, err := s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return nil, fmt.Errorf("%w: message %s", ErrNotFound, messageID)
	}
	// 编辑仅限原作者，管理员也不行
	if m.AuthorID != caller.ID {
		return nil, fmt.Errorf("%w: only the author may edit", ErrForbidden)
	}
	newBody = strings.TrimSpace(newBody)
	if newBody == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrValidation)
	}
	if len(newBody) > maxMessageLen {
		return nil, fmt.Errorf("%w: body exceeds %d characters", ErrValidation, maxMessageLen)
	}
	if err := s.messages.Edit(ctx, m, newBody); err != nil {
		return nil, err
	}
	return s.getMessage(ctx, messageID)
}

func (s *messageService) SoftDelete(ctx context.Context, caller *membership.Identity, messageID string) error {
	m, err := s.getMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if m.AuthorID != caller.ID && !caller.IsAdmin() {
		return fmt.Errorf("%w: delete requires author or admin", ErrForbidden)
	}
	// 仓储里已做幂等：重复删除直接成功
	return s.messages.SoftDelete(ctx, m, caller.ID)
}

func (s *messageService) Vote(ctx context.Context, caller *membership.Identity, messageID, direction string) (*model.VoteAggregate, error) {
	m, err := s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return nil, fmt.Errorf("%w: message %s", ErrNotFound, messageID)
	}
	d, err := s.getDiscussion(ctx, m.DiscussionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnrolled(ctx, caller, d.CourseID); err != nil {
		return nil, err
	}
	if err := castVote(ctx, s.votes, model.VoteTargetMessage, messageID, caller.ID, direction); err != nil {
		return nil, err
	}
	return s.votes.Aggregate(ctx, model.VoteTargetMessage, messageID, caller.ID)
}

func (s *messageService) MarkBestAnswer(ctx context.Context, caller *membership.Identity, messageID string) (*model.Message, error) {
	m, err := s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return nil, fmt.Errorf("%w: message %s", ErrNotFound, messageID)
	}
	d, err := s.getDiscussion(ctx, m.DiscussionID)
	if err != nil {
		return nil, err
	}
	ok := caller.IsAdmin() || caller.ID == d.AuthorID
	if !ok {
		ok, err = s.gate.IsCourseOwner(ctx, caller.ID, d.CourseID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: best answer requires discussion author, course owner or admin", ErrForbidden)
	}
	if err := s.messages.MarkBestAnswer(ctx, m, caller.ID); err != nil {
		return nil, err
	}
	return s.getMessage(ctx, messageID)
}

func (s *messageService) List(ctx context.Context, caller *membership.Identity, discussionID string, page, pageSize int) ([]*MessageView, int64, error) {
	d, err := s.getDiscussion(ctx, discussionID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.requireEnrolled(ctx, caller, d.CourseID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	top, total, err := s.messages.ListTopLevel(ctx, discussionID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	topIDs := make([]string, len(top))
	for i, m := range top {
		topIDs[i] = m.ID
	}
	replies, err := s.messages.ListReplies(ctx, topIDs)
	if err != nil {
		return nil, 0, err
	}

	allIDs := make([]string, 0, len(top)+len(replies))
	allIDs = append(allIDs, topIDs...)
	for _, r := range replies {
		allIDs = append(allIDs, r.ID)
	}
	aggs, err := s.votes.AggregateMany(ctx, model.VoteTargetMessage, allIDs, caller.ID)
	if err != nil {
		return nil, 0, err
	}

	byParent := make(map[string][]*MessageView)
	for _, r := range replies {
		byParent[*r.ParentID] = append(byParent[*r.ParentID], &MessageView{Message: r, Votes: aggs[r.ID]})
	}
	views := make([]*MessageView, len(top))
	for i, m := range top {
		views[i] = &MessageView{Message: m, Votes: aggs[m.ID], Replies: byParent[m.ID]}
	}
	return views, total, nil
}

func (s *messageService) ListEdits(ctx context.Context, caller *membership.Identity, messageID string) ([]*model.MessageEdit, error) {
	m, err := s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	d, err := s.getDiscussion(ctx, m.DiscussionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnrolled(ctx, caller, d.CourseID); err != nil {
		return nil, err
	}
	return s.messages.ListEdits(ctx, messageID)
}

func (s *messageService) getMessage(ctx context.Context, id string) (*model.Message, error) {
	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: message %s", ErrNotFound, id)
		}
		return nil, err
	}
	return m, nil
}

func (s *messageService) getDiscussion(ctx context.Context, id string) (*model.Discussion, error) {
	d, err := s.discussions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: discussion %s", ErrNotFound, id)
		}
		return nil, err
	}
	return d, nil
}
