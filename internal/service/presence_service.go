package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/course-forum/internal/membership"
	"github.com/d60-Lab/course-forum/internal/model"
)

// PresenceService 心跳驱动的在线状态；redis 为准，快照表仅供展示
type PresenceService interface {
	// Heartbeat 整条覆盖：status=online、last_seen=now、活动与输入中指示
	Heartbeat(ctx context.Context, caller *membership.Identity, courseID, activity, typingIn string) (*model.Presence, error)
	// ListOnline 以 5 分钟窗口为准判在线；存储的 status 字段可能滞后
	ListOnline(ctx context.Context, caller *membership.Identity, courseID string) ([]*model.Presence, error)
	SetAway(ctx context.Context, caller *membership.Identity) error
}

type presenceService struct {
	rdb        *redis.Client
	gate       membership.Gate
	staleAfter time.Duration
	recordTTL  time.Duration
	replicator *PresenceReplicator
}

func NewPresenceService(rdb *redis.Client, gate membership.Gate, staleAfter, recordTTL time.Duration, replicator *PresenceReplicator) PresenceService {
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	if recordTTL <= staleAfter {
		recordTTL = 24 * time.Hour
	}
	return &presenceService{rdb: rdb, gate: gate, staleAfter: staleAfter, recordTTL: recordTTL, replicator: replicator}
}

func userKey(userID string) string     { return "presence:user:" + userID }
func courseKey(courseID string) string { return "presence:course:" + courseID }

func (s *presenceService) requireEnrolled(ctx context.Context, caller *membership.Identity, courseID string) error {
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

func (s *presenceService) Heartbeat(ctx context.Context, caller *membership.Identity, courseID, activity, typingIn string) (*model.Presence, error) {
	if err := s.requireEnrolled(ctx, caller, courseID); err != nil {
		return nil, err
	}
	if activity == "" {
		activity = model.ActivityIdle
	}
	if !model.ValidActivity(activity) {
		return nil, fmt.Errorf("%w: invalid activity %q", ErrValidation, activity)
	}

	key := userKey(caller.ID)
	now := time.Now().UTC()

	// 换课程时把自己从旧课程的成员集合里摘掉
	prev, err := s.rdb.HGet(ctx, key, "course_id").Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if prev != "" && prev != courseID {
		if err := s.rdb.SRem(ctx, courseKey(prev), caller.ID).Err(); err != nil {
			return nil, err
		}
	}

	fields := map[string]interface{}{
		"course_id": courseID,
		"status":    model.PresenceOnline,
		"activity":  activity,
		"last_seen": now.Format(time.RFC3339Nano),
	}
	p := &model.Presence{
		UserID:   caller.ID,
		CourseID: courseID,
		Status:   model.PresenceOnline,
		Activity: activity,
		LastSeen: now,
	}
	if typingIn != "" {
		fields["typing_in"] = typingIn
		fields["typing_since"] = now.Format(time.RFC3339Nano)
		p.TypingIn = typingIn
		p.TypingSince = &now
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	if typingIn == "" {
		pipe.HDel(ctx, key, "typing_in", "typing_since")
	}
	pipe.Expire(ctx, key, s.recordTTL)
	pipe.SAdd(ctx, courseKey(courseID), caller.ID)
	pipe.Expire(ctx, courseKey(courseID), s.recordTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	if s.replicator != nil {
		s.replicator.Enqueue(model.PresenceSnapshot{
			UserID:   caller.ID,
			CourseID: courseID,
			Status:   model.PresenceOnline,
			Activity: activity,
			LastSeen: now,
		})
	}
	return p, nil
}

func (s *presenceService) ListOnline(ctx context.Context, caller *membership.Identity, courseID string) ([]*model.Presence, error) {
	if err := s.requireEnrolled(ctx, caller, courseID); err != nil {
		return nil, err
	}

	members, err := s.rdb.SMembers(ctx, courseKey(courseID)).Result()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-s.staleAfter)
	out := make([]*model.Presence, 0, len(members))
	for _, userID := range members {
		raw, err := s.rdb.HGetAll(ctx, userKey(userID)).Result()
		if err != nil {
			return nil, err
		}
		// hash 已过期则顺手清出成员集合
		if len(raw) == 0 {
			_ = s.rdb.SRem(ctx, courseKey(courseID), userID).Err()
			continue
		}
		p, err := parsePresence(userID, raw)
		if err != nil {
			continue
		}
		if p.CourseID != courseID {
			_ = s.rdb.SRem(ctx, courseKey(courseID), userID).Err()
			continue
		}
		// 窗口为准：停掉心跳的客户端自然滑出列表，无需任何显式离线转换
		if p.Status == model.PresenceOffline || p.LastSeen.Before(cutoff) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out, nil
}

func (s *presenceService) SetAway(ctx context.Context, caller *membership.Identity) error {
	key := userKey(caller.ID)
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: no presence for user %s", ErrNotFound, caller.ID)
	}
	return s.rdb.HSet(ctx, key, "status", model.PresenceAway).Err()
}

func parsePresence(userID string, raw map[string]string) (*model.Presence, error) {
	lastSeen, err := time.Parse(time.RFC3339Nano, raw["last_seen"])
	if err != nil {
		return nil, err
	}
	p := &model.Presence{
		UserID:   userID,
		CourseID: raw["course_id"],
		Status:   raw["status"],
		Activity: raw["activity"],
		LastSeen: lastSeen,
		TypingIn: raw["typing_in"],
	}
	if ts := raw["typing_since"]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			p.TypingSince = &t
		}
	}
	return p, nil
}
