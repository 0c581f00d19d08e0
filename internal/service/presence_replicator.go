package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/course-forum/internal/model"
	"github.com/d60-Lab/course-forum/internal/repository"
	"github.com/d60-Lab/course-forum/pkg/logger"
)

// PresenceReplicator 把 redis 心跳异步落到快照表（展示/审计用，允许滞后）
type PresenceReplicator struct {
	repo repository.PresenceRepository
	ch   chan model.PresenceSnapshot
}

func NewPresenceReplicator(repo repository.PresenceRepository, queueSize int) *PresenceReplicator {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &PresenceReplicator{repo: repo, ch: make(chan model.PresenceSnapshot, queueSize)}
}

func (r *PresenceReplicator) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case snap := <-r.ch:
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					snap.UpdatedAt = time.Now()
					if err := r.repo.Upsert(ctx, &snap); err != nil {
						logger.Warn("presence snapshot upsert failed",
							zap.String("user", snap.UserID), zap.Error(err))
					}
					cancel()
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		// 等待队列自然排空一小段时间
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(r.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (r *PresenceReplicator) Enqueue(snap model.PresenceSnapshot) {
	select {
	case r.ch <- snap:
	default:
		logger.Warn("presence replicator queue full, drop snapshot", zap.String("user", snap.UserID))
	}
}

// QueueLen 返回当前队列长度（采样值）。
func (r *PresenceReplicator) QueueLen() int { return len(r.ch) }
