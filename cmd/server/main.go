package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/course-forum/config"
	"github.com/d60-Lab/course-forum/internal/api"
	"github.com/d60-Lab/course-forum/internal/api/handler"
	"github.com/d60-Lab/course-forum/internal/membership"
	"github.com/d60-Lab/course-forum/internal/repository"
	"github.com/d60-Lab/course-forum/internal/service"
	"github.com/d60-Lab/course-forum/pkg/database"
	"github.com/d60-Lab/course-forum/pkg/logger"
	"github.com/d60-Lab/course-forum/pkg/tracing"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	cfg := must(config.Load())
	mustDo(logger.Init(cfg.Server.Mode))
	defer logger.Sync()

	if cfg.Telemetry.SentryDSN != "" {
		mustDo(sentry.Init(sentry.ClientOptions{Dsn: cfg.Telemetry.SentryDSN}))
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := must(tracing.Init(ctx, cfg))
	defer func() { _ = shutdownTracing(context.Background()) }()

	db := must(database.InitDB(cfg))
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// repositories & services
	store := membership.NewStore(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)

	replicator := service.NewPresenceReplicator(presenceRepo, 10000)
	stopReplicator := replicator.Start(2)

	discussionSvc := service.NewDiscussionService(discussionRepo, voteRepo, store)
	messageSvc := service.NewMessageService(messageRepo, discussionRepo, voteRepo, store)
	presenceSvc := service.NewPresenceService(rdb, store,
		cfg.Presence.StaleAfter, cfg.Presence.RecordTTL, replicator)

	h := handler.New(discussionSvc, messageSvc, presenceSvc)
	router := api.NewRouter(cfg, h, store)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	_ = stopReplicator(shutdownCtx)
	_ = rdb.Close()
}
