package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/d60-Lab/course-forum/config"
	"github.com/d60-Lab/course-forum/internal/membership"
	"github.com/d60-Lab/course-forum/internal/model"
	"github.com/d60-Lab/course-forum/internal/repository"
	"github.com/d60-Lab/course-forum/internal/service"
	"github.com/d60-Lab/course-forum/pkg/database"
	"github.com/d60-Lab/course-forum/pkg/logger"
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

// 开发填充：一门课、一个课程所有者、N 个学生、若干讨论与回复
func main() {
	cfg := must(config.Load())
	_ = logger.Init(cfg.Server.Mode)
	db := must(database.InitDB(cfg))
	ctx := context.Background()

	N := 20
	if s := os.Getenv("N"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			N = n
		}
	}

	store := membership.NewStore(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	discussionSvc := service.NewDiscussionService(discussionRepo, voteRepo, store)
	messageSvc := service.NewMessageService(messageRepo, discussionRepo, voteRepo, store)

	courseID := uuid.New().String()
	owner := must(store.CreateUser(ctx, "owner", "owner@example.com", "secret", model.RoleCourseOwner))
	mustDo(store.Enroll(ctx, owner.ID, courseID, "owner"))

	students := make([]*membership.Identity, N)
	for i := 0; i < N; i++ {
		name := fmt.Sprintf("student%02d", i)
		u := must(store.CreateUser(ctx, name, name+"@example.com", "secret", model.RoleStudent))
		mustDo(store.Enroll(ctx, u.ID, courseID, "student"))
		students[i] = &membership.Identity{ID: u.ID, Name: name, Role: u.Role}
	}

	for i := 0; i < N/2; i++ {
		author := students[i%len(students)]
		d := must(discussionSvc.Create(ctx, author, courseID,
			fmt.Sprintf("Question about lesson %d", i+1),
			"Stuck on the exercise, any hints?",
			model.CategoryQuestion, []string{"homework"}))
		for j := 0; j < 3; j++ {
			replier := students[(i+j+1)%len(students)]
			_ = must(messageSvc.Create(ctx, replier, d.ID, fmt.Sprintf("Try step %d again", j+1), nil))
		}
	}

	fmt.Printf("seeded course %s with %d students and %d discussions\n", courseID, N, N/2)
}
