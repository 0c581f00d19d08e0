package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/course-forum/config"
	_ "github.com/d60-Lab/course-forum/docs"
	"github.com/d60-Lab/course-forum/internal/api/handler"
	"github.com/d60-Lab/course-forum/internal/api/middleware"
	"github.com/d60-Lab/course-forum/internal/membership"
)

// NewRouter 组装全部路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler, identities membership.Identities) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware("course-forum"))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.Auth.JWTSecret, identities))
	{
		v1.GET("/courses/:course_id/discussions", h.ListDiscussions)
		v1.POST("/courses/:course_id/discussions", h.CreateDiscussion)
		v1.GET("/courses/:course_id/online", h.ListOnline)

		v1.GET("/discussions/:id", h.GetDiscussion)
		v1.DELETE("/discussions/:id", h.DeleteDiscussion)
		v1.POST("/discussions/:id/votes", h.VoteDiscussion)
		v1.POST("/discussions/:id/moderation", h.ModerateDiscussion)
		v1.POST("/discussions/:id/messages", h.CreateMessage)

		v1.PUT("/messages/:id", h.EditMessage)
		v1.DELETE("/messages/:id", h.DeleteMessage)
		v1.POST("/messages/:id/votes", h.VoteMessage)
		v1.POST("/messages/:id/best-answer", h.MarkBestAnswer)
		v1.GET("/messages/:id/edits", h.ListMessageEdits)

		// 心跳高频，按用户限速
		v1.POST("/presence/heartbeat",
			middleware.PerUserRateLimit(cfg.Presence.HeartbeatRate, 3), h.Heartbeat)
		v1.POST("/presence/away", h.SetAway)
	}
	return r
}
