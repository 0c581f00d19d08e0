package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/course-forum/internal/model"
	"github.com/d60-Lab/course-forum/internal/service"
	"github.com/d60-Lab/course-forum/pkg/response"
)

// Handler 聚合全部 HTTP 处理器依赖
type Handler struct {
	discussions service.DiscussionService
	messages    service.MessageService
	presence    service.PresenceService
}

func New(discussions service.DiscussionService, messages service.MessageService, presence service.PresenceService) *Handler {
	return &Handler{discussions: discussions, messages: messages, presence: presence}
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// votedir: up / down / remove
		_ = v.RegisterValidation("votedir", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case model.VoteUp, model.VoteDown, model.VoteRemove:
				return true
			}
			return false
		})
	}
}

// renderError 服务层错误分类到 HTTP 状态码
func renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrLocked):
		response.Locked(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
