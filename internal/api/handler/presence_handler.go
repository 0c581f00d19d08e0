package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/course-forum/internal/api/middleware"
	"github.com/d60-Lab/course-forum/pkg/response"
)

type heartbeatRequest struct {
	CourseID string `json:"course_id" binding:"required"`
	Activity string `json:"activity"`
	TypingIn string `json:"typing_in"`
}

// Heartbeat 心跳：整条覆盖在线记录
// @Summary 在线心跳
// @Tags 在线状态
// @Accept json
// @Param request body heartbeatRequest true "课程、活动与可选输入中指示"
// @Success 200 {object} response.Response
// @Router /api/v1/presence/heartbeat [post]
func (h *Handler) Heartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.presence.Heartbeat(c.Request.Context(), middleware.CurrentIdentity(c),
		req.CourseID, req.Activity, req.TypingIn)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, p)
}

// ListOnline 课程在线用户（5 分钟窗口判定，存储状态仅展示）
// @Summary 课程在线用户
// @Tags 在线状态
// @Param course_id path string true "课程ID"
// @Success 200 {object} response.Response
// @Router /api/v1/courses/{course_id}/online [get]
func (h *Handler) ListOnline(c *gin.Context) {
	list, err := h.presence.ListOnline(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("course_id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"count": len(list), "list": list})
}

// SetAway 主动切到离开状态
// @Summary 设为离开
// @Tags 在线状态
// @Success 200 {object} response.Response
// @Router /api/v1/presence/away [post]
func (h *Handler) SetAway(c *gin.Context) {
	if err := h.presence.SetAway(c.Request.Context(), middleware.CurrentIdentity(c)); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}
