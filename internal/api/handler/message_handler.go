package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/course-forum/internal/api/middleware"
	"github.com/d60-Lab/course-forum/pkg/response"
)

type createMessageRequest struct {
	Body     string  `json:"body" binding:"required,max=5000"`
	ParentID *string `json:"parent_id"`
}

type editMessageRequest struct {
	Body string `json:"body" binding:"required,max=5000"`
}

// CreateMessage 发消息或一级回复
// @Summary 发消息/回复
// @Tags 消息
// @Accept json
// @Param id path string true "讨论ID"
// @Param request body createMessageRequest true "正文与可选父消息"
// @Success 200 {object} response.Response
// @Failure 423 {object} response.Response
// @Router /api/v1/discussions/{id}/messages [post]
func (h *Handler) CreateMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m, err := h.messages.Create(c.Request.Context(), middleware.CurrentIdentity(c),
		c.Param("id"), req.Body, req.ParentID)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, m)
}

// EditMessage 编辑自己的消息（旧正文进编辑历史）
// @Summary 编辑消息
// @Tags 消息
// @Accept json
// @Param id path string true "消息ID"
// @Param request body editMessageRequest true "新正文"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/messages/{id} [put]
func (h *Handler) EditMessage(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m, err := h.messages.Edit(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Body)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, m)
}

// DeleteMessage 软删除（内容保留，列表不可见）
// @Summary 删除消息
// @Tags 消息
// @Param id path string true "消息ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/messages/{id} [delete]
func (h *Handler) DeleteMessage(c *gin.Context) {
	if err := h.messages.SoftDelete(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// VoteMessage 消息投票，契约与讨论投票一致
// @Summary 消息投票
// @Tags 消息
// @Accept json
// @Param id path string true "消息ID"
// @Param request body voteRequest true "方向"
// @Success 200 {object} response.Response
// @Router /api/v1/messages/{id}/votes [post]
func (h *Handler) VoteMessage(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	agg, err := h.messages.Vote(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Direction)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, agg)
}

// MarkBestAnswer 选最佳答案并把讨论标记已解决
// @Summary 标记最佳答案
// @Tags 消息
// @Param id path string true "消息ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/messages/{id}/best-answer [post]
func (h *Handler) MarkBestAnswer(c *gin.Context) {
	m, err := h.messages.MarkBestAnswer(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, m)
}

// ListMessageEdits 消息编辑历史
// @Summary 编辑历史
// @Tags 消息
// @Param id path string true "消息ID"
// @Success 200 {object} response.Response
// @Router /api/v1/messages/{id}/edits [get]
func (h *Handler) ListMessageEdits(c *gin.Context) {
	edits, err := h.messages.ListEdits(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, edits)
}
