package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/course-forum/internal/api/middleware"
	"github.com/d60-Lab/course-forum/internal/repository"
	"github.com/d60-Lab/course-forum/internal/service"
	"github.com/d60-Lab/course-forum/pkg/response"
)

type createDiscussionRequest struct {
	Title    string   `json:"title" binding:"required,max=200"`
	Body     string   `json:"body" binding:"required,max=10000"`
	Category string   `json:"category"`
	Tags     []string `json:"tags" binding:"max=10"`
}

type voteRequest struct {
	Direction string `json:"direction" binding:"required,votedir"`
}

type moderateRequest struct {
	Action string `json:"action" binding:"required,oneof=pin lock resolve"`
	Value  *bool  `json:"value" binding:"required"`
}

// ListDiscussions 课程内讨论列表
// @Summary 讨论列表（置顶恒前）
// @Tags 讨论
// @Param course_id path string true "课程ID"
// @Param category query string false "分类过滤"
// @Param search query string false "标题/正文搜索"
// @Param tags query string false "标签过滤，逗号分隔"
// @Param sort query string false "排序键" Enums(activity, created, votes) default(activity)
// @Param dir query string false "方向" Enums(asc, desc) default(desc)
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/courses/{course_id}/discussions [get]
func (h *Handler) ListDiscussions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	var tags []string
	if raw := c.Query("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}
	p := service.DiscussionListParams{
		Filter: repository.DiscussionFilter{
			Category: c.Query("category"),
			Search:   c.Query("search"),
			Tags:     tags,
		},
		SortBy:   c.DefaultQuery("sort", repository.SortByActivity),
		Dir:      c.DefaultQuery("dir", "desc"),
		Page:     page,
		PageSize: pageSize,
	}

	list, total, err := h.discussions.List(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("course_id"), p)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "total": total, "list": list})
}

// CreateDiscussion 新建讨论
// @Summary 新建讨论
// @Tags 讨论
// @Accept json
// @Produce json
// @Param course_id path string true "课程ID"
// @Param request body createDiscussionRequest true "讨论内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/courses/{course_id}/discussions [post]
func (h *Handler) CreateDiscussion(c *gin.Context) {
	var req createDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	d, err := h.discussions.Create(c.Request.Context(), middleware.CurrentIdentity(c),
		c.Param("course_id"), req.Title, req.Body, req.Category, req.Tags)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, d)
}

// GetDiscussion 讨论详情 + 分页消息（读取自增浏览数）
// @Summary 讨论详情
// @Tags 讨论
// @Param id path string true "讨论ID"
// @Param course_id query string false "课程上下文校验"
// @Param page query int false "消息页码" default(1)
// @Param page_size query int false "每页消息数" default(20)
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/discussions/{id} [get]
func (h *Handler) GetDiscussion(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	id := c.Param("id")

	d, err := h.discussions.Get(c.Request.Context(), ident, c.Query("course_id"), id)
	if err != nil {
		renderError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	msgs, total, err := h.messages.List(c.Request.Context(), ident, id, page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{
		"discussion": d,
		"messages":   gin.H{"page": page, "page_size": pageSize, "total": total, "list": msgs},
	})
}

// VoteDiscussion 讨论投票（up/down/remove 切换语义）
// @Summary 讨论投票
// @Tags 讨论
// @Accept json
// @Param id path string true "讨论ID"
// @Param request body voteRequest true "方向"
// @Success 200 {object} response.Response
// @Router /api/v1/discussions/{id}/votes [post]
func (h *Handler) VoteDiscussion(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	agg, err := h.discussions.Vote(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Direction)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, agg)
}

// ModerateDiscussion 置顶/锁定/解决
// @Summary 讨论管理操作
// @Tags 讨论
// @Accept json
// @Param id path string true "讨论ID"
// @Param request body moderateRequest true "操作与开关"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/discussions/{id}/moderation [post]
func (h *Handler) ModerateDiscussion(c *gin.Context) {
	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	d, err := h.discussions.Moderate(c.Request.Context(), middleware.CurrentIdentity(c),
		c.Param("id"), req.Action, *req.Value)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, d)
}

// DeleteDiscussion 硬删讨论并级联消息
// @Summary 删除讨论
// @Tags 讨论
// @Param id path string true "讨论ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/discussions/{id} [delete]
func (h *Handler) DeleteDiscussion(c *gin.Context) {
	if err := h.discussions.Delete(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
