package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/service"
	"github.com/vibb-lab/vibb-server/pkg/response"
)

type createPostRequest struct {
	Title            string   `json:"title" binding:"required,max=255"`
	Content          string   `json:"content"`
	PostType         string   `json:"post_type" binding:"omitempty,oneof=showcase question tip"`
	ToolTags         []string `json:"tool_tags"`
	LivePreviewHTML  string   `json:"live_preview_html"`
	PreviewImageURL  string   `json:"preview_image_url"`
	BuildTimeMinutes int      `json:"build_time_minutes"`
	IsPublished      *bool    `json:"is_published"`
}

// CreatePost 发帖
// @Summary 发帖
// @Tags 内容
// @Accept json
// @Produce json
// @Param request body createPostRequest true "帖子内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}
	post, err := h.content.CreatePost(c.Request.Context(), actor(c), service.CreatePostInput{
		Title:            req.Title,
		Content:          req.Content,
		PostType:         req.PostType,
		ToolTags:         req.ToolTags,
		LivePreviewHTML:  req.LivePreviewHTML,
		PreviewImageURL:  req.PreviewImageURL,
		BuildTimeMinutes: req.BuildTimeMinutes,
		IsPublished:      published,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

// GetPost 帖子详情（浏览数 +1，无去重）
// @Summary 帖子详情
// @Tags 内容
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	detail, err := h.content.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	author := toUserPayload(detail.Author)
	author.ReferralCode = ""
	response.Success(c, gin.H{"post": detail.Post, "author": author})
}

// DeletePost 删帖（仅作者）
// @Summary 删帖
// @Tags 内容
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.content.DeletePost(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Feed 信息流；tab=trending 按热度分，tab=following 按关注
// @Summary 信息流
// @Tags 内容
// @Produce json
// @Param tab query string false "trending 或 following" default(trending)
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/posts [get]
func (h *Handler) Feed(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	var (
		posts []*model.Post
		err   error
	)
	if c.DefaultQuery("tab", "trending") == "following" {
		viewer := actor(c)
		if viewer == "" {
			response.Unauthorized(c, "login required for following feed")
			return
		}
		posts, err = h.content.FeedFollowing(c.Request.Context(), viewer, page, pageSize)
	} else {
		posts, err = h.content.FeedTrending(c.Request.Context(), page, pageSize)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": posts})
}

// GetTrendingScore 热度分（按计划重算，非按需）
// @Summary 帖子热度分
// @Tags 内容
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id}/trending [get]
func (h *Handler) GetTrendingScore(c *gin.Context) {
	score, scoredAt, err := h.trending.GetScore(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"trending_score": score, "scored_at": scoredAt})
}

type reportRequest struct {
	PostID         *string `json:"post_id"`
	ReportedUserID *string `json:"reported_user_id"`
	Reason         string  `json:"reason" binding:"required,oneof=spam inappropriate copyright other"`
	Detail         string  `json:"detail"`
}

// CreateReport 举报帖子或用户
// @Summary 举报
// @Tags 内容
// @Accept json
// @Produce json
// @Param request body reportRequest true "举报内容"
// @Success 200 {object} response.Response
// @Router /api/v1/reports [post]
func (h *Handler) CreateReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.content.CreateReport(c.Request.Context(), actor(c), req.PostID, req.ReportedUserID, req.Reason, req.Detail)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ActiveChallenge 当前周挑战
// @Summary 当前周挑战
// @Tags 挑战
// @Produce json
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/challenges/active [get]
func (h *Handler) ActiveChallenge(c *gin.Context) {
	challenge, err := h.content.ActiveChallenge(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, challenge)
}

type createChallengeRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	ToolTag     string    `json:"tool_tag"`
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
}

// CreateChallenge 发布周挑战并向相关用户推送公告
// @Summary 发布周挑战
// @Tags 挑战
// @Accept json
// @Produce json
// @Param request body createChallengeRequest true "挑战内容"
// @Success 200 {object} response.Response
// @Router /api/v1/challenges [post]
func (h *Handler) CreateChallenge(c *gin.Context) {
	var req createChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	challenge, err := h.content.CreateChallenge(c.Request.Context(), actor(c),
		req.Title, req.Description, req.ToolTag, req.StartAt, req.EndAt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, challenge)
}
