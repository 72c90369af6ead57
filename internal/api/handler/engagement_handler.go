package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/service"
	"github.com/vibb-lab/vibb-server/pkg/response"
)

// toggleState 对外展示的翻转状态
func toggleState(typ model.EdgeType, state string) string {
	created := state == service.StateCreated
	switch typ {
	case model.EdgeLike:
		if created {
			return "liked"
		}
		return "unliked"
	case model.EdgeBookmark:
		if created {
			return "bookmarked"
		}
		return "unbookmarked"
	default:
		if created {
			return "following"
		}
		return "unfollowed"
	}
}

// ToggleLike 点赞/取消点赞
// @Summary 点赞翻转
// @Tags 互动
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id}/like [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	res, err := h.ledger.Toggle(c.Request.Context(), model.EdgeLike, actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"state": toggleState(model.EdgeLike, res.State), "like_count": res.Count})
}

// ToggleBookmark 收藏/取消收藏
// @Summary 收藏翻转
// @Tags 互动
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id}/bookmark [post]
func (h *Handler) ToggleBookmark(c *gin.Context) {
	res, err := h.ledger.Toggle(c.Request.Context(), model.EdgeBookmark, actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"state": toggleState(model.EdgeBookmark, res.State), "bookmark_count": res.Count})
}

// ToggleFollow 关注/取消关注；自关注拒绝
// @Summary 关注翻转
// @Tags 互动
// @Produce json
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/{user_id}/follow [post]
func (h *Handler) ToggleFollow(c *gin.Context) {
	res, err := h.ledger.Toggle(c.Request.Context(), model.EdgeFollow, actor(c), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"state": toggleState(model.EdgeFollow, res.State), "follower_count": res.Count})
}

type redeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// RedeemReferral 兑换邀请码；无效码静默成功
// @Summary 兑换邀请码
// @Tags 邀请
// @Accept json
// @Produce json
// @Param request body redeemRequest true "邀请码"
// @Success 200 {object} response.Response
// @Router /api/v1/referrals/redeem [post]
func (h *Handler) RedeemReferral(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.registrar.Redeem(c.Request.Context(), actor(c), req.Code); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
