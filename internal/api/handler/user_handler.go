package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vibb-lab/vibb-server/internal/service"
	"github.com/vibb-lab/vibb-server/pkg/response"
)

// Profile 用户公开主页数据
// @Summary 用户主页
// @Tags 用户
// @Produce json
// @Param username path string true "用户名"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/profiles/{username} [get]
func (h *Handler) Profile(c *gin.Context) {
	user, err := h.identity.GetProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	posts, err := h.content.ListUserPosts(c.Request.Context(), user.ID, 1, 20)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload := toUserPayload(user)
	if actor(c) != user.ID {
		payload.ReferralCode = ""
	}
	response.Success(c, gin.H{
		"user":            payload,
		"bio":             user.Bio,
		"website_url":     user.WebsiteURL,
		"selected_tools":  user.SelectedTools,
		"follower_count":  user.FollowerCount,
		"following_count": user.FollowingCount,
		"posts":           posts,
	})
}

// Followers 粉丝分页（走缓存索引）
// @Summary 粉丝列表
// @Tags 用户
// @Produce json
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/followers [get]
func (h *Handler) Followers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.followers.FetchFollowers(c.Request.Context(), c.Param("user_id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

type onboardingRequest struct {
	SelectedTools []string `json:"selected_tools" binding:"required,min=1"`
}

// CompleteOnboarding 完成新手引导
// @Summary 完成引导
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body onboardingRequest true "选择的工具"
// @Success 200 {object} response.Response
// @Router /api/v1/users/onboarding [post]
func (h *Handler) CompleteOnboarding(c *gin.Context) {
	var req onboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.identity.CompleteOnboarding(c.Request.Context(), actor(c), req.SelectedTools); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

type updateProfileRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	WebsiteURL  *string `json:"website_url" binding:"omitempty,url"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,url"`
}

// UpdateProfile 更新本人资料；未出现的字段保持不变
// @Summary 更新资料
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body updateProfileRequest true "资料字段"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/users/me [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.identity.UpdateProfile(c.Request.Context(), actor(c), service.UpdateProfileInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		WebsiteURL:  req.WebsiteURL,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"user":        toUserPayload(user),
		"bio":         user.Bio,
		"website_url": user.WebsiteURL,
	})
}

// InviteLookup 邀请落地页的邀请人查询（公开）
// @Summary 邀请码查询
// @Tags 邀请
// @Produce json
// @Param code path string true "邀请码"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/invite/{code} [get]
func (h *Handler) InviteLookup(c *gin.Context) {
	inviter, err := h.identity.ResolveByReferralCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"display_name": inviter.DisplayName, "username": inviter.Username})
}
