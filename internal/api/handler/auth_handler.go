package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/service"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
	"github.com/vibb-lab/vibb-server/pkg/response"
)

type registerRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	Username     string `json:"username" binding:"required,username"`
	DisplayName  string `json:"display_name"`
	ReferralCode string `json:"referral_code"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *userPayload `json:"user"`
}

type userPayload struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	VibeScore    int    `json:"vibe_score"`
	ReferralCode string `json:"referral_code,omitempty"`
}

func toUserPayload(u *model.User) *userPayload {
	return &userPayload{
		ID:           u.ID,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		AvatarURL:    u.AvatarURL,
		VibeScore:    u.VibeScore,
		ReferralCode: u.ReferralCode,
	}
}

// Register 注册新账号（附带邀请码兑换，兑换失败静默）
// @Summary 注册
// @Tags 身份
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, token, err := h.identity.Register(c.Request.Context(), service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, authResponse{Token: token, User: toUserPayload(user)})
}

// Login 登录换取 token
// @Summary 登录
// @Tags 身份
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, token, err := h.identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, authResponse{Token: token, User: toUserPayload(user)})
}

// CheckUsername 用户名可用性（大小写不敏感；占用以注册时唯一索引裁决）
// @Summary 用户名可用性
// @Tags 身份
// @Param username query string true "候选用户名"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users/check-username [get]
func (h *Handler) CheckUsername(c *gin.Context) {
	available, normalized, err := h.identity.ReserveUsername(c.Request.Context(), c.Query("username"))
	if err != nil {
		if apperr.Is(err, apperr.KindInvalidRelation) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"available": available, "username": normalized})
}
