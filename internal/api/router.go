package api

import (
	"regexp"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vibb-lab/vibb-server/config"
	_ "github.com/vibb-lab/vibb-server/docs"
	"github.com/vibb-lab/vibb-server/internal/api/handler"
	"github.com/vibb-lab/vibb-server/internal/service"
)

var usernameRule = regexp.MustCompile(`^[a-zA-Z0-9_]{2,32}$`)

// NewRouter 组装路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler, identity service.IdentityService) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// 大小写归一在服务层完成，这里只挡明显非法的候选名
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRule.MatchString(fl.Field().String())
		})
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(otelgin.Middleware("vibb-server"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	v1 := r.Group("/api/v1")
	v1.Use(RequestTimeout(cfg.Server.RequestTimeout))
	{
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)
		v1.GET("/users/check-username", h.CheckUsername)
		v1.GET("/invite/:code", h.InviteLookup)
		v1.GET("/profiles/:username", h.Profile)
		v1.GET("/relations/:user_id/followers", h.Followers)
		v1.GET("/posts", h.Feed)
		v1.GET("/posts/:id", h.GetPost)
		v1.GET("/posts/:id/trending", h.GetTrendingScore)
		v1.GET("/challenges/active", h.ActiveChallenge)
	}

	auth := r.Group("/api/v1")
	auth.Use(AuthRequired(identity))
	{
		timed := auth.Group("")
		timed.Use(RequestTimeout(cfg.Server.RequestTimeout))
		{
			timed.POST("/posts", h.CreatePost)
			timed.DELETE("/posts/:id", h.DeletePost)
			timed.POST("/posts/:id/like", h.ToggleLike)
			timed.POST("/posts/:id/bookmark", h.ToggleBookmark)
			timed.POST("/relations/:user_id/follow", h.ToggleFollow)
			timed.GET("/notifications", h.ListNotifications)
			timed.POST("/notifications/read", h.MarkNotificationsRead)
			timed.POST("/referrals/redeem", h.RedeemReferral)
			timed.POST("/users/onboarding", h.CompleteOnboarding)
			timed.PUT("/users/me", h.UpdateProfile)
			timed.POST("/reports", h.CreateReport)
			timed.POST("/challenges", h.CreateChallenge)
		}
		// SSE 长连接不设请求超时
		auth.GET("/notifications/stream", h.StreamNotifications)
	}

	return r
}
