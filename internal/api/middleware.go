package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vibb-lab/vibb-server/internal/api/handler"
	"github.com/vibb-lab/vibb-server/internal/service"
	"github.com/vibb-lab/vibb-server/pkg/response"
)

// AuthRequired 解析 Bearer token 并注入 actorID；核心调用从不读环境态身份
func AuthRequired(identity service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			token = c.Query("token") // SSE 连接无法带 header
		}
		if token == "" {
			response.Unauthorized(c, "missing token")
			c.Abort()
			return
		}
		actorID, err := identity.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		handler.SetActor(c, actorID)
		c.Next()
	}
}

// RateLimit 每 IP 令牌桶限流
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	get := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = l
		}
		return l
	}
	return func(c *gin.Context) {
		if !get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
				Code: http.StatusTooManyRequests, Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}

// RequestTimeout 统一请求超时；超时由错误映射层呈现为结果未知
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		d = 5 * time.Second
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
