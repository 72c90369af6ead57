package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vibb-lab/vibb-server/internal/service"
)

// actorKey 认证中间件写入的当前操作者 ID
const actorKey = "actor_id"

// Handler 聚合各路由处理器依赖
type Handler struct {
	identity  service.IdentityService
	ledger    service.LedgerService
	registrar *service.Registrar
	notifier  *service.Notifier
	trending  *service.TrendingScorer
	content   service.ContentService
	followers *service.FollowerService
}

func NewHandler(
	identity service.IdentityService,
	ledger service.LedgerService,
	registrar *service.Registrar,
	notifier *service.Notifier,
	trending *service.TrendingScorer,
	content service.ContentService,
	followers *service.FollowerService,
) *Handler {
	return &Handler{
		identity:  identity,
		ledger:    ledger,
		registrar: registrar,
		notifier:  notifier,
		trending:  trending,
		content:   content,
		followers: followers,
	}
}

// SetActor 供认证中间件使用
func SetActor(c *gin.Context, actorID string) { c.Set(actorKey, actorID) }

// actor 每个核心调用的 actorID 都显式取自认证上下文
func actor(c *gin.Context) string { return c.GetString(actorKey) }
