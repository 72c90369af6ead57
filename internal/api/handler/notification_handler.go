package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/pkg/response"
)

type notificationPayload struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	PostID    *string      `json:"post_id,omitempty"`
	IsRead    bool         `json:"is_read"`
	CreatedAt time.Time    `json:"created_at"`
	Actor     *userPayload `json:"actor,omitempty"`
}

func toNotificationPayload(n *model.Notification) notificationPayload {
	p := notificationPayload{
		ID:        n.ID,
		Type:      n.Type,
		PostID:    n.PostID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.Actor != nil {
		p.Actor = toUserPayload(n.Actor)
		p.Actor.ReferralCode = ""
	}
	return p
}

// ListNotifications 通知日志分页（最新在前）
// @Summary 通知列表
// @Tags 通知
// @Produce json
// @Param cursor query string false "上一页游标"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	page, err := h.notifier.List(c.Request.Context(), actor(c), c.Query("cursor"), 50)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]notificationPayload, len(page.Items))
	for i, n := range page.Items {
		items[i] = toNotificationPayload(n)
	}
	response.Success(c, gin.H{"items": items, "next_cursor": page.NextCursor})
}

type markReadRequest struct {
	ID  string `json:"id"`
	All bool   `json:"all"`
}

// MarkNotificationsRead 已读回执；unread -> read 单向
// @Summary 标记已读
// @Tags 通知
// @Accept json
// @Produce json
// @Param request body markReadRequest true "单条 id 或 all"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/notifications/read [post]
func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !req.All && req.ID == "" {
		response.BadRequest(c, "id or all required")
		return
	}
	id := req.ID
	if req.All {
		id = ""
	}
	if err := h.notifier.MarkRead(c.Request.Context(), actor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// StreamNotifications SSE 实时推送；至多一次尽力投递，漏推以日志兜底
// @Summary 通知实时流
// @Tags 通知
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /api/v1/notifications/stream [get]
func (h *Handler) StreamNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	msgs, cancel := h.notifier.Subscribe(ctx, actor(c))
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return false
			}
			c.SSEvent("notification", msg.Payload)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-ctx.Done():
			return false
		}
	})
}
