package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/pkg/logger"
)

// PushPayload 实时推送消息体；持久化日志才是事实来源，推送至多一次尽力而为
type PushPayload struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actor_id"`
	PostID    *string   `json:"post_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type pushJob struct {
	notification *model.Notification
	enqAt        time.Time
}

// Notifier 通知分发。持久化日志是事实来源：边事件的通知行由聚合器在
// 应用事务内落库，这里只负责构造通知、直接通知的同步落库、以及异步推送。
type Notifier struct {
	repo      repository.NotificationRepository
	rdb       *redis.Client
	ch        chan pushJob
	metricsCh chan time.Duration
}

func NewNotifier(repo repository.NotificationRepository, rdb *redis.Client, queueSize int) *Notifier {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &Notifier{
		repo:      repo,
		rdb:       rdb,
		ch:        make(chan pushJob, queueSize),
		metricsCh: make(chan time.Duration, 65536),
	}
}

// FromEvent 互动事件对应的通知行：接收方为目标归属者；
// 自己对自己的动作（如赞自己的帖子）不产生通知；removed 事件从不通知。
// 不满足条件返回 nil。落库由调用方（聚合器事务）完成。
func (n *Notifier) FromEvent(ev *model.EngagementEvent) *model.Notification {
	if ev.Action != model.ActionCreated {
		return nil
	}
	if ev.OwnerID == ev.ActorID {
		return nil
	}
	var notifyType string
	var postID *string
	switch ev.EdgeType {
	case model.EdgeLike:
		notifyType = model.NotifyLike
		postID = &ev.TargetID
	case model.EdgeBookmark:
		notifyType = model.NotifyBookmark
		postID = &ev.TargetID
	case model.EdgeFollow:
		notifyType = model.NotifyFollow
	default:
		return nil
	}
	return &model.Notification{
		ID:        uuid.New().String(),
		UserID:    ev.OwnerID,
		ActorID:   ev.ActorID,
		Type:      notifyType,
		PostID:    postID,
		CreatedAt: time.Now(),
	}
}

// NotifyDirect 非边事件的直接通知（如周挑战公告）：同步落库后再推送
func (n *Notifier) NotifyDirect(ctx context.Context, recipientID, actorID, notifyType string, postID *string) {
	if recipientID == actorID {
		return
	}
	notification := &model.Notification{
		ID:        uuid.New().String(),
		UserID:    recipientID,
		ActorID:   actorID,
		Type:      notifyType,
		PostID:    postID,
		CreatedAt: time.Now(),
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		logger.Error("notification write failed",
			zap.String("recipient", recipientID), zap.Error(err))
		return
	}
	n.Push(notification)
}

// Push 入队实时推送。通知此刻已落库，队列满只丢这条推送，
// 接收方总能从日志补读。
func (n *Notifier) Push(notification *model.Notification) {
	select {
	case n.ch <- pushJob{notification: notification, enqAt: time.Now()}:
	default:
		logger.Warn("push queue full, drop",
			zap.String("recipient", notification.UserID),
			zap.String("type", notification.Type))
	}
}

// Start 启动投递 worker；返回停止函数（等待队列短暂排空）
func (n *Notifier) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case job := <-n.ch:
					n.deliver(job)
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(n.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

// deliver 尽力推送一条已落库的通知
func (n *Notifier) deliver(job pushJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := json.Marshal(PushPayload{
		ID:        job.notification.ID,
		Type:      job.notification.Type,
		ActorID:   job.notification.ActorID,
		PostID:    job.notification.PostID,
		CreatedAt: job.notification.CreatedAt,
	})
	if err == nil {
		if err := n.rdb.Publish(ctx, ChannelFor(job.notification.UserID), payload).Err(); err != nil {
			logger.Warn("notification push failed",
				zap.String("recipient", job.notification.UserID), zap.Error(err))
		}
	}

	if !job.enqAt.IsZero() {
		select {
		case n.metricsCh <- time.Since(job.enqAt):
		default:
		}
	}
}

// ChannelFor 每接收方一个推送频道
func ChannelFor(recipientID string) string { return "notify:" + recipientID }

// Subscribe 订阅某接收方的实时推送；返回消息通道与取消函数
func (n *Notifier) Subscribe(ctx context.Context, recipientID string) (<-chan *redis.Message, func()) {
	sub := n.rdb.Subscribe(ctx, ChannelFor(recipientID))
	return sub.Channel(), func() { _ = sub.Close() }
}

// List 通知日志分页读取
func (n *Notifier) List(ctx context.Context, recipientID, cursor string, limit int) (*repository.NotificationPage, error) {
	return n.repo.List(ctx, recipientID, cursor, limit)
}

// MarkRead 已读回执；id 为空表示全部
func (n *Notifier) MarkRead(ctx context.Context, recipientID, id string) error {
	if id == "" {
		return n.repo.MarkAllRead(ctx, recipientID)
	}
	return n.repo.MarkRead(ctx, recipientID, id)
}

// Metrics 返回入队到投递完成耗时的只读通道
func (n *Notifier) Metrics() <-chan time.Duration { return n.metricsCh }

// QueueLen 当前队列长度（采样值）
func (n *Notifier) QueueLen() int { return len(n.ch) }
