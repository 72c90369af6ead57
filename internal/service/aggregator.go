package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/pkg/logger"
)

// CounterAggregator 消费互动事件并维护冗余计数。
// 事件 id 即去重键：status 由 pending 置为 applied 的 CAS 至多成功一次，
// 崩溃后的重投递不会二次计数。
type CounterAggregator struct {
	db           *gorm.DB
	notifier     *Notifier
	followers    *FollowerService
	workers      int
	claimLimit   int
	pollInterval time.Duration
	metricsCh    chan time.Duration // 事件产生到落地的延迟
}

func NewCounterAggregator(db *gorm.DB, notifier *Notifier, followers *FollowerService, workers, claimLimit int, pollInterval time.Duration) *CounterAggregator {
	if workers <= 0 {
		workers = 4
	}
	if claimLimit <= 0 {
		claimLimit = 128
	}
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	return &CounterAggregator{
		db:           db,
		notifier:     notifier,
		followers:    followers,
		workers:      workers,
		claimLimit:   claimLimit,
		pollInterval: pollInterval,
		metricsCh:    make(chan time.Duration, 65536),
	}
}

func (a *CounterAggregator) Metrics() <-chan time.Duration { return a.metricsCh }

// Start 启动若干 worker 轮询处理事件；返回停止函数。
func (a *CounterAggregator) Start() func(context.Context) error {
	stop := make(chan struct{})
	for i := 0; i < a.workers; i++ {
		go a.loop(stop)
	}
	return func(ctx context.Context) error { close(stop); return nil }
}

func (a *CounterAggregator) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := a.ProcessOnce(context.Background()); err != nil {
				logger.Warn("aggregator pass failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce 认领一批 pending 事件：同一事务内完成 status CAS、计数增量
// 与通知行落库，提交后只剩尽力而为的实时推送。事件 CAS 是计数和通知
// 共同的恰好一次屏障。
func (a *CounterAggregator) ProcessOnce(ctx context.Context) error {
	var applied []model.EngagementEvent
	var notifications []*model.Notification
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ?", model.EventPending).Order("created_at").Limit(a.claimLimit)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		var batch []model.EngagementEvent
		if err := q.Find(&batch).Error; err != nil {
			return err
		}
		now := time.Now()
		for _, ev := range batch {
			res := tx.Model(&model.EngagementEvent{}).
				Where("id = ? AND status = ?", ev.ID, model.EventPending).
				Updates(map[string]any{"status": model.EventApplied, "applied_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// 已被其他 worker 应用
				continue
			}
			if err := a.applyDelta(tx, &ev); err != nil {
				return err
			}
			if a.notifier != nil {
				if notif := a.notifier.FromEvent(&ev); notif != nil {
					if err := tx.Create(notif).Error; err != nil {
						return err
					}
					notifications = append(notifications, notif)
				}
			}
			applied = append(applied, ev)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, notif := range notifications {
		a.notifier.Push(notif)
	}
	for _, ev := range applied {
		if ev.EdgeType == model.EdgeFollow && a.followers != nil {
			a.followers.Invalidate(context.Background(), ev.TargetID)
		}
		if !ev.CreatedAt.IsZero() {
			select {
			case a.metricsCh <- time.Since(ev.CreatedAt):
			default:
			}
		}
	}
	return nil
}

// applyDelta 对目标的冗余计数施加 ±1。
// 递减带 WHERE cnt > 0 防止下溢：影响 0 行说明此前有事件丢失或重复，
// 记一条告警并视为已钳位到零，不中断本轮。
func (a *CounterAggregator) applyDelta(tx *gorm.DB, ev *model.EngagementEvent) error {
	inc := ev.Action == model.ActionCreated

	// updated_at 一并推进，让热度扫描能看到计数变更
	step := func(table, column, id string) error {
		if inc {
			return tx.Table(table).Where("id = ?", id).
				UpdateColumns(map[string]any{column: gorm.Expr(column + " + 1"), "updated_at": time.Now()}).Error
		}
		res := tx.Table(table).Where("id = ? AND "+column+" > 0", id).
			UpdateColumns(map[string]any{column: gorm.Expr(column + " - 1"), "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			logger.Warn("counter underflow clamped",
				zap.String("table", table),
				zap.String("column", column),
				zap.String("id", id),
				zap.String("event", ev.ID))
		}
		return nil
	}

	switch ev.EdgeType {
	case model.EdgeLike:
		return step("posts", "like_count", ev.TargetID)
	case model.EdgeBookmark:
		return step("posts", "bookmark_count", ev.TargetID)
	case model.EdgeFollow:
		if err := step("users", "follower_count", ev.TargetID); err != nil {
			return err
		}
		return step("users", "following_count", ev.ActorID)
	}
	return nil
}
