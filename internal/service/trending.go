package service

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vibb-lab/vibb-server/config"
	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/pkg/logger"
)

const trendingLastRunKey = "trending:last_run"

// TrendingScorer 周期性重算帖子热度分。
// 分数 = (加权互动 + 下限) * exp(-年龄小时 / 半衰期)；
// 与请求处理解耦，读取的计数允许最终一致。
type TrendingScorer struct {
	postRepo repository.PostRepository
	rdb      *redis.Client
	cfg      config.TrendingConfig
	pageSize int
}

func NewTrendingScorer(postRepo repository.PostRepository, rdb *redis.Client, cfg config.TrendingConfig) *TrendingScorer {
	if cfg.HalfLifeHours <= 0 {
		cfg.HalfLifeHours = 24
	}
	if cfg.Floor <= 0 {
		cfg.Floor = 0.01
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &TrendingScorer{postRepo: postRepo, rdb: rdb, cfg: cfg, pageSize: 500}
}

// Recompute 纯函数：同一计数与同一时刻重算结果恒等；
// 零互动零年龄的帖子得分为 floor，绝不为 NaN。
func (t *TrendingScorer) Recompute(post *model.Post, now time.Time) float64 {
	engagement := t.cfg.LikeWeight*float64(post.LikeCount) +
		t.cfg.BookmarkWeight*float64(post.BookmarkCount) +
		t.cfg.ViewWeight*float64(post.ViewCount)
	ageHours := now.Sub(post.CreatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return (engagement + t.cfg.Floor) * math.Exp(-ageHours/t.cfg.HalfLifeHours)
}

// Start 启动定时评分循环；返回停止函数
func (t *TrendingScorer) Start() func(context.Context) error {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(t.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := t.RunOnce(context.Background()); err != nil {
					logger.Warn("trending run failed", zap.Error(err))
				}
			}
		}
	}()
	return func(ctx context.Context) error { close(stop); return nil }
}

// RunOnce 扫描自上次运行以来有变更的帖子并更新分数。
// 运行两次且其间无互动变化时结果一致（只剩时间衰减的确定性漂移）。
func (t *TrendingScorer) RunOnce(ctx context.Context) error {
	since := t.lastRun(ctx)
	now := time.Now()
	scored := 0
	for offset := 0; ; offset += t.pageSize {
		posts, err := t.postRepo.ListChangedSince(ctx, since, offset, t.pageSize)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			break
		}
		for _, p := range posts {
			score := t.Recompute(p, now)
			if err := t.postRepo.UpdateTrendingScore(ctx, p.ID, score, now); err != nil {
				return err
			}
			scored++
		}
		if len(posts) < t.pageSize {
			break
		}
	}
	t.setLastRun(ctx, now)
	if scored > 0 {
		logger.Info("trending scores updated", zap.Int("posts", scored))
	}
	return nil
}

// GetScore 读取按计划重算的存量分数（不按需重算）
func (t *TrendingScorer) GetScore(ctx context.Context, postID string) (float64, *time.Time, error) {
	p, err := t.postRepo.GetByID(ctx, postID)
	if err != nil {
		return 0, nil, err
	}
	return p.TrendingScore, p.ScoredAt, nil
}

// lastRun 运行水位存于 redis，缺失则全量
func (t *TrendingScorer) lastRun(ctx context.Context) time.Time {
	val, err := t.rdb.Get(ctx, trendingLastRunKey).Result()
	if err != nil {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func (t *TrendingScorer) setLastRun(ctx context.Context, ts time.Time) {
	if err := t.rdb.Set(ctx, trendingLastRunKey, ts.Format(time.RFC3339Nano), 0).Err(); err != nil {
		logger.Warn("trending watermark write failed", zap.Error(err))
	}
}
