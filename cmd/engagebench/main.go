package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vibb-lab/vibb-server/config"
	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/internal/service"
	"github.com/vibb-lab/vibb-server/pkg/database"
	"github.com/vibb-lab/vibb-server/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())
	_ = logger.Init("warn", "prod")
	db := must(database.InitDB(cfg))
	rdb := must(database.InitRedis(cfg))
	if err := model.AutoMigrate(db); err != nil {
		panic(err)
	}

	N := 10000
	if s := os.Getenv("N"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			N = n
		}
	}
	CONC := 8
	if s := os.Getenv("CONC"); s != "" {
		if c, err := strconv.Atoi(s); err == nil && c > 0 {
			CONC = c
		}
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	edgeRepo := repository.NewEdgeRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	notifier := service.NewNotifier(notifRepo, rdb, 100000)
	stopNotifier := notifier.Start(4)
	aggregator := service.NewCounterAggregator(db, notifier, nil, 4, 256, 20*time.Millisecond)
	stopAggregator := aggregator.Start()
	ledger := service.NewLedgerService(db, edgeRepo, userRepo, postRepo)

	ctx := context.Background()

	// 一个作者一篇帖子，N 个用户各点一次赞
	author := model.User{ID: "author", Username: "author", Email: "author@example.com", Password: "p"}
	_ = db.Where("id = ?", author.ID).FirstOrCreate(&author).Error
	post := model.Post{ID: "bench-post", UserID: author.ID, Title: "bench", IsPublished: true}
	_ = db.Where("id = ?", post.ID).FirstOrCreate(&post).Error

	users := make([]model.User, N)
	batch := 1000
	for i := 0; i < N; i++ {
		id := uuid.New().String()
		users[i] = model.User{ID: id, Username: "u" + id[:8], Email: id[:8] + "@example.com", Password: "p"}
		if (i+1)%batch == 0 {
			sub := users[i+1-batch : i+1]
			_ = db.Create(&sub).Error
		}
	}
	if N%batch != 0 {
		sub := users[N-N%batch:]
		_ = db.Create(&sub).Error
	}

	// 事件落地延迟采样
	aggMetrics := aggregator.Metrics()
	aggRecs := make([]time.Duration, 0, N)
	doneAgg := make(chan struct{})
	go func() {
		timeout := time.NewTimer(5 * time.Minute)
		defer timeout.Stop()
		for {
			select {
			case d := <-aggMetrics:
				aggRecs = append(aggRecs, d)
			case <-doneAgg:
				return
			case <-timeout.C:
				return
			}
		}
	}()

	t0 := time.Now()
	workers := CONC
	if workers > N {
		workers = N
	}
	toggleCh := make(chan time.Duration, N)
	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)
	errCh := make(chan error, workers)
	for w := 0; w < workers; w++ {
		go func() {
			for i := range feed {
				st := time.Now()
				_, _ = ledger.Toggle(ctx, model.EdgeLike, users[i].ID, post.ID)
				toggleCh <- time.Since(st)
			}
			errCh <- nil
		}()
	}
	for w := 0; w < workers; w++ {
		<-errCh
	}
	close(toggleCh)
	toggleRecs := make([]time.Duration, 0, N)
	for d := range toggleCh {
		toggleRecs = append(toggleRecs, d)
	}
	toggleDur := time.Since(t0)

	// 等待聚合追平
	drainStart := time.Now()
	for {
		var pending int64
		_ = db.Model(&model.EngagementEvent{}).Where("status = ?", model.EventPending).Count(&pending).Error
		if pending == 0 || time.Since(drainStart) > time.Minute {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	drainDur := time.Since(drainStart)

	_ = stopAggregator(ctx)
	_ = stopNotifier(ctx)
	close(doneAgg)

	var landed model.Post
	_ = db.First(&landed, "id = ?", post.ID).Error

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	fmt.Printf("N=%d, CONC=%d\n", N, CONC)
	fmt.Printf("Toggle latency total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		toggleDur, toggleDur/time.Duration(N), pct(toggleRecs, 0.50), pct(toggleRecs, 0.95), pct(toggleRecs, 0.99))
	fmt.Printf("Counter landing: samples=%d, p50=%v, p95=%v, p99=%v, drain=%v\n",
		len(aggRecs), pct(aggRecs, 0.50), pct(aggRecs, 0.95), pct(aggRecs, 0.99), drainDur)
	fmt.Printf("Final like_count=%d (expected %d)\n", landed.LikeCount, N)
}
