package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/vibb-lab/vibb-server/config"
	"github.com/vibb-lab/vibb-server/internal/api"
	"github.com/vibb-lab/vibb-server/internal/api/handler"
	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/internal/service"
	"github.com/vibb-lab/vibb-server/pkg/database"
	"github.com/vibb-lab/vibb-server/pkg/logger"
	"github.com/vibb-lab/vibb-server/pkg/tracing"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// @title VIBB Server API
// @version 1.0
// @description VIBB 社区服务端：互动账本、计数聚合、热度榜、通知、邀请
// @BasePath /
func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level, cfg.Log.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing := must(tracing.Init(cfg))

	db := must(database.InitDB(cfg))
	rdb := must(database.InitRedis(cfg))
	if err := model.AutoMigrate(db); err != nil {
		logger.Error("auto migrate failed", zap.Error(err))
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	edgeRepo := repository.NewEdgeRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	eng := cfg.Engagement
	notifier := service.NewNotifier(notifRepo, rdb, eng.NotifierQueue)
	followers := service.NewFollowerService(db, rdb, eng.FollowerCacheTTL)
	aggregator := service.NewCounterAggregator(db, notifier, followers,
		eng.AggregatorWorkers, eng.AggregatorClaim, eng.AggregatorPoll)
	trending := service.NewTrendingScorer(postRepo, rdb, eng.Trending)
	registrar := service.NewRegistrar(db, userRepo, eng.ReferralBonus)
	identity := service.NewIdentityService(userRepo, registrar, cfg.JWT)
	ledger := service.NewLedgerService(db, edgeRepo, userRepo, postRepo)
	content := service.NewContentService(db, postRepo, userRepo, edgeRepo, notifier)

	stopNotifier := notifier.Start(eng.AggregatorWorkers)
	stopAggregator := aggregator.Start()
	stopTrending := trending.Start()

	h := handler.NewHandler(identity, ledger, registrar, notifier, trending, content, followers)
	router := api.NewRouter(cfg, h, identity)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	// 先停账本上游的聚合，再停通知投递，保证已入账事件推完
	if err := stopTrending(ctx); err != nil {
		logger.Warn("trending stop", zap.Error(err))
	}
	if err := stopAggregator(ctx); err != nil {
		logger.Warn("aggregator stop", zap.Error(err))
	}
	if err := stopNotifier(ctx); err != nil {
		logger.Warn("notifier stop", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}
