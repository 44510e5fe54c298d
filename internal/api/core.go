package api

import (
	"context"
	"net/http"
	"time"

	"token-pulse/internal/api/cache"
	"token-pulse/internal/api/config"
	"token-pulse/internal/api/handler"
	"token-pulse/internal/api/job"
	"token-pulse/internal/api/metadata"
	"token-pulse/internal/api/monitor"
	"token-pulse/internal/api/repository"
	"token-pulse/internal/api/service"
	"token-pulse/pkg/moralis"

	"go.uber.org/zap"
)

type Core struct {
	cfg       config.Config
	tl        *zap.Logger
	repo      repository.Repository
	scheduler *job.Scheduler
	server    *http.Server
	metrics   *monitor.MetricsServer
}

func New(cfg config.Config, logger *zap.Logger) *Core {
	// 初始化repo
	repo := repository.New(cfg, logger)

	// Moralis 元信息兜底，未配置 api key 时关闭
	var fallback *moralis.MoralisClient
	if cfg.Moralis.APIKey != "" {
		fallback = moralis.NewMoralisClient(cfg.Moralis, logger)
	}

	// 链上元信息解析 -> 排行构建 -> 按链缓存
	resolver := metadata.NewResolver(cfg.RPC, logger, repo.GetEvmClients(), fallback)
	trendingSvc := service.NewTrendingService(cfg, logger, repo.GetDAOManager().ActivityDAO, resolver)
	trendingCache := cache.NewTrendingCache(cfg.Cache.TTL(), logger, trendingSvc, repo.GetMainRDB())

	// HTTP 路由
	h := handler.New(cfg.Server, logger, trendingCache)
	mux := http.NewServeMux()
	h.Routes(mux)

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8000"
	}

	// 初始化作业调度器
	scheduler := job.NewScheduler(logger)

	// 缓存预热（可选）：配了周期就定时跑，只配了链就启动时跑一次
	if interval := cfg.Cache.WarmInterval(); interval > 0 {
		warm := job.NewTrendingWarm(cfg.Cache, logger, trendingCache)
		scheduler.RegisterJob("trending_warm", interval, warm.Run)
	} else if len(cfg.Cache.WarmChains) > 0 {
		warm := job.NewTrendingWarm(cfg.Cache, logger, trendingCache)
		scheduler.RegisterOnceJob("trending_warm_startup", warm.Run)
	}

	core := &Core{
		cfg:       cfg,
		tl:        logger,
		repo:      repo,
		scheduler: scheduler,
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		metrics: monitor.NewMetricsServer(cfg.Monitor),
	}
	return core
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting api core...")
	// 启动监控服务
	if c.metrics != nil {
		c.metrics.Run()
	}

	// 启动调度器
	c.scheduler.Start(ctx)

	// 启动 HTTP 服务
	go func() {
		c.tl.Info("HTTP server listening", zap.String("addr", c.server.Addr))
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.tl.Error("HTTP server exited", zap.Error(err))
		}
	}()
	c.tl.Info("Api core started successfully")

	// 等待外部关闭信号
	<-ctx.Done()
	c.tl.Info("Shutting down api core due to context cancellation...")
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping api core...")

	// 停止 HTTP 服务
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.server.Shutdown(shutdownCtx); err != nil {
		c.tl.Warn("HTTP server shutdown failed", zap.Error(err))
	}

	// 停止调度器
	if c.scheduler != nil {
		c.scheduler.Stop(ctx)
	}

	// 停止 Prometheus 监控服务
	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}

	c.repo.Close()

	c.tl.Info("Api core stopped.")
}
