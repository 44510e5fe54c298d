package job

import (
	"context"

	"token-pulse/internal/api/config"
	"token-pulse/internal/api/model"

	"go.uber.org/zap"
)

// TrendingProvider 预热作业只需要读入口
type TrendingProvider interface {
	Get(ctx context.Context, chain string) []model.EnrichedToken
}

// TrendingWarm 周期性预刷配置的链，让过期后的第一个请求不用等重建
type TrendingWarm struct {
	cfg      config.CacheConfig
	tl       *zap.Logger
	trending TrendingProvider
}

func NewTrendingWarm(cfg config.CacheConfig, logger *zap.Logger, trending TrendingProvider) *TrendingWarm {
	return &TrendingWarm{
		cfg:      cfg,
		tl:       logger,
		trending: trending,
	}
}

func (j *TrendingWarm) Run(ctx context.Context) error {
	chains := j.cfg.WarmChains
	if len(chains) == 0 {
		chains = model.SupportedChains()
	}

	for _, chain := range chains {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Get 命中时是纯内存读，过期时顺带完成重建
		payload := j.trending.Get(ctx, chain)
		j.tl.Debug("trending warm pass",
			zap.String("chain", chain),
			zap.Int("tokens", len(payload)))
	}
	return nil
}
