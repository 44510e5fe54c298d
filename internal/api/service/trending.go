package service

import (
	"context"
	"fmt"
	"time"

	"token-pulse/internal/api/config"
	"token-pulse/internal/api/dao"
	"token-pulse/internal/api/model"
	"token-pulse/internal/api/monitor"
	"token-pulse/pkg/utils"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// MetadataResolver 链上元信息解析，内部失败收敛为 Unknown 兜底
type MetadataResolver interface {
	Resolve(ctx context.Context, chain string, tokenAddress string) model.TokenMetadata
}

// TrendingService 把活跃度排行和链上元信息合并成响应载荷
type TrendingService struct {
	cfg         config.Config
	tl          *zap.Logger
	activityDAO dao.ActivityDAO
	resolver    MetadataResolver
}

func NewTrendingService(cfg config.Config, logger *zap.Logger, activityDAO dao.ActivityDAO, resolver MetadataResolver) *TrendingService {
	return &TrendingService{
		cfg:         cfg,
		tl:          logger,
		activityDAO: activityDAO,
		resolver:    resolver,
	}
}

// Build 构建某条链的完整排行载荷
// 输出顺序与排行顺序一致；单个代币的元信息失败不会丢行
func (s *TrendingService) Build(ctx context.Context, chain string) []model.EnrichedToken {
	rows := s.rank(ctx, chain)
	if len(rows) == 0 {
		// 排行为空时不发起任何元信息查询
		return []model.EnrichedToken{}
	}

	// 各代币相互独立，并发解析后按位置合并，保持排行顺序
	metas := make([]model.TokenMetadata, len(rows))
	p := pool.New().WithMaxGoroutines(s.cfg.RPC.Concurrency())
	for i := range rows {
		i := i
		address := utils.ChecksumAddress(rows[i].TokenAddress)
		p.Go(func() {
			metas[i] = s.resolver.Resolve(ctx, chain, address)
		})
	}
	p.Wait()

	enriched := make([]model.EnrichedToken, 0, len(rows))
	for i, row := range rows {
		row.TokenAddress = utils.ChecksumAddress(row.TokenAddress)
		enriched = append(enriched, mergeToken(row, metas[i]))
	}
	return enriched
}

// rank 执行排行查询，查询失败吸收为空排行
func (s *TrendingService) rank(ctx context.Context, chain string) []model.ActivityRow {
	start := time.Now()
	rows, err := s.activityDAO.RankTokenActivity(ctx, chain)
	monitor.AggregatorQueryDuration.WithLabelValues(chain).Observe(time.Since(start).Seconds())

	if err != nil {
		monitor.AggregatorQueryFailures.WithLabelValues(chain).Inc()
		s.tl.Warn("rank token activity failed, serving empty ranking",
			zap.String("chain", chain),
			zap.Error(err))
		return nil
	}
	return rows
}

// mergeToken 合并单个代币的排行数据与元信息
// decimals 缺失时 label 不带精度后缀，decimals 字段用 "N/A" 哨兵
func mergeToken(row model.ActivityRow, md model.TokenMetadata) model.EnrichedToken {
	label := fmt.Sprintf("%s (%s)", md.Name, md.Symbol)
	var decimals any = "N/A"
	if md.Decimals != nil {
		label = fmt.Sprintf("%s (%s) [%d]", md.Name, md.Symbol, *md.Decimals)
		decimals = *md.Decimals
	}

	return model.EnrichedToken{
		ActivityRow: row,
		Label:       label,
		TokenType:   md.Standard.String(),
		Decimals:    decimals,
	}
}
