package dao

import (
	"context"

	"token-pulse/internal/api/model"
)

// ActivityDAO 转账事件活跃度排行查询
type ActivityDAO interface {
	// RankTokenActivity 返回链上近两周活跃度增长最高的代币
	// 按 unique_addresses_growth 降序，最多 50 行
	RankTokenActivity(ctx context.Context, chain string) ([]model.ActivityRow, error)
}
