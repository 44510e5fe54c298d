package dao

import (
	"context"
	"fmt"

	"token-pulse/internal/api/model"

	"gorm.io/gorm"
)

// activityDAO 实现ActivityDAO接口
type activityDAO struct {
	db *gorm.DB
}

// NewActivityDAO 创建ActivityDAO实例
func NewActivityDAO(db *gorm.DB) ActivityDAO {
	return &activityDAO{db: db}
}

// 固定的窗口口径：
//   - 只取近 14 天的 Transfer 事件
//   - 按 (token, 日) 分组，剔除当日独立地址数 <= 100 的噪声组
//   - 对每个指标做 "当日 + 前 13 日" 的滚动求和
//   - 当周取 [now-7d, now] 内最近一日锚点，上周取 [now-14d, now-7d]
//   - 只保留上周独立地址数 > 100 的代币
const rankTokenActivitySQL = `
with token_activity as (
    select
        address as token_address,
        date_trunc('day', timestamp) as activity_day,
        count(distinct input_0_value_address) as unique_addresses,
        sum(input_2_value_uint256) as total_volume,
        count(*) as total_transactions
    from %s
    where
        signature = 'Transfer(address,address,uint256)'
        and timestamp >= now() - interval '14 days'
    group by
        token_address, date_trunc('day', timestamp)
    having
        count(distinct input_0_value_address) > 100
),

rolling_14_day as (
    select
        token_address,
        activity_day,
        sum(unique_addresses) over (partition by token_address order by activity_day rows between 13 preceding and current row) as rolling_unique_addresses,
        sum(total_volume) over (partition by token_address order by activity_day rows between 13 preceding and current row) as rolling_total_volume,
        sum(total_transactions) over (partition by token_address order by activity_day rows between 13 preceding and current row) as rolling_total_transactions
    from
        token_activity
),
comparison as (
    select
        token_address,
        max(case when activity_day between date_trunc('day', now() - interval '7 days') and date_trunc('day', now()) then rolling_unique_addresses end) as current_week_unique_addresses,
        max(case when activity_day between date_trunc('day', now() - interval '14 days') and date_trunc('day', now() - interval '7 days') then rolling_unique_addresses end) as previous_week_unique_addresses,
        max(case when activity_day between date_trunc('day', now() - interval '7 days') and date_trunc('day', now()) then rolling_total_volume end) as current_week_total_volume,
        max(case when activity_day between date_trunc('day', now() - interval '14 days') and date_trunc('day', now() - interval '7 days') then rolling_total_volume end) as previous_week_total_volume,
        max(case when activity_day between date_trunc('day', now() - interval '7 days') and date_trunc('day', now()) then rolling_total_transactions end) as current_week_total_transactions,
        max(case when activity_day between date_trunc('day', now() - interval '14 days') and date_trunc('day', now() - interval '7 days') then rolling_total_transactions end) as previous_week_total_transactions
    from
        rolling_14_day
    group by
        token_address
)
select
    token_address,
    coalesce(current_week_unique_addresses, 0) - coalesce(previous_week_unique_addresses, 0) as unique_addresses_growth,
    coalesce(current_week_total_transactions, 0) - coalesce(previous_week_total_transactions, 0) as total_transaction_growth,
    current_week_unique_addresses,
    previous_week_unique_addresses,
    current_week_total_volume,
    previous_week_total_volume,
    current_week_total_transactions,
    previous_week_total_transactions
from
    comparison
where
    previous_week_unique_addresses > 100
order by
    unique_addresses_growth desc
limit 50
`

// RankTokenActivity 执行滚动窗口排行查询
func (d *activityDAO) RankTokenActivity(ctx context.Context, chain string) ([]model.ActivityRow, error) {
	// 表名只来自白名单映射，未知链在这里显式失败
	table, err := model.EventTableFor(chain)
	if err != nil {
		return nil, err
	}

	var rows []model.ActivityRow
	query := fmt.Sprintf(rankTokenActivitySQL, table)
	if err := d.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("rank token activity for %s: %w", chain, err)
	}

	return rows, nil
}
