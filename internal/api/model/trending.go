package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenStandard 代币合约标准分类
type TokenStandard int

const (
	StandardUnknown TokenStandard = iota
	StandardFungible
	StandardNonFungible
)

func (s TokenStandard) String() string {
	switch s {
	case StandardFungible:
		return "ERC-20"
	case StandardNonFungible:
		return "ERC-721"
	default:
		return "Unknown"
	}
}

// TokenMetadata 链上查询到的代币元信息
// Decimals 为空时不可视为 ERC-20（无法确定精度的合约不能当作同质化代币处理）
type TokenMetadata struct {
	Name     string
	Symbol   string
	Decimals *uint8
	Standard TokenStandard
}

// UnknownMetadata 解析失败时的兜底结果
func UnknownMetadata() TokenMetadata {
	return TokenMetadata{
		Name:     "Unknown",
		Symbol:   "Unknown",
		Decimals: nil,
		Standard: StandardUnknown,
	}
}

// ActivityRow 活跃度排行的一行，列名与聚合 SQL 的输出对齐
type ActivityRow struct {
	TokenAddress                  string           `gorm:"column:token_address" json:"token_address"`
	UniqueAddressesGrowth         int64            `gorm:"column:unique_addresses_growth" json:"unique_addresses_growth"`
	TotalTransactionGrowth        int64            `gorm:"column:total_transaction_growth" json:"total_transaction_growth"`
	CurrentWeekUniqueAddresses    *int64           `gorm:"column:current_week_unique_addresses" json:"current_week_unique_addresses"`
	PreviousWeekUniqueAddresses   *int64           `gorm:"column:previous_week_unique_addresses" json:"previous_week_unique_addresses"`
	CurrentWeekTotalVolume        *decimal.Decimal `gorm:"column:current_week_total_volume" json:"current_week_total_volume"`
	PreviousWeekTotalVolume       *decimal.Decimal `gorm:"column:previous_week_total_volume" json:"previous_week_total_volume"`
	CurrentWeekTotalTransactions  *int64           `gorm:"column:current_week_total_transactions" json:"current_week_total_transactions"`
	PreviousWeekTotalTransactions *int64           `gorm:"column:previous_week_total_transactions" json:"previous_week_total_transactions"`
}

// EnrichedToken 排行数据与链上元信息合并后的响应单元
// Decimals 序列化为数字或 "N/A" 哨兵值
type EnrichedToken struct {
	ActivityRow
	Label     string `json:"label"`
	TokenType string `json:"token_type"`
	Decimals  any    `json:"decimals"`
}

// TrendingEntry 单条链的缓存条目，整体替换，不做字段级修改
type TrendingEntry struct {
	ChainID   string          `json:"chain_id"`
	Payload   []EnrichedToken `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}
