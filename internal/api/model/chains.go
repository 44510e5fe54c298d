package model

import "fmt"

// DefaultChain 未知链的元信息查询回退到以太坊主网
const DefaultChain = "ethereum"

// eventTables 链 -> 事件表 的白名单映射
// 表名不允许由请求参数拼接，未知链是显式的查询未命中而不是 SQL 错误
var eventTables = map[string]string{
	"ethereum": "evm_events_ethereum_mainnet_v1",
	"polygon":  "evm_events_polygon_mainnet_v1",
	"base":     "evm_events_base_mainnet_v1",
	"arbitrum": "evm_events_arbitrum_mainnet_v1",
}

// ExplorerURLs 链 -> 区块浏览器 映射，前端拼接代币详情链接用
var ExplorerURLs = map[string]string{
	"ethereum": "https://etherscan.io",
	"base":     "https://basescan.org",
	"polygon":  "https://polygonscan.com",
	"arbitrum": "https://arbiscan.io",
}

// EventTableFor 返回链对应的事件表名
func EventTableFor(chain string) (string, error) {
	table, ok := eventTables[chain]
	if !ok {
		return "", fmt.Errorf("no event table for chain %q", chain)
	}
	return table, nil
}

// SupportedChains 返回有事件表的链列表
func SupportedChains() []string {
	chains := make([]string, 0, len(eventTables))
	for chain := range eventTables {
		chains = append(chains, chain)
	}
	return chains
}
