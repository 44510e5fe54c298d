package utils

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ChecksumAddress 将 EVM 地址转换为 EIP-55 Checksum 格式
// 两个只有大小写差异的地址会归一到同一个结果；非地址输入原样返回
func ChecksumAddress(addr string) string {
	trimmed := strings.TrimSpace(addr)
	if !IsHexAddress(trimmed) {
		return addr
	}
	return common.HexToAddress(trimmed).Hex()
}

// IsHexAddress 检查字符串是否为合法的 EVM 地址
func IsHexAddress(addr string) bool {
	return common.IsHexAddress(strings.TrimSpace(addr))
}
