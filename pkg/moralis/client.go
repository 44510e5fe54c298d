package moralis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"token-pulse/internal/api/config"
	"token-pulse/pkg/httpclient"

	"go.uber.org/zap"
)

// moralisChains 本服务链名 -> Moralis chain 参数
var moralisChains = map[string]string{
	"ethereum": "eth",
	"polygon":  "polygon",
	"base":     "base",
	"arbitrum": "arbitrum",
}

type MoralisClient struct {
	baseURL    string
	apiKey     string
	httpClient *httpclient.HTTPClient
	logger     *zap.Logger
}

func NewMoralisClient(cfg config.MoralisConfig, logger *zap.Logger) *MoralisClient {
	// 创建HTTP客户端配置
	httpCfg := httpclient.HTTPClientConfig{
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		RateLimit:  cfg.RateLimit,
		MaxRetries: 3,
		XApiKey:    cfg.APIKey,
	}

	httpClient := httpclient.NewHTTPClient(httpCfg, logger)

	return &MoralisClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Enabled 未配置 API key 时兜底查询关闭
func (m *MoralisClient) Enabled() bool {
	return m != nil && m.apiKey != ""
}

// GetEvmTokenMetadata 查询单个 ERC20 代币的元信息
// 返回 name/symbol/decimals；接口出错或链不支持时返回 error，由调用方兜底
func (m *MoralisClient) GetEvmTokenMetadata(ctx context.Context, chain string, tokenAddr string) (name, symbol string, decimals *uint8, err error) {
	moralisChain, ok := moralisChains[chain]
	if !ok {
		return "", "", nil, fmt.Errorf("chain %q not supported by moralis fallback", chain)
	}

	url := fmt.Sprintf("%s/api/v2.2/erc20/metadata", m.baseURL)
	query := map[string]string{
		"chain":        moralisChain,
		"addresses[0]": tokenAddr,
	}

	var resp []TokenMetadataResp
	if err := m.httpClient.Get(ctx, url, query, nil, &resp); err != nil {
		return "", "", nil, fmt.Errorf("fetch evm token metadata failed, addr: %s, error: %v", tokenAddr, err)
	}
	if len(resp) == 0 {
		return "", "", nil, fmt.Errorf("empty metadata response for %s", tokenAddr)
	}

	md := resp[0]
	if md.Decimals != "" {
		if d, perr := strconv.ParseUint(md.Decimals, 10, 8); perr == nil {
			v := uint8(d)
			decimals = &v
		}
	}
	return md.Name, md.Symbol, decimals, nil
}
