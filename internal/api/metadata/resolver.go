package metadata

import (
	"context"
	"fmt"
	"math/big"

	"token-pulse/internal/api/config"
	"token-pulse/internal/api/model"
	"token-pulse/internal/api/monitor"
	"token-pulse/pkg/evm_client"
	"token-pulse/pkg/moralis"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// 合约调用的函数选择器
var (
	selectorName              = []byte{0x06, 0xfd, 0xde, 0x03} // name()
	selectorSymbol            = []byte{0x95, 0xd8, 0x9b, 0x41} // symbol()
	selectorDecimals          = []byte{0x31, 0x3c, 0xe5, 0x67} // decimals()
	selectorSupportsInterface = []byte{0x01, 0xff, 0xc9, 0xa7} // supportsInterface(bytes4)

	// ERC-721 的 interface id
	erc721InterfaceID = []byte{0x80, 0xac, 0x58, 0xcd}
)

// Resolver 链上代币元信息解析器
// Resolve 永远不向调用方抛错，内部失败一律收敛为 Unknown 兜底结果
type Resolver struct {
	cfg      config.RPCConfig
	tl       *zap.Logger
	clients  *evm_client.Manager
	limiter  *rate.Limiter
	fallback *moralis.MoralisClient
}

// NewResolver 创建解析器，fallback 可为 nil
func NewResolver(cfg config.RPCConfig, logger *zap.Logger, clients *evm_client.Manager, fallback *moralis.MoralisClient) *Resolver {
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 600
	}
	return &Resolver{
		cfg:      cfg,
		tl:       logger,
		clients:  clients,
		limiter:  rate.NewLimiter(rate.Limit(float64(rateLimit)/60), 5),
		fallback: fallback,
	}
}

// Resolve 查询代币的名称、符号、精度和合约标准
// 任何一步失败都返回 Unknown 兜底，不返回半截元信息
func (r *Resolver) Resolve(ctx context.Context, chain string, tokenAddress string) model.TokenMetadata {
	md, err := r.resolveOnChain(ctx, chain, tokenAddress)
	if err == nil {
		return md
	}

	r.tl.Warn("resolve token metadata on-chain failed",
		zap.String("chain", chain),
		zap.String("token", tokenAddress),
		zap.Error(err))

	if r.fallback.Enabled() {
		if md, ok := r.resolveViaFallback(ctx, chain, tokenAddress); ok {
			return md
		}
	}

	return model.UnknownMetadata()
}

func (r *Resolver) resolveOnChain(ctx context.Context, chain string, tokenAddress string) (model.TokenMetadata, error) {
	client, err := r.clients.Get(ctx, chain)
	if err != nil {
		monitor.RPCCallFailures.WithLabelValues(chain, "dial").Inc()
		return model.TokenMetadata{}, err
	}

	// 连通性探测，拿不到块高说明端点不可用
	if err := r.probe(ctx, chain, client); err != nil {
		return model.TokenMetadata{}, err
	}

	token := common.HexToAddress(tokenAddress)

	// ERC-721 探测失败一律按 "不是 ERC-721" 处理
	isNFT := r.supportsERC721(ctx, chain, client, token)

	name, err := r.callString(ctx, chain, client, token, "name", selectorName)
	if err != nil {
		return model.TokenMetadata{}, err
	}
	symbol, err := r.callString(ctx, chain, client, token, "symbol", selectorSymbol)
	if err != nil {
		return model.TokenMetadata{}, err
	}

	if isNFT {
		// ERC-721 没有 decimals
		return model.TokenMetadata{
			Name:     name,
			Symbol:   symbol,
			Decimals: nil,
			Standard: model.StandardNonFungible,
		}, nil
	}

	decimals, err := r.callDecimals(ctx, chain, client, token)
	if err != nil {
		return model.TokenMetadata{}, err
	}

	return model.TokenMetadata{
		Name:     name,
		Symbol:   symbol,
		Decimals: &decimals,
		Standard: model.StandardFungible,
	}, nil
}

func (r *Resolver) resolveViaFallback(ctx context.Context, chain string, tokenAddress string) (model.TokenMetadata, bool) {
	name, symbol, decimals, err := r.fallback.GetEvmTokenMetadata(ctx, chain, tokenAddress)
	if err != nil || name == "" {
		return model.TokenMetadata{}, false
	}

	standard := model.StandardUnknown
	if decimals != nil {
		standard = model.StandardFungible
	}

	monitor.MetadataFallbackHits.WithLabelValues(chain).Inc()
	return model.TokenMetadata{
		Name:     name,
		Symbol:   symbol,
		Decimals: decimals,
		Standard: standard,
	}, true
}

// probe 请求当前块高确认端点存活
func (r *Resolver) probe(ctx context.Context, chain string, client *ethclient.Client) error {
	callCtx, cancel, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if _, err := client.BlockNumber(callCtx); err != nil {
		monitor.RPCCallFailures.WithLabelValues(chain, "eth_blockNumber").Inc()
		return fmt.Errorf("probe %s endpoint: %w", chain, err)
	}
	return nil
}

// supportsERC721 调用 supportsInterface(0x80ac58cd)
// 任何失败（不支持 ERC-165、revert、超时）都视为 false
func (r *Resolver) supportsERC721(ctx context.Context, chain string, client *ethclient.Client, token common.Address) bool {
	callData := append(append([]byte{}, selectorSupportsInterface...), common.RightPadBytes(erc721InterfaceID, 32)...)

	result, err := r.call(ctx, chain, client, token, "supportsInterface", callData)
	if err != nil || len(result) < 32 {
		return false
	}
	return new(big.Int).SetBytes(result[:32]).Sign() != 0
}

func (r *Resolver) callString(ctx context.Context, chain string, client *ethclient.Client, token common.Address, method string, selector []byte) (string, error) {
	result, err := r.call(ctx, chain, client, token, method, selector)
	if err != nil {
		return "", err
	}
	value, err := ParseStringResult(result)
	if err != nil {
		return "", fmt.Errorf("%s() of %s: %w", method, token.Hex(), err)
	}
	return value, nil
}

func (r *Resolver) callDecimals(ctx context.Context, chain string, client *ethclient.Client, token common.Address) (uint8, error) {
	result, err := r.call(ctx, chain, client, token, "decimals", selectorDecimals)
	if err != nil {
		return 0, err
	}
	value, err := ParseUint8Result(result)
	if err != nil {
		return 0, fmt.Errorf("decimals() of %s: %w", token.Hex(), err)
	}
	return value, nil
}

// call 发起一次 eth_call，带限流和单次超时
func (r *Resolver) call(ctx context.Context, chain string, client *ethclient.Client, token common.Address, method string, data []byte) ([]byte, error) {
	callCtx, cancel, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	result, err := client.CallContract(callCtx, ethereum.CallMsg{
		To:   &token,
		Data: data,
	}, nil)
	if err != nil {
		monitor.RPCCallFailures.WithLabelValues(chain, method).Inc()
		return nil, fmt.Errorf("call %s on %s: %w", method, token.Hex(), err)
	}
	return result, nil
}

func (r *Resolver) acquire(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout())
	return callCtx, cancel, nil
}

// ParseStringResult 解析 ABI 编码的 string 返回值
func ParseStringResult(data []byte) (string, error) {
	if len(data) < 64 {
		return "", fmt.Errorf("string result too short: %d bytes", len(data))
	}

	// 边界检查全部用减法，offset/length 接近 int64 上限时加法会溢出绕过检查
	offset := new(big.Int).SetBytes(data[:32])
	if !offset.IsInt64() || offset.Int64() > int64(len(data))-32 {
		return "", fmt.Errorf("invalid string offset")
	}
	start := offset.Int64()

	length := new(big.Int).SetBytes(data[start : start+32])
	if !length.IsInt64() || length.Int64() > int64(len(data))-start-32 {
		return "", fmt.Errorf("invalid string length")
	}

	return string(data[start+32 : start+32+length.Int64()]), nil
}

// ParseUint8Result 解析 ABI 编码的 uint8 返回值
func ParseUint8Result(data []byte) (uint8, error) {
	if len(data) < 32 {
		return 0, fmt.Errorf("uint8 result too short: %d bytes", len(data))
	}

	value := new(big.Int).SetBytes(data[:32])
	if !value.IsUint64() || value.Uint64() > 255 {
		return 0, fmt.Errorf("uint8 result out of range")
	}
	return uint8(value.Uint64()), nil
}
