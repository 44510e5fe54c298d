package evm_client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Manager 按链管理 evm client，首次使用时才建立连接
type Manager struct {
	endpoints    map[string]string
	defaultChain string

	mu      sync.Mutex
	clients map[string]*ethclient.Client
}

// NewManager 创建 client 管理器
// 未配置的链回退到 defaultChain 的 RPC 端点
func NewManager(endpoints map[string]string, defaultChain string) *Manager {
	return &Manager{
		endpoints:    endpoints,
		defaultChain: defaultChain,
		clients:      make(map[string]*ethclient.Client),
	}
}

// Get 返回链对应的 client，按需拨号并复用
func (m *Manager) Get(ctx context.Context, chain string) (*ethclient.Client, error) {
	rawurl, ok := m.endpoints[chain]
	if !ok {
		// 未知链使用默认链的端点
		chain = m.defaultChain
		rawurl, ok = m.endpoints[chain]
		if !ok {
			return nil, fmt.Errorf("no rpc endpoint for chain %q and no default", chain)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[chain]; ok {
		return client, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("dial evm client for %s: %w", chain, err)
	}

	m.clients[chain] = client
	return client, nil
}

// Close 关闭全部已建立的连接
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, client := range m.clients {
		client.Close()
	}
	m.clients = make(map[string]*ethclient.Client)
}
