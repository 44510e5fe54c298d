package cache

import (
	"context"
	"time"

	"token-pulse/internal/api/model"
	"token-pulse/internal/api/monitor"
	"token-pulse/pkg/utils"

	"github.com/bytedance/sonic"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PayloadBuilder 缓存未命中时的重建入口
type PayloadBuilder interface {
	Build(ctx context.Context, chain string) []model.EnrichedToken
}

// TrendingCache 按链缓存排行载荷
//
// 条目整体写入整体替换，读方不会看到半截数据；
// 同一条链的并发重建通过 singleflight 合并成一次，不同链相互独立。
type TrendingCache struct {
	ttl        time.Duration
	tl         *zap.Logger
	builder    PayloadBuilder
	localCache *gocache.Cache
	rdb        *redis.Client // 可为 nil，为 nil 时只用本地缓存
	group      singleflight.Group
}

// NewTrendingCache 创建排行缓存，rdb 可为 nil
func NewTrendingCache(ttl time.Duration, logger *zap.Logger, builder PayloadBuilder, rdb *redis.Client) *TrendingCache {
	return &TrendingCache{
		ttl:        ttl,
		tl:         logger,
		builder:    builder,
		localCache: gocache.New(ttl, 10*time.Minute),
		rdb:        rdb,
	}
}

// Get 返回某条链的排行载荷，对调用方永不失败
// 命中直接返回；过期或缺失时同步重建并缓存
func (c *TrendingCache) Get(ctx context.Context, chain string) []model.EnrichedToken {
	if entry, ok := c.lookup(ctx, chain); ok {
		return entry.Payload
	}

	monitor.TrendingCacheMisses.WithLabelValues(chain).Inc()

	v, _, _ := c.group.Do(chain, func() (any, error) {
		// 排队等锁期间可能已有并发刷新写入
		if entry, ok := c.lookupLocal(chain); ok {
			return entry, nil
		}
		return c.refresh(ctx, chain), nil
	})

	return v.(*model.TrendingEntry).Payload
}

// lookup 先查本地缓存，再查 Redis 二级缓存
func (c *TrendingCache) lookup(ctx context.Context, chain string) (*model.TrendingEntry, bool) {
	if entry, ok := c.lookupLocal(chain); ok {
		monitor.TrendingCacheHits.WithLabelValues(chain, "local").Inc()
		return entry, true
	}

	if c.rdb == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, utils.TrendingKey(chain)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.tl.Warn("read trending entry from redis failed", zap.String("chain", chain), zap.Error(err))
		}
		return nil, false
	}

	var entry model.TrendingEntry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		c.tl.Warn("corrupt trending entry in redis", zap.String("chain", chain), zap.Error(err))
		return nil, false
	}

	// 回填本地缓存，保留条目剩余的有效期
	remaining := c.ttl - time.Since(entry.FetchedAt)
	if remaining <= 0 {
		return nil, false
	}
	c.localCache.Set(chain, &entry, remaining)

	monitor.TrendingCacheHits.WithLabelValues(chain, "redis").Inc()
	return &entry, true
}

func (c *TrendingCache) lookupLocal(chain string) (*model.TrendingEntry, bool) {
	if cached, found := c.localCache.Get(chain); found {
		if entry, ok := cached.(*model.TrendingEntry); ok {
			return entry, true
		}
	}
	return nil, false
}

// refresh 同步重建载荷并整体写入两级缓存
func (c *TrendingCache) refresh(ctx context.Context, chain string) *model.TrendingEntry {
	start := time.Now()

	// 调用方断开不中止重建，算出来的结果照常缓存给下一个请求
	buildCtx := context.WithoutCancel(ctx)
	payload := c.builder.Build(buildCtx, chain)

	entry := &model.TrendingEntry{
		ChainID:   chain,
		Payload:   payload,
		FetchedAt: time.Now().UTC(),
	}

	c.localCache.Set(chain, entry, c.ttl)
	c.storeRemote(buildCtx, chain, entry)

	monitor.TrendingRefreshDuration.WithLabelValues(chain).Observe(time.Since(start).Seconds())
	c.tl.Info("trending payload refreshed",
		zap.String("chain", chain),
		zap.Int("tokens", len(payload)),
		zap.Duration("duration", time.Since(start)))

	return entry
}

func (c *TrendingCache) storeRemote(ctx context.Context, chain string, entry *model.TrendingEntry) {
	if c.rdb == nil {
		return
	}

	data, err := sonic.Marshal(entry)
	if err != nil {
		c.tl.Warn("marshal trending entry failed", zap.String("chain", chain), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, utils.TrendingKey(chain), data, c.ttl).Err(); err != nil {
		c.tl.Warn("write trending entry to redis failed", zap.String("chain", chain), zap.Error(err))
	}
}
