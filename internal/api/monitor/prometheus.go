package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// HTTPRequestsTotal HTTP 请求相关
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled.",
		},
		[]string{"path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken to handle an HTTP request.",
			Buckets: []float64{0.005, 0.05, 0.2, 1.0, 5.0, 15.0, 60.0},
		},
		[]string{"path"},
	)

	// TrendingCacheHits 排行缓存指标
	TrendingCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_cache_hits_total",
			Help: "Total number of trending cache hits per tier.",
		},
		[]string{"chain", "tier"},
	)
	TrendingCacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_cache_misses_total",
			Help: "Total number of trending cache misses.",
		},
		[]string{"chain"},
	)
	TrendingRefreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trending_refresh_duration_seconds",
			Help:    "Time taken to rebuild the trending payload for a chain.",
			Buckets: []float64{0.5, 1.0, 5.0, 15.0, 30.0, 60.0, 120.0},
		},
		[]string{"chain"},
	)

	// AggregatorQueryDuration 活跃度聚合查询指标
	AggregatorQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregator_query_duration_seconds",
			Help:    "Time taken to run the windowed activity ranking query.",
			Buckets: []float64{0.1, 0.5, 1.0, 5.0, 15.0, 60.0},
		},
		[]string{"chain"},
	)
	AggregatorQueryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_query_failures_total",
			Help: "Total number of failed activity ranking queries.",
		},
		[]string{"chain"},
	)

	// RPCCallFailures 链上元信息查询指标
	RPCCallFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_call_failures_total",
			Help: "Total number of failed chain RPC calls.",
		},
		[]string{"chain", "method"},
	)
	MetadataFallbackHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_fallback_hits_total",
			Help: "Total number of token metadata lookups served by the HTTP fallback.",
		},
		[]string{"chain"},
	)
)

func init() {
	prometheus.MustRegister(
		// http指标
		HTTPRequestsTotal,
		HTTPRequestDuration,

		// 缓存指标
		TrendingCacheHits,
		TrendingCacheMisses,
		TrendingRefreshDuration,

		// 聚合与RPC指标
		AggregatorQueryDuration,
		AggregatorQueryFailures,
		RPCCallFailures,
		MetadataFallbackHits,
	)
}
