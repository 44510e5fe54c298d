package config

import (
	"fmt"
	"time"

	"token-pulse/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	RPC      RPCConfig      `mapstructure:"rpc"`
	Moralis  MoralisConfig  `mapstructure:"moralis"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	TemplateDir    string   `mapstructure:"template_dir"`
	StaticDir      string   `mapstructure:"static_dir"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置，address 为空时跳过二级缓存
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig 排行缓存配置
type CacheConfig struct {
	TTLMinutes          int      `mapstructure:"ttl_minutes"`
	WarmChains          []string `mapstructure:"warm_chains"`
	WarmIntervalMinutes int      `mapstructure:"warm_interval_minutes"`
}

// TTL 缓存有效期，默认 6 小时
func (c CacheConfig) TTL() time.Duration {
	if c.TTLMinutes <= 0 {
		return 6 * time.Hour
	}
	return time.Duration(c.TTLMinutes) * time.Minute
}

// WarmInterval 预热作业周期，0 表示不注册预热作业
func (c CacheConfig) WarmInterval() time.Duration {
	if c.WarmIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(c.WarmIntervalMinutes) * time.Minute
}

// RPCConfig 链上 RPC 配置
type RPCConfig struct {
	Endpoints          map[string]string `mapstructure:"endpoints"`
	TimeoutSeconds     int               `mapstructure:"timeout_seconds"`
	RateLimit          int               `mapstructure:"rate_limit"` // 每分钟请求次数
	ResolveConcurrency int               `mapstructure:"resolve_concurrency"`
}

// Timeout 单次 RPC 调用超时时间
func (c RPCConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Concurrency 元信息解析并发度
func (c RPCConfig) Concurrency() int {
	if c.ResolveConcurrency <= 0 {
		return 8
	}
	return c.ResolveConcurrency
}

// MoralisConfig Moralis 元信息兜底配置，api_key 为空时关闭
type MoralisConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	RateLimit int    `mapstructure:"rate_limit"`
	Timeout   int    `mapstructure:"timeout"`
}

// MonitorConfig Prometheus 监控配置
type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

func InitConfig() Config {
	var config Config

	viper.SetConfigName("config.api")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config/")

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	if err := mapstructure.Decode(viper.AllSettings(), &config); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	return config
}

// WatchConfig 监听配置文件变更并覆写共享的 Config
// 各组件在构造时已拷贝了自己的配置，热加载只对通过该指针读取的值
// 生效，目前即日志级别；其余变更需要重启进程
func WatchConfig(config *Config) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := InitConfig()
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
}
