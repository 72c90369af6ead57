package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Engagement EngagementConfig `mapstructure:"engagement"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	Mode           string        `mapstructure:"mode"` // debug, release
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"` // 每 IP 每秒请求数
	RateBurst      int           `mapstructure:"rate_burst"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// EngagementConfig 互动子系统参数（计数聚合、热度、邀请奖励、通知）
type EngagementConfig struct {
	ReferralBonus     int            `mapstructure:"referral_bonus"`
	AggregatorWorkers int            `mapstructure:"aggregator_workers"`
	AggregatorClaim   int            `mapstructure:"aggregator_claim"`
	AggregatorPoll    time.Duration  `mapstructure:"aggregator_poll"`
	NotifierQueue     int            `mapstructure:"notifier_queue"`
	FollowerCacheTTL  time.Duration  `mapstructure:"follower_cache_ttl"`
	Trending          TrendingConfig `mapstructure:"trending"`
}

// TrendingConfig 热度分权重与调度参数
type TrendingConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	HalfLifeHours  float64       `mapstructure:"half_life_hours"`
	LikeWeight     float64       `mapstructure:"like_weight"`
	BookmarkWeight float64       `mapstructure:"bookmark_weight"`
	ViewWeight     float64       `mapstructure:"view_weight"`
	Floor          float64       `mapstructure:"floor"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Mode  string `mapstructure:"mode"` // dev, prod
}

// Load 读取配置文件并应用环境变量覆盖（前缀 VIBB_）
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/vibb")

	v.SetEnvPrefix("VIBB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时仅依赖默认值与环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.request_timeout", "5s")
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "vibb.db")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "1h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.ttl", "72h")

	v.SetDefault("engagement.referral_bonus", 10)
	v.SetDefault("engagement.aggregator_workers", 4)
	v.SetDefault("engagement.aggregator_claim", 128)
	v.SetDefault("engagement.aggregator_poll", "50ms")
	v.SetDefault("engagement.notifier_queue", 10000)
	v.SetDefault("engagement.follower_cache_ttl", "5m")
	v.SetDefault("engagement.trending.interval", "5m")
	v.SetDefault("engagement.trending.half_life_hours", 24)
	v.SetDefault("engagement.trending.like_weight", 4)
	v.SetDefault("engagement.trending.bookmark_weight", 6)
	v.SetDefault("engagement.trending.view_weight", 1)
	v.SetDefault("engagement.trending.floor", 0.01)

	v.SetDefault("sentry.environment", "development")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.mode", "dev")
}
