package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	WorkerID int64  `mapstructure:"worker_id"`
}

// DatabaseConfig driver 取值 mysql / postgres / sqlite
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogSQL       bool   `mapstructure:"log_sql"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	PointsAwarded string `mapstructure:"points_awarded"`
	OrderPlaced   string `mapstructure:"order_placed"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	// FirstPurchaseWelcomeMatch 累计积分恰好等于注册奖励时视为首单
	FirstPurchaseWelcomeMatch = "welcome_match"
	// FirstPurchaseFlag 以账户上的 has_first_purchase 标记判断首单
	FirstPurchaseFlag = "first_order"
)

type BusinessConfig struct {
	PointsPerCurrencyUnit  int64  `mapstructure:"points_per_currency_unit"`
	FirstPurchaseBonus     int64  `mapstructure:"first_purchase_bonus"`
	FirstPurchaseRule      string `mapstructure:"first_purchase_rule"`
	LockTTLSeconds         int    `mapstructure:"lock_ttl_seconds"`
	MaxRetryCount          int    `mapstructure:"max_retry_count"`
	LeaderboardSyncSeconds int    `mapstructure:"leaderboard_sync_seconds"`
	HistoryDefaultLimit    int    `mapstructure:"history_default_limit"`
}

// Default 返回一份可直接运行的本地配置（sqlite，无 redis/kafka）
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Mode: "release", WorkerID: 1},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			SQLitePath:   "healthloop.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Redis: RedisConfig{Host: "127.0.0.1", Port: 6379},
		Kafka: KafkaConfig{
			Topic: KafkaTopicConfig{
				PointsAwarded: "healthloop.points.awarded",
				OrderPlaced:   "healthloop.order.placed",
			},
		},
		Log: LogConfig{Level: "info"},
		Business: BusinessConfig{
			PointsPerCurrencyUnit:  10,
			FirstPurchaseBonus:     200,
			FirstPurchaseRule:      FirstPurchaseWelcomeMatch,
			LockTTLSeconds:         30,
			MaxRetryCount:          5,
			LeaderboardSyncSeconds: 60,
			HistoryDefaultLimit:    20,
		},
	}
}

// LoadConfig 加载配置文件，环境变量 HEALTHLOOP_* 覆盖文件中的值。
// configPath 为空或文件不存在时使用默认配置。
func LoadConfig(configPath string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("HEALTHLOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isNotExist(err) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验业务参数
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	switch c.Business.FirstPurchaseRule {
	case FirstPurchaseWelcomeMatch, FirstPurchaseFlag:
	default:
		return fmt.Errorf("不支持的首单规则: %q", c.Business.FirstPurchaseRule)
	}
	if c.Business.PointsPerCurrencyUnit <= 0 {
		return errors.New("points_per_currency_unit 必须大于0")
	}
	if c.Business.FirstPurchaseBonus < 0 {
		return errors.New("first_purchase_bonus 不能为负数")
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.worker_id", d.Server.WorkerID)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.database", d.Database.Database)
	v.SetDefault("database.sqlite_path", d.Database.SQLitePath)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.log_sql", d.Database.LogSQL)

	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.host", d.Redis.Host)
	v.SetDefault("redis.port", d.Redis.Port)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)

	v.SetDefault("kafka.enabled", d.Kafka.Enabled)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic.points_awarded", d.Kafka.Topic.PointsAwarded)
	v.SetDefault("kafka.topic.order_placed", d.Kafka.Topic.OrderPlaced)

	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("business.points_per_currency_unit", d.Business.PointsPerCurrencyUnit)
	v.SetDefault("business.first_purchase_bonus", d.Business.FirstPurchaseBonus)
	v.SetDefault("business.first_purchase_rule", d.Business.FirstPurchaseRule)
	v.SetDefault("business.lock_ttl_seconds", d.Business.LockTTLSeconds)
	v.SetDefault("business.max_retry_count", d.Business.MaxRetryCount)
	v.SetDefault("business.leaderboard_sync_seconds", d.Business.LeaderboardSyncSeconds)
	v.SetDefault("business.history_default_limit", d.Business.HistoryDefaultLimit)
}
