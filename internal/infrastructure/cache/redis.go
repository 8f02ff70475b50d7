package cache

import (
	"context"
	"fmt"
	"time"

	"healthloop/internal/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// InitRedis 建立 Redis 连接；未启用时返回 nil，调用方退化为单机实现
func InitRedis(cfg *config.RedisConfig, log *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		log.Info("Redis 未启用，使用进程内锁与数据库排行榜")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	log.Info("Redis 连接成功", zap.String("addr", client.Options().Addr))
	return client, nil
}
