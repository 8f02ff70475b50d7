// Package cli healthloop 命令行入口
package cli

import (
	"fmt"

	"healthloop/internal/config"
	"healthloop/internal/infrastructure/cache"
	"healthloop/internal/infrastructure/database"
	"healthloop/internal/infrastructure/logger"
	"healthloop/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "healthloop",
	Short: "HealthLoop points and order accounting service",
	Long: `HealthLoop 积分与订单服务。
不带子命令运行时等同于 healthloop serve。`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "配置文件路径")
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

// app 各命令共用的基础设施
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
	rdb *redis.Client
}

func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	// 初始化 ID 生成器
	if err := idgen.Init(cfg.Server.WorkerID); err != nil {
		return nil, fmt.Errorf("初始化 ID 生成器失败: %w", err)
	}

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		return nil, err
	}

	rdb, err := cache.InitRedis(&cfg.Redis, log)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db, rdb: rdb}, nil
}

func (a *app) close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}
