package job

import (
	"context"
	"sync"
	"time"

	"healthloop/internal/service"

	"go.uber.org/zap"
)

// LeaderboardSyncJob 定期从账户表重建排行榜，修复入账后未写入 redis 的情况
type LeaderboardSyncJob struct {
	leaderboard *service.LeaderboardService
	log         *zap.Logger
	stopCh      chan struct{}
	stopOnce    sync.Once
	interval    time.Duration
}

func NewLeaderboardSyncJob(leaderboard *service.LeaderboardService, interval time.Duration, log *zap.Logger) *LeaderboardSyncJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &LeaderboardSyncJob{
		leaderboard: leaderboard,
		log:         log.Named("leaderboard_sync"),
		stopCh:      make(chan struct{}),
		interval:    interval,
	}
}

func (j *LeaderboardSyncJob) Start(ctx context.Context) {
	j.log.Info("排行榜同步任务启动", zap.Duration("interval", j.interval))

	// 启动时先同步一次
	j.sync(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("收到停止信号，任务退出")
			return
		case <-j.stopCh:
			j.log.Info("任务停止")
			return
		case <-ticker.C:
			j.sync(ctx)
		}
	}
}

func (j *LeaderboardSyncJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

func (j *LeaderboardSyncJob) sync(ctx context.Context) {
	start := time.Now()
	n, err := j.leaderboard.Rebuild(ctx)
	if err != nil {
		j.log.Error("同步排行榜失败", zap.Error(err))
		return
	}
	j.log.Debug("排行榜同步完成", zap.Int("accounts", n), zap.Duration("cost", time.Since(start)))
}
