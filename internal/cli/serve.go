package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthloop/internal/handler"
	"healthloop/internal/infrastructure/mq"
	"healthloop/internal/job"
	"healthloop/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务与后台任务",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	publisher, err := newPublisher(a)
	if err != nil {
		return err
	}
	defer publisher.Close()

	svcs := service.NewServices(a.db, a.rdb, a.cfg, a.log)

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动后台任务
	outboxSender := job.NewOutboxSender(a.db, publisher, a.cfg, a.log)
	go outboxSender.Start(ctx)

	if a.rdb != nil {
		syncJob := job.NewLeaderboardSyncJob(svcs.Leaderboard,
			time.Duration(a.cfg.Business.LeaderboardSyncSeconds)*time.Second, a.log)
		go syncJob.Start(ctx)
	}

	router := handler.SetupRouter(svcs, a.cfg, a.log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("服务启动", zap.Int("port", a.cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	}

	a.log.Info("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("服务关闭异常", zap.Error(err))
	}

	a.log.Info("服务已关闭")
	return nil
}

// newPublisher 未启用 Kafka 时事件写入日志
func newPublisher(a *app) (mq.Publisher, error) {
	if !a.cfg.Kafka.Enabled {
		return mq.NewLogPublisher(a.log), nil
	}
	return mq.InitKafka(&a.cfg.Kafka, a.log)
}
