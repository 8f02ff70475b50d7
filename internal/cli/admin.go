package cli

import (
	"context"
	"fmt"

	"healthloop/internal/infrastructure/database"
	"healthloop/internal/infrastructure/mq"
	"healthloop/internal/job"
	"healthloop/internal/seed"
	"healthloop/internal/service"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(leaderboardCmd)
	leaderboardCmd.AddCommand(leaderboardRebuildCmd)
	rootCmd.AddCommand(outboxCmd)
	outboxCmd.AddCommand(outboxRequeueCmd)

	outboxRequeueCmd.Flags().Int("limit", 1000, "最多重新入队的消息数")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "迁移数据库表结构",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if err := database.Migrate(a.db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrate: ok")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "写入演示商品",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		n, err := service.NewProductService(a.db).Seed(ctxOf(cmd), seed.DemoProducts())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seed: %d products\n", n)
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "排行榜维护",
}

var leaderboardRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "从账户表重建 redis 排行榜",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if a.rdb == nil {
			return fmt.Errorf("redis 未启用，排行榜直接查库，无需重建")
		}
		n, err := service.NewLeaderboardService(a.db, a.rdb, a.log).Rebuild(ctxOf(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "leaderboard: %d accounts\n", n)
		return nil
	},
}

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "本地消息表维护",
}

var outboxRequeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "把发送失败的消息重新放回待发送队列",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		// 只改状态，不发送
		n, err := job.NewOutboxSender(a.db, mq.NewLogPublisher(a.log), a.cfg, a.log).RequeueFailed(ctxOf(cmd), limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "outbox: %d messages requeued\n", n)
		return nil
	},
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
