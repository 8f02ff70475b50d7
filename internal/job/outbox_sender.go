package job

import (
	"context"
	"sync"
	"time"

	"healthloop/internal/config"
	"healthloop/internal/infrastructure/metrics"
	"healthloop/internal/infrastructure/mq"
	"healthloop/internal/model"
	"healthloop/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OutboxSender 轮询本地消息表，把积分与订单事件投递到消息队列
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publisher  mq.Publisher
	cfg        *config.Config
	log        *zap.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, publisher mq.Publisher, cfg *config.Config, log *zap.Logger) *OutboxSender {
	return &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		publisher:  publisher,
		cfg:        cfg,
		log:        log.Named("outbox_sender"),
		stopCh:     make(chan struct{}),
		interval:   500 * time.Millisecond,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.log.Info("消息发送任务启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("收到停止信号，任务退出")
			return
		case <-s.stopCh:
			s.log.Info("任务停止")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// ProcessPending 发送一批待发送消息，返回成功条数
func (s *OutboxSender) ProcessPending(ctx context.Context) int {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		s.log.Error("查询消息失败", zap.Error(err))
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.send(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) send(ctx context.Context, msg *model.OutboxMessage) bool {
	fields := []zap.Field{
		zap.Int64("id", msg.ID),
		zap.String("topic", msg.Topic),
		zap.String("key", msg.MessageKey),
		zap.String("event_type", msg.EventType),
	}

	err := s.publisher.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		metrics.OutboxSentTotal.WithLabelValues("sent").Inc()
		if updateErr := s.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			s.log.Error("更新消息状态失败", append(fields, zap.Error(updateErr))...)
			return false
		}
		s.log.Debug("消息发送成功", fields...)
		return true
	}

	metrics.OutboxSentTotal.WithLabelValues("error").Inc()
	s.log.Warn("消息发送失败", append(fields, zap.Int("retry_count", msg.RetryCount), zap.Error(err))...)

	if msg.RetryCount+1 >= s.cfg.Business.MaxRetryCount {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			s.log.Error("标记消息失败状态失败", append(fields, zap.Error(err))...)
			return false
		}
		metrics.OutboxSentTotal.WithLabelValues("failed").Inc()
		s.log.Error("消息超过最大重试次数，标记为失败", fields...)
		return false
	}

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		s.log.Error("增加重试次数失败", append(fields, zap.Error(err))...)
	}
	return false
}

// RequeueFailed 把失败消息重新放回待发送队列，供运维命令调用
func (s *OutboxSender) RequeueFailed(ctx context.Context, limit int) (int64, error) {
	messages, err := s.outboxRepo.GetFailedMessages(ctx, limit)
	if err != nil {
		return 0, err
	}
	ids := make([]int64, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	n, err := s.outboxRepo.Requeue(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.log.Info("失败消息已重新入队", zap.Int64("count", n))
	return n, nil
}
