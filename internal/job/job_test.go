package job

import (
	"context"
	"testing"
	"time"

	"healthloop/internal/config"
	"healthloop/internal/infrastructure/database/dbtest"
	"healthloop/internal/infrastructure/mq"
	"healthloop/internal/model"
	"healthloop/internal/repository"
	"healthloop/internal/service"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func insertMessages(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	repo := repository.NewOutboxRepository(db)
	for i := 0; i < n; i++ {
		msg, err := model.NewOutboxMessage("healthloop.points.awarded", model.EventPointsAwarded, "acc-1",
			model.PointsAwardedEvent{AccountID: "acc-1", Points: 50})
		require.NoError(t, err)
		require.NoError(t, repo.Create(context.Background(), nil, msg))
	}
}

func statusCount(t *testing.T, db *gorm.DB, status string) int64 {
	t.Helper()
	n, err := repository.NewOutboxRepository(db).CountByStatus(context.Background(), status)
	require.NoError(t, err)
	return n
}

func TestOutboxSender_SendsPending(t *testing.T) {
	db := dbtest.New(t)
	insertMessages(t, db, 2)

	producer := mocks.NewSyncProducer(t, mq.NewKafkaConfig())
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()

	sender := NewOutboxSender(db, mq.NewKafkaPublisher(producer), config.Default(), zap.NewNop())
	assert.Equal(t, 2, sender.ProcessPending(context.Background()))

	assert.Equal(t, int64(2), statusCount(t, db, model.OutboxStatusSent))
	assert.Equal(t, int64(0), statusCount(t, db, model.OutboxStatusPending))
	require.NoError(t, producer.Close())
}

func TestOutboxSender_RetriesThenFails(t *testing.T) {
	db := dbtest.New(t)
	insertMessages(t, db, 1)

	cfg := config.Default()
	cfg.Business.MaxRetryCount = 2

	producer := mocks.NewSyncProducer(t, mq.NewKafkaConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sender := NewOutboxSender(db, mq.NewKafkaPublisher(producer), cfg, zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, 0, sender.ProcessPending(ctx))
	assert.Equal(t, int64(1), statusCount(t, db, model.OutboxStatusPending))

	assert.Equal(t, 0, sender.ProcessPending(ctx))
	assert.Equal(t, int64(1), statusCount(t, db, model.OutboxStatusFailed))

	var msg model.OutboxMessage
	require.NoError(t, db.First(&msg).Error)
	assert.Equal(t, 2, msg.RetryCount)

	n, err := sender.RequeueFailed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), statusCount(t, db, model.OutboxStatusPending))
	require.NoError(t, producer.Close())
}

func TestOutboxSender_StartStop(t *testing.T) {
	db := dbtest.New(t)
	insertMessages(t, db, 1)

	sender := NewOutboxSender(db, mq.NewLogPublisher(zap.NewNop()), config.Default(), zap.NewNop())
	sender.interval = 10 * time.Millisecond

	done := make(chan struct{})
	go func() {
		sender.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return statusCount(t, db, model.OutboxStatusSent) == 1
	}, 2*time.Second, 20*time.Millisecond)

	sender.Stop()
	sender.Stop()
	<-done
}

func TestLeaderboardSyncJob_Rebuilds(t *testing.T) {
	db := dbtest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	require.NoError(t, db.Create(&model.Account{ID: "acc-1", Email: "a@example.com", Name: "a", TotalPointsEarned: 300, Points: 300}).Error)

	board := service.NewLeaderboardService(db, rdb, zap.NewNop())
	job := NewLeaderboardSyncJob(board, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		score, err := rdb.ZScore(context.Background(), service.LeaderboardKey, "acc-1").Result()
		return err == nil && score == 300
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
