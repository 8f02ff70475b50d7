package mq

import (
	"fmt"

	"healthloop/internal/config"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Publisher 消息投递，OutboxSender 通过它把本地消息发到下游
type Publisher interface {
	SendMessage(topic, key, value string) error
	Close() error
}

// KafkaPublisher 基于 sarama 同步生产者
type KafkaPublisher struct {
	producer sarama.SyncProducer
}

// NewKafkaConfig 生产者配置：等待所有副本确认，返回成功消息
func NewKafkaConfig() *sarama.Config {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true
	return kafkaConfig
}

// InitKafka 创建 Kafka 生产者
func InitKafka(cfg *config.KafkaConfig, log *zap.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewKafkaConfig())
	if err != nil {
		return nil, fmt.Errorf("创建 Kafka 生产者失败: %w", err)
	}
	log.Info("Kafka 生产者创建成功", zap.Strings("brokers", cfg.Brokers))
	return NewKafkaPublisher(producer), nil
}

func NewKafkaPublisher(producer sarama.SyncProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// SendMessage 发送消息到 Kafka，key 保证同一账户/订单的消息有序
func (p *KafkaPublisher) SendMessage(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher 未启用 Kafka 时把消息写入日志，保证本地消息表不会堆积
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("log_publisher")}
}

func (p *LogPublisher) SendMessage(topic, key, value string) error {
	p.log.Info("event", zap.String("topic", topic), zap.String("key", key), zap.String("payload", value))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
