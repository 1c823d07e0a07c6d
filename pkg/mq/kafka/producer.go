package kafka

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/strawxiguan/zzz-gachalog/pkg/config"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// Message 待发送的消息
type Message struct {
	// Key 分区路由键，同一 Key 进入同一分区
	Key     []byte
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

// ProducerStats 生产统计
type ProducerStats struct {
	MessagesProduced  int64
	MessagesSucceeded int64
	MessagesFailed    int64
}

// messageWriter *kafka.Writer 的最小能力
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 单主题生产者
type Producer struct {
	topic  string
	writer messageWriter
	logger logger.Logger

	produced  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	closed atomic.Bool
}

// NewProducer 创建生产者，cfg 可只包含部分字段
func NewProducer(cfg *Config, l logger.Logger) (*Producer, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge kafka config: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	pc := merged.Producer
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(merged.Brokers...),
		Topic:                  merged.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              pc.BatchSize,
		BatchTimeout:           pc.BatchTimeout,
		MaxAttempts:            pc.MaxRetries + 1,
		WriteTimeout:           pc.WriteTimeout,
		ReadTimeout:            pc.ReadTimeout,
		RequiredAcks:           kafka.RequiredAcks(pc.RequiredAcks),
		Async:                  pc.Async,
		Compression:            parseCompression(pc.Compression),
		AllowAutoTopicCreation: true,
	}

	if merged.TLS != nil || merged.SASL != nil {
		transport, err := newTransport(merged)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka transport: %w", err)
		}
		writer.Transport = transport
	}

	return newProducer(merged.Topic, writer, l), nil
}

func newProducer(topic string, w messageWriter, l logger.Logger) *Producer {
	return &Producer{
		topic:  topic,
		writer: w,
		logger: l.Named("kafka.producer"),
	}
}

// Publish 发送消息；Async 模式下只保证进入发送缓冲
func (p *Producer) Publish(ctx context.Context, msgs ...*Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	n := int64(len(msgs))
	p.produced.Add(n)

	kms := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		kms[i] = kafka.Message{
			Key:   msg.Key,
			Value: msg.Value,
			Time:  msg.Time,
		}
		if len(msg.Headers) > 0 {
			headers := make([]kafka.Header, 0, len(msg.Headers))
			for k, v := range msg.Headers {
				headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
			}
			kms[i].Headers = headers
		}
	}

	if err := p.writer.WriteMessages(ctx, kms...); err != nil {
		p.failed.Add(n)
		return fmt.Errorf("kafka: write to %s: %w", p.topic, err)
	}
	p.succeeded.Add(n)
	return nil
}

// Topic 主题名称
func (p *Producer) Topic() string {
	return p.topic
}

// Stats 统计信息
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		MessagesProduced:  p.produced.Load(),
		MessagesSucceeded: p.succeeded.Load(),
		MessagesFailed:    p.failed.Load(),
	}
}

// Close 刷出缓冲并关闭
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.logger.Debug("producer closing", "topic", p.topic)
	return p.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}
