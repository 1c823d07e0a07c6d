package event

import (
	"context"
	"time"

	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/mq/kafka"
	"github.com/strawxiguan/zzz-gachalog/pkg/serializer"
)

// TypeSynced 同步完成事件
const TypeSynced = "gacha.synced"

// PoolSummary 单个频段的同步摘要
type PoolSummary struct {
	Pool      model.Pool `json:"pool"`
	Inserted  int        `json:"inserted"`
	Total     int        `json:"total"`
	Truncated bool       `json:"truncated,omitempty"`
	Failed    bool       `json:"failed,omitempty"`
	Unmerged  bool       `json:"unmerged,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// SyncedEvent 一次成功同步的通知，不含记录明细
type SyncedEvent struct {
	Type       string        `json:"type"`
	UID        string        `json:"uid"`
	Inserted   int           `json:"inserted"`
	Pools      []PoolSummary `json:"pools"`
	SyncedAt   time.Time     `json:"synced_at"`
	DurationMS int64         `json:"duration_ms"`
}

// NewSyncedEvent 由同步结果生成事件
func NewSyncedEvent(res *model.SyncResult, at time.Time) *SyncedEvent {
	truncated := make(map[model.Pool]bool, len(res.TruncatedPools))
	for _, p := range res.TruncatedPools {
		truncated[p] = true
	}
	unmerged := make(map[model.Pool]bool, len(res.UnmergedPools))
	for _, p := range res.UnmergedPools {
		unmerged[p] = true
	}

	ev := &SyncedEvent{
		Type:       TypeSynced,
		UID:        res.UID,
		Inserted:   res.Inserted(),
		SyncedAt:   at,
		DurationMS: res.Duration.Milliseconds(),
	}
	for _, p := range model.Pools {
		s := PoolSummary{
			Pool:      p,
			Inserted:  res.InsertedCount[p],
			Total:     res.TotalCount[p],
			Truncated: truncated[p],
			Unmerged:  unmerged[p],
		}
		if err, ok := res.FailedPools[p]; ok {
			s.Failed = true
			s.Error = err.Error()
		}
		ev.Pools = append(ev.Pools, s)
	}
	return ev
}

// Publisher 同步事件发布
type Publisher interface {
	PublishSynced(ctx context.Context, res *model.SyncResult) error
}

// NoopPublisher 不发布任何事件
type NoopPublisher struct{}

func (NoopPublisher) PublishSynced(context.Context, *model.SyncResult) error { return nil }

// messageProducer *kafka.Producer 的最小能力
type messageProducer interface {
	Publish(ctx context.Context, msgs ...*kafka.Message) error
}

var _ messageProducer = (*kafka.Producer)(nil)

// KafkaPublisher 以 uid 为分区键写入 Kafka，同一玩家的事件有序
type KafkaPublisher struct {
	producer   messageProducer
	serializer serializer.Serializer
	logger     logger.Logger
	now        func() time.Time
}

// NewKafkaPublisher 创建发布器，事件体为 JSON
func NewKafkaPublisher(p *kafka.Producer, l logger.Logger) *KafkaPublisher {
	return newKafkaPublisher(p, l)
}

func newKafkaPublisher(p messageProducer, l logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer:   p,
		serializer: serializer.NewJSON(),
		logger:     l.Named("event.kafka"),
		now:        time.Now,
	}
}

func (k *KafkaPublisher) PublishSynced(ctx context.Context, res *model.SyncResult) error {
	ev := NewSyncedEvent(res, k.now())
	body, err := k.serializer.Serialize(ev)
	if err != nil {
		return err
	}

	return k.producer.Publish(ctx, &kafka.Message{
		Key:   []byte(res.UID),
		Value: body,
		Time:  ev.SyncedAt,
		Headers: map[string]string{
			"type":         TypeSynced,
			"content-type": "application/json",
		},
	})
}
