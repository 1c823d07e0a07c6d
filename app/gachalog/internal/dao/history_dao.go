package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/metrics"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/pkg/checksum"
	"github.com/strawxiguan/zzz-gachalog/pkg/compress"
	"github.com/strawxiguan/zzz-gachalog/pkg/database/kv"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/serializer"
)

// historyVersion 持久化格式版本
const historyVersion = 1

// ErrUnsupportedVersion 持久化格式版本不识别
var ErrUnsupportedVersion = errors.New("dao: unsupported history version")

// historyPO 持久化对象，时间以 Unix 秒存储
type historyPO struct {
	Version int        `codec:"v" json:"v"`
	Records []recordPO `codec:"r" json:"r"`
}

type recordPO struct {
	ID         string `codec:"id" json:"id"`
	OccurredAt int64  `codec:"t" json:"t"`
	ItemID     string `codec:"item" json:"item"`
	Rarity     int    `codec:"rank" json:"rank"`
	Name       string `codec:"name" json:"name"`
	ItemType   string `codec:"type" json:"type"`
	GachaID    string `codec:"gid,omitempty" json:"gid,omitempty"`
	Count      int    `codec:"n" json:"n"`
}

// HistorySnapshot 一次读取到的频段历史，用于后续 CAS 写回
type HistorySnapshot struct {
	Records model.PoolHistory
	raw     []byte
}

// Exists 键是否已存在
func (s *HistorySnapshot) Exists() bool {
	return s.raw != nil
}

// HistoryDAO 频段历史数据访问对象
// 编码：serializer -> xxhash 校验尾 -> compress.Pack
type HistoryDAO struct {
	store      kv.Store
	serializer serializer.Serializer
	compressor compress.Compressor
	hasher     checksum.Hasher
	logger     logger.Logger
	metrics    *metrics.GachaMetrics
}

// NewHistoryDAO 创建历史 DAO
func NewHistoryDAO(
	store kv.Store,
	s serializer.Serializer,
	c compress.Compressor,
	l logger.Logger,
	m *metrics.GachaMetrics,
) *HistoryDAO {
	return &HistoryDAO{
		store:      store,
		serializer: s,
		compressor: c,
		hasher:     checksum.MustNew(checksum.TypeXXHash),
		logger:     l.Named("dao.history"),
		metrics:    m,
	}
}

// Load 读取频段历史，不存在时返回空快照
func (d *HistoryDAO) Load(ctx context.Context, uid string, pool model.Pool) (snap *HistorySnapshot, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordStoreOp("get", err == nil, time.Since(start).Seconds())
	}()

	raw, err := d.store.Get(ctx, HistoryKey(uid, pool))
	if errors.Is(err, kv.ErrNotFound) {
		return &HistorySnapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	records, err := d.decode(uid, pool, raw)
	if err != nil {
		return nil, err
	}
	return &HistorySnapshot{Records: records, raw: raw}, nil
}

// Save 以 CAS 写回历史，prev 为 Load 的结果；返回 false 表示并发修改
func (d *HistoryDAO) Save(ctx context.Context, uid string, pool model.Pool, prev *HistorySnapshot, records model.PoolHistory) (ok bool, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordStoreOp("cas", err == nil, time.Since(start).Seconds())
	}()

	value, err := d.encode(records)
	if err != nil {
		return false, err
	}

	var old []byte
	if prev != nil {
		old = prev.raw
	}

	ok, err = d.store.CompareAndSwap(ctx, HistoryKey(uid, pool), old, value)
	if err != nil {
		return false, fmt.Errorf("failed to save history: %w", err)
	}
	return ok, nil
}

func (d *HistoryDAO) encode(records model.PoolHistory) ([]byte, error) {
	po := historyPO{
		Version: historyVersion,
		Records: make([]recordPO, 0, len(records)),
	}
	for _, r := range records {
		po.Records = append(po.Records, recordPO{
			ID:         r.ID,
			OccurredAt: r.OccurredAt.Unix(),
			ItemID:     r.ItemID,
			Rarity:     r.Rarity,
			Name:       r.Name,
			ItemType:   r.ItemType,
			GachaID:    r.GachaID,
			Count:      r.Count,
		})
	}

	data, err := d.serializer.Serialize(&po)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize history: %w", err)
	}
	packed, err := compress.Pack(d.compressor, checksum.Seal(d.hasher, data))
	if err != nil {
		return nil, fmt.Errorf("failed to compress history: %w", err)
	}
	return packed, nil
}

func (d *HistoryDAO) decode(uid string, pool model.Pool, raw []byte) (model.PoolHistory, error) {
	frame, err := compress.Unpack(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress history: %w", err)
	}
	data, err := checksum.Open(d.hasher, frame)
	if err != nil {
		d.logger.Error("history checksum failed", "uid", uid, "pool", pool.String(), "error", err)
		return nil, fmt.Errorf("failed to verify history: %w", err)
	}

	var po historyPO
	if err := d.serializer.Deserialize(data, &po); err != nil {
		return nil, fmt.Errorf("failed to deserialize history: %w", err)
	}
	if po.Version != historyVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, po.Version)
	}

	records := make(model.PoolHistory, 0, len(po.Records))
	for _, r := range po.Records {
		records = append(records, &model.GachaRecord{
			ID:         r.ID,
			UID:        uid,
			Pool:       pool,
			OccurredAt: time.Unix(r.OccurredAt, 0),
			ItemID:     r.ItemID,
			Rarity:     r.Rarity,
			Name:       r.Name,
			ItemType:   r.ItemType,
			GachaID:    r.GachaID,
			Count:      r.Count,
		})
	}
	return records, nil
}
