package model

import "time"

// SyncResult 一次同步的汇总结果
type SyncResult struct {
	UID string `json:"uid"`
	// DeltaRecords 本次新增的记录（升序）
	DeltaRecords map[Pool][]*GachaRecord `json:"delta_records"`
	// InsertedCount 每个频段新增条数，成功频段即使为 0 也存在
	InsertedCount map[Pool]int `json:"inserted_count"`
	// TotalCount 合并后的总条数
	TotalCount map[Pool]int `json:"total_count"`
	// FailedPools 拉取失败的频段及原因
	FailedPools map[Pool]error `json:"-"`
	// TruncatedPools 达到翻页上限被截断的频段
	TruncatedPools []Pool `json:"truncated_pools,omitempty"`
	// UnmergedPools 拉取成功但因存储故障未落库的频段，下次刷新会重新拉取
	UnmergedPools []Pool        `json:"unmerged_pools,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// NewSyncResult 创建空结果
func NewSyncResult(uid string) *SyncResult {
	return &SyncResult{
		UID:           uid,
		DeltaRecords:  make(map[Pool][]*GachaRecord),
		InsertedCount: make(map[Pool]int),
		TotalCount:    make(map[Pool]int),
		FailedPools:   make(map[Pool]error),
	}
}

// Inserted 新增总数
func (r *SyncResult) Inserted() int {
	n := 0
	for _, c := range r.InsertedCount {
		n += c
	}
	return n
}

// Failed 失败频段（按枚举顺序）
func (r *SyncResult) Failed() []Pool {
	var pools []Pool
	for _, p := range Pools {
		if _, ok := r.FailedPools[p]; ok {
			pools = append(pools, p)
		}
	}
	return pools
}

// TopPull 一次最高稀有度出货
type TopPull struct {
	Name       string    `json:"name"`
	ItemID     string    `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Pity       int       `json:"pity"` // 距上一次出货的抽数（含本次）
}

// PoolStats 单个频段统计
type PoolStats struct {
	Pool         Pool        `json:"pool"`
	Total        int         `json:"total"`
	RarityCounts map[int]int `json:"rarity_counts"`
	SinceLastTop int         `json:"since_last_top"`
	TopPulls     []TopPull   `json:"top_pulls"`
}

// Analysis 玩家抽卡统计
type Analysis struct {
	UID   string              `json:"uid"`
	Pools map[Pool]*PoolStats `json:"pools"`
}
