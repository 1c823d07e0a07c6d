package model

import (
	"sort"
	"time"
)

// RarityTop 最高稀有度（S 级）
const RarityTop = 4

// GachaRecord 一次抽卡记录，身份为 (Pool, ID)，入库后不可变
// Rarity 取自 rank_type：2=B 3=A 4=S
type GachaRecord struct {
	ID         string    `json:"id"`          // 远端唯一 ID（数字串）
	UID        string    `json:"uid"`         // 玩家
	Pool       Pool      `json:"pool"`        // 频段
	OccurredAt time.Time `json:"occurred_at"` // 抽取时间
	ItemID     string    `json:"item_id"`
	Rarity     int       `json:"rarity"`
	Name       string    `json:"name"`
	ItemType   string    `json:"item_type"`
	GachaID    string    `json:"gacha_id,omitempty"`
	Count      int       `json:"count"`
}

// Before 规范顺序：先按时间，同一时间按 ID 数值
func (r *GachaRecord) Before(o *GachaRecord) bool {
	if !r.OccurredAt.Equal(o.OccurredAt) {
		return r.OccurredAt.Before(o.OccurredAt)
	}
	return CompareID(r.ID, o.ID) < 0
}

// CompareID 比较两个数字串 ID，先比长度再比字典序
func CompareID(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// PoolHistory 单个 (玩家, 频段) 的记录，按时间升序
type PoolHistory []*GachaRecord

// Sorted 是否满足升序
func (h PoolHistory) Sorted() bool {
	return sort.SliceIsSorted(h, func(i, j int) bool { return h[i].Before(h[j]) })
}

// Latest 最新一条记录，空历史返回 nil
func (h PoolHistory) Latest() *GachaRecord {
	if len(h) == 0 {
		return nil
	}
	return h[len(h)-1]
}
