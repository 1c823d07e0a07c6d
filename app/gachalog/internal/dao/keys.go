package dao

import "github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"

// 存储键布局，与旧版机器人共用 ZZZ:GACHA 命名空间；全局前缀由 kv 后端追加
const (
	keyNamespace      = "ZZZ:GACHA:"
	keyCooldownSuffix = ":LASTTIME"
	keyHistoryInfix   = ":HISTORY:"
)

// CooldownKey 玩家冷却时间戳键 ZZZ:GACHA:<uid>:LASTTIME
func CooldownKey(uid string) string {
	return keyNamespace + uid + keyCooldownSuffix
}

// HistoryKey (玩家, 频段) 历史记录键 ZZZ:GACHA:<uid>:HISTORY:<gacha_type>
func HistoryKey(uid string, pool model.Pool) string {
	return keyNamespace + uid + keyHistoryInfix + pool.GachaType()
}
