package model

import (
	"fmt"
	"strconv"
)

// Pool 抽卡频段
type Pool int

const (
	PoolStandard  Pool = 1 // 常驻频段
	PoolCharacter Pool = 2 // 独家频段
	PoolWeapon    Pool = 3 // 音擎频段
	PoolBangboo   Pool = 5 // 邦布频段
)

// Pools 固定的频段枚举，同步时按此顺序遍历
var Pools = []Pool{PoolStandard, PoolCharacter, PoolWeapon, PoolBangboo}

var poolNames = map[Pool]string{
	PoolStandard:  "standard",
	PoolCharacter: "character",
	PoolWeapon:    "weapon",
	PoolBangboo:   "bangboo",
}

var poolDisplayNames = map[Pool]string{
	PoolStandard:  "常驻频段",
	PoolCharacter: "独家频段",
	PoolWeapon:    "音擎频段",
	PoolBangboo:   "邦布频段",
}

// String 返回频段标识
func (p Pool) String() string {
	if name, ok := poolNames[p]; ok {
		return name
	}
	return "pool(" + strconv.Itoa(int(p)) + ")"
}

// DisplayName 游戏内显示名
func (p Pool) DisplayName() string {
	return poolDisplayNames[p]
}

// GachaType 远端接口的 real_gacha_type 参数
func (p Pool) GachaType() string {
	return strconv.Itoa(int(p))
}

// Valid 是否为已知频段
func (p Pool) Valid() bool {
	_, ok := poolNames[p]
	return ok
}

// ParsePool 解析频段，接受标识名或 gacha type 数字
func ParsePool(s string) (Pool, error) {
	for p, name := range poolNames {
		if name == s {
			return p, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Pool(n).Valid() {
		return Pool(n), nil
	}
	return 0, fmt.Errorf("unknown pool %q", s)
}

// MarshalText 实现 encoding.TextMarshaler，用作 JSON map key
func (p Pool) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (p *Pool) UnmarshalText(text []byte) error {
	v, err := ParsePool(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
