package service

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// 调用级错误分类，使用 errors.Is 判断
var (
	// ErrTokenUnavailable 无法获得 authkey，本次调用终止且不修改存储
	ErrTokenUnavailable = errors.New("authkey unavailable")
	// ErrMalformedInput 粘贴的链接中没有 authkey，未发起任何网络请求
	ErrMalformedInput = errors.New("malformed gacha link")
	// ErrStoreUnavailable 持久化存储不可用
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNoData 玩家没有任何已同步的频段
	ErrNoData = errors.New("no gacha data")
	// ErrNotAwaitingLink 会话不在等待链接状态
	ErrNotAwaitingLink = errors.New("conversation is not awaiting a link")
)

// CooldownActiveError 冷却中，携带剩余等待时间
type CooldownActiveError struct {
	Remaining time.Duration
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("refresh cooldown active, retry in %s", e.Remaining)
}

// RemainingSeconds 剩余秒数
func (e *CooldownActiveError) RemainingSeconds() int {
	return int(e.Remaining / time.Second)
}

// storeError 包装存储错误并标记为 ErrStoreUnavailable，保留原始原因
func storeError(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrStoreUnavailable)
}

// tokenError 包装 authkey 解析错误
func tokenError(err error, uid string) error {
	return errors.Mark(errors.Wrapf(err, "resolve authkey uid=%s", uid), ErrTokenUnavailable)
}
