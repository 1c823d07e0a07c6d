package client

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrMalformedLink 链接中没有 authkey
	ErrMalformedLink = errors.New("client: link has no authkey")
	// ErrAuthKeyNotFound 无法为玩家解析 authkey
	ErrAuthKeyNotFound = errors.New("client: authkey not found")
	// ErrAuthKeyInvalid 远端拒绝 authkey（过期或无效）
	ErrAuthKeyInvalid = errors.New("client: authkey rejected")
)

// 远端 retcode
const (
	retcodeOK             = 0
	retcodeAuthKeyTimeout = -101
	retcodeAuthKeyInvalid = -100
)

// APIError 远端返回非零 retcode
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gacha api: retcode=%d message=%s", e.Code, e.Message)
}

// Is 使 authkey 相关 retcode 匹配 ErrAuthKeyInvalid
func (e *APIError) Is(target error) bool {
	return target == ErrAuthKeyInvalid && (e.Code == retcodeAuthKeyTimeout || e.Code == retcodeAuthKeyInvalid)
}
