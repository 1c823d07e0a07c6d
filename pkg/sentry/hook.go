package sentry

import (
	"go.uber.org/zap/zapcore"

	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// LoggerHook 将 Error 及以上级别的日志上报到 Sentry
// 日志中的 error 字段作为异常上报，其余字符串字段作为标签
func LoggerHook(c *Client) logger.Hook {
	return logger.HookFunc(func(entry zapcore.Entry, fields []zapcore.Field) bool {
		if entry.Level < zapcore.ErrorLevel || entry.Message == "" {
			return true
		}

		tags := map[string]string{"logger": entry.LoggerName}
		var cause error
		for _, f := range fields {
			switch f.Type {
			case zapcore.ErrorType:
				if err, ok := f.Interface.(error); ok && cause == nil {
					cause = err
				}
			case zapcore.StringType:
				tags[f.Key] = f.String
			}
		}

		if cause != nil {
			c.CaptureError(&logError{msg: entry.Message, cause: cause}, tags)
		} else {
			c.CaptureMessage(entry.Message, tags)
		}
		return true
	})
}

// logError 以日志消息作为事件标题，保留原始错误链
type logError struct {
	msg   string
	cause error
}

func (e *logError) Error() string { return e.msg + ": " + e.cause.Error() }

func (e *logError) Unwrap() error { return e.cause }
