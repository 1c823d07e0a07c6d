package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取字段的函数类型
type ContextFieldExtractor func(ctx context.Context) []zap.Field

// DefaultContextExtractor 默认提取器，只提取请求 ID
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	if id := RequestIDFromContext(ctx); id != "" {
		return []zap.Field{zap.String("request_id", id)}
	}
	return nil
}

type requestIDKey struct{}

// ContextWithRequestID 在 context 中写入请求 ID
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext 读取请求 ID，不存在时返回空串
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
