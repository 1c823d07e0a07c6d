package otel

import (
	"context"

	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Tracer 获取全局 Tracer，New 之前调用得到的是 noop 实现的委托
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// EndSpan 记录错误并结束 span
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// LogExtractor 在 next 的基础上附加 trace_id 与 span_id 日志字段
func LogExtractor(next logger.ContextFieldExtractor) logger.ContextFieldExtractor {
	return func(ctx context.Context) []zap.Field {
		var fields []zap.Field
		if next != nil {
			fields = next(ctx)
		}
		if ctx == nil {
			return fields
		}
		sc := trace.SpanContextFromContext(ctx)
		if !sc.IsValid() {
			return fields
		}
		return append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
}
