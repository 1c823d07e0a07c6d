// pkg/logger/logger.go
package logger

import (
	"context"
	"fmt"
	"os"

	"github.com/strawxiguan/zzz-gachalog/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Logger = (*BaseLogger)(nil)

// BaseLogger 基于 zap 的日志记录器实现
type BaseLogger struct {
	*zap.Logger
	config           *Config
	name             string
	globalFields     map[string]interface{}
	hooks            []Hook
	contextExtractor ContextFieldExtractor
}

// New 创建新的 BaseLogger
// cfg 可以只包含部分字段，缺省部分使用 DefaultConfig
func New(cfg *Config, opts ...Option) (*BaseLogger, error) {
	mergedConfig, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	if err := mergedConfig.Validate(); err != nil {
		return nil, err
	}

	l := &BaseLogger{
		config:           mergedConfig,
		globalFields:     make(map[string]interface{}),
		hooks:            make([]Hook, 0),
		contextExtractor: DefaultContextExtractor,
	}

	for _, opt := range opts {
		opt(l)
	}

	for k, v := range mergedConfig.GlobalFields {
		l.globalFields[k] = v
	}

	// 脱敏先于其他钩子执行，外部上报钩子只能看到脱敏后的字段
	if len(mergedConfig.RedactKeys) > 0 {
		l.hooks = append([]Hook{SensitiveDataHook(mergedConfig.RedactKeys)}, l.hooks...)
	}

	zapLogger, err := l.build()
	if err != nil {
		return nil, err
	}
	l.Logger = zapLogger

	return l, nil
}

// build 构建 zap logger
func (l *BaseLogger) build() (*zap.Logger, error) {
	encoderConfig := l.buildEncoderConfig()

	var encoder zapcore.Encoder
	switch l.config.Format {
	case ConsoleFormat:
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writers := make([]zapcore.WriteSyncer, 0, 2)
	if l.config.EnableConsole {
		writers = append(writers, zapcore.AddSync(os.Stdout))
	}
	if l.config.EnableFile {
		fileWriter, err := NewRotationWriter(&l.config.Rotation, l.config.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create rotation writer: %w", err)
		}
		writers = append(writers, zapcore.AddSync(fileWriter))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(writers...), parseLevel(l.config.Level))

	if len(l.hooks) > 0 {
		core = NewHookedCore(core, l.hooks...)
	}

	if l.config.EnableSampling {
		core = zapcore.NewSamplerWithOptions(core, 1, l.config.SamplingInitial, l.config.SamplingThereafter)
	}

	options := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	}
	if l.config.EnableStacktrace {
		options = append(options, zap.AddStacktrace(parseLevel(l.config.StacktraceLevel)))
	}
	if l.config.Development {
		options = append(options, zap.Development())
	}

	zapLogger := zap.New(core, options...)

	if len(l.globalFields) > 0 {
		fields := make([]zap.Field, 0, len(l.globalFields))
		for k, v := range l.globalFields {
			fields = append(fields, zap.Any(k, v))
		}
		zapLogger = zapLogger.With(fields...)
	}

	if l.name != "" {
		zapLogger = zapLogger.Named(l.name)
	}

	return zapLogger, nil
}

func (l *BaseLogger) buildEncoderConfig() zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if l.config.TimeFormat != "" {
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(l.config.TimeFormat)
	} else {
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	// 开发模式：彩色输出
	if l.config.Development && l.config.Format == ConsoleFormat {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return cfg
}

func parseLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *BaseLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toZapFields(keysAndValues...)...)
}

func (l *BaseLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toZapFields(keysAndValues...)...)
}

func (l *BaseLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toZapFields(keysAndValues...)...)
}

func (l *BaseLogger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toZapFields(keysAndValues...)...)
}

func (l *BaseLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, l.withContext(ctx, keysAndValues)...)
}

func (l *BaseLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, l.withContext(ctx, keysAndValues)...)
}

func (l *BaseLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, l.withContext(ctx, keysAndValues)...)
}

func (l *BaseLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, l.withContext(ctx, keysAndValues)...)
}

func (l *BaseLogger) withContext(ctx context.Context, keysAndValues []interface{}) []zap.Field {
	return append(l.contextExtractor(ctx), toZapFields(keysAndValues...)...)
}

// Named 创建具名 logger，名称按 zap 规则以 "." 级联
func (l *BaseLogger) Named(name string) Logger {
	return l.clone(l.Logger.Named(name), name)
}

// WithFields 添加固定字段
func (l *BaseLogger) WithFields(keysAndValues ...interface{}) Logger {
	zapFields := toZapFields(keysAndValues...)
	if len(zapFields) == 0 {
		return l
	}
	return l.clone(l.Logger.With(zapFields...), l.name)
}

func (l *BaseLogger) clone(z *zap.Logger, name string) *BaseLogger {
	return &BaseLogger{
		Logger:           z,
		config:           l.config,
		name:             name,
		globalFields:     l.globalFields,
		hooks:            l.hooks,
		contextExtractor: l.contextExtractor,
	}
}

func (l *BaseLogger) Sync() error {
	return l.Logger.Sync()
}

// toZapFields 将 key-value 对转换为 zap.Field
// 也接受直接传入的 zap.Field；奇数个参数时丢弃最后一个
func toZapFields(keysAndValues ...interface{}) []zap.Field {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i++ {
		if f, ok := keysAndValues[i].(zap.Field); ok {
			fields = append(fields, f)
			continue
		}
		if i+1 >= len(keysAndValues) {
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			i++
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
		} else {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		}
		i++
	}
	return fields
}
