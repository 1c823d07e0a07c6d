package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newFileLogger(t *testing.T, cfg *Config) (*BaseLogger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	cfg.EnableFile = true
	cfg.OutputPath = path
	cfg.Format = JSONFormat
	l, err := New(cfg)
	require.NoError(t, err)
	return l, path
}

func readLog(t *testing.T, l *BaseLogger, path string) string {
	t.Helper()
	_ = l.Sync()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNew_DefaultConfig(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, InfoLevel, l.config.Level)
	assert.True(t, l.config.EnableConsole)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(&Config{EnableFile: true})
	assert.ErrorIs(t, err, ErrInvalidOutputPath)

	_, err = New(&Config{Level: "verbose"})
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestLogger_WritesKeyValues(t *testing.T) {
	l, path := newFileLogger(t, &Config{})

	l.Info("pool synced", "uid", "10001", "pool", "standard", "inserted", 3)
	l.Error("pool failed", "error", errors.New("boom"))

	out := readLog(t, l, path)
	assert.Contains(t, out, `"msg":"pool synced"`)
	assert.Contains(t, out, `"uid":"10001"`)
	assert.Contains(t, out, `"inserted":3`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestLogger_LevelFilter(t *testing.T) {
	l, path := newFileLogger(t, &Config{Level: WarnLevel})

	l.Info("hidden")
	l.Warn("visible")

	out := readLog(t, l, path)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestLogger_RedactsSensitiveKeys(t *testing.T) {
	l, path := newFileLogger(t, &Config{})

	l.Info("token resolved", "uid", "10001", "authkey", "secret-value")
	l.WithFields("token", "another-secret").Info("with fields")

	out := readLog(t, l, path)
	assert.NotContains(t, out, "secret-value")
	assert.NotContains(t, out, "another-secret")
	assert.Equal(t, 2, strings.Count(out, redacted))
}

func TestLogger_NamedAndContext(t *testing.T) {
	l, path := newFileLogger(t, &Config{})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	l.Named("sync").InfoContext(ctx, "started")

	out := readLog(t, l, path)
	assert.Contains(t, out, `"logger":"sync"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
}

func TestToZapFields(t *testing.T) {
	fields := toZapFields("a", 1, zap.String("b", "x"), 3, "ignored", "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)

	assert.Nil(t, toZapFields())
}

func TestHookedCore_DropsEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dropDebug := HookFunc(func(entry zapcore.Entry, _ []zapcore.Field) bool {
		return entry.Level > zapcore.DebugLevel
	})

	z := zap.New(NewHookedCore(core, dropDebug))
	z.Debug("dropped")
	z.Info("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NewNoop()
	l.Info("nothing")
	assert.Same(t, l, l.Named("x"))
	assert.NoError(t, l.Sync())
}

func TestDefault_Lazy(t *testing.T) {
	SetDefault(nil)
	assert.NotNil(t, Default())

	n := NewNoop()
	SetDefault(n)
	assert.Same(t, Logger(n), Default())
}
