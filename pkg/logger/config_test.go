package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.EnableConsole = false
	assert.ErrorIs(t, cfg.Validate(), ErrNoOutputEnabled)

	cfg.EnableFile = true
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidOutputPath)

	cfg.OutputPath = "/tmp/x.log"
	cfg.Level = "trace"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidLevel)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel(DebugLevel).String())
	assert.Equal(t, "warn", parseLevel(WarnLevel).String())
	assert.Equal(t, "error", parseLevel(ErrorLevel).String())
	assert.Equal(t, "info", parseLevel("unknown").String())
}
