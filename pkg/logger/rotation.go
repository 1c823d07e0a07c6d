package logger

import (
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewRotationWriter 创建轮换 writer，仅在 EnableFile=true 时调用
func NewRotationWriter(cfg *RotationConfig, outputPath string) (io.Writer, error) {
	if cfg.Type == RotationByTime {
		return newTimeRotationWriter(cfg, outputPath)
	}
	return &lumberjack.Logger{
		Filename:   outputPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}, nil
}

func newTimeRotationWriter(cfg *RotationConfig, outputPath string) (io.Writer, error) {
	rotationTime, err := time.ParseDuration(cfg.RotationTime)
	if err != nil {
		rotationTime = 24 * time.Hour
	}

	maxAge, err := time.ParseDuration(cfg.MaxAgeTime)
	if err != nil {
		maxAge = 7 * 24 * time.Hour
	}

	pattern := outputPath + ".%Y%m%d%H"
	if cfg.RotationPattern != "" {
		pattern = outputPath + cfg.RotationPattern
	}

	return rotatelogs.New(
		pattern,
		rotatelogs.WithLinkName(outputPath),
		rotatelogs.WithRotationTime(rotationTime),
		rotatelogs.WithMaxAge(maxAge),
	)
}
