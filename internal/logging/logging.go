// Package logging собирает zap-логгер из секции logging конфигурации.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/annelo/go-world-streamer/internal/config"
)

// New создает логгер. Формат console дает читаемый вывод для терминала,
// json - построчный JSON. Пустой OutputPath означает stderr.
func New(cfg config.LoggingConfig) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("уровень логирования: %w", err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "", "console":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	case "json":
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("неизвестный формат логов %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = level > zapcore.DebugLevel

	if cfg.OutputPath != "" {
		zc.OutputPaths = []string{cfg.OutputPath}
		zc.ErrorOutputPaths = []string{cfg.OutputPath}
		if cfg.Format != "json" {
			// цветные уровни в файле только мешают
			zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("сборка логгера: %w", err)
	}
	return logger.Sugar(), nil
}

// Nop возвращает логгер, который ничего не пишет
func Nop() *zap.SugaredLogger { return zap.NewNop().Sugar() }
