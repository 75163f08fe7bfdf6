// Diagnostics logging. Stdout belongs to device output, so nothing here ever writes to it.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/NotCoffee418/serial_terminal/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init builds the process logger. Log files are placed in logDir.
func Init(cfg config.LogConfig, logDir string) error {
	core, err := newCore(cfg, logDir)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	logger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return nil
}

func newCore(cfg config.LogConfig, logDir string) (zapcore.Core, error) {
	level := parseLevel(cfg.Level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if cfg.Output == "stderr" || cfg.Output == "both" {
		consoleConfig := encoderConfig
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format, consoleConfig), zapcore.Lock(os.Stderr), level))
	}

	if cfg.Output == "file" || cfg.Output == "both" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		// Rotation handled by lumberjack
		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, cfg.Filename),
			MaxSize:    cfg.MaxSizeMb,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format, encoderConfig), zapcore.AddSync(fileWriter), level))
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}
	return zapcore.NewTee(cores...), nil
}

func newEncoder(format string, encoderConfig zapcore.EncoderConfig) zapcore.Encoder {
	if format == "json" {
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func parseLevel(levelStr string) zapcore.Level {
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Get returns the process logger, a no-op logger before Init.
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Set replaces the process logger. Mostly useful in tests.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func Sync() {
	// Syncing stderr fails on some platforms, nothing useful to do about it.
	_ = Get().Sync()
}
