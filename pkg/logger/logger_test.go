package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NotCoffee418/serial_terminal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestInitFileOutput(t *testing.T) {
	defer Set(zap.NewNop())

	dir := t.TempDir()
	cfg := config.DefaultTerminalConfig().Log
	cfg.Output = "file"
	cfg.Format = "json"
	cfg.Level = "info"

	require.NoError(t, Init(cfg, dir))
	Get().Info("connected", zap.String("port", "/dev/ttyUSB0"))
	Get().Debug("hidden")
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, cfg.Filename))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"connected"`)
	assert.Contains(t, string(data), `"port":"/dev/ttyUSB0"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestInitUnknownOutput(t *testing.T) {
	cfg := config.DefaultTerminalConfig().Log
	cfg.Output = "stdout"
	assert.Error(t, Init(cfg, t.TempDir()))
}

func TestGetBeforeInitIsUsable(t *testing.T) {
	assert.NotNil(t, Get())
	Get().Info("nobody listens")
}
