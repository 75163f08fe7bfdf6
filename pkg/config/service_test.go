package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTerminalConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "serial_terminal.toml")

	require.NoError(t, LoadTerminalConfig(path))
	require.NotNil(t, ActiveTerminalConfig)
	assert.Equal(t, "jacobsa", ActiveTerminalConfig.Serial.Driver)
	assert.Equal(t, uint(9600), ActiveTerminalConfig.Serial.Baudrate)
	assert.Equal(t, byte('Q'), ActiveTerminalConfig.SentinelByte())
	assert.Equal(t, 100*time.Millisecond, ActiveTerminalConfig.PollInterval())

	_, err := os.Stat(path)
	assert.NoError(t, err, "default config should be written")
}

func TestLoadTerminalConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serial_terminal.toml")
	content := `
[serial]
driver = "bugst"
baudrate = 115200

[terminal]
sentinel = "~"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	require.NoError(t, LoadTerminalConfig(path))
	cfg := ActiveTerminalConfig
	assert.Equal(t, "bugst", cfg.Serial.Driver)
	assert.Equal(t, uint(115200), cfg.Serial.Baudrate)
	assert.Equal(t, uint(8), cfg.Serial.DataBits)
	assert.Equal(t, byte('~'), cfg.SentinelByte())
	assert.Equal(t, "EXIT", cfg.Terminal.ExitMessage)
}

func TestLoadTerminalConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serial_terminal.toml")
	content := `
[serial]
driver = "bogus"

[terminal]
sentinel = "QQ"
encoding = "ebcdic"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	err := LoadTerminalConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "bogus")
	assert.Contains(t, err.Error(), "sentinel")
	assert.Contains(t, err.Error(), "ebcdic")
}

func TestLoadTerminalConfigParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serial_terminal.toml")
	require.NoError(t, os.WriteFile(path, []byte("[serial\n"), 0644))

	err := LoadTerminalConfig(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, DefaultTerminalConfig().Validate())
}

func TestValidateMirrorPort(t *testing.T) {
	cfg := DefaultTerminalConfig()
	cfg.Mirror.Enabled = true
	cfg.Mirror.ListenPort = 70000
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Mirror.ListenPort = 9040
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:9040", cfg.MirrorListener())
}

func TestSessionDbPathOverride(t *testing.T) {
	cfg := DefaultTerminalConfig()
	assert.NotEmpty(t, cfg.SessionDbPath())

	cfg.SessionLog.DbPath = "/tmp/custom.db"
	assert.Equal(t, "/tmp/custom.db", cfg.SessionDbPath())
}

func TestLoadMonitorConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serial_monitor.toml")
	require.NoError(t, os.WriteFile(path, []byte(`terminal_host = "pi.local:9040"`), 0644))

	require.NoError(t, LoadMonitorConfig(path))
	assert.Equal(t, "pi.local:9040", ActiveMonitorConfig.TerminalHost)
	assert.False(t, ActiveMonitorConfig.TLSEnabled)
}
