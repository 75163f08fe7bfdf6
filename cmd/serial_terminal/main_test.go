package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingPortIsUsageError(t *testing.T) {
	assert.Equal(t, exitUsage, run(nil))
}

func TestTooManyPortsIsUsageError(t *testing.T) {
	assert.Equal(t, exitUsage, run([]string{"/dev/ttyUSB0", "/dev/ttyUSB1"}))
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	assert.Equal(t, exitUsage, run([]string{"-baud", "9600", "/dev/ttyUSB0"}))
}

func TestHelpExitsCleanly(t *testing.T) {
	assert.Equal(t, 0, run([]string{"-h"}))
}

func TestUnopenablePortIsFatal(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "serial_terminal.toml")
	assert.Equal(t, exitFatal, run([]string{"-config", configPath, "/dev/serial_terminal_does_not_exist"}))
	assert.FileExists(t, configPath)
}
