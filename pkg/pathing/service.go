package pathing

import (
	"os"
	"path/filepath"
)

const appDirName = "serial_terminal"

// EnsureDirectories creates the config and data directories if they don't exist yet.
func EnsureDirectories() error {
	// Directories that must exist:
	dirs := []string{
		GetConfigDir(),
		GetDataDir(),
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}
	return nil
}

func GetTerminalConfigPath() string {
	return filepath.Join(GetConfigDir(), "serial_terminal.toml")
}

func GetMonitorConfigPath() string {
	return filepath.Join(GetConfigDir(), "serial_monitor.toml")
}

func GetSessionDbPath() string {
	return filepath.Join(GetDataDir(), "sessions.db")
}

func GetLogDir() string {
	return filepath.Join(GetDataDir(), "logs")
}

// Falls back to the working directory when the user has no config dir (eg. no $HOME).
func GetConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", appDirName)
	}
	return filepath.Join(base, appDirName)
}

func GetDataDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", appDirName, "data")
	}
	return filepath.Join(base, appDirName)
}
