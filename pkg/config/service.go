package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/serial_terminal/pkg/pathing"
)

var (
	ActiveTerminalConfig *TerminalConfig
	ActiveMonitorConfig  *MonitorConfig
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	// Returned alongside a usable default config when the default file could not be created.
	ErrConfigNotPersisted = errors.New("default config could not be written")
)

func DefaultTerminalConfig() *TerminalConfig {
	return &TerminalConfig{
		Serial: SerialConfig{
			Driver:        "jacobsa",
			Baudrate:      9600,
			DataBits:      8,
			StopBits:      1,
			Parity:        "none",
			ReadTimeoutMs: 100,
		},
		Terminal: TerminalOptions{
			Sentinel:       "Q",
			PollIntervalMs: 100,
			Encoding:       "ascii",
			ExitMessage:    "EXIT",
		},
		Log: LogConfig{
			Level:      "warn",
			Output:     "stderr",
			Format:     "console",
			Filename:   "serial_terminal.log",
			MaxSizeMb:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		SessionLog: SessionLogConfig{
			Enabled: false,
		},
		Mirror: MirrorConfig{
			Enabled:       false,
			ListenAddress: "127.0.0.1",
			ListenPort:    9040,
		},
	}
}

func DefaultMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		TerminalHost: "localhost:9040",
		TLSEnabled:   false,
	}
}

// LoadTerminalConfig loads the terminal config into ActiveTerminalConfig.
// An empty path means the default location in the config dir.
func LoadTerminalConfig(configPath string) error {
	if configPath == "" {
		configPath = pathing.GetTerminalConfigPath()
	}

	cfg, err := loadOrCreate(configPath, DefaultTerminalConfig())
	if cfg == nil {
		return err
	}
	if verr := cfg.Validate(); verr != nil {
		return verr
	}
	ActiveTerminalConfig = cfg
	return err
}

func LoadMonitorConfig(configPath string) error {
	if configPath == "" {
		configPath = pathing.GetMonitorConfigPath()
	}

	cfg, err := loadOrCreate(configPath, DefaultMonitorConfig())
	if cfg == nil {
		return err
	}
	ActiveMonitorConfig = cfg
	return err
}

// Decodes the file at configPath over defaults.
// Writes defaults to configPath when the file does not exist.
func loadOrCreate[T any](configPath string, defaults *T) (*T, error) {
	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeConfig(configPath, defaults); err != nil {
			return defaults, errors.Join(ErrConfigNotPersisted, err)
		}
		return defaults, nil
	}

	// Load existing config, missing keys keep their default
	if _, err := toml.DecodeFile(configPath, defaults); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	return defaults, nil
}

func writeConfig(configPath string, cfg any) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}
	cfgFile, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer cfgFile.Close()
	return toml.NewEncoder(cfgFile).Encode(cfg)
}

// Validate reports every invalid setting at once.
func (c *TerminalConfig) Validate() error {
	var errs []error
	switch c.Serial.Driver {
	case "jacobsa", "tarm", "bugst":
	default:
		errs = append(errs, fmt.Errorf("unknown serial driver %q", c.Serial.Driver))
	}
	switch c.Serial.Parity {
	case "none", "odd", "even":
	default:
		errs = append(errs, fmt.Errorf("unknown parity %q", c.Serial.Parity))
	}
	if c.Serial.Baudrate == 0 {
		errs = append(errs, errors.New("baudrate must be positive"))
	}
	if c.Serial.DataBits < 5 || c.Serial.DataBits > 8 {
		errs = append(errs, fmt.Errorf("data_bits must be 5-8, got %d", c.Serial.DataBits))
	}
	if c.Serial.StopBits != 1 && c.Serial.StopBits != 2 {
		errs = append(errs, fmt.Errorf("stop_bits must be 1 or 2, got %d", c.Serial.StopBits))
	}
	if c.Serial.ReadTimeoutMs == 0 {
		errs = append(errs, errors.New("read_timeout_ms must be positive"))
	}
	if len(c.Terminal.Sentinel) != 1 {
		errs = append(errs, fmt.Errorf("sentinel must be exactly one byte, got %q", c.Terminal.Sentinel))
	}
	if c.Terminal.PollIntervalMs == 0 {
		errs = append(errs, errors.New("poll_interval_ms must be positive"))
	}
	switch c.Terminal.Encoding {
	case "ascii", "utf-8", "latin-1":
	default:
		errs = append(errs, fmt.Errorf("unknown encoding %q", c.Terminal.Encoding))
	}
	if c.Mirror.Enabled && (c.Mirror.ListenPort <= 0 || c.Mirror.ListenPort > 65535) {
		errs = append(errs, fmt.Errorf("mirror listen_port out of range: %d", c.Mirror.ListenPort))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func (c *TerminalConfig) ReadTimeout() time.Duration {
	return time.Duration(c.Serial.ReadTimeoutMs) * time.Millisecond
}

func (c *TerminalConfig) PollInterval() time.Duration {
	return time.Duration(c.Terminal.PollIntervalMs) * time.Millisecond
}

func (c *TerminalConfig) SentinelByte() byte {
	return c.Terminal.Sentinel[0]
}

// Empty db_path resolves to the data dir.
func (c *TerminalConfig) SessionDbPath() string {
	if c.SessionLog.DbPath != "" {
		return c.SessionLog.DbPath
	}
	return pathing.GetSessionDbPath()
}

func (c *TerminalConfig) MirrorListener() string {
	return fmt.Sprintf("%s:%d", c.Mirror.ListenAddress, c.Mirror.ListenPort)
}
