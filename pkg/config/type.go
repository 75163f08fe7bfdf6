package config

type TerminalConfig struct {
	Serial     SerialConfig     `toml:"serial"`
	Terminal   TerminalOptions  `toml:"terminal"`
	Log        LogConfig        `toml:"log"`
	SessionLog SessionLogConfig `toml:"session_log"`
	Mirror     MirrorConfig     `toml:"mirror"`
}

type SerialConfig struct {
	// One of `jacobsa`, `tarm` or `bugst`
	Driver   string `toml:"driver"`
	Baudrate uint   `toml:"baudrate"`
	DataBits uint   `toml:"data_bits"`
	StopBits uint   `toml:"stop_bits"`
	// One of `none`, `odd` or `even`
	Parity        string `toml:"parity"`
	ReadTimeoutMs uint   `toml:"read_timeout_ms"`
}

type TerminalOptions struct {
	// Single character that ends the session. Never sent to the device.
	Sentinel       string `toml:"sentinel"`
	PollIntervalMs uint   `toml:"poll_interval_ms"`
	// One of `ascii`, `utf-8` or `latin-1`
	Encoding    string `toml:"encoding"`
	ExitMessage string `toml:"exit_message"`
}

type LogConfig struct {
	Level string `toml:"level"`
	// One of `stderr`, `file` or `both`
	Output string `toml:"output"`
	// One of `console` or `json`
	Format     string `toml:"format"`
	Filename   string `toml:"filename"`
	MaxSizeMb  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type SessionLogConfig struct {
	Enabled bool `toml:"enabled"`
	// Empty means the default location in the data dir
	DbPath string `toml:"db_path"`
}

type MirrorConfig struct {
	Enabled       bool   `toml:"enabled"`
	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`
}

type MonitorConfig struct {
	TerminalHost string `toml:"terminal_host"`
	TLSEnabled   bool   `toml:"tls_enabled"`
}
