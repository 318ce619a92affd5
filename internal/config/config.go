// Package config handles daemon configuration loading and parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that unmarshals from human-readable strings
// like "150ms", "5s", "1m", or from integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '150ms', '5s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for aurapaneld.
// Loaded from ~/.config/aurapanel/aurapaneld.toml
type DaemonConfig struct {
	UI      UIConfig      `toml:"ui"`
	Control ControlConfig `toml:"control"`
	IPC     IPCConfig     `toml:"ipc"`
	Widgets WidgetsConfig `toml:"widgets"`
	Display DisplayConfig `toml:"display"`
	Hover   HoverConfig   `toml:"hover"`
	Store   StoreConfig   `toml:"store"`
	Log     LogConfig     `toml:"log"`
}

// UIConfig locates the coordinator bundle.
type UIConfig struct {
	URL      string `toml:"url"`       // Coordinator origin, children load it with role parameters
	HideSelf bool   `toml:"hide_self"` // Hide the coordinator surface once children exist
}

// ControlConfig configures the child command channel.
type ControlConfig struct {
	Addr string `toml:"addr"` // Loopback listen address, empty for ephemeral
}

// IPCConfig configures the external event socket.
type IPCConfig struct {
	Socket string `toml:"socket"`
}

// WidgetsConfig locates widget manifests.
type WidgetsConfig struct {
	Dir       string `toml:"dir"`
	HotReload bool   `toml:"hot_reload"`
}

// DisplayConfig tunes monitor handling.
type DisplayConfig struct {
	Coalesce Duration `toml:"coalesce"` // Topology notification coalescing window
}

// HoverConfig tunes trigger tracking.
type HoverConfig struct {
	PollInterval Duration `toml:"poll_interval"`
	CloseDelay   Duration `toml:"close_delay"`
}

// StoreConfig locates the widget key-value store.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LogConfig controls daemon logging.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DefaultDaemonConfig returns the documented defaults.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		UI: UIConfig{
			URL:      "http://localhost:1420/",
			HideSelf: true,
		},
		Control: ControlConfig{
			Addr: "127.0.0.1:4917",
		},
		IPC: IPCConfig{
			Socket: "/tmp/aurapanel.sock",
		},
		Widgets: WidgetsConfig{
			Dir:       filepath.Join(ConfigDir(), "widgets"),
			HotReload: true,
		},
		Display: DisplayConfig{
			Coalesce: Duration(150 * time.Millisecond),
		},
		Hover: HoverConfig{
			PollInterval: Duration(50 * time.Millisecond),
			CloseDelay:   Duration(150 * time.Millisecond),
		},
		Store: StoreConfig{
			Path: filepath.Join(ConfigDir(), "store.json"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the aurapanel configuration directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "aurapanel")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aurapanel"
	}
	return filepath.Join(home, ".config", "aurapanel")
}

// ConfigPath returns the daemon config file location.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "aurapaneld.toml")
}

// LoadDaemonConfig loads the config at path, falling back to ConfigPath.
// A missing file yields the defaults.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultDaemonConfig()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks constraints a typo would otherwise smuggle past loading.
func (c *DaemonConfig) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.UI.URL == "" {
		return fmt.Errorf("ui.url must not be empty")
	}
	if c.Display.Coalesce < 0 {
		return fmt.Errorf("display.coalesce must not be negative")
	}
	if c.Hover.PollInterval.Duration() <= 0 {
		return fmt.Errorf("hover.poll_interval must be positive")
	}
	return nil
}

// LogLevel translates the configured level for slog.
func (c *DaemonConfig) LogLevel() string {
	if c.Log.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Log.Level)
}
