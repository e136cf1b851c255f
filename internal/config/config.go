// Package config loads the board application's YAML configuration.
//
// The file path comes from the --config flag, then the BOARD_CONFIG
// environment variable, then ~/.config/board/config.yaml. A missing file at
// the default location is not an error: defaults apply.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable holding the config path.
const EnvConfig = "BOARD_CONFIG"

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongo    = "mongodb"
)

// Config is the root configuration.
type Config struct {
	// DataDir holds the SQLite file and uploaded attachments.
	DataDir string `yaml:"data_dir"`

	Storage StorageConfig `yaml:"storage"`
	Canvas  CanvasConfig  `yaml:"canvas"`
	Sync    SyncConfig    `yaml:"sync"`
}

// StorageConfig selects and addresses the backing store.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite file. Relative paths resolve against DataDir.
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	// PasswordEnv names the environment variable holding the password.
	PasswordEnv string `yaml:"password_env"`
	SSLMode     string `yaml:"ssl_mode"`
	// URI is a full MongoDB connection string; it wins over Host/Port.
	URI string `yaml:"uri"`
}

// Password reads the password from the configured environment variable.
func (s StorageConfig) Password() string {
	if s.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(s.PasswordEnv)
}

// CanvasConfig tunes the interaction engine.
type CanvasConfig struct {
	DragThreshold float64  `yaml:"drag_threshold"`
	EraseRadius   float64  `yaml:"erase_radius"`
	ViewSaveDelay Duration `yaml:"view_save_delay"`
	HistoryDepth  int      `yaml:"history_depth"`
	FrameRate     int      `yaml:"frame_rate"`
	NoticeTTL     Duration `yaml:"notice_ttl"`
}

// FrameInterval is the period of the host frame loop.
func (c CanvasConfig) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FrameRate)
}

// SyncConfig controls reloading from storage.
type SyncConfig struct {
	// Watch reloads the open board when another process writes the SQLite file.
	Watch bool `yaml:"watch"`
	// ResyncSchedule is a cron expression; empty disables periodic resync.
	ResyncSchedule string `yaml:"resync_schedule"`
}

// Duration is a time.Duration written as "160ms", "4s" and so on.
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(homeDir, ".local", "share", "board"),
		Storage: StorageConfig{
			Driver:  DriverSQLite,
			Path:    "board.db",
			SSLMode: "disable",
		},
		Canvas: CanvasConfig{
			DragThreshold: 10,
			EraseRadius:   12,
			ViewSaveDelay: Duration(160 * time.Millisecond),
			HistoryDepth:  10,
			FrameRate:     60,
			NoticeTTL:     Duration(4 * time.Second),
		},
		Sync: SyncConfig{
			Watch:          true,
			ResyncSchedule: "@every 5m",
		},
	}
}

// DefaultPath returns ~/.config/board/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		dir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(dir, "board", "config.yaml")
}

// Resolve picks the config path: flag, then BOARD_CONFIG, then the default.
// explicit reports whether the path was asked for, in which case it must exist.
func Resolve(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, true
	}
	return DefaultPath(), false
}

// Load resolves the path from flagPath and loads it.
func Load(flagPath string) (*Config, error) {
	path, explicit := Resolve(flagPath)
	cfg, err := LoadFile(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.normalize()
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// LoadFile loads path over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.DataDir = expandHome(c.DataDir)
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.Driver == DriverSQLite {
		p := expandHome(c.Storage.Path)
		if p == "" {
			p = "board.db"
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.DataDir, p)
		}
		c.Storage.Path = p
	} else {
		// Only a local file can be watched.
		c.Sync.Watch = false
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, strings.TrimPrefix(p, "~"))
	}
	return p
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverMySQL, DriverPostgres:
		if c.Storage.Host == "" {
			errs = append(errs, fmt.Errorf("storage.host is required for %s", c.Storage.Driver))
		}
		if c.Storage.Database == "" {
			errs = append(errs, fmt.Errorf("storage.database is required for %s", c.Storage.Driver))
		}
	case DriverMongo:
		if c.Storage.URI == "" && c.Storage.Host == "" {
			errs = append(errs, errors.New("storage.uri or storage.host is required for mongodb"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Storage.Port < 0 || c.Storage.Port > 65535 {
		errs = append(errs, fmt.Errorf("storage.port out of range: %d", c.Storage.Port))
	}

	if c.Canvas.DragThreshold < 0 {
		errs = append(errs, errors.New("canvas.drag_threshold must not be negative"))
	}
	if c.Canvas.EraseRadius <= 0 {
		errs = append(errs, errors.New("canvas.erase_radius must be positive"))
	}
	if c.Canvas.ViewSaveDelay < 0 || c.Canvas.NoticeTTL < 0 {
		errs = append(errs, errors.New("canvas durations must not be negative"))
	}
	if c.Canvas.HistoryDepth < 1 {
		errs = append(errs, errors.New("canvas.history_depth must be at least 1"))
	}
	if c.Canvas.FrameRate < 1 || c.Canvas.FrameRate > 240 {
		errs = append(errs, fmt.Errorf("canvas.frame_rate out of range: %d", c.Canvas.FrameRate))
	}

	return errors.Join(errs...)
}
