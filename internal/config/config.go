package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds rkhl configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Delays  DelayConfig   `toml:"delays"`
	Log     LogConfig     `toml:"log"`
	User    UserConfig    `toml:"user"`
}

// ServerConfig controls the HTTP dashboard.
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigin  string   `toml:"cors_origin"`
	SessionTTL  Duration `toml:"session_ttl"`
	MaxSessions int      `toml:"max_sessions"`
}

// StorageConfig selects the sqlite file and the override dataset.
type StorageConfig struct {
	DB      string `toml:"db"`      // "" 或 ":memory:" 使用内存库
	Dataset string `toml:"dataset"` // 覆盖数据集 TOML 文件
}

// DelayConfig holds the simulated latency of each lookup.
type DelayConfig struct {
	Scale    float64  `toml:"scale"` // 0 关闭模拟延迟
	Navigate Duration `toml:"navigate"`
	Search   Duration `toml:"search"`
	Overlay  Duration `toml:"overlay"`
	Query    Duration `toml:"query"`
	Detail   Duration `toml:"detail"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// UserConfig is the signed-in officer shown in the header.
type UserConfig struct {
	Name       string `toml:"name" json:"name"`
	Rank       string `toml:"rank" json:"rank"`
	Department string `toml:"department" json:"department"`
	AvatarURL  string `toml:"avatar_url" json:"avatarUrl,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigin:  "*",
			SessionTTL:  Duration(30 * time.Minute),
			MaxSessions: 1000,
		},
		Storage: StorageConfig{DB: ":memory:"},
		Delays: DelayConfig{
			Scale:    1,
			Navigate: Duration(800 * time.Millisecond),
			Search:   Duration(1500 * time.Millisecond),
			Overlay:  Duration(1200 * time.Millisecond),
			Query:    Duration(1500 * time.Millisecond),
			Detail:   Duration(1000 * time.Millisecond),
		},
		Log: LogConfig{Level: "info"},
		User: UserConfig{
			Name:       "张伟",
			Rank:       "二级警督",
			Department: "治安支队",
		},
	}
}

// ConfigDir returns the rkhl config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "rkhl")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file if it exists, then applies .env and RKHL_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("RKHL_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("RKHL_CORS_ORIGIN"); v != "" {
		c.Server.CORSOrigin = v
	}
	if v := os.Getenv("RKHL_DB"); v != "" {
		c.Storage.DB = v
	}
	if v := os.Getenv("RKHL_DATASET"); v != "" {
		c.Storage.Dataset = v
	}
	if v := os.Getenv("RKHL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RKHL_DELAY_SCALE"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RKHL_DELAY_SCALE: %w", err)
		}
		c.Delays.Scale = scale
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.Delays.Scale < 0 {
		return fmt.Errorf("delay scale must not be negative, got %v", c.Delays.Scale)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", c.Server.MaxSessions)
	}
	return nil
}

// Scaled applies the delay scale to d.
func (d DelayConfig) Scaled(v Duration) time.Duration {
	return time.Duration(float64(v) * d.Scale)
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
// It reports whether a file was written.
func EnsureExists(path string) (bool, error) {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil // already exists
	}
	return true, Save(path, Default())
}
