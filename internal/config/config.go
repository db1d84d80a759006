package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceConfig selects where the calendar export comes from. When both
// are set, URL wins.
type SourceConfig struct {
	// URL is the HTTP(S) endpoint serving the ICS export.
	URL string `yaml:"url" json:"url"`
	// Path is a local ICS file, mostly for development and tests.
	Path string `yaml:"path" json:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	// Source is where the export is fetched from.
	Source SourceConfig `yaml:"source" json:"source"`

	// Calendar is the ICS file holding the target calendar.
	Calendar string `yaml:"calendar" json:"calendar"`

	// Ledger is the CSV file recording failed creations for retry.
	Ledger string `yaml:"ledger" json:"ledger"`

	// CacheDir backs the HTTP source's conditional-request cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Refresh is a cron-style schedule for daemon mode.
	Refresh string `yaml:"refresh" json:"refresh"`

	// Listen is the address for the metrics/health endpoint in daemon mode.
	Listen string `yaml:"listen" json:"listen"`

	// BatchSize is the number of creations between pauses; <=0 disables
	// pausing.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// BatchPauseSeconds is how long to pause between batches.
	BatchPauseSeconds int `yaml:"batch_pause_seconds" json:"batch_pause_seconds"`

	// LogLevel is debug, info or error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Calendar:          "/var/lib/icsync/calendar.ics",
		Ledger:            "/var/lib/icsync/failed.csv",
		CacheDir:          "/var/lib/icsync/cache",
		Refresh:           "*/30 * * * *",
		Listen:            "127.0.0.1:9465",
		BatchSize:         10,
		BatchPauseSeconds: 2,
		LogLevel:          "info",
	}
}

// BatchPause returns the configured pause as a duration.
func (c *Config) BatchPause() time.Duration {
	return time.Duration(c.BatchPauseSeconds) * time.Second
}

// Normalize fills in missing/zero values so partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Calendar == "" {
		c.Calendar = def.Calendar
	}
	if c.Ledger == "" {
		c.Ledger = def.Ledger
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.Refresh == "" {
		c.Refresh = def.Refresh
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.BatchPauseSeconds < 0 {
		c.BatchPauseSeconds = def.BatchPauseSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// ApplyEnv overrides config fields from ICSYNC_* environment variables.
// Called after Load so the environment (including a godotenv-loaded .env)
// always wins over the file.
func (c *Config) ApplyEnv() {
	setIf := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIf(&c.Source.URL, "ICSYNC_SOURCE_URL")
	setIf(&c.Source.Path, "ICSYNC_SOURCE_PATH")
	setIf(&c.Calendar, "ICSYNC_CALENDAR")
	setIf(&c.Ledger, "ICSYNC_LEDGER")
	setIf(&c.Listen, "ICSYNC_LISTEN")
	setIf(&c.LogLevel, "ICSYNC_LOG_LEVEL")
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (parent
// directory created, 0600 perms) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icsync-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
