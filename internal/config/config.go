package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"schedcheck/internal/schedule"
)

// Config is the top-level application configuration.
//
// Values come from the YAML file first; SCHEDCHECK_* environment variables
// override them.
type Config struct {
	// Timezone is the IANA zone in which dates, weekdays and hours of
	// schedules are evaluated (e.g. "Asia/Jakarta").
	Timezone string `yaml:"timezone" json:"timezone" env:"SCHEDCHECK_TIMEZONE"`

	// SourceTimezone is the zone of stored timestamps that carry no offset.
	SourceTimezone string `yaml:"source_timezone" json:"source_timezone" env:"SCHEDCHECK_SOURCE_TIMEZONE"`

	// MaxDays bounds the inclusive day span of a single schedule.
	MaxDays int `yaml:"max_days" json:"max_days" env:"SCHEDCHECK_MAX_DAYS"`

	// Intersect also flags base ranges lying strictly inside a candidate.
	Intersect bool `yaml:"intersect" json:"intersect" env:"SCHEDCHECK_INTERSECT"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" env:"SCHEDCHECK_LOG_LEVEL"`

	// Recheck is a standard 5-field cron expression for the watch command.
	Recheck string `yaml:"recheck" json:"recheck" env:"SCHEDCHECK_RECHECK"`

	// Schedules is the path of the schedule records file (YAML or JSON).
	Schedules string `yaml:"schedules" json:"schedules" env:"SCHEDCHECK_SCHEDULES"`

	// ICSCache is the directory for cached base calendars fetched over HTTP.
	ICSCache string `yaml:"ics_cache" json:"ics_cache" env:"SCHEDCHECK_ICS_CACHE"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:       "UTC",
		SourceTimezone: "UTC",
		MaxDays:        schedule.DefaultMaxDays,
		Intersect:      false,
		LogLevel:       "info",
		Recheck:        "*/15 * * * *",
		Schedules:      "schedules.yaml",
		ICSCache:       "./var/ics-cache",
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.SourceTimezone == "" {
		c.SourceTimezone = d.SourceTimezone
	}
	if c.MaxDays <= 0 {
		c.MaxDays = d.MaxDays
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Recheck == "" {
		c.Recheck = d.Recheck
	}
	if c.Schedules == "" {
		c.Schedules = d.Schedules
	}
	if c.ICSCache == "" {
		c.ICSCache = d.ICSCache
	}
}

// Validate checks values that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	if _, err := time.LoadLocation(c.SourceTimezone); err != nil {
		return fmt.Errorf("config: source_timezone %q: %w", c.SourceTimezone, err)
	}
	if _, err := cron.ParseStandard(c.Recheck); err != nil {
		return fmt.Errorf("config: recheck %q: %w", c.Recheck, err)
	}
	return nil
}

// Location returns the evaluation zone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SourceLocation returns the zone for offset-less stored timestamps.
func (c *Config) SourceLocation() *time.Location {
	loc, err := time.LoadLocation(c.SourceTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ExpandConfig derives the expansion settings.
func (c *Config) ExpandConfig() schedule.ExpandConfig {
	return schedule.ExpandConfig{Location: c.Location(), MaxDays: c.MaxDays}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise YAML is read, environment overrides are applied, defaults
//     are normalized and the result validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
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

	tmp, err := os.CreateTemp(dir, ".schedcheck-config-*.tmp")
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

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
