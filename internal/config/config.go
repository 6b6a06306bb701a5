// Package config loads timeclock settings from an optional env file, the
// environment and command-line flags using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds runtime settings. Keys are environment-style names.
type Config struct {
	// DBPath is the SQLite file, or ":memory:".
	DBPath string `mapstructure:"TIMECLOCK_DB"`
	// TimeZone names the location used for shift dates and weekdays.
	TimeZone string `mapstructure:"TIMECLOCK_TZ"`

	// Employee is the default employee for clock commands on this device.
	Employee string `mapstructure:"TIMECLOCK_EMPLOYEE"`

	DeviceID       string `mapstructure:"DEVICE_ID"`
	DeviceLocation string `mapstructure:"DEVICE_LOCATION"`

	// KafkaBrokers is a comma-separated broker list. Empty disables remote sync.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	HeartbeatTimeout      time.Duration `mapstructure:"HEARTBEAT_TIMEOUT"`
	MaxSessionDuration    time.Duration `mapstructure:"MAX_SESSION_DURATION"`
	OvertimeCheckInterval time.Duration `mapstructure:"OVERTIME_CHECK_INTERVAL"`
	ReconcileInterval     time.Duration `mapstructure:"RECONCILE_INTERVAL"`
	DisplayTick           time.Duration `mapstructure:"DISPLAY_TICK"`
	SyncDebounce          time.Duration `mapstructure:"SYNC_DEBOUNCE"`

	StandardWorkdayMinutes int `mapstructure:"STANDARD_WORKDAY_MINUTES"`

	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogUseCases bool   `mapstructure:"LOG_USE_CASES"`
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"db":       "TIMECLOCK_DB",
	"employee": "TIMECLOCK_EMPLOYEE",
	"device":   "DEVICE_ID",
	"location": "DEVICE_LOCATION",
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("db", "", "SQLite database path (env TIMECLOCK_DB)")
	fs.StringP("employee", "e", "", "employee id for clock commands (env TIMECLOCK_EMPLOYEE)")
	fs.String("device", "", "device identifier recorded on clock actions (env DEVICE_ID)")
	fs.String("location", "", "device location recorded on clock actions (env DEVICE_LOCATION)")
}

// Load reads the env file named by TIMECLOCK_CONFIG (default ./timeclock.env) if
// present, then the environment, then any flags in fs that were set explicitly.
// fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	file := os.Getenv("TIMECLOCK_CONFIG")
	if file == "" {
		file = "timeclock.env"
	}
	v.SetConfigFile(file)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && os.Getenv("TIMECLOCK_CONFIG") != "" {
		return nil, fmt.Errorf("config: reading %s: %w", file, err)
	}

	v.AutomaticEnv()

	v.SetDefault("TIMECLOCK_DB", defaultDBPath())
	v.SetDefault("TIMECLOCK_TZ", "Local")
	v.SetDefault("TIMECLOCK_EMPLOYEE", "")
	v.SetDefault("DEVICE_ID", "")
	v.SetDefault("DEVICE_LOCATION", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "timeclock-sessions")
	v.SetDefault("KAFKA_GROUP_ID", "timeclock-sync")
	v.SetDefault("HEARTBEAT_TIMEOUT", "10m")
	v.SetDefault("MAX_SESSION_DURATION", "16h")
	v.SetDefault("OVERTIME_CHECK_INTERVAL", "60s")
	v.SetDefault("RECONCILE_INTERVAL", "30s")
	v.SetDefault("DISPLAY_TICK", "1s")
	v.SetDefault("SYNC_DEBOUNCE", "500ms")
	v.SetDefault("STANDARD_WORKDAY_MINUTES", 480)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_USE_CASES", false)

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				v.Set(key, f.Value.String())
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("config: TIMECLOCK_DB must be set")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	durations := map[string]time.Duration{
		"HEARTBEAT_TIMEOUT":       c.HeartbeatTimeout,
		"MAX_SESSION_DURATION":    c.MaxSessionDuration,
		"OVERTIME_CHECK_INTERVAL": c.OvertimeCheckInterval,
		"RECONCILE_INTERVAL":      c.ReconcileInterval,
		"DISPLAY_TICK":            c.DisplayTick,
		"SYNC_DEBOUNCE":           c.SyncDebounce,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("config: %s must be a positive duration", key)
		}
	}
	if c.StandardWorkdayMinutes < 1 || c.StandardWorkdayMinutes > 24*60 {
		return errors.New("config: STANDARD_WORKDAY_MINUTES must be between 1 and 1440")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Location resolves TimeZone. "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("config: TIMECLOCK_TZ %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// KafkaBrokersList returns broker addresses from the comma-separated setting.
// An empty list means remote sync is disabled.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "timeclock.db"
	}
	return filepath.Join(home, ".timeclock", "timeclock.db")
}
