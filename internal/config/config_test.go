package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points TIMECLOCK_CONFIG at a file in a temp dir so a stray
// ./timeclock.env never leaks into a test.
func isolate(t *testing.T, contents string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timeclock.env")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	t.Setenv("TIMECLOCK_CONFIG", path)
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t, "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "timeclock-sessions", cfg.KafkaTopic)
	assert.Equal(t, "timeclock-sync", cfg.KafkaGroupID)
	assert.Equal(t, 10*time.Minute, cfg.HeartbeatTimeout)
	assert.Equal(t, 16*time.Hour, cfg.MaxSessionDuration)
	assert.Equal(t, 60*time.Second, cfg.OvertimeCheckInterval)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, time.Second, cfg.DisplayTick)
	assert.Equal(t, 500*time.Millisecond, cfg.SyncDebounce)
	assert.Equal(t, 480, cfg.StandardWorkdayMinutes)
	assert.Nil(t, cfg.KafkaBrokersList())
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	isolate(t, "TIMECLOCK_DB=/from/file.db\nDEVICE_LOCATION=warehouse\nHEARTBEAT_TIMEOUT=2m\n")
	t.Setenv("DEVICE_LOCATION", "front-desk")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--db", "/from/flag.db", "-e", "EMP7"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag.db", cfg.DBPath)
	assert.Equal(t, "EMP7", cfg.Employee)
	assert.Equal(t, "front-desk", cfg.DeviceLocation)
	assert.Equal(t, 2*time.Minute, cfg.HeartbeatTimeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("TIMECLOCK_CONFIG", filepath.Join(t.TempDir(), "missing.env"))

	_, err := Load(nil)
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero heartbeat", map[string]string{"HEARTBEAT_TIMEOUT": "0s"}},
		{"negative debounce", map[string]string{"SYNC_DEBOUNCE": "-1s"}},
		{"unknown zone", map[string]string{"TIMECLOCK_TZ": "Mars/Olympus"}},
		{"workday too long", map[string]string{"STANDARD_WORKDAY_MINUTES": "1441"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := &Config{KafkaBrokers: " a:9092, ,b:9092", LogLevel: "debug", TimeZone: "UTC"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokersList())

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
