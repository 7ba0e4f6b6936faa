package config

import (
	"io/ioutil"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPollIntervalSeconds         = 5
	DefaultCrashThresholdSeconds       = 30
	DefaultMaxStoredEvents             = 500
	DefaultEventLogScanIntervalSeconds = 30
	DefaultEventStorePath              = "crash_events.log"
)

// Config holds the monitoring options consumed at startup. A missing
// config file yields defaults; a malformed one yields defaults plus a
// logged warning. Out-of-range values are clamped, never rejected.
type Config struct {
	ProcessNames                []string `yaml:"process_names"`
	PollIntervalSeconds         int      `yaml:"poll_interval_seconds"`
	CrashThresholdSeconds       int      `yaml:"crash_threshold_seconds"`
	MaxStoredEvents             int      `yaml:"max_stored_events"`
	EventStorePath              string   `yaml:"event_store_path"`
	EventLogMonitoring          bool     `yaml:"event_log_monitoring"`
	EventLogScanIntervalSeconds int      `yaml:"event_log_scan_interval_seconds"`
}

func Default() *Config {
	return &Config{
		PollIntervalSeconds:         DefaultPollIntervalSeconds,
		CrashThresholdSeconds:       DefaultCrashThresholdSeconds,
		MaxStoredEvents:             DefaultMaxStoredEvents,
		EventStorePath:              DefaultEventStorePath,
		EventLogMonitoring:          true,
		EventLogScanIntervalSeconds: DefaultEventLogScanIntervalSeconds,
	}
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) CrashThreshold() time.Duration {
	return time.Duration(c.CrashThresholdSeconds) * time.Second
}

func (c *Config) EventLogScanInterval() time.Duration {
	return time.Duration(c.EventLogScanIntervalSeconds) * time.Second
}

// Load reads the config file at path. Startup never aborts on a config
// problem: every failure mode degrades to defaults.
func Load(path string, logger *zap.Logger) *Config {
	cfg := Default()

	data, err := ioutil.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read config file, using defaults", zap.String("Path", path), zap.Error(err))
		}
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		logger.Warn("Malformed config file, using defaults", zap.String("Path", path), zap.Error(err))
		return Default()
	}

	cfg.normalize(logger)
	return cfg
}

func (c *Config) normalize(logger *zap.Logger) {
	if c.PollIntervalSeconds <= 0 {
		logger.Warn("Invalid poll interval, clamping to default",
			zap.Int("Given", c.PollIntervalSeconds), zap.Int("Default", DefaultPollIntervalSeconds))
		c.PollIntervalSeconds = DefaultPollIntervalSeconds
	}

	if c.CrashThresholdSeconds <= 0 {
		logger.Warn("Invalid crash threshold, clamping to default",
			zap.Int("Given", c.CrashThresholdSeconds), zap.Int("Default", DefaultCrashThresholdSeconds))
		c.CrashThresholdSeconds = DefaultCrashThresholdSeconds
	}

	if c.MaxStoredEvents <= 0 {
		logger.Warn("Invalid max stored events, clamping to default",
			zap.Int("Given", c.MaxStoredEvents), zap.Int("Default", DefaultMaxStoredEvents))
		c.MaxStoredEvents = DefaultMaxStoredEvents
	}

	if c.EventLogScanIntervalSeconds <= 0 {
		logger.Warn("Invalid event log scan interval, clamping to default",
			zap.Int("Given", c.EventLogScanIntervalSeconds), zap.Int("Default", DefaultEventLogScanIntervalSeconds))
		c.EventLogScanIntervalSeconds = DefaultEventLogScanIntervalSeconds
	}

	if c.EventStorePath == "" {
		c.EventStorePath = DefaultEventStorePath
	}
}
