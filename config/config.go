// Package config implements types for handling the configuration of the client.
package config

import (
	"time"

	"github.com/sacnlogger/configsync/config/value"
	"github.com/sacnlogger/configsync/config/vars"
)

// The version of the configuration data layout.
const version int64 = 1

const (
	DefaultAddress    = "http://localhost:80"
	DefaultTimeoutSec = 30
)

// Config is a wrapper for Data
type Config struct {
	vars vars.Variables

	Data
}

// New returns a Config which is initialized with its default values
func New() *Config {
	config := &Config{}

	config.init()

	return config
}

// Clone returns a copy of the config with the same values.
func (d *Config) Clone() *Config {
	data := New()

	data.CreatedAt = d.CreatedAt
	data.LoadedAt = d.LoadedAt
	data.UpdatedAt = d.UpdatedAt

	data.Version = d.Version
	data.Address = d.Address
	data.TimeoutSec = d.TimeoutSec
	data.Log = d.Log
	data.Storage = d.Storage
	data.Metrics = d.Metrics

	data.vars.Transfer(&d.vars)

	return data
}

func (d *Config) init() {
	d.vars.Register(value.NewInt64(&d.Version, version), "version", "", "Configuration file layout version", true)
	d.vars.Register(value.NewOrigin(&d.Address, DefaultAddress), "address", "CONFIGSYNC_ADDRESS", "Origin of the host, e.g. http://192.168.1.2:5050", true)
	d.vars.Register(value.NewPositiveInt(&d.TimeoutSec, DefaultTimeoutSec), "timeout_sec", "CONFIGSYNC_TIMEOUT_SEC", "Timeout for a request to the host in seconds", true)

	// Log
	d.vars.Register(value.NewLogLevel(&d.Log.Level, "info"), "log.level", "CONFIGSYNC_LOG_LEVEL", "Loglevel: silent, error, warn, info, debug", false)

	// Storage
	d.vars.Register(value.NewDir(&d.Storage.Dir, "./data"), "storage.dir", "CONFIGSYNC_STORAGE_DIR", "Directory for the local settings database", true)

	// Metrics
	d.vars.Register(value.NewAddress(&d.Metrics.Address, ""), "metrics.address", "CONFIGSYNC_METRICS_ADDRESS", "Listen address for the prometheus metrics, empty to disable", false)
}

// Timeout returns the request timeout.
func (d *Config) Timeout() time.Duration {
	return time.Duration(d.TimeoutSec) * time.Second
}

// Merge merges the values of the known environment variables into the configuration
func (d *Config) Merge() {
	d.vars.Merge()
}

// Validate validates the current state of the Config for completeness and sanity. Errors are
// written to the log. Use resetLogs to indicate to reset the logs prior validation.
func (d *Config) Validate(resetLogs bool) {
	if resetLogs {
		d.vars.ResetLogs()
	}

	if d.Version != version {
		d.vars.Log("error", "version", "unknown configuration layout version (found version %d, expecting version %d)", d.Version, version)

		return
	}

	d.vars.Validate()
}

// Messages calls for each log entry the provided callback. The level has the values 'error', 'warn', or 'info'.
// The name is the name of the configuration value, e.g. 'timeout_sec'
func (d *Config) Messages(logger func(level string, v vars.Variable, message string)) {
	d.vars.Messages(logger)
}

// HasErrors returns whether there are some error messages in the log.
func (d *Config) HasErrors() bool {
	return d.vars.HasErrors()
}

// Overrides returns a list of configuration value names that have been overriden by an environment variable.
func (d *Config) Overrides() []string {
	return d.vars.Overrides()
}

// Variables returns the descriptions of all configuration values.
func (d *Config) Variables() []vars.Variable {
	return d.vars.Describe()
}

func (d *Config) Get(name string) (string, error) {
	return d.vars.Get(name)
}

func (d *Config) Set(name, val string) error {
	return d.vars.Set(name, val)
}
