// Package config provides configuration management for sparkdl.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Input: song_data, log_data
//   - Output: dir, format
//   - Database: host, port, user, password, database, ssl_mode, batch_size
//   - Log: level, format, destination
//   - General: malformed, jobs_number
//
// Runtime-only fields:
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use SPARKDL_ prefix with underscores for nesting:
//
//	SPARKDL_INPUT_SONG_DATA=/data/song_data
//	SPARKDL_OUTPUT_FORMAT=sqlite
//	SPARKDL_DATABASE_HOST=localhost
//	SPARKDL_MALFORMED=fail
//	SPARKDL_JOBS_NUMBER=8
package config

import (
	"runtime"
)

// Config represents the complete sparkdl configuration.
type Config struct {
	// Input locates the raw song metadata and activity logs.
	Input InputConfig `mapstructure:"input" yaml:"input"`

	// Output determines where and how star schema tables are written.
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Database contains PostgreSQL connection settings. It is used by the
	// 'postgres' output format and by create, migrate and optimize commands.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Malformed is the policy for records that miss required fields or
	// carry an unusable timestamp. 'drop' removes and counts them,
	// 'fail' aborts the run before any table is written.
	Malformed string `mapstructure:"malformed" yaml:"malformed"`

	// JobsNumber is the number of concurrent workers for parallel operations.
	// Default value is set accoring to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string `mapstructure:"-" yaml:"-"`
}

// InputConfig contains locations of raw data.
type InputConfig struct {
	// SongData is a directory (searched recursively for *.json files) or a
	// single file with song metadata records.
	SongData string `mapstructure:"song_data" yaml:"song_data"`

	// LogData is a directory (searched recursively for *.json files) or a
	// single file with user activity events, one JSON object per line.
	LogData string `mapstructure:"log_data" yaml:"log_data"`
}

// OutputConfig contains settings for materialized tables.
type OutputConfig struct {
	// Dir is the base location for 'files' and 'sqlite' formats.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// Format selects a sink: 'files' (partitioned JSON lines),
	// 'sqlite' or 'postgres'.
	Format string `mapstructure:"format" yaml:"format"`
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// BatchSize defines the number of rows sent to PostgreSQL per COPY call.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Input: InputConfig{
			SongData: "data/song_data",
			LogData:  "data/log_data",
		},
		Output: OutputConfig{
			Dir:    "output",
			Format: "files",
		},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      5432,
			User:      "postgres",
			Password:  "postgres",
			Database:  "sparkify",
			SSLMode:   "disable",
			BatchSize: 50_000,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		Malformed:  "drop",
		JobsNumber: runtime.NumCPU(),
	}

	return res
}

// FailOnMalformed is true when malformed records abort the run.
func (c *Config) FailOnMalformed() bool {
	return c.Malformed == "fail"
}
