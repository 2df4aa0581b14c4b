package logger

import (
	"fmt"
	"time"
)

// LogLevel represents the severity level of a log entry, matching the
// three levels the command-line surface exposes (--log-level).
type LogLevel string

const (
	LevelDebug  LogLevel = "debug"
	LevelNotice LogLevel = "notice"
	LevelError  LogLevel = "error"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// Component identifies which part of the broker generated the log entry.
type Component string

const (
	ComponentEngine   Component = "engine"
	ComponentConn     Component = "conn"
	ComponentSnapshot Component = "snapshot"
	ComponentAuth     Component = "auth"
	ComponentMain     Component = "main"
)

// Config holds the complete logging configuration for all tiers.
type Config struct {
	Level  LogLevel  `json:"level"`
	Format LogFormat `json:"format"`

	Console ConsoleConfig `json:"console"`
	File    FileConfig    `json:"file"`
}

// ConsoleConfig configures console/terminal logging (tier 1, enabled by
// default).
type ConsoleConfig struct {
	Enabled       bool          `json:"enabled"`
	Color         bool          `json:"color"`
	BufferSize    int           `json:"buffer_size"`
	FlushInterval time.Duration `json:"flush_interval"`
}

// FileConfig configures rotated file logging (tier 2, optional — enabled
// whenever --log-path is set).
type FileConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`

	BufferSize    int           `json:"buffer_size"`
	BatchSize     int           `json:"batch_size"`
	BatchInterval time.Duration `json:"batch_interval"`
}

// DefaultConfig returns a default logging configuration: colored console
// output at notice level, file tier disabled until a path is configured.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelNotice,
		Format: FormatText,
		Console: ConsoleConfig{
			Enabled:       true,
			Color:         true,
			BufferSize:    65536,
			FlushInterval: 100 * time.Millisecond,
		},
		File: FileConfig{
			Enabled:       false,
			MaxSizeMB:     100,
			MaxBackups:    5,
			MaxAgeDays:    30,
			Compress:      true,
			BufferSize:    10000,
			BatchSize:     100,
			BatchInterval: 100 * time.Millisecond,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Level {
	case LevelDebug, LevelNotice, LevelError:
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}

	switch c.Format {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}

	if c.File.Enabled {
		if c.File.Path == "" {
			return fmt.Errorf("file logging enabled but path is empty")
		}
		if c.File.MaxSizeMB <= 0 {
			return fmt.Errorf("file max size must be > 0")
		}
	}

	return nil
}
