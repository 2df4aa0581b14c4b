// Package config implements the broker's CLI/env surface, built on cobra
// for the flag/subcommand tree and viper for flag/env precedence — a
// flag-heavy daemon surface like this one fits that combination better
// than hand-rolled getEnv* helpers reading os.Getenv directly.
package config

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds every value the CLI surface can set.
type Config struct {
	Daemon bool
	Port   int
	Bind   string

	SnapshotEnable           bool
	SnapshotInterval         time.Duration
	SnapshotChangesThreshold int64
	SnapshotPath             string

	RecycleTimeout time.Duration

	LogPath  string
	LogLevel string

	AuthFile string

	MaxConnections int
}

// BindFlags registers every CLI flag the broker accepts on cmd.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Bool("daemon", false, "daemon mode (read into the config; the server does not detach and stays in the foreground)")
	flags.Int("port", 21012, "TCP port to listen on")
	flags.String("bind", "0.0.0.0", "address to bind the listener to")

	flags.Bool("snapshot-enable", true, "enable periodic background snapshots")
	flags.Duration("snapshot-interval", 300*time.Second, "minimum interval between snapshots")
	flags.Int64("snapshot-changes-threshold", 1000, "dirty-counter threshold that forces an immediate snapshot")
	flags.String("snapshot-path", "mx-queued.db", "path to the snapshot file")

	flags.Duration("recycle-timeout", 60*time.Second, "hold duration for touched jobs before they expire")

	flags.String("log-path", "", "file to write logs to (default: stderr only)")
	flags.String("log-level", "notice", "log level: error|notice|debug")

	flags.String("auth-file", "", "credential file enabling the connection auth gate (default: auth disabled)")

	flags.Int("max-connections", 0, "connection limit (read into the config; the server does not enforce it and accepts any number of connections)")
}

// Load resolves a Config from cmd's flags and QUEUED_* environment
// variables, flags taking precedence over env, env over the flag
// defaults registered in BindFlags.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUEUED")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	return &Config{
		Daemon: v.GetBool("daemon"),
		Port:   v.GetInt("port"),
		Bind:   v.GetString("bind"),

		SnapshotEnable:           v.GetBool("snapshot-enable"),
		SnapshotInterval:         v.GetDuration("snapshot-interval"),
		SnapshotChangesThreshold: v.GetInt64("snapshot-changes-threshold"),
		SnapshotPath:             v.GetString("snapshot-path"),

		RecycleTimeout: v.GetDuration("recycle-timeout"),

		LogPath:  v.GetString("log-path"),
		LogLevel: v.GetString("log-level"),

		AuthFile: v.GetString("auth-file"),

		MaxConnections: v.GetInt("max-connections"),
	}, nil
}
