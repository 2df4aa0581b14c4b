package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "queued"}
	BindFlags(cmd)
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()
	cmd := newTestCmd()

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 21012 {
		t.Errorf("Port = %d, want 21012", cfg.Port)
	}
	if cfg.Bind != "0.0.0.0" {
		t.Errorf("Bind = %q, want 0.0.0.0", cfg.Bind)
	}
	if cfg.Daemon {
		t.Errorf("Daemon = true, want false")
	}
	if !cfg.SnapshotEnable {
		t.Errorf("SnapshotEnable = false, want true")
	}
	if cfg.SnapshotInterval != 300*time.Second {
		t.Errorf("SnapshotInterval = %v, want 300s", cfg.SnapshotInterval)
	}
	if cfg.SnapshotChangesThreshold != 1000 {
		t.Errorf("SnapshotChangesThreshold = %d, want 1000", cfg.SnapshotChangesThreshold)
	}
	if cfg.SnapshotPath != "mx-queued.db" {
		t.Errorf("SnapshotPath = %q, want mx-queued.db", cfg.SnapshotPath)
	}
	if cfg.RecycleTimeout != 60*time.Second {
		t.Errorf("RecycleTimeout = %v, want 60s", cfg.RecycleTimeout)
	}
	if cfg.LogLevel != "notice" {
		t.Errorf("LogLevel = %q, want notice", cfg.LogLevel)
	}
	if cfg.AuthFile != "" {
		t.Errorf("AuthFile = %q, want empty", cfg.AuthFile)
	}
	if cfg.MaxConnections != 0 {
		t.Errorf("MaxConnections = %d, want 0", cfg.MaxConnections)
	}
}

func TestLoadFlagOverride(t *testing.T) {
	os.Clearenv()
	cmd := newTestCmd()
	if err := cmd.Flags().Set("port", "9999"); err != nil {
		t.Fatalf("Set port: %v", err)
	}
	if err := cmd.Flags().Set("auth-file", "/etc/queued/auth.txt"); err != nil {
		t.Fatalf("Set auth-file: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.AuthFile != "/etc/queued/auth.txt" {
		t.Errorf("AuthFile = %q, want /etc/queued/auth.txt", cfg.AuthFile)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	os.Setenv("QUEUED_PORT", "8001")
	os.Setenv("QUEUED_LOG_LEVEL", "debug")
	os.Setenv("QUEUED_SNAPSHOT_ENABLE", "false")

	cmd := newTestCmd()
	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8001 {
		t.Errorf("Port = %d, want 8001 from QUEUED_PORT", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from QUEUED_LOG_LEVEL", cfg.LogLevel)
	}
	if cfg.SnapshotEnable {
		t.Errorf("SnapshotEnable = true, want false from QUEUED_SNAPSHOT_ENABLE")
	}
}

func TestLoadFlagTakesPrecedenceOverEnv(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	os.Setenv("QUEUED_PORT", "8001")

	cmd := newTestCmd()
	if err := cmd.Flags().Set("port", "7000"); err != nil {
		t.Fatalf("Set port: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("Port = %d, want 7000 (explicit flag beats env)", cfg.Port)
	}
}
