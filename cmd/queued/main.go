// Command queued is the broker's single binary: serving the TCP protocol is
// its default behavior, and a hidden subcommand re-invokes the same binary
// as the snapshot writer subprocess (see internal/snapshot).
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corvusq/queued/internal/auth"
	"github.com/corvusq/queued/internal/config"
	"github.com/corvusq/queued/internal/logger"
	"github.com/corvusq/queued/internal/metrics"
	"github.com/corvusq/queued/internal/protocol"
	"github.com/corvusq/queued/internal/snapshot"
	"github.com/corvusq/queued/internal/store"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "queued",
		Short: "priority job broker",
		RunE:  runServe,
	}
	config.BindFlags(root)

	root.AddCommand(&cobra.Command{
		Use:    snapshot.WriterSubcommand + " [path]",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return snapshot.RunChild(args[0], os.Stdin)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.LogLevel(cfg.LogLevel)
	if cfg.LogPath != "" {
		logCfg.File.Enabled = true
		logCfg.File.Path = cfg.LogPath
	}
	log, err := logger.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		if cerr := log.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "closing logger: %v\n", cerr)
		}
	}()
	logger.SetDefault(log)
	mainLog := log.WithComponent(logger.ComponentMain)

	var authTable *auth.Table
	if cfg.AuthFile != "" {
		authTable, err = auth.Load(cfg.AuthFile)
		if err != nil {
			return fmt.Errorf("loading auth file: %w", err)
		}
		mainLog.Notice("auth gate enabled", "credentials", authTable.Len())
	}

	s := store.New(int64(cfg.RecycleTimeout.Seconds()))

	if err := snapshot.Load(cfg.SnapshotPath, s); err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	collector := metrics.NewCollector()
	selfPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	trigger := snapshot.TriggerConfig{
		Enabled:          cfg.SnapshotEnable,
		Interval:         cfg.SnapshotInterval,
		ChangesThreshold: cfg.SnapshotChangesThreshold,
	}
	sched := &snapshotScheduler{
		trigger:  trigger,
		selfPath: selfPath,
		path:     cfg.SnapshotPath,
		log:      log.WithComponent(logger.ComponentSnapshot),
		metrics:  collector,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := store.NewEngine(s, sched.onTick)
	go engine.Run(ctx, func() int64 { return time.Now().Unix() })

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port))
	if err != nil {
		return fmt.Errorf("binding listener: %w", err)
	}

	srv := protocol.NewServer(ln, engine, authTable, collector, log)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	mainLog.Notice("queued listening", "addr", ln.Addr().String())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		mainLog.Notice("received signal, shutting down", "signal", sig.String())
		cancel()
		<-serveErr
	case err := <-serveErr:
		if err != nil {
			mainLog.Error("server exited", "error", err)
			return err
		}
	}

	sched.flush(s)
	return nil
}

// snapshotScheduler evaluates the trigger rule on every engine tick and
// fires a writer subprocess without blocking the engine goroutine.
type snapshotScheduler struct {
	trigger     snapshot.TriggerConfig
	selfPath    string
	path        string
	log         logger.Logger
	metrics     *metrics.Collector
	lastSuccess time.Time
	pending     *snapshot.PendingWrite
}

func (sc *snapshotScheduler) onTick(s *store.Store, now int64, promoted, expired int) {
	sc.metrics.RecordTick(promoted, expired)
	sc.reapPending()

	nowT := time.Unix(now, 0)
	if sc.pending != nil {
		return
	}
	if !sc.trigger.ShouldTrigger(nowT, sc.lastSuccess, s.Dirty()) {
		return
	}

	data, err := snapshot.Serialize(s.SnapshotView())
	if err != nil {
		sc.log.Error("serializing snapshot", "error", err)
		sc.metrics.RecordSnapshot(false)
		return
	}
	s.ResetDirty()

	pw, err := snapshot.StartWriter(context.Background(), sc.selfPath, sc.path, data)
	if err != nil {
		sc.log.Error("starting snapshot writer", "error", err)
		sc.metrics.RecordSnapshot(false)
		return
	}
	sc.pending = pw
}

func (sc *snapshotScheduler) reapPending() {
	if sc.pending == nil {
		return
	}
	exitErr, done := sc.pending.Poll()
	if !done {
		return
	}
	sc.pending = nil
	if exitErr != nil {
		sc.log.Error("snapshot writer failed", "error", exitErr)
		sc.metrics.RecordSnapshot(false)
		return
	}
	sc.lastSuccess = time.Now()
	sc.metrics.RecordSnapshot(true)
}

// flush performs one final synchronous snapshot write at shutdown so a
// clean exit never loses the last batch of dirty changes.
func (sc *snapshotScheduler) flush(s *store.Store) {
	if s.Dirty() == 0 {
		return
	}
	data, err := snapshot.Serialize(s.SnapshotView())
	if err != nil {
		sc.log.Error("serializing final snapshot", "error", err)
		return
	}
	pw, err := snapshot.StartWriter(context.Background(), sc.selfPath, sc.path, data)
	if err != nil {
		sc.log.Error("starting final snapshot writer", "error", err)
		return
	}
	for {
		if exitErr, done := pw.Poll(); done {
			if exitErr != nil {
				sc.log.Error("final snapshot writer failed", "error", exitErr)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
