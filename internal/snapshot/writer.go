package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// WriterSubcommand is the hidden CLI verb cmd/queued registers as the
// self-re-exec target; RunChild implements its entire body.
const WriterSubcommand = "__snapshot-writer"

// PendingWrite tracks a spawned writer subprocess until it is reaped.
type PendingWrite struct {
	cmd  *exec.Cmd
	done chan error
}

// StartWriter spawns `self-path __snapshot-writer <final-path>`, feeding it
// a pre-serialized snapshot buffer over stdin, and returns immediately —
// the parent is never blocked on the disk I/O the child performs. Reap
// with Poll.
func StartWriter(ctx context.Context, selfPath, finalPath string, data []byte) (*PendingWrite, error) {
	cmd := exec.CommandContext(ctx, selfPath, WriterSubcommand, finalPath)
	cmd.Stdin = bytes.NewReader(data)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting snapshot writer: %w", err)
	}

	pw := &PendingWrite{cmd: cmd, done: make(chan error, 1)}
	go func() {
		pw.done <- pw.cmd.Wait()
	}()
	return pw, nil
}

// Poll non-blockingly checks whether the writer has exited. ok is false if
// it is still running.
func (pw *PendingWrite) Poll() (exitErr error, ok bool) {
	select {
	case exitErr = <-pw.done:
		return exitErr, true
	default:
		return nil, false
	}
}
