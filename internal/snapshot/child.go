package snapshot

import (
	"fmt"
	"io"
	"os"
)

// RunChild implements the writer subprocess's entire body: copy stdin (a
// buffer the parent has already serialized via Encode/Serialize) into a
// temporary file next to finalPath, fsync, close, then atomically rename
// into place. Any I/O failure returns a non-zero-exit-worthy error; the
// caller (cmd/queued's subcommand dispatch) is expected to translate a
// non-nil error into os.Exit(1).
//
// The child never touches the live store: it only sees the bytes the
// parent already finished building, so it never calls back into any
// handler.
func RunChild(finalPath string, stdin io.Reader) error {
	tmpPath := fmt.Sprintf("%s.%d", finalPath, os.Getpid())

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening temp snapshot file: %w", err)
	}

	if _, err := io.Copy(f, stdin); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing snapshot: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsyncing snapshot: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}

	return nil
}
