package snapshot

import (
	"fmt"
	"os"

	"github.com/corvusq/queued/internal/store"
)

// Load reads path and applies every record to s. A missing file is not an
// error — first startup with no prior snapshot should succeed with no
// effect — but a present, corrupt file is.
func Load(path string, s *store.Store) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return err
	}

	for _, rec := range records {
		s.Restore(rec.Queue, rec.Priority, rec.DueTime, rec.Job)
	}
	return nil
}
