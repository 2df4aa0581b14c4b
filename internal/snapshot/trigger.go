package snapshot

import "time"

// TriggerConfig holds the decision thresholds from the CLI surface
// (--snapshot-enable, --snapshot-interval, --snapshot-changes-threshold).
type TriggerConfig struct {
	Enabled          bool
	Interval         time.Duration
	ChangesThreshold int64
}

// ShouldTrigger decides when to start a new snapshot writer: bgsave must be
// enabled, and either the dirty counter has crossed changesThreshold, or
// more than interval has elapsed since the last success with at least one
// pending change.
func (c TriggerConfig) ShouldTrigger(now, lastSuccess time.Time, dirty int64) bool {
	if !c.Enabled {
		return false
	}
	if dirty >= c.ChangesThreshold && c.ChangesThreshold > 0 {
		return true
	}
	return now.Sub(lastSuccess) > c.Interval && dirty > 0
}
