package metrics

import (
	"testing"
	"time"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector returned nil")
	}

	metrics := c.GetMetrics()
	if metrics.CommandCount != 0 {
		t.Errorf("Expected CommandCount = 0, got %d", metrics.CommandCount)
	}
	if metrics.CommandErrors != 0 {
		t.Errorf("Expected CommandErrors = 0, got %d", metrics.CommandErrors)
	}
}

func TestRecordCommand(t *testing.T) {
	c := NewCollector()

	c.RecordCommand("enqueue", true)
	c.RecordCommand("dequeue", true)
	c.RecordCommand("enqueue", false)

	metrics := c.GetMetrics()
	if metrics.CommandCount != 3 {
		t.Errorf("Expected CommandCount = 3, got %d", metrics.CommandCount)
	}
	if metrics.CommandErrors != 1 {
		t.Errorf("Expected CommandErrors = 1, got %d", metrics.CommandErrors)
	}
	if metrics.CommandsByVerb["enqueue"] != 2 {
		t.Errorf("Expected enqueue count = 2, got %d", metrics.CommandsByVerb["enqueue"])
	}
	if metrics.CommandsByVerb["dequeue"] != 1 {
		t.Errorf("Expected dequeue count = 1, got %d", metrics.CommandsByVerb["dequeue"])
	}
}

func TestRecordQueueDepth(t *testing.T) {
	c := NewCollector()

	c.RecordQueueDepth("high", 10)
	c.RecordQueueDepth("low", 25)

	metrics := c.GetMetrics()
	if metrics.QueueDepths["high"] != 10 {
		t.Errorf("Expected high depth = 10, got %d", metrics.QueueDepths["high"])
	}
	if metrics.QueueDepths["low"] != 25 {
		t.Errorf("Expected low depth = 25, got %d", metrics.QueueDepths["low"])
	}
}

func TestRecordSnapshot(t *testing.T) {
	c := NewCollector()

	c.RecordSnapshot(true)
	c.RecordSnapshot(true)
	c.RecordSnapshot(false)

	metrics := c.GetMetrics()
	if metrics.SnapshotSuccess != 2 {
		t.Errorf("Expected SnapshotSuccess = 2, got %d", metrics.SnapshotSuccess)
	}
	if metrics.SnapshotFailure != 1 {
		t.Errorf("Expected SnapshotFailure = 1, got %d", metrics.SnapshotFailure)
	}
}

func TestRecordTick(t *testing.T) {
	c := NewCollector()

	c.RecordTick(3, 1)
	c.RecordTick(2, 0)

	metrics := c.GetMetrics()
	if metrics.Promotions != 5 {
		t.Errorf("Expected Promotions = 5, got %d", metrics.Promotions)
	}
	if metrics.Expired != 1 {
		t.Errorf("Expected Expired = 1, got %d", metrics.Expired)
	}
}

func TestReset(t *testing.T) {
	c := NewCollector()

	c.RecordCommand("enqueue", true)
	c.RecordQueueDepth("high", 10)
	c.RecordSnapshot(true)
	c.RecordTick(1, 1)

	metrics := c.GetMetrics()
	if metrics.CommandCount == 0 {
		t.Error("Expected non-zero metrics before reset")
	}

	c.Reset()

	metrics = c.GetMetrics()
	if metrics.CommandCount != 0 {
		t.Errorf("Expected CommandCount = 0 after reset, got %d", metrics.CommandCount)
	}
	if metrics.CommandErrors != 0 {
		t.Errorf("Expected CommandErrors = 0 after reset, got %d", metrics.CommandErrors)
	}
	if len(metrics.CommandsByVerb) != 0 {
		t.Errorf("Expected empty CommandsByVerb after reset, got %d entries", len(metrics.CommandsByVerb))
	}
	if len(metrics.QueueDepths) != 0 {
		t.Errorf("Expected empty QueueDepths after reset, got %d entries", len(metrics.QueueDepths))
	}
	if metrics.SnapshotSuccess != 0 || metrics.SnapshotFailure != 0 {
		t.Errorf("Expected snapshot counters = 0 after reset")
	}
	if metrics.Promotions != 0 || metrics.Expired != 0 {
		t.Errorf("Expected tick counters = 0 after reset")
	}
}

func TestUptime(t *testing.T) {
	c := NewCollector()

	time.Sleep(10 * time.Millisecond)

	metrics := c.GetMetrics()
	if metrics.Uptime < 10*time.Millisecond {
		t.Errorf("Expected Uptime >= 10ms, got %v", metrics.Uptime)
	}
	if metrics.Uptime > 1*time.Second {
		t.Errorf("Expected Uptime < 1s, got %v", metrics.Uptime)
	}
}

func TestGlobalCollector(t *testing.T) {
	ResetMetrics()

	Default().RecordCommand("enqueue", true)
	Default().RecordSnapshot(true)

	metrics := GetMetrics()
	if metrics.CommandCount != 1 {
		t.Errorf("Expected CommandCount = 1, got %d", metrics.CommandCount)
	}
	if metrics.SnapshotSuccess != 1 {
		t.Errorf("Expected SnapshotSuccess = 1, got %d", metrics.SnapshotSuccess)
	}

	ResetMetrics()
	metrics = GetMetrics()
	if metrics.CommandCount != 0 {
		t.Errorf("Expected CommandCount = 0 after reset, got %d", metrics.CommandCount)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewCollector()
	done := make(chan bool)

	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				c.RecordCommand("enqueue", true)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	metrics := c.GetMetrics()
	expected := int64(1000)
	if metrics.CommandCount != expected {
		t.Errorf("Expected CommandCount = %d, got %d", expected, metrics.CommandCount)
	}
	if metrics.CommandsByVerb["enqueue"] != expected {
		t.Errorf("Expected enqueue count = %d, got %d", expected, metrics.CommandsByVerb["enqueue"])
	}
}

func BenchmarkRecordCommand(b *testing.B) {
	c := NewCollector()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RecordCommand("enqueue", true)
	}
}

func BenchmarkGetMetrics(b *testing.B) {
	c := NewCollector()
	for i := 0; i < 1000; i++ {
		c.RecordCommand("enqueue", true)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetMetrics()
	}
}

func BenchmarkConcurrentRecording(b *testing.B) {
	c := NewCollector()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.RecordCommand("enqueue", true)
		}
	})
}
