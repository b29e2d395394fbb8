package metrics

import (
	"testing"
	"time"
)

func TestNop_AcceptsEverything(t *testing.T) {
	var m Metrics = Nop{}
	m.Increment("check.total")
	m.Duration("check.duration", 15*time.Millisecond)
	m.Gauge("scheduler.jobs", 3)
}

func TestStatsd_New(t *testing.T) {
	// UDP is connectionless, no listener needed
	s := NewStatsd("127.0.0.1:18125", "test")
	if s == nil {
		t.Fatal("NewStatsd returned nil")
	}
	s.Increment("check.total")
	s.Duration("check.duration", time.Millisecond)
	s.Gauge("scheduler.jobs", 1)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
