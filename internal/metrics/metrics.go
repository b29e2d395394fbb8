package metrics

import "time"

// Metrics is the small surface the core emits through. The statsd
// client satisfies it in production, Nop everywhere else.
type Metrics interface {
	Increment(metric string)
	Duration(metric string, d time.Duration)
	Gauge(metric string, value int)
}

// Nop drops everything. Used when STATSD_ADDR is not configured.
type Nop struct{}

func (Nop) Increment(string)               {}
func (Nop) Duration(string, time.Duration) {}
func (Nop) Gauge(string, int)              {}
