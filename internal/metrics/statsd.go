package metrics

import (
	"time"

	statsd "github.com/smira/go-statsd"
)

// Statsd ships metrics over UDP. Sends are fire-and-forget; a dead
// aggregator never slows a check down.
type Statsd struct {
	client *statsd.Client
}

var _ Metrics = (*Statsd)(nil)

func NewStatsd(addr, instance string) *Statsd {
	clnt := statsd.NewClient(
		addr,
		statsd.MetricPrefix("sitewatch."),
		statsd.DefaultTags(statsd.StringTag("instance", instance)),
	)
	return &Statsd{client: clnt}
}

func (s *Statsd) Increment(metric string) {
	s.client.Incr(metric, 1)
}

func (s *Statsd) Duration(metric string, d time.Duration) {
	s.client.PrecisionTiming(metric, d)
}

func (s *Statsd) Gauge(metric string, value int) {
	s.client.Gauge(metric, int64(value))
}

func (s *Statsd) Close() error {
	return s.client.Close()
}
