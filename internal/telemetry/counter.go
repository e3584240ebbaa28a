package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Counter is a monotonic lifetime count backed by a client_golang
// prometheus.Counter, kept unregistered for the same reason as
// Histogram: one independent instance per Actor, no process-wide
// registry involved.
type Counter struct {
	counter prometheus.Counter
}

// NewCounter returns a zeroed counter.
func NewCounter() *Counter {
	return &Counter{
		counter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "charon_reports_sent_total",
			Help: "Total HID reports sent to the host since daemon start.",
		}),
	}
}

// Inc increments the counter by one.
func (c *Counter) Inc() {
	c.counter.Inc()
}

// Value returns the current count.
func (c *Counter) Value() uint64 {
	var m dto.Metric
	if err := c.counter.Write(&m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}
