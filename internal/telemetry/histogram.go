package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// bucketBoundsUs are the upper bounds (inclusive, microseconds) of the
// press-to-sink latency histogram, widened or narrowed in one place:
// commodity USB/evdev round trips on the reference hardware land
// between 50µs and 50ms. The final bucket is implicit ("overflow") and
// catches anything slower.
var bucketBoundsUs = []int64{
	50, 100, 200, 500,
	1_000, 2_000, 5_000, 10_000,
	20_000, 50_000,
}

// Histogram is a press-to-sink latency histogram backed by a
// client_golang prometheus.Histogram, kept as an unregistered local
// instance (never handed to a Registry) so each Actor owns an
// independent set of buckets and nothing leaks into a process-wide
// default registry across tests.
type Histogram struct {
	hist prometheus.Histogram
}

// NewHistogram returns an empty histogram sized to bucketBoundsUs.
func NewHistogram() *Histogram {
	bounds := make([]float64, len(bucketBoundsUs))
	for i, us := range bucketBoundsUs {
		bounds[i] = float64(us)
	}
	return &Histogram{
		hist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "charon_report_latency_microseconds",
			Help:    "Press-to-sink latency for emitted HID reports, in microseconds.",
			Buckets: bounds,
		}),
	}
}

// Observe records one latency sample.
func (h *Histogram) Observe(d time.Duration) {
	h.hist.Observe(float64(d.Microseconds()))
}

// Snapshot is the JSON-serialisable view of a Histogram pushed to
// telemetry clients.
type Snapshot struct {
	BucketBoundsUs []int64  `json:"bucket_bounds_us"`
	Counts         []uint64 `json:"counts"`
	Count          uint64   `json:"count"`
	MeanUs         float64  `json:"mean_us"`
}

// Snapshot takes a point-in-time copy safe to marshal concurrently with
// further Observe calls: prometheus.Histogram.Write locks internally,
// so no external lock is required here (the caller's lock in Actor
// guards the broader snapshot struct, not this call).
func (h *Histogram) Snapshot() Snapshot {
	counts := make([]uint64, len(bucketBoundsUs)+1)

	var m dto.Metric
	if err := h.hist.Write(&m); err != nil {
		return Snapshot{BucketBoundsUs: bucketBoundsUs, Counts: counts}
	}
	hp := m.GetHistogram()

	var prev uint64
	for i, b := range hp.GetBucket() {
		if i >= len(bucketBoundsUs) {
			break
		}
		cum := b.GetCumulativeCount()
		counts[i] = cum - prev
		prev = cum
	}
	total := hp.GetSampleCount()
	counts[len(counts)-1] = total - prev

	mean := 0.0
	if total > 0 {
		mean = hp.GetSampleSum() / float64(total)
	}
	return Snapshot{
		BucketBoundsUs: bucketBoundsUs,
		Counts:         counts,
		Count:          total,
		MeanUs:         mean,
	}
}
