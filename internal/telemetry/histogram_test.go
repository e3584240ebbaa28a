package telemetry

import (
	"testing"
	"time"
)

func TestObserveBucketsByUpperBound(t *testing.T) {
	h := NewHistogram()
	h.Observe(30 * time.Microsecond)  // first bucket (<=50)
	h.Observe(75 * time.Microsecond)  // second bucket (<=100)
	h.Observe(60 * time.Millisecond)  // overflow

	snap := h.Snapshot()
	if snap.Count != 3 {
		t.Fatalf("expected count=3, got %d", snap.Count)
	}
	if snap.Counts[0] != 1 || snap.Counts[1] != 1 {
		t.Fatalf("unexpected bucket counts: %+v", snap.Counts)
	}
	if last := snap.Counts[len(snap.Counts)-1]; last != 1 {
		t.Fatalf("expected 1 overflow sample, got %d", last)
	}
}

func TestSnapshotMeanUsIsZeroWhenEmpty(t *testing.T) {
	h := NewHistogram()
	snap := h.Snapshot()
	if snap.MeanUs != 0 {
		t.Fatalf("expected mean 0 on an empty histogram, got %v", snap.MeanUs)
	}
}

func TestSnapshotMeanUsAveragesSamples(t *testing.T) {
	h := NewHistogram()
	h.Observe(100 * time.Microsecond)
	h.Observe(300 * time.Microsecond)

	snap := h.Snapshot()
	if snap.MeanUs != 200 {
		t.Fatalf("expected mean 200us, got %v", snap.MeanUs)
	}
}
