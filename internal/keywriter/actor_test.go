package keywriter

import (
	"context"
	"testing"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

type recordingDevice struct {
	writes []bus.HidReport
	closed bool
}

func (d *recordingDevice) WriteReport(r bus.HidReport) error {
	d.writes = append(d.writes, r)
	return nil
}

func (d *recordingDevice) Close() error { d.closed = true; return nil }

func newTestActor() (*Actor, *recordingDevice) {
	dev := &recordingDevice{}
	broker := bus.NewBroker(8)
	return NewActor("KeyWriter", dev, broker, logger.NewDefaultLogger(logger.ErrorLevel)), dev
}

// TestSenderSwitchResets verifies that a report from sender A holding
// LShift, then immediately a report from sender B holding nothing,
// must land on the device as A's report, a reset, then B's report
// (preceded by the reset written before the very first sender).
func TestSenderSwitchResets(t *testing.T) {
	a, dev := newTestActor()
	ctx := context.Background()

	reportA := bus.HidReport{0x02, 0, 0, 0, 0, 0, 0, 0}
	reportB := bus.HidReport{}

	if err := a.HandleEvent(ctx, bus.NewEnvelope("PipelineA", bus.NewHidReport(reportA))); err != nil {
		t.Fatal(err)
	}
	if err := a.HandleEvent(ctx, bus.NewEnvelope("PipelineB", bus.NewHidReport(reportB))); err != nil {
		t.Fatal(err)
	}

	want := []bus.HidReport{{}, reportA, {}, reportB}
	if len(dev.writes) != len(want) {
		t.Fatalf("expected %d writes, got %d: %+v", len(want), len(dev.writes), dev.writes)
	}
	for i, w := range want {
		if dev.writes[i] != w {
			t.Fatalf("write %d: expected %+v, got %+v", i, w, dev.writes[i])
		}
	}
}

func TestSameSenderDoesNotReset(t *testing.T) {
	a, dev := newTestActor()
	ctx := context.Background()

	r1 := bus.HidReport{0, 0, 4, 0, 0, 0, 0, 0}
	r2 := bus.HidReport{0, 0, 5, 0, 0, 0, 0, 0}

	_ = a.HandleEvent(ctx, bus.NewEnvelope("Pipeline", bus.NewHidReport(r1)))
	_ = a.HandleEvent(ctx, bus.NewEnvelope("Pipeline", bus.NewHidReport(r2)))

	want := []bus.HidReport{{}, r1, r2}
	if len(dev.writes) != len(want) {
		t.Fatalf("same-sender reports should not trigger an extra reset; got %+v", dev.writes)
	}
}

func TestModeChangeWritesReset(t *testing.T) {
	a, dev := newTestActor()
	ctx := context.Background()

	_ = a.HandleEvent(ctx, bus.NewEnvelope("ShortcutProcessor", bus.ModeChange(bus.InApp)))

	if len(dev.writes) != 1 || !dev.writes[0].IsReset() {
		t.Fatalf("expected a single reset report on ModeChange, got %+v", dev.writes)
	}
}

func TestSuccessfulWritePublishesCorrelatedReportSent(t *testing.T) {
	dev := &recordingDevice{}
	broker := bus.NewBroker(8)
	ctx := context.Background()
	sub := broker.Subscribe(ctx, bus.Telemetry)
	a := NewActor("KeyWriter", dev, broker, logger.NewDefaultLogger(logger.ErrorLevel))

	cause := bus.NewEnvelope("Pipeline", bus.NewHidReport(bus.HidReport{0, 0, 4, 0, 0, 0, 0, 0}))
	if err := a.HandleEvent(ctx, cause); err != nil {
		t.Fatal(err)
	}

	select {
	case env := <-sub.Inbox:
		if env.Payload.Kind != bus.KindReportSent {
			t.Fatalf("expected ReportSent, got %v", env.Payload.Kind)
		}
		if env.CorrelationID != cause.ID {
			t.Fatalf("expected correlation id %q, got %q", cause.ID, env.CorrelationID)
		}
	default:
		t.Fatal("expected a ReportSent envelope after a successful write")
	}
}

func TestShutdownWritesFinalReset(t *testing.T) {
	a, dev := newTestActor()
	a.OnShutdown(context.Background())

	if len(dev.writes) != 1 || !dev.writes[0].IsReset() {
		t.Fatalf("expected a final reset report on shutdown, got %+v", dev.writes)
	}
}
