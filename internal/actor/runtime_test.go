package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

type recordingActor struct {
	name        string
	initErr     error
	handleErr   error
	handled     int
	ticks       int
	shutdownRan bool
	tickDelay   time.Duration
	tickErr     error
	failTickAt  int
	panicOnTick bool
}

func (a *recordingActor) Name() string { return a.name }

func (a *recordingActor) Init(context.Context) error { return a.initErr }

func (a *recordingActor) HandleEvent(context.Context, bus.Envelope) error {
	a.handled++
	return a.handleErr
}

func (a *recordingActor) Tick(context.Context) (time.Duration, error) {
	a.ticks++
	if a.panicOnTick {
		panic("boom")
	}
	if a.tickErr != nil && (a.failTickAt == 0 || a.ticks == a.failTickAt) {
		return 0, a.tickErr
	}
	return a.tickDelay, nil
}

func (a *recordingActor) OnShutdown(context.Context) { a.shutdownRan = true }

func newSub(t *testing.T, ctx context.Context, topics ...bus.Topic) (*bus.Broker, *bus.Subscription) {
	t.Helper()
	b := bus.NewBroker(8)
	return b, b.Subscribe(ctx, topics...)
}

func TestRunInitErrorPropagatesAndRunsShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, sub := newSub(t, ctx)

	a := &recordingActor{name: "bad", initErr: errors.New("init failed")}
	err := Run(ctx, logger.NewDefaultLogger(logger.ErrorLevel), a, sub)
	if err == nil {
		t.Fatal("expected Init error to propagate")
	}
	if !a.shutdownRan {
		t.Fatal("OnShutdown must run even when Init fails")
	}
}

func TestRunHandleEventErrorDoesNotStopTheLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	broker, sub := newSub(t, ctx, bus.System)

	a := &recordingActor{name: "ok", handleErr: errors.New("handle failed")}
	done := make(chan error, 1)
	go func() { done <- Run(ctx, logger.NewDefaultLogger(logger.ErrorLevel), a, sub) }()

	broker.Publish(ctx, bus.NewEnvelope("test", bus.Sleep()))
	broker.Publish(ctx, bus.NewEnvelope("test", bus.WakeUp()))

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("HandleEvent errors must not propagate from Run, got %v", err)
	}
	if a.handled != 2 {
		t.Fatalf("handled = %d, want 2", a.handled)
	}
}

func TestRunCancellationStopsLoopCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, sub := newSub(t, ctx)

	a := &recordingActor{name: "idle"}
	done := make(chan error, 1)
	go func() { done <- Run(ctx, logger.NewDefaultLogger(logger.ErrorLevel), a, sub) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on clean cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunPanicInTickIsRecoveredAndShutdownStillRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, sub := newSub(t, ctx)

	a := &recordingActor{name: "panicky", tickDelay: time.Millisecond, panicOnTick: true}
	err := Run(ctx, logger.NewDefaultLogger(logger.ErrorLevel), a, sub)
	if err == nil {
		t.Fatal("expected panic to surface as an error")
	}
	if !a.shutdownRan {
		t.Fatal("OnShutdown must run even after a panic")
	}
}

func TestRunTicksRepeatedlyUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, sub := newSub(t, ctx)

	a := &recordingActor{name: "ticker", tickDelay: 5 * time.Millisecond}
	done := make(chan error, 1)
	go func() { done <- Run(ctx, logger.NewDefaultLogger(logger.ErrorLevel), a, sub) }()

	time.Sleep(40 * time.Millisecond)
	cancel()
	<-done

	if a.ticks < 2 {
		t.Fatalf("expected several ticks, got %d", a.ticks)
	}
}

func TestRunInitialTickErrorIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, sub := newSub(t, ctx)

	wantErr := errors.New("device disconnected")
	a := &recordingActor{name: "scanner", tickErr: wantErr}
	err := Run(ctx, logger.NewDefaultLogger(logger.ErrorLevel), a, sub)
	if err == nil || !errors.Is(err, wantErr) {
		t.Fatalf("expected Run to return an error wrapping %v, got %v", wantErr, err)
	}
	if !a.shutdownRan {
		t.Fatal("OnShutdown must run even after a fatal initial tick error")
	}
}

func TestRunTickErrorDuringLoopIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, sub := newSub(t, ctx)

	wantErr := errors.New("device disconnected")
	a := &recordingActor{name: "scanner", tickDelay: time.Millisecond, tickErr: wantErr, failTickAt: 3}

	done := make(chan error, 1)
	go func() { done <- Run(ctx, logger.NewDefaultLogger(logger.ErrorLevel), a, sub) }()

	select {
	case err := <-done:
		if err == nil || !errors.Is(err, wantErr) {
			t.Fatalf("expected Run to return an error wrapping %v, got %v", wantErr, err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after a fatal tick error")
	}
	if !a.shutdownRan {
		t.Fatal("OnShutdown must run even after a fatal tick error mid-loop")
	}
	if a.ticks < 3 {
		t.Fatalf("expected at least 3 ticks before failure, got %d", a.ticks)
	}
}
