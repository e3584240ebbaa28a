package power

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

func writeScript(t *testing.T, dir, name string, exitZero bool) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("scripts are POSIX shell, not supported on windows")
	}
	path := filepath.Join(dir, name)
	body := "#!/bin/sh\nexit 0\n"
	if !exitZero {
		body = "#!/bin/sh\nexit 1\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o700); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTickRunsSleepScriptAndPublishesSleep(t *testing.T) {
	dir := t.TempDir()
	sleepScript := writeScript(t, dir, "sleep.sh", true)

	broker := bus.NewBroker(8)
	ctx := context.Background()
	sub := broker.Subscribe(ctx, bus.System)

	a := NewActor("PowerManager", broker, 0, sleepScript, "", logger.NewDefaultLogger(logger.ErrorLevel))
	_ = a.Init(ctx)
	a.lastActivity = time.Now().Add(-time.Hour)

	next, err := a.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if next <= 0 {
		t.Fatalf("expected a positive rearm duration, got %v", next)
	}
	if !a.asleep {
		t.Fatal("expected asleep=true after a successful sleep script")
	}

	select {
	case env := <-sub.Inbox:
		if env.Payload.Kind != bus.KindSleep {
			t.Fatalf("expected Sleep event, got %v", env.Payload.Kind)
		}
	default:
		t.Fatal("expected a Sleep envelope to be published")
	}
}

func TestKeyPressWakesAndResetsTimer(t *testing.T) {
	dir := t.TempDir()
	awakeScript := writeScript(t, dir, "awake.sh", true)

	broker := bus.NewBroker(8)
	ctx := context.Background()
	sub := broker.Subscribe(ctx, bus.System)

	a := NewActor("PowerManager", broker, time.Hour, "", awakeScript, logger.NewDefaultLogger(logger.ErrorLevel))
	_ = a.Init(ctx)
	a.asleep = true
	oldActivity := a.lastActivity

	time.Sleep(2 * time.Millisecond)
	if err := a.HandleEvent(ctx, bus.NewEnvelope("KeyScanner", bus.KeyPress(30, "kbd0"))); err != nil {
		t.Fatal(err)
	}

	if a.asleep {
		t.Fatal("expected asleep=false after a successful awake script")
	}
	if !a.lastActivity.After(oldActivity) {
		t.Fatal("expected last-activity timestamp to advance on keypress")
	}

	select {
	case env := <-sub.Inbox:
		if env.Payload.Kind != bus.KindWakeUp {
			t.Fatalf("expected WakeUp event, got %v", env.Payload.Kind)
		}
	default:
		t.Fatal("expected a WakeUp envelope to be published")
	}
}

func TestFailedScriptDoesNotFlipState(t *testing.T) {
	dir := t.TempDir()
	sleepScript := writeScript(t, dir, "sleep.sh", false)

	broker := bus.NewBroker(8)
	ctx := context.Background()
	broker.Subscribe(ctx, bus.System)

	a := NewActor("PowerManager", broker, 0, sleepScript, "", logger.NewDefaultLogger(logger.ErrorLevel))
	_ = a.Init(ctx)
	a.lastActivity = time.Now().Add(-time.Hour)

	if _, err := a.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	if a.asleep {
		t.Fatal("a failing sleep script must not set asleep=true")
	}
}

func TestEmptyScriptPathIsANoOp(t *testing.T) {
	broker := bus.NewBroker(8)
	ctx := context.Background()
	a := NewActor("PowerManager", broker, 0, "", "", logger.NewDefaultLogger(logger.ErrorLevel))
	_ = a.Init(ctx)
	a.lastActivity = time.Now().Add(-time.Hour)

	if _, err := a.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	if a.asleep {
		t.Fatal("an empty sleep script path must never set asleep=true")
	}
}
