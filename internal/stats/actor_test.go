package stats

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

func TestActorLoadsExistingSnapshotOnInit(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stats.json")
	data, _ := json.Marshal(snapshot{Total: 123, MaxWPM: 45})
	if err := os.WriteFile(file, data, 0o600); err != nil {
		t.Fatal(err)
	}

	a := NewActor("TypingStats", bus.NewBroker(8), file, 3, 10, 60, logger.NewDefaultLogger(logger.ErrorLevel))
	if err := a.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	if a.total != 123 || a.wpm.MaxWPM() != 45 {
		t.Fatalf("expected restored total=123 max_wpm=45, got total=%d max_wpm=%d", a.total, a.wpm.MaxWPM())
	}
}

func TestActorCountsKeyPressesAndPublishesStats(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stats.json")
	broker := bus.NewBroker(8)
	ctx := context.Background()
	sub := broker.Subscribe(ctx, bus.Stats)

	a := NewActor("TypingStats", broker, file, 3, 10, 60, logger.NewDefaultLogger(logger.ErrorLevel))
	if err := a.Init(ctx); err != nil {
		t.Fatal(err)
	}

	_ = a.HandleEvent(ctx, bus.NewEnvelope("KeyScanner", bus.KeyPress(30, "kbd0")))
	_ = a.HandleEvent(ctx, bus.NewEnvelope("KeyScanner", bus.KeyPress(31, "kbd0")))

	a.nextWPM = time.Now().Add(-time.Second)
	if _, err := a.Tick(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case env := <-sub.Inbox:
		if env.Payload.Kind != bus.KindCurrentStats || env.Payload.Stats.Total != 2 {
			t.Fatalf("expected CurrentStats with total=2, got %+v", env.Payload)
		}
	default:
		t.Fatal("expected a CurrentStats envelope after the WPM tick fired")
	}
}

func TestActorSavesSnapshotOnShutdown(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "nested", "stats.json")

	a := NewActor("TypingStats", bus.NewBroker(8), file, 3, 10, 60, logger.NewDefaultLogger(logger.ErrorLevel))
	_ = a.Init(context.Background())
	_ = a.HandleEvent(context.Background(), bus.NewEnvelope("KeyScanner", bus.KeyPress(30, "kbd0")))

	a.OnShutdown(context.Background())

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("expected snapshot file to exist: %v", err)
	}
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if s.Total != 1 {
		t.Fatalf("expected saved total=1, got %d", s.Total)
	}
}
