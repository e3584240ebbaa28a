package typist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ddrcode/charon/config"
	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/keymap"
	"github.com/ddrcode/charon/internal/logger"
	"github.com/ddrcode/charon/internal/state"
)

func newTestActor(t *testing.T) (*Actor, *bus.Broker, *state.Handle) {
	t.Helper()
	broker := bus.NewBroker(64)
	h := state.New(config.Default())
	h.SetMode(bus.InApp)
	a := NewActor("Typist", broker, h, keymap.DefaultUS(), time.Millisecond, logger.NewDefaultLogger(logger.ErrorLevel))
	return a, broker, h
}

func drain(sub *bus.Subscription, n int) []bus.Envelope {
	out := make([]bus.Envelope, 0, n)
	for i := 0; i < n; i++ {
		select {
		case env := <-sub.Inbox:
			out = append(out, env)
		case <-time.After(time.Second):
			return out
		}
	}
	return out
}

func TestSendTextEmitsReportsAndTextSent(t *testing.T) {
	a, broker, _ := newTestActor(t)
	ctx := context.Background()
	outSub := broker.Subscribe(ctx, bus.KeyOutput)
	textSub := broker.Subscribe(ctx, bus.TextInput)

	req := bus.NewEnvelope("IPCSession1", bus.SendText("a"))
	if err := a.HandleEvent(ctx, req); err != nil {
		t.Fatal(err)
	}

	seq, _ := keymap.DefaultUS().Sequence('a')
	reports := drain(outSub, len(seq))
	if len(reports) != len(seq) {
		t.Fatalf("expected %d reports, got %d", len(seq), len(reports))
	}
	for i, env := range reports {
		if env.Payload.Report != seq[i] {
			t.Fatalf("report %d mismatch: want %+v got %+v", i, seq[i], env.Payload.Report)
		}
	}

	sent := drain(textSub, 1)
	if len(sent) != 1 || sent[0].Payload.Kind != bus.KindTextSent {
		t.Fatalf("expected a TextSent event, got %+v", sent)
	}
	if sent[0].CorrelationID != req.ID {
		t.Fatalf("TextSent correlation id should match the request envelope id, got %q want %q", sent[0].CorrelationID, req.ID)
	}
}

func TestModeFlipAbortsAndReleasesHeldKeys(t *testing.T) {
	a, broker, h := newTestActor(t)
	ctx := context.Background()
	outSub := broker.Subscribe(ctx, bus.KeyOutput)
	textSub := broker.Subscribe(ctx, bus.TextInput)

	done := make(chan struct{})
	go func() {
		_ = a.HandleEvent(ctx, bus.NewEnvelope("IPCSession1", bus.SendText("ABC")))
		close(done)
	}()

	// Let the first report or two go out, then flip the mode mid-sequence.
	<-outSub.Inbox
	h.SetMode(bus.PassThrough)

	<-done

	// Drain whatever made it onto KeyOutput; the very last one must be
	// the all-zero release report, and no TextSent should follow.
	var last bus.Envelope
	for {
		select {
		case env := <-outSub.Inbox:
			last = env
		case <-time.After(50 * time.Millisecond):
			goto checked
		}
	}
checked:
	if last.Payload.Kind != bus.KindHidReport || !last.Payload.Report.IsReset() {
		t.Fatalf("expected a final reset report after abort, got %+v", last)
	}

	select {
	case env := <-textSub.Inbox:
		t.Fatalf("aborted send must not emit TextSent, got %+v", env)
	default:
	}
}

func TestSendFileDeletesOnlyAfterCompletion(t *testing.T) {
	a, broker, _ := newTestActor(t)
	ctx := context.Background()
	broker.Subscribe(ctx, bus.KeyOutput)
	textSub := broker.Subscribe(ctx, bus.TextInput)

	f, err := os.CreateTemp(t.TempDir(), "typist-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	path := f.Name()
	if _, err := f.WriteString("hi"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	req := bus.NewEnvelope("IPCSession1", bus.SendFile(path, true))
	if err := a.HandleEvent(ctx, req); err != nil {
		t.Fatal(err)
	}

	drain(textSub, 1)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file to be deleted after a completed send, stat err = %v", err)
	}
}
