package bus

import "testing"

// allKinds lists every EventKind so Topic routing can be asserted total
// without relying on compiler exhaustiveness (Go switches aren't
// exhaustive-checked).
var allKinds = []EventKind{
	KindKeyPress, KindKeyRelease, KindHidReport, KindSendText, KindSendFile,
	KindTextSent, KindCurrentStats, KindModeChange, KindSleep, KindWakeUp,
	KindReportSent, KindQMKEvent, KindKeyboardAttached, KindExit,
}

func TestEventTopicIsTotal(t *testing.T) {
	for _, k := range allKinds {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("EventTopic panicked for kind %v: %v", k, r)
				}
			}()
			_ = EventTopic(Event{Kind: k})
		}()
	}
}

func TestEventTopicAssignments(t *testing.T) {
	cases := []struct {
		kind EventKind
		want Topic
	}{
		{KindKeyPress, KeyInput},
		{KindKeyRelease, KeyInput},
		{KindHidReport, KeyOutput},
		{KindSendText, TextInput},
		{KindSendFile, TextInput},
		{KindTextSent, TextInput},
		{KindCurrentStats, Stats},
		{KindModeChange, System},
		{KindSleep, System},
		{KindWakeUp, System},
		{KindReportSent, Telemetry},
		{KindQMKEvent, Monitoring},
		{KindKeyboardAttached, Keyboard},
	}
	for _, c := range cases {
		if got := EventTopic(Event{Kind: c.kind}); got != c.want {
			t.Errorf("EventTopic(%v) = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestModeToggle(t *testing.T) {
	if PassThrough.Toggle() != InApp {
		t.Fatal("PassThrough.Toggle() should be InApp")
	}
	if InApp.Toggle() != PassThrough {
		t.Fatal("InApp.Toggle() should be PassThrough")
	}
	if PassThrough.Toggle().Toggle() != PassThrough {
		t.Fatal("toggling twice should return to the original mode")
	}
}
