package bus

import (
	"encoding/json"
	"fmt"

	"github.com/ddrcode/charon/internal/charonerr"
)

// MarshalJSON encodes the event using external tagging: a single-key
// object whose key is the variant name and whose value is a positional
// array of that variant's fields (`{"KeyPress":[…]}` form).
func (e Event) MarshalJSON() ([]byte, error) {
	var args []interface{}
	switch e.Kind {
	case KindKeyPress, KindKeyRelease:
		args = []interface{}{e.EvdevCode, e.KeyboardName}
	case KindHidReport:
		args = []interface{}{e.Report}
	case KindSendText:
		args = []interface{}{e.Text}
	case KindSendFile:
		args = []interface{}{e.Path, e.DeleteAfter}
	case KindTextSent, KindSleep, KindWakeUp, KindReportSent, KindExit:
		args = []interface{}{}
	case KindCurrentStats:
		args = []interface{}{e.Stats}
	case KindModeChange:
		args = []interface{}{e.NewMode.String()}
	case KindQMKEvent:
		args = []interface{}{e.QMK}
	case KindKeyboardAttached:
		args = []interface{}{e.AttachedKeyboard}
	default:
		return nil, fmt.Errorf("bus: marshal: unhandled EventKind %v", e.Kind)
	}
	return json.Marshal(map[string]interface{}{e.Kind.String(): args})
}

// UnmarshalJSON decodes the external-tagging form produced by
// MarshalJSON. An object with zero or more than one key, or an
// unrecognised variant name, is a protocol error.
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("bus: unmarshal event: %w", charonerr.ErrProtocol)
	}
	if len(wire) != 1 {
		return fmt.Errorf("bus: event object must have exactly one variant key, got %d: %w", len(wire), charonerr.ErrProtocol)
	}

	var kind, raw string
	for k, v := range wire {
		kind = k
		raw = string(v)
	}

	var args []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return fmt.Errorf("bus: event %q payload must be an array: %w", kind, charonerr.ErrProtocol)
	}

	arg := func(i int, dst interface{}) error {
		if i >= len(args) {
			return fmt.Errorf("bus: event %q missing argument %d: %w", kind, i, charonerr.ErrProtocol)
		}
		if err := json.Unmarshal(args[i], dst); err != nil {
			return fmt.Errorf("bus: event %q argument %d: %w", kind, i, charonerr.ErrProtocol)
		}
		return nil
	}

	switch kind {
	case KindKeyPress.String(), KindKeyRelease.String():
		var code uint16
		var keyboard string
		if err := arg(0, &code); err != nil {
			return err
		}
		if err := arg(1, &keyboard); err != nil {
			return err
		}
		if kind == KindKeyPress.String() {
			*e = KeyPress(code, keyboard)
		} else {
			*e = KeyRelease(code, keyboard)
		}
	case KindHidReport.String():
		var r HidReport
		if err := arg(0, &r); err != nil {
			return err
		}
		*e = NewHidReport(r)
	case KindSendText.String():
		var s string
		if err := arg(0, &s); err != nil {
			return err
		}
		*e = SendText(s)
	case KindSendFile.String():
		var path string
		var del bool
		if err := arg(0, &path); err != nil {
			return err
		}
		if err := arg(1, &del); err != nil {
			return err
		}
		*e = SendFile(path, del)
	case KindTextSent.String():
		*e = TextSent()
	case KindCurrentStats.String():
		var s CurrentStats
		if err := arg(0, &s); err != nil {
			return err
		}
		*e = NewCurrentStats(s)
	case KindModeChange.String():
		var m string
		if err := arg(0, &m); err != nil {
			return err
		}
		mode := PassThrough
		if m == InApp.String() {
			mode = InApp
		}
		*e = ModeChange(mode)
	case KindSleep.String():
		*e = Sleep()
	case KindWakeUp.String():
		*e = WakeUp()
	case KindReportSent.String():
		*e = ReportSent()
	case KindQMKEvent.String():
		var q QMKEvent
		if err := arg(0, &q); err != nil {
			return err
		}
		*e = NewQMKEvent(q)
	case KindKeyboardAttached.String():
		var name string
		if err := arg(0, &name); err != nil {
			return err
		}
		*e = KeyboardAttached(name)
	default:
		return fmt.Errorf("bus: unknown event variant %q: %w", kind, charonerr.ErrProtocol)
	}
	return nil
}

// wireEnvelope is the JSON shape of an Envelope on the IPC socket:
// `{ id, timestamp, sender, payload, correlation_id? }`.
type wireEnvelope struct {
	ID            string `json:"id"`
	Timestamp     int64  `json:"timestamp"`
	Sender        string `json:"sender"`
	Payload       Event  `json:"payload"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEnvelope{
		ID:            e.ID,
		Timestamp:     e.TimestampNs,
		Sender:        e.Sender,
		Payload:       e.Payload,
		CorrelationID: e.CorrelationID,
	})
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("bus: unmarshal envelope: %w", charonerr.ErrProtocol)
	}
	*e = Envelope{
		ID:            w.ID,
		TimestampNs:   w.Timestamp,
		Sender:        w.Sender,
		Payload:       w.Payload,
		CorrelationID: w.CorrelationID,
	}
	return nil
}
