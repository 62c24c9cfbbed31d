package mediastream

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/snarg/callengine/internal/vad"
)

func newTestSession() *session {
	return &session{log: zerolog.Nop(), detector: vad.NewDetector(0.03)}
}

func TestHandleMediaIgnoredWithoutCallID(t *testing.T) {
	s := newTestSession()
	// No "start" event has arrived yet, so callID is empty; handleMedia
	// must not attempt to decode or dispatch.
	s.handleMedia(&twilioMedia{Track: "inbound", Payload: base64.StdEncoding.EncodeToString(make([]byte, 160))})
}

func TestHandleMediaIgnoresMalformedBase64(t *testing.T) {
	s := newTestSession()
	s.callID = "call-1"
	// Must log and return rather than panic on invalid base64.
	s.handleMedia(&twilioMedia{Track: "inbound", Payload: "not-valid-base64!!"})
}

func TestHandleMediaNoopOnNilMedia(t *testing.T) {
	s := newTestSession()
	s.callID = "call-1"
	s.handleMedia(nil)
}

func TestTwilioMessageUnmarshalsStartEvent(t *testing.T) {
	raw := []byte(`{
		"event": "start",
		"streamSid": "MZ123",
		"start": {"callSid": "CA123", "streamSid": "MZ123", "customParameters": {"call_id": "call-9"}}
	}`)
	var msg twilioMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Event != "start" || msg.Start == nil {
		t.Fatalf("expected a parsed start event, got %+v", msg)
	}
	if msg.Start.CustomParameters["call_id"] != "call-9" {
		t.Fatalf("expected call_id custom parameter to survive unmarshal, got %+v", msg.Start.CustomParameters)
	}
}
