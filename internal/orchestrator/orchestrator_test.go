package orchestrator

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/callengine/internal/callmodel"
	"github.com/snarg/callengine/internal/config"
	"github.com/snarg/callengine/internal/dialog"
	"github.com/snarg/callengine/internal/telephony"
	"github.com/snarg/callengine/internal/tts"
)

func newTestOrchestrator() *Orchestrator {
	return New(Deps{
		Markup: telephony.NewBuilder("https://example.test"),
		Config: &config.Config{FallbackVoiceID: "alice"},
		Log:    zerolog.Nop(),
	})
}

func TestIsOffTopic(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"yes", false},
		{"I can pay the balance next week", false},
		{strings.Repeat("the weather has been strange lately and I went fishing ", 2), true},
	}
	for _, tc := range cases {
		if got := isOffTopic(tc.text); got != tc.want {
			t.Errorf("isOffTopic(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestMapCarrierStatus(t *testing.T) {
	cases := map[string]callmodel.Status{
		"queued":      callmodel.StatusInitiated,
		"ringing":     callmodel.StatusRinging,
		"in-progress": callmodel.StatusInProgress,
		"completed":   callmodel.StatusCompleted,
		"busy":        callmodel.StatusBusy,
		"failed":      callmodel.StatusFailed,
		"no-answer":   callmodel.StatusNoAnswer,
		"canceled":    callmodel.StatusCanceled,
	}
	for carrier, want := range cases {
		if got := mapCarrierStatus(carrier); got != want {
			t.Errorf("mapCarrierStatus(%q) = %q, want %q", carrier, got, want)
		}
	}
}

func TestCallStatePendingConsumedOnce(t *testing.T) {
	cs := &callState{}
	cs.setPending(PendingAudio{Ready: true, Source: tts.SourcePrimary, URL: "https://audio/1.mp3"})

	p, ok := cs.consumePending()
	if !ok || p.URL != "https://audio/1.mp3" {
		t.Fatalf("expected first consume to return the pending audio, got %+v ok=%v", p, ok)
	}

	if _, ok := cs.consumePending(); ok {
		t.Fatal("second consume must return ok=false: PendingAudio.Consumed transitions false->true at most once")
	}
}

func TestHandleTwiMLUnknownCallReturnsTerminalError(t *testing.T) {
	o := newTestOrchestrator()
	markup := o.HandleTwiML("no-such-call")
	if !strings.Contains(markup, "<Hangup>") {
		t.Fatalf("expected terminal markup for unknown call, got %s", markup)
	}
}

func TestHandleTwiMLNoPendingReturnsWait(t *testing.T) {
	o := newTestOrchestrator()
	o.put("call-1", &callState{call: &callmodel.Call{ID: "call-1"}, session: dialog.NewSession("call-1", nil)})

	markup := o.HandleTwiML("call-1")
	if !strings.Contains(markup, "<Redirect") || !strings.Contains(markup, "<Pause") {
		t.Fatalf("expected wait-and-redirect markup, got %s", markup)
	}
}

func TestHandleTwiMLPlaysThenWaitsAfterConsumption(t *testing.T) {
	o := newTestOrchestrator()
	cs := &callState{call: &callmodel.Call{ID: "call-1"}, session: dialog.NewSession("call-1", nil)}
	cs.setPending(PendingAudio{Ready: true, Source: tts.SourcePrimary, URL: "https://audio/hello.mp3"})
	o.put("call-1", cs)

	first := o.HandleTwiML("call-1")
	if !strings.Contains(first, "<Play>https://audio/hello.mp3</Play>") || !strings.Contains(first, "<Record") {
		t.Fatalf("expected play-and-record markup, got %s", first)
	}

	second := o.HandleTwiML("call-1")
	if !strings.Contains(second, "<Redirect") {
		t.Fatalf("expected a wait once the pending audio was consumed, got %s", second)
	}
}

func TestHandleTwiMLCarrierFallbackUsesSayAndRecord(t *testing.T) {
	o := newTestOrchestrator()
	cs := &callState{call: &callmodel.Call{ID: "call-1"}, session: dialog.NewSession("call-1", nil)}
	cs.setPending(PendingAudio{Ready: true, Source: tts.SourceFallback, Text: "Could you repeat that?"})
	o.put("call-1", cs)

	markup := o.HandleTwiML("call-1")
	if !strings.Contains(markup, "Could you repeat that?") || !strings.Contains(markup, "<Record") {
		t.Fatalf("expected carrier-native say-and-record markup, got %s", markup)
	}
}

func TestHandleTwiMLTerminalStageHangsUp(t *testing.T) {
	o := newTestOrchestrator()
	session := dialog.NewSession("call-1", nil)
	// StageStart + neutral has no table rule, so it falls through to the
	// default StageListening before the hang_up turn reaches the rule
	// that actually transitions to the terminal StageCompleted.
	session.AppendTurn(callmodel.ConversationTurn{Timestamp: time.Now(), Speaker: callmodel.SpeakerCallee, Text: "uh", Intent: "neutral"})
	session.AppendTurn(callmodel.ConversationTurn{Timestamp: time.Now(), Speaker: callmodel.SpeakerCallee, Text: "bye", Intent: "hang_up"})
	cs := &callState{call: &callmodel.Call{ID: "call-1"}, session: session}
	cs.setPending(PendingAudio{Ready: true, Text: "Thank you, goodbye."})
	o.put("call-1", cs)

	if !session.CurrentStage().IsTerminal() {
		t.Fatalf("expected test setup to reach a terminal stage, got %s", session.CurrentStage())
	}

	markup := o.HandleTwiML("call-1")
	if !strings.Contains(markup, "<Hangup>") || strings.Contains(markup, "<Record") {
		t.Fatalf("expected terminal hangup markup with no further recording, got %s", markup)
	}
}

func TestScheduleTeardownExtendsOnceWhileProcessingRecording(t *testing.T) {
	o := newTestOrchestrator()
	o.deps.Config = &config.Config{
		TeardownGrace:          5 * time.Millisecond,
		TeardownGraceExtension: time.Hour,
	}

	session := dialog.NewSession("call-1", nil)
	if !session.TryBeginProcessing() {
		t.Fatal("expected idle session to begin processing")
	}
	session.BeginProcessingRecording()

	cs := &callState{call: &callmodel.Call{ID: "call-1"}, session: session}
	o.put("call-1", cs)

	o.scheduleTeardown("call-1")
	time.Sleep(40 * time.Millisecond)

	cs.mu.Lock()
	extended := cs.graceExtended
	cs.mu.Unlock()
	if !extended {
		t.Fatal("expected teardown grace to be extended once while a recording is still processing")
	}
	if o.get("call-1") == nil {
		t.Fatal("call must not have been torn down while the extension is still pending")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	o := newTestOrchestrator()
	cs := &callState{call: &callmodel.Call{ID: "call-1"}}
	o.put("call-1", cs)

	first := o.remove("call-1")
	if first != cs {
		t.Fatal("expected first remove to return the call state")
	}
	if second := o.remove("call-1"); second != nil {
		t.Fatal("expected second remove to be a no-op, matching end(call-id)'s required idempotency")
	}
}
