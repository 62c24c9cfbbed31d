package dialog

import (
	"testing"
	"time"

	"github.com/snarg/callengine/internal/callmodel"
)

func TestSessionSingleInflightPipelinePerCall(t *testing.T) {
	s := NewSession("call-1", nil)

	if !s.TryBeginProcessing() {
		t.Fatal("first TryBeginProcessing should succeed")
	}
	if s.TryBeginProcessing() {
		t.Fatal("a second concurrent TryBeginProcessing must be refused (is_processing guard)")
	}
	s.EndProcessing()
	if !s.TryBeginProcessing() {
		t.Fatal("TryBeginProcessing should succeed again once idle")
	}
}

func TestSessionTearDownIsIdempotent(t *testing.T) {
	s := NewSession("call-1", nil)
	s.TearDown()
	s.TearDown()
	if s.Phase() != PhaseTornDown {
		t.Fatalf("Phase = %s, want torn_down", s.Phase())
	}
	if s.TryBeginProcessing() {
		t.Fatal("a torn-down session must never accept new processing")
	}
}

func TestSessionProcessingRecordingPhase(t *testing.T) {
	s := NewSession("call-1", nil)
	s.TryBeginProcessing()
	s.BeginProcessingRecording()
	if s.Phase() != PhaseProcessingRecording {
		t.Fatalf("Phase = %s, want processing_recording", s.Phase())
	}
}

func TestSessionAppendTurnAdvancesStage(t *testing.T) {
	s := NewSession("call-1", nil)
	s.Stage = StageListening

	transition := s.AppendTurn(callmodel.ConversationTurn{
		Timestamp: time.Now(), Speaker: callmodel.SpeakerCallee, Text: "I can't pay", Intent: "negative",
	})
	if transition.NextStage != StageNegotiation {
		t.Fatalf("NextStage = %s, want negotiation", transition.NextStage)
	}
	if s.Stage != StageNegotiation {
		t.Fatalf("session stage = %s, want negotiation", s.Stage)
	}
}

func TestSessionAppendTurnNoOpAfterTerminal(t *testing.T) {
	s := NewSession("call-1", nil)
	s.Stage = StageCompleted

	transition := s.AppendTurn(callmodel.ConversationTurn{
		Timestamp: time.Now(), Speaker: callmodel.SpeakerCallee, Text: "hello?", Intent: "neutral",
	})
	if transition.NextStage != StageCompleted {
		t.Fatalf("terminal session must never transition further, got %s", transition.NextStage)
	}
}

func TestSessionRepeatCounterEscalatesOnSecondNegative(t *testing.T) {
	s := NewSession("call-1", nil)
	s.Stage = StageNegotiation

	s.AppendTurn(callmodel.ConversationTurn{Timestamp: time.Now(), Speaker: callmodel.SpeakerCallee, Text: "no", Intent: "negative"})
	if s.Stage != StageNegotiation {
		t.Fatalf("first negative in negotiation should stay, got %s", s.Stage)
	}
	s.AppendTurn(callmodel.ConversationTurn{Timestamp: time.Now(), Speaker: callmodel.SpeakerCallee, Text: "still no", Intent: "negative"})
	if s.Stage != StageEscalation {
		t.Fatalf("second negative in negotiation should escalate, got %s", s.Stage)
	}
}

func TestSessionHistoryAppendOrderPreserved(t *testing.T) {
	s := NewSession("call-1", nil)
	s.Stage = StageListening
	t1 := callmodel.ConversationTurn{Timestamp: time.Now(), Speaker: callmodel.SpeakerAgent, Text: "hi", Intent: ""}
	t2 := callmodel.ConversationTurn{Timestamp: time.Now().Add(time.Millisecond), Speaker: callmodel.SpeakerCallee, Text: "ok", Intent: "positive"}
	s.AppendTurn(t1)
	s.AppendTurn(t2)
	if len(s.History) != 2 || s.History[0].Text != "hi" || s.History[1].Text != "ok" {
		t.Fatalf("history order not preserved: %+v", s.History)
	}
}
