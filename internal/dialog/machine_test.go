package dialog

import (
	"testing"

	"github.com/snarg/callengine/internal/classifier"
)

func TestNextScriptTableTransitions(t *testing.T) {
	cases := []struct {
		stage  Stage
		intent classifier.Intent
		repeat int
		want   Stage
	}{
		{StageStart, classifier.IntentPositive, 0, StageGreetingSent},
		{StageListening, classifier.IntentPositive, 0, StagePaymentDiscussion},
		{StageListening, classifier.IntentNegative, 0, StageNegotiation},
		{StageListening, classifier.IntentAggressive, 0, StageDeEscalation},
		{StageListening, classifier.IntentHangUp, 0, StageCompleted},
		{StageNegotiation, classifier.IntentNegative, 1, StageEscalation},
		{StageEscalation, classifier.IntentNegative, 0, StageFinalWarning},
		{StageFinalWarning, classifier.IntentNegative, 0, StageCompleted},
		{StageFinalWarning, classifier.IntentPositive, 0, StageCompleted},
	}
	for _, tc := range cases {
		got := Next(tc.stage, tc.intent, tc.repeat)
		if got.NextStage != tc.want {
			t.Errorf("Next(%s, %s, %d) = %s, want %s", tc.stage, tc.intent, tc.repeat, got.NextStage, tc.want)
		}
	}
}

func TestNextUnmatchedPairDefaultsToListening(t *testing.T) {
	got := Next(StagePaymentDiscussion, classifier.IntentNeutral, 0)
	if got.NextStage != StageListening {
		t.Fatalf("NextStage = %s, want listening", got.NextStage)
	}
}

func TestNextNegotiationNegativeFirstOccurrenceStays(t *testing.T) {
	got := Next(StageNegotiation, classifier.IntentNegative, 0)
	if got.NextStage != StageNegotiation {
		t.Fatalf("NextStage = %s, want negotiation (repeatMin=1 escalation rule shouldn't fire yet)", got.NextStage)
	}
}

func TestNextSilenceAbandonsAfterThreeRepeats(t *testing.T) {
	got := Next(StageListening, classifier.IntentSilence, 3)
	if got.NextStage != StageCompleted || got.Outcome != OutcomeAbandoned {
		t.Fatalf("got %+v, want completed/abandoned", got)
	}
}

func TestNextTerminalStageNeverTransitionsFurther(t *testing.T) {
	for _, intent := range []classifier.Intent{classifier.IntentPositive, classifier.IntentNegative, classifier.IntentAggressive} {
		got := Next(StageCompleted, intent, 0)
		if got.NextStage != StageCompleted {
			t.Fatalf("Next(completed, %s) = %s, want completed (terminal)", intent, got.NextStage)
		}
	}
}

func TestNextIsTotalOverAllStageIntentPairs(t *testing.T) {
	stages := []Stage{StageStart, StageGreetingSent, StageWaitingResponse, StageListening,
		StageNegotiation, StageDeEscalation, StagePaymentDiscussion, StageEscalation, StageFinalWarning}
	intents := []classifier.Intent{classifier.IntentPositive, classifier.IntentNegative, classifier.IntentNeutral,
		classifier.IntentAggressive, classifier.IntentHangUp, classifier.IntentSilence}
	for _, st := range stages {
		for _, in := range intents {
			got := Next(st, in, 0)
			if got.NextStage == "" {
				t.Errorf("Next(%s, %s, 0) returned empty stage", st, in)
			}
		}
	}
}
