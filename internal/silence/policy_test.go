package silence

import (
	"testing"
	"time"

	"github.com/snarg/callengine/internal/hallucination"
)

func TestClassifySeverity(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want Severity
	}{
		{0, SeverityNone},
		{1 * time.Second, SeverityNone},
		{2 * time.Second, SeverityShort},
		{5 * time.Second, SeverityMedium},
		{10 * time.Second, SeverityLong},
		{21 * time.Second, SeverityCritical},
	}
	for _, tc := range cases {
		if got := Classify(History{CumulativeDuration: tc.d}); got != tc.want {
			t.Errorf("Classify(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestDecideIgnoresHallucination(t *testing.T) {
	verdict := hallucination.Result{Label: hallucination.LabelHallucination}
	d := Decide(verdict, StageNegotiation, History{CumulativeDuration: 30 * time.Second})
	if d.Prescription != PrescriptionIgnore {
		t.Fatalf("Prescription = %q, want ignore", d.Prescription)
	}
	if !d.ShouldContinue {
		t.Fatal("ignoring a hallucination must not end the call")
	}
}

func TestDecideCriticalHangsUp(t *testing.T) {
	verdict := hallucination.Result{Label: hallucination.LabelSilence}
	d := Decide(verdict, StageNegotiation, History{CumulativeDuration: 25 * time.Second, Count: 5})
	if d.Prescription != PrescriptionHangUp {
		t.Fatalf("Prescription = %q, want hang_up", d.Prescription)
	}
	if d.ShouldContinue {
		t.Fatal("critical silence must end the call")
	}
	if d.ReplyText == "" {
		t.Fatal("expected a farewell reply before hanging up")
	}
}

func TestDecideMediumDuringNegotiationWaitsPatiently(t *testing.T) {
	verdict := hallucination.Result{Label: hallucination.LabelSilence}
	d := Decide(verdict, StageNegotiation, History{CumulativeDuration: 6 * time.Second})
	if d.Prescription != PrescriptionPatientWait {
		t.Fatalf("Prescription = %q, want patient_wait", d.Prescription)
	}
}

func TestDecideLongWithRepeatedSilenceDemandsResponse(t *testing.T) {
	verdict := hallucination.Result{Label: hallucination.LabelSilence}
	d := Decide(verdict, "listening", History{CumulativeDuration: 11 * time.Second, Count: 3})
	if d.Prescription != PrescriptionDemandResponse {
		t.Fatalf("Prescription = %q, want demand_response", d.Prescription)
	}
}
