// Package silence implements C11 SilencePolicy: deciding how the system
// responds to detected silence, given cumulative silence history for the
// call and the HallucinationGuard's verdict on the current utterance.
package silence

import (
	"context"
	"time"

	"github.com/snarg/callengine/internal/hallucination"
	"github.com/snarg/callengine/internal/tts"
)

// Severity classifies accumulated silence since the last real speech.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityShort    Severity = "short"
	SeverityMedium   Severity = "medium"
	SeverityLong     Severity = "long"
	SeverityCritical Severity = "critical"
)

// Prescription is the action the policy recommends.
type Prescription string

const (
	PrescriptionIgnore         Prescription = "ignore"
	PrescriptionGentlePrompt   Prescription = "gentle_prompt"
	PrescriptionPatientWait    Prescription = "patient_wait"
	PrescriptionDemandResponse Prescription = "demand_response"
	PrescriptionFinalWarning   Prescription = "final_warning"
	PrescriptionHangUp         Prescription = "hang_up"
)

// History is the cumulative silence state tracked per call since the
// last real (non-silent) speech.
type History struct {
	CumulativeDuration time.Duration
	Count              int
}

const (
	shortThreshold    = 2 * time.Second
	mediumThreshold   = 5 * time.Second
	longThreshold     = 10 * time.Second
	criticalThreshold = 20 * time.Second
)

// Classify derives a severity from cumulative silence time and count.
func Classify(h History) Severity {
	switch {
	case h.CumulativeDuration >= criticalThreshold:
		return SeverityCritical
	case h.CumulativeDuration >= longThreshold:
		return SeverityLong
	case h.CumulativeDuration >= mediumThreshold:
		return SeverityMedium
	case h.CumulativeDuration >= shortThreshold:
		return SeverityShort
	default:
		return SeverityNone
	}
}

// Decision is the policy's output for a single silence event.
type Decision struct {
	Severity       Severity
	Prescription   Prescription
	ReplyText      string
	ShouldContinue bool
}

// stage is the minimal dialog-stage context the policy needs; it mirrors
// the subset of dialog.Stage values relevant to silence handling, kept
// independent to avoid an import cycle between dialog and silence.
type Stage string

const (
	StageNegotiation Stage = "negotiation"
)

// Decide produces a Decision for a silence event, given the guard's
// verdict on the (likely empty) transcript, the call's current stage,
// and its cumulative silence history.
func Decide(verdict hallucination.Result, stage Stage, h History) Decision {
	if verdict.IsHallucination() {
		return Decision{Severity: Classify(h), Prescription: PrescriptionIgnore, ShouldContinue: true}
	}

	sev := Classify(h)
	switch sev {
	case SeverityNone, SeverityShort:
		return Decision{Severity: sev, Prescription: PrescriptionIgnore, ShouldContinue: true}
	case SeverityMedium:
		if stage == StageNegotiation {
			return Decision{Severity: sev, Prescription: PrescriptionPatientWait, ShouldContinue: true}
		}
		return Decision{
			Severity: sev, Prescription: PrescriptionGentlePrompt,
			ReplyText: "Can you hear me? Please let me know if you're still there.", ShouldContinue: true,
		}
	case SeverityLong:
		if h.Count >= 3 {
			return Decision{
				Severity: sev, Prescription: PrescriptionDemandResponse,
				ReplyText: "I need a response from you to continue this call. Are you still there?", ShouldContinue: true,
			}
		}
		return Decision{
			Severity: sev, Prescription: PrescriptionFinalWarning,
			ReplyText: "If I don't hear from you, I'll need to end this call.", ShouldContinue: true,
		}
	default: // SeverityCritical
		return Decision{
			Severity: sev, Prescription: PrescriptionHangUp,
			ReplyText: "Since I haven't been able to reach you, I'll end the call here. Goodbye.", ShouldContinue: false,
		}
	}
}

// Synthesize turns a non-empty Decision.ReplyText into a tts.Result using
// engine. Returns a zero Result if ReplyText is empty.
func Synthesize(ctx context.Context, engine *tts.Engine, callID string, d Decision) tts.Result {
	if d.ReplyText == "" {
		return tts.Result{}
	}
	return engine.Synthesize(ctx, d.ReplyText, tts.Opts{CallID: callID, AllowCache: true})
}
