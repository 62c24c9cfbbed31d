// Package callmodel holds the persisted and in-flight data shapes shared
// across the call core: Call, ConversationTurn, Client, and Job.
package callmodel

import "time"

// Status is a Call's lifecycle status.
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusRinging   Status = "ringing"
	StatusAnswered  Status = "answered"
	StatusInProgress Status = "in-progress"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusBusy      Status = "busy"
	StatusNoAnswer  Status = "no-answer"
	StatusCanceled  Status = "canceled"
)

// IsTerminal reports whether status admits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer, StatusCanceled:
		return true
	default:
		return false
	}
}

// Speaker is who produced a ConversationTurn.
type Speaker string

const (
	SpeakerAgent  Speaker = "agent"
	SpeakerCallee Speaker = "callee"
)

// ConversationTurn is one utterance by one speaker. Timestamps strictly
// increase within a call; callers must not reorder turns once appended.
type ConversationTurn struct {
	Timestamp time.Time `json:"timestamp"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Intent    string    `json:"intent,omitempty"`
}

// Recording is one processed callee recording: the audio URL, duration,
// its transcription, and the intent it was classified as.
type Recording struct {
	URL           string        `json:"url"`
	Duration      time.Duration `json:"duration"`
	Transcription string        `json:"transcription"`
	Intent        string        `json:"intent"`
}

// RecordingEvent is one entry in a call's recording-events audit trail.
type RecordingEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
}

// Result is the negotiated outcome recorded at call end.
type Result struct {
	Agreement         bool       `json:"agreement"`
	PromisedPayment   float64    `json:"promised_payment,omitempty"`
	NextContactDate   *time.Time `json:"next_contact_date,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	Flagged           bool       `json:"flagged,omitempty"`
	AbandonedBySilence bool      `json:"abandoned_by_silence,omitempty"`
}

// Call is the primary persisted entity. It is created by the orchestrator
// on initiate and mutated only by the orchestrator/DialogStateMachine; once
// Status.IsTerminal() it is frozen.
type Call struct {
	ID       string `json:"id"`
	CarrierSID string `json:"carrier_sid,omitempty"`
	ClientID string `json:"client_id"`

	Status Status `json:"status"`

	StartedAt  time.Time  `json:"started_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`

	History         []ConversationTurn `json:"history"`
	Recordings      []Recording        `json:"recordings"`
	RecordingEvents []RecordingEvent   `json:"recording_events"`
	Result          Result             `json:"result"`
}

// Duration returns the call's elapsed time; zero until EndedAt is set.
func (c *Call) Duration() time.Duration {
	if c.EndedAt == nil {
		return 0
	}
	return c.EndedAt.Sub(c.StartedAt)
}

// AppendTurn appends a ConversationTurn, enforcing the strictly-increasing
// timestamp invariant by clamping to one nanosecond after the previous
// turn's timestamp if the clock ever moves backwards (defensive against
// NTP adjustment, not expected in practice).
func (c *Call) AppendTurn(t ConversationTurn) {
	if n := len(c.History); n > 0 && !t.Timestamp.After(c.History[n-1].Timestamp) {
		t.Timestamp = c.History[n-1].Timestamp.Add(time.Nanosecond)
	}
	c.History = append(c.History, t)
}
