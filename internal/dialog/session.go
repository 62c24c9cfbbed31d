package dialog

import (
	"sync"
	"time"

	"github.com/snarg/callengine/internal/callmodel"
	"github.com/snarg/callengine/internal/classifier"
)

// Phase is the DialogSession's own execution-state flag, replacing the
// is_processing/processing_recording booleans of spec §5 with a single
// enumerated value. Every (is_processing, processing_recording) pair the
// spec describes maps onto exactly one Phase:
//
//	(false, false) -> PhaseIdle
//	(true,  false) -> PhaseProcessing
//	(true,  true)  -> PhaseProcessingRecording
//	(false, true)  -> unreachable; recording processing always implies
//	                  the pipeline is active
//	terminal       -> PhaseTornDown
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseProcessing          Phase = "processing"
	PhaseProcessingRecording Phase = "processing_recording"
	PhaseTornDown            Phase = "torn_down"
)

// Session is the volatile, per-call DialogSession (spec §3). It is
// exclusively owned by the orchestrator for the call's lifetime and
// confined to its owning call (spec §5's "DialogSession objects are
// confined to their owning call").
type Session struct {
	mu sync.Mutex

	CallID  string
	Client  *callmodel.Client
	Stage   Stage
	History []callmodel.ConversationTurn

	repeatCounters map[repeatKey]int
	phase          Phase
	lastActivity   time.Time
	silence        silenceState
}

type repeatKey struct {
	stage  Stage
	intent classifier.Intent
}

type silenceState struct {
	cumulative time.Duration
	count      int
}

// NewSession creates an idle DialogSession in the start stage.
func NewSession(callID string, client *callmodel.Client) *Session {
	return &Session{
		CallID:         callID,
		Client:         client,
		Stage:          StageStart,
		repeatCounters: make(map[repeatKey]int),
		phase:          PhaseIdle,
		lastActivity:   time.Now(),
	}
}

// TryBeginProcessing attempts to move the session from idle into
// processing. Returns false if a pipeline is already in flight or the
// session has been torn down — the caller must drop the chunk as a no-op,
// per spec §5's is_processing guard.
func (s *Session) TryBeginProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseIdle {
		return false
	}
	s.phase = PhaseProcessing
	s.lastActivity = time.Now()
	return true
}

// BeginProcessingRecording extends an in-flight pipeline into the
// recording-processing phase, so teardown can distinguish "a pipeline is
// running" from "a recording is specifically being processed" for its
// extended deadline (spec §5's processing_recording flag).
func (s *Session) BeginProcessingRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseProcessing {
		s.phase = PhaseProcessingRecording
	}
}

// EndProcessing returns the session to idle, unless it has already been
// torn down.
func (s *Session) EndProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseTornDown {
		s.phase = PhaseIdle
	}
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// TearDown marks the session terminal. Idempotent: calling it more than
// once has no further effect, matching end(call-id)'s required
// idempotency (spec §8).
func (s *Session) TearDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseTornDown
}

// AppendTurn appends turn to history and advances the session's stage per
// the DialogStateMachine, bumping the repeat counter for the matching
// (stage, intent) pair. Returns the resulting Transition. No-op (aside
// from the history append) once the session is terminal.
func (s *Session) AppendTurn(turn callmodel.ConversationTurn) Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.History = append(s.History, turn)
	s.lastActivity = time.Now()

	if s.Stage.IsTerminal() {
		return Transition{NextStage: s.Stage, Priority: PriorityLow}
	}

	intent := classifier.Intent(turn.Intent)
	key := repeatKey{stage: s.Stage, intent: intent}
	repeat := s.repeatCounters[key]

	transition := Next(s.Stage, intent, repeat)
	if transition.NextStage == s.Stage {
		s.repeatCounters[key] = repeat + 1
	} else {
		s.repeatCounters = make(map[repeatKey]int) // repeat counters are per-stage; reset on transition
	}
	s.Stage = transition.NextStage
	return transition
}

// AppendAgentTurn appends the agent's own line to history without driving
// the state machine: transitions are only ever a function of the callee's
// classified intent (AppendTurn), never of what the agent just said.
func (s *Session) AppendAgentTurn(turn callmodel.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = append(s.History, turn)
	s.lastActivity = time.Now()
}

// CurrentStage safely reads the session's stage from any goroutine; the
// exported Stage field itself is only safe to read from the goroutine
// that just called a mutating method (AppendTurn, TryBeginProcessing).
func (s *Session) CurrentStage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Stage
}

// Snapshot safely reads the session's history alongside its stage, for
// callers (e.g. the classifier) that need both consistently.
func (s *Session) Snapshot() (Stage, []callmodel.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Stage, append([]callmodel.ConversationTurn(nil), s.History...)
}

// Repeat returns the current repeat count for (stage, intent), used by
// the response selector's generated-vs-cached decision.
func (s *Session) Repeat(stage Stage, intent classifier.Intent) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeatCounters[repeatKey{stage: stage, intent: intent}]
}

// RecordSilence accumulates a silence event into the session's cumulative
// silence history, returning the updated view for SilencePolicy.
func (s *Session) RecordSilence(d time.Duration) (cumulative time.Duration, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silence.cumulative += d
	s.silence.count++
	return s.silence.cumulative, s.silence.count
}

// ResetSilence clears accumulated silence history after real speech is
// detected.
func (s *Session) ResetSilence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silence = silenceState{}
}

// IdleSince reports how long it has been since the last recorded
// activity (turn append or processing start).
func (s *Session) IdleSince() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}
