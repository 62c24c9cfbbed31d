// Package orchestrator implements C12 CallOrchestrator: the component
// that sequences every other engine (C1-C11) across a single call's
// lifetime, in direct response to the three event families the carrier
// and the initiate API drive it with: initiate, on_webhook, and end.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/snarg/callengine/internal/audiostore"
	"github.com/snarg/callengine/internal/callmodel"
	"github.com/snarg/callengine/internal/classifier"
	"github.com/snarg/callengine/internal/config"
	"github.com/snarg/callengine/internal/database"
	"github.com/snarg/callengine/internal/dialog"
	"github.com/snarg/callengine/internal/hallucination"
	"github.com/snarg/callengine/internal/jobqueue"
	"github.com/snarg/callengine/internal/metrics"
	"github.com/snarg/callengine/internal/phrasecache"
	"github.com/snarg/callengine/internal/responder"
	"github.com/snarg/callengine/internal/silence"
	"github.com/snarg/callengine/internal/stt"
	"github.com/snarg/callengine/internal/telephony"
	"github.com/snarg/callengine/internal/tts"
)

// onTopicWords mirrors dialog's own on-topic vocabulary; kept as a small,
// separate copy since dialog doesn't export it and the selector's
// off-topic signal is this package's responsibility to compute, not
// dialog's (the selector only decides given the booleans, spec §4.6).
var onTopicWords = []string{"оплат", "плат", "долг", "баланс", "счет", "счёт", "сумма", "график", "договор", "компани"}

// Deps are the engines and resources the orchestrator wires together. A
// single Orchestrator is constructed once per process and shared across
// every call (spec §5's "process-wide singleton shared resources");
// per-call state lives in callState, never here.
type Deps struct {
	DB         *database.DB
	Store      audiostore.AudioStore
	Cache      *phrasecache.Cache
	TTS        *tts.Engine
	STT        stt.Provider
	Classifier classifier.Classifier
	Generator  *responder.Generator
	Telephony  *telephony.Client
	Markup     *telephony.Builder
	Config     *config.Config
	// Queue dispatches the STT stage through C8's bounded stt-queue
	// worker pool (spec §2's data-flow: "media-stream frames -> C9 ->
	// utterance buffer -> C8(stt) -> C4"), rather than calling the
	// provider in-process. May be nil in tests, in which case Transcribe
	// is called directly.
	Queue *jobqueue.Queue
	Log   zerolog.Logger
}

// PendingAudio is the single unit of agent audio waiting to be delivered
// to the carrier on its next markup-request, per spec §4.10/§8:
// Consumed transitions false -> true at most once.
type PendingAudio struct {
	Ready    bool
	Source   tts.Source
	URL      string
	Text     string
	Consumed bool
}

// callState is the orchestrator's per-call bookkeeping: the persisted
// Call, the volatile DialogSession, and the single slot of audio waiting
// to be played back.
type callState struct {
	mu            sync.Mutex
	call          *callmodel.Call
	client        *callmodel.Client
	session       *dialog.Session
	pending       PendingAudio
	teardownTimer *time.Timer
	graceExtended bool
}

func (cs *callState) setPending(p PendingAudio) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.pending = p
}

// consumePending returns the pending audio and marks it consumed, or
// ok=false if nothing is ready yet or it was already taken.
func (cs *callState) consumePending() (PendingAudio, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if !cs.pending.Ready || cs.pending.Consumed {
		return PendingAudio{}, false
	}
	cs.pending.Consumed = true
	return cs.pending, true
}

// Orchestrator is C12 CallOrchestrator.
type Orchestrator struct {
	deps Deps

	mu    sync.Mutex
	calls map[string]*callState
}

// New constructs an Orchestrator from explicit dependencies (Design
// Notes' anti-singleton instruction: no package-level globals, every
// engine is passed in).
func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps, calls: make(map[string]*callState)}
}

// Client returns the Client record associated with callID, or nil if the
// call isn't active — used by the initiate API to report client-name/
// phone in its response without re-querying the database.
func (o *Orchestrator) Client(callID string) *callmodel.Client {
	cs := o.get(callID)
	if cs == nil {
		return nil
	}
	return cs.client
}

// transcribeJobPayload/transcribeJobResult are JobTranscribe's wire
// format: raw audio bytes in, the provider's Response back out.
type transcribeJobPayload struct {
	Audio []byte `json:"audio"`
}

// RegisterQueueHandlers installs the JobTranscribe handler on Deps.Queue,
// wrapping Deps.STT. Must be called once at startup before any call
// reaches transcribe, and is a no-op if Queue is nil (direct in-process
// STT calls in that case).
func (o *Orchestrator) RegisterQueueHandlers() {
	if o.deps.Queue == nil {
		return
	}
	o.deps.Queue.Register(callmodel.JobTranscribe, func(ctx context.Context, callID string, payload []byte) ([]byte, error) {
		var req transcribeJobPayload
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("orchestrator: decode transcribe payload: %w", err)
		}
		resp, err := o.deps.STT.Transcribe(ctx, req.Audio, stt.Opts{})
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
}

// transcribe routes audio through C8's stt queue when one is configured,
// falling back to a direct in-process call otherwise (e.g. in tests that
// construct an Orchestrator without a Queue).
func (o *Orchestrator) transcribe(ctx context.Context, callID string, audio []byte) (*stt.Response, error) {
	if o.deps.Queue == nil {
		return o.deps.STT.Transcribe(ctx, audio, stt.Opts{})
	}

	payload, err := json.Marshal(transcribeJobPayload{Audio: audio})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: encode transcribe payload: %w", err)
	}
	handle, err := o.deps.Queue.Enqueue(ctx, callmodel.JobTranscribe, callID, payload, jobqueue.Options{Priority: callmodel.PriorityUrgent})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: enqueue transcribe: %w", err)
	}
	result, err := o.deps.Queue.Await(ctx, handle)
	if err != nil {
		return nil, err
	}
	if result.Err != nil {
		return nil, result.Err
	}
	var resp stt.Response
	if err := json.Unmarshal(result.Output, &resp); err != nil {
		return nil, fmt.Errorf("orchestrator: decode transcribe result: %w", err)
	}
	return &resp, nil
}

func (o *Orchestrator) get(callID string) *callState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[callID]
}

func (o *Orchestrator) put(callID string, cs *callState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[callID] = cs
}

// remove deletes and returns callID's state, or nil if already removed
// (or never present) - the mechanism end(call-id)'s idempotency rests on.
func (o *Orchestrator) remove(callID string) *callState {
	o.mu.Lock()
	defer o.mu.Unlock()
	cs, ok := o.calls[callID]
	if !ok {
		return nil
	}
	delete(o.calls, callID)
	return cs
}

// Initiate places an outbound call to client and seeds the greeting as
// the first PendingAudio, so the carrier's first markup-request has
// something to play the moment the callee answers.
func (o *Orchestrator) Initiate(ctx context.Context, clientID string) (*callmodel.Call, error) {
	client, err := o.deps.DB.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load client: %w", err)
	}

	callID := uuid.NewString()
	call := &callmodel.Call{
		ID:        callID,
		ClientID:  clientID,
		Status:    callmodel.StatusInitiated,
		StartedAt: time.Now(),
	}
	if err := o.deps.DB.InsertCall(ctx, call); err != nil {
		return nil, fmt.Errorf("orchestrator: insert call: %w", err)
	}

	cs := &callState{call: call, client: client, session: dialog.NewSession(callID, client)}
	o.put(callID, cs)

	placed, err := o.deps.Telephony.PlaceCall(ctx, callID, client.Phone)
	if err != nil {
		o.remove(callID)
		call.Status = callmodel.StatusFailed
		now := time.Now()
		call.EndedAt = &now
		_ = o.deps.DB.Finalize(ctx, call)
		metrics.CallsInitiatedTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("orchestrator: place call: %w", err)
	}
	metrics.CallsInitiatedTotal.WithLabelValues("initiated").Inc()
	call.CarrierSID = placed.CarrierSID
	_ = o.deps.DB.SetCarrierSID(ctx, callID, placed.CarrierSID)

	greeting := dialog.Validate(dialog.Render(dialog.StageGreetingSent, client))
	result := o.deps.TTS.Synthesize(ctx, greeting, tts.Opts{CallID: callID, AllowCache: true})

	turn := callmodel.ConversationTurn{Timestamp: time.Now(), Speaker: callmodel.SpeakerAgent, Text: greeting}
	cs.session.AppendAgentTurn(turn)
	o.persistTurn(ctx, cs, turn)
	cs.setPending(PendingAudio{Ready: true, Source: result.Source, URL: result.URL, Text: result.Text})

	return call, nil
}

// HandleTwiML answers a markup-request: the carrier asking what to do
// next for callID. It never blocks on inference and always returns
// valid markup, per spec §7's "orchestrator never surfaces inference
// errors to the carrier."
func (o *Orchestrator) HandleTwiML(callID string) string {
	metrics.WebhookRequestsTotal.WithLabelValues("twiml").Inc()
	cs := o.get(callID)
	if cs == nil {
		return o.deps.Markup.TerminalError("Звонок больше не активен.")
	}

	pending, ok := cs.consumePending()
	if !ok {
		return o.deps.Markup.Wait(callID)
	}

	if cs.session.CurrentStage().IsTerminal() {
		msg := pending.Text
		if msg == "" {
			msg = "Спасибо за уделенное время. До свидания."
		}
		return o.deps.Markup.TerminalError(msg)
	}

	if pending.Source == tts.SourceFallback {
		return o.deps.Markup.SayAndRecord(callID, pending.Text, o.deps.Config.FallbackVoiceID, "ru-RU")
	}
	return o.deps.Markup.PlayAndRecord(callID, pending.URL)
}

// HandleStatus records a carrier call-status update and, on a terminal
// status, begins the teardown-grace countdown (spec §5's 45s grace,
// extended once by 20s if a recording is still being processed).
func (o *Orchestrator) HandleStatus(ctx context.Context, callID, carrierStatus string) {
	metrics.WebhookRequestsTotal.WithLabelValues("status").Inc()
	cs := o.get(callID)
	if cs == nil {
		return
	}

	status := mapCarrierStatus(carrierStatus)
	now := time.Now()

	cs.mu.Lock()
	var answeredAt, endedAt *time.Time
	if (status == callmodel.StatusInProgress) && cs.call.AnsweredAt == nil {
		cs.call.AnsweredAt = &now
		answeredAt = &now
	}
	if status.IsTerminal() && cs.call.EndedAt == nil {
		cs.call.EndedAt = &now
		endedAt = &now
	}
	cs.call.Status = status
	cs.mu.Unlock()

	if err := o.deps.DB.UpdateStatus(ctx, callID, status, answeredAt, endedAt); err != nil {
		o.deps.Log.Warn().Err(err).Str("call_id", callID).Msg("update status failed")
	}

	if status.IsTerminal() {
		o.scheduleTeardown(callID)
	}
}

func (o *Orchestrator) scheduleTeardown(callID string) {
	cs := o.get(callID)
	if cs == nil {
		return
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.teardownTimer != nil {
		return
	}
	cs.teardownTimer = time.AfterFunc(o.deps.Config.TeardownGrace, func() { o.fireTeardown(callID) })
}

// fireTeardown runs at the end of the grace period. If a recording is
// still being processed, it extends the grace exactly once; otherwise it
// ends the call.
func (o *Orchestrator) fireTeardown(callID string) {
	cs := o.get(callID)
	if cs == nil {
		return
	}

	cs.mu.Lock()
	if cs.session.Phase() == dialog.PhaseProcessingRecording && !cs.graceExtended {
		cs.graceExtended = true
		cs.teardownTimer = time.AfterFunc(o.deps.Config.TeardownGraceExtension, func() { o.fireTeardown(callID) })
		cs.mu.Unlock()
		return
	}
	cs.mu.Unlock()

	o.End(callID, "call_ended")
}

// HandleRecordingStatus appends a recording-status callback to the
// call's audit trail; it never mutates dialog state.
func (o *Orchestrator) HandleRecordingStatus(ctx context.Context, callID, status, detail string) {
	metrics.WebhookRequestsTotal.WithLabelValues("recording_status").Inc()
	cs := o.get(callID)
	if cs == nil {
		return
	}
	ev := callmodel.RecordingEvent{Timestamp: time.Now(), Kind: status, Detail: detail}
	cs.mu.Lock()
	cs.call.RecordingEvents = append(cs.call.RecordingEvents, ev)
	cs.mu.Unlock()
	if err := o.deps.DB.AppendRecordingEvent(ctx, callID, ev); err != nil {
		o.deps.Log.Warn().Err(err).Str("call_id", callID).Msg("append recording event failed")
	}
}

// HandleRecordingAvailable acknowledges the carrier immediately with a
// wait-and-redirect response, then processes the recording in the
// background. Never blocks, per spec §4.10.
func (o *Orchestrator) HandleRecordingAvailable(callID, recordingURL string, duration time.Duration) string {
	metrics.WebhookRequestsTotal.WithLabelValues("recording_available").Inc()
	cs := o.get(callID)
	if cs == nil {
		return o.deps.Markup.TerminalError("Звонок больше не активен.")
	}
	go o.processRecording(callID, recordingURL, duration)
	return o.deps.Markup.Wait(callID)
}

// processRecording runs the transcribe -> guard -> classify -> respond ->
// synthesize pipeline for one recording, under a hard cap and up to
// three attempts with exponential backoff (spec §5). At most one
// pipeline runs per call at a time; a concurrent attempt is a no-op.
func (o *Orchestrator) processRecording(callID, recordingURL string, duration time.Duration) {
	cs := o.get(callID)
	if cs == nil {
		return
	}
	if !cs.session.TryBeginProcessing() {
		o.deps.Log.Debug().Str("call_id", callID).Msg("recording processing already in flight, dropping")
		return
	}
	cs.session.BeginProcessingRecording()
	defer cs.session.EndProcessing()

	ctx, cancel := context.WithTimeout(context.Background(), o.deps.Config.RecordingHardCap)
	defer cancel()

	const maxAttempts = 3
	var lastErr error
attempts:
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				lastErr = ctx.Err()
				break attempts
			}
		}
		if err := o.runPipeline(ctx, cs, recordingURL, duration); err != nil {
			lastErr = err
			o.deps.Log.Warn().Err(err).Str("call_id", callID).Int("attempt", attempt+1).Msg("recording pipeline attempt failed")
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		o.deps.Log.Error().Err(lastErr).Str("call_id", callID).Msg("recording pipeline exhausted retries")
	}
}

func (o *Orchestrator) runPipeline(ctx context.Context, cs *callState, recordingURL string, duration time.Duration) error {
	audio, err := o.deps.Telephony.FetchRecording(ctx, recordingURL)
	if err != nil {
		return err
	}

	transcript, err := o.transcribe(ctx, cs.call.ID, audio)
	if err != nil {
		return err
	}

	_, err = o.processTranscript(ctx, cs, transcript.Text, len(audio), duration, recordingURL)
	return err
}

// ProcessRealtimeUtterance runs the same guard -> classify -> respond ->
// synthesize pipeline as the recording path, but for an utterance VAD
// already segmented from a live media stream rather than one fetched
// from a carrier recording URL. Returns the synthesized reply so the
// realtime caller (internal/mediastream) can push it back over the
// socket without waiting for the carrier's own Play/Record loop.
// Subject to the same single-inflight-pipeline guard as recording
// processing: a concurrent call is a no-op.
func (o *Orchestrator) ProcessRealtimeUtterance(ctx context.Context, callID string, wav []byte, duration time.Duration) (tts.Result, bool) {
	cs := o.get(callID)
	if cs == nil {
		return tts.Result{}, false
	}
	if !cs.session.TryBeginProcessing() {
		return tts.Result{}, false
	}
	defer cs.session.EndProcessing()

	transcript, err := o.transcribe(ctx, callID, wav)
	if err != nil {
		o.deps.Log.Warn().Err(err).Str("call_id", callID).Msg("realtime transcribe failed")
		return tts.Result{}, false
	}

	result, err := o.processTranscript(ctx, cs, transcript.Text, len(wav), duration, "")
	if err != nil {
		o.deps.Log.Warn().Err(err).Str("call_id", callID).Msg("realtime pipeline failed")
		return tts.Result{}, false
	}
	return result, true
}

// processTranscript is the shared guard -> classify -> respond ->
// synthesize chain used once a transcript (from whichever audio source)
// is in hand. recordingURL is "" for the realtime path, which has no
// carrier-hosted recording to reference in the audit trail.
func (o *Orchestrator) processTranscript(ctx context.Context, cs *callState, text string, audioBytes int, duration time.Duration, recordingURL string) (tts.Result, error) {
	verdict := hallucination.ClassifyUtterance(text, audioBytes, duration)
	stage, history := cs.session.Snapshot()

	if !verdict.IsReal() {
		return tts.Result{}, o.handleNonSpeech(ctx, cs, verdict, stage)
	}
	cs.session.ResetSilence()

	intent, err := o.deps.Classifier.Classify(ctx, string(stage), history, text)
	if err != nil {
		intent = classifier.KeywordFallback(text)
	}

	calleeTurn := callmodel.ConversationTurn{Timestamp: time.Now(), Speaker: callmodel.SpeakerCallee, Text: text, Intent: string(intent)}
	transition := cs.session.AppendTurn(calleeTurn)
	o.persistTurn(ctx, cs, calleeTurn)
	if recordingURL != "" {
		o.persistRecording(ctx, cs, recordingURL, duration, text, string(intent))
	}

	nextStage := transition.NextStage
	metrics.DialogTransitionsTotal.WithLabelValues(string(nextStage)).Inc()
	repeat := cs.session.Repeat(nextStage, intent)

	scriptText := dialog.Validate(dialog.Render(nextStage, cs.client))
	cachedURL, _ := o.deps.Cache.Lookup(ctx, scriptText, o.deps.Config.TTSVoiceID)

	method := dialog.SelectMethod(text, repeat, isOffTopic(text), intent == classifier.IntentAggressive, cachedURL != "")

	replyText := scriptText
	allowCache := true
	if method == dialog.MethodGenerated && o.deps.Generator != nil {
		replyText, method = o.deps.Generator.Generate(ctx, nextStage, cs.client, history, text)
		allowCache = method != dialog.MethodGenerated
	}

	result := o.deps.TTS.Synthesize(ctx, replyText, tts.Opts{CallID: cs.call.ID, AllowCache: allowCache})

	agentTurn := callmodel.ConversationTurn{Timestamp: time.Now(), Speaker: callmodel.SpeakerAgent, Text: replyText}
	cs.session.AppendAgentTurn(agentTurn)
	o.persistTurn(ctx, cs, agentTurn)
	cs.setPending(PendingAudio{Ready: true, Source: result.Source, URL: result.URL, Text: result.Text})

	if transition.Outcome != dialog.OutcomeNone {
		o.applyOutcome(cs, transition.Outcome)
	}
	return result, nil
}

// handleNonSpeech routes a non-real-speech verdict to SilencePolicy
// (genuine silence) or drops it entirely (a suppressed hallucination),
// per spec §7: degraded content is never surfaced as an error.
func (o *Orchestrator) handleNonSpeech(ctx context.Context, cs *callState, verdict hallucination.Result, stage dialog.Stage) error {
	if verdict.IsHallucination() {
		o.deps.Log.Debug().Str("reason", verdict.Reason).Msg("hallucination suppressed")
		return nil
	}

	cumulative, count := cs.session.RecordSilence(o.deps.Config.SilenceTimeout)
	decision := silence.Decide(verdict, silence.Stage(stage), silence.History{CumulativeDuration: cumulative, Count: count})

	if decision.ReplyText != "" {
		result := silence.Synthesize(ctx, o.deps.TTS, cs.call.ID, decision)
		agentTurn := callmodel.ConversationTurn{Timestamp: time.Now(), Speaker: callmodel.SpeakerAgent, Text: decision.ReplyText}
		cs.session.AppendAgentTurn(agentTurn)
		o.persistTurn(ctx, cs, agentTurn)
		cs.setPending(PendingAudio{Ready: true, Source: result.Source, URL: result.URL, Text: result.Text})
	}

	if !decision.ShouldContinue {
		go o.End(cs.call.ID, "silence_exhausted")
	}
	return nil
}

func (o *Orchestrator) applyOutcome(cs *callState, outcome dialog.Outcome) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	switch outcome {
	case dialog.OutcomeAgreement:
		cs.call.Result.Agreement = true
	case dialog.OutcomeAbandoned:
		cs.call.Result.AbandonedBySilence = true
	case dialog.OutcomeFlagged:
		cs.call.Result.Flagged = true
	}
}

func (o *Orchestrator) persistTurn(ctx context.Context, cs *callState, turn callmodel.ConversationTurn) {
	cs.mu.Lock()
	cs.call.AppendTurn(turn)
	cs.mu.Unlock()
	if err := o.deps.DB.AppendTurn(ctx, cs.call.ID, turn); err != nil {
		o.deps.Log.Warn().Err(err).Str("call_id", cs.call.ID).Msg("persist turn failed")
	}
}

func (o *Orchestrator) persistRecording(ctx context.Context, cs *callState, url string, duration time.Duration, transcription, intent string) {
	rec := callmodel.Recording{URL: url, Duration: duration, Transcription: transcription, Intent: intent}
	cs.mu.Lock()
	cs.call.Recordings = append(cs.call.Recordings, rec)
	cs.mu.Unlock()
	if err := o.deps.DB.AppendRecording(ctx, cs.call.ID, rec); err != nil {
		o.deps.Log.Warn().Err(err).Str("call_id", cs.call.ID).Msg("persist recording failed")
	}
}

// End tears down callID: idempotent, since a second call finds nothing
// left in the map (spec §8's "end(call-id) is idempotent").
func (o *Orchestrator) End(callID, reason string) {
	cs := o.remove(callID)
	if cs == nil {
		return
	}

	cs.mu.Lock()
	if cs.teardownTimer != nil {
		cs.teardownTimer.Stop()
	}
	cs.mu.Unlock()
	cs.session.TearDown()

	cs.mu.Lock()
	if cs.call.EndedAt == nil {
		now := time.Now()
		cs.call.EndedAt = &now
		if !cs.call.Status.IsTerminal() {
			cs.call.Status = callmodel.StatusCompleted
		}
	}
	call := cs.call
	cs.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.deps.DB.Finalize(ctx, call); err != nil {
		o.deps.Log.Warn().Err(err).Str("call_id", callID).Msg("finalize failed")
	}
	o.deps.Log.Info().Str("call_id", callID).Str("reason", reason).Msg("call ended")
}

func isOffTopic(text string) bool {
	if len(text) <= 50 {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range onTopicWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

func mapCarrierStatus(s string) callmodel.Status {
	switch strings.ToLower(s) {
	case "queued", "initiated":
		return callmodel.StatusInitiated
	case "ringing":
		return callmodel.StatusRinging
	case "answered", "in-progress":
		return callmodel.StatusInProgress
	case "completed":
		return callmodel.StatusCompleted
	case "busy":
		return callmodel.StatusBusy
	case "failed":
		return callmodel.StatusFailed
	case "no-answer":
		return callmodel.StatusNoAnswer
	case "canceled":
		return callmodel.StatusCanceled
	default:
		return callmodel.StatusInProgress
	}
}
