package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/snarg/callengine/internal/orchestrator"
)

// WebhookHandler serves the five carrier webhook endpoints per spec §6.
// Every handler always answers with valid carrier markup (or a bare 200
// for status/recording-status, which the carrier doesn't render) — never
// a 4xx/5xx, per spec §7's "protocol errors: respond with safe markup,
// log, do not crash."
type WebhookHandler struct {
	orch *orchestrator.Orchestrator
	log  zerolog.Logger
}

func NewWebhookHandler(orch *orchestrator.Orchestrator, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{orch: orch, log: log.With().Str("component", "webhooks").Logger()}
}

func (h *WebhookHandler) Routes(r chi.Router) {
	r.Post("/webhooks/twiml", h.TwiML)
	r.Post("/webhooks/twiml/{callId}", h.TwiML)
	r.Post("/webhooks/status/{callId}", h.Status)
	r.Post("/webhooks/recording/{callId}", h.Recording)
	r.Post("/webhooks/recording-status/{callId}", h.RecordingStatus)
	r.Post("/webhooks/continue/{callId}", h.TwiML)
}

func (h *WebhookHandler) writeMarkup(w http.ResponseWriter, markup string) {
	w.Header().Set("Content-Type", "text/xml")
	w.Write([]byte(markup))
}

// TwiML answers a markup-request. callId may arrive either as a path
// parameter or (for the bare /webhooks/twiml registration some carrier
// configurations use) be absent entirely, in which case there is nothing
// this service can do but hang up safely.
func (h *WebhookHandler) TwiML(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")
	if callID == "" {
		h.writeMarkup(w, `<?xml version="1.0" encoding="UTF-8"?><Response><Say language="ru-RU">Звонок больше не активен.</Say><Hangup/></Response>`)
		return
	}
	h.writeMarkup(w, h.orch.HandleTwiML(callID))
}

// Status handles POST /webhooks/status/{callId}: CallStatus, CallSid,
// CallDuration, SipResponseCode.
func (h *WebhookHandler) Status(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")
	if callID == "" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.log.Warn().Err(err).Str("call_id", callID).Msg("malformed status webhook body")
		w.WriteHeader(http.StatusOK)
		return
	}

	h.orch.HandleStatus(r.Context(), callID, r.FormValue("CallStatus"))
	w.WriteHeader(http.StatusOK)
}

// Recording handles POST /webhooks/recording/{callId}: RecordingUrl,
// RecordingDuration, Digits. Acknowledges immediately with wait-markup;
// processing happens in the background (spec §4.10/§7).
func (h *WebhookHandler) Recording(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")
	if callID == "" {
		h.writeMarkup(w, `<?xml version="1.0" encoding="UTF-8"?><Response><Say language="ru-RU">Звонок больше не активен.</Say><Hangup/></Response>`)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.log.Warn().Err(err).Str("call_id", callID).Msg("malformed recording webhook body")
		h.writeMarkup(w, h.orch.HandleTwiML(callID))
		return
	}

	recordingURL := r.FormValue("RecordingUrl")
	duration := parseSecondsField(r.FormValue("RecordingDuration"))
	h.writeMarkup(w, h.orch.HandleRecordingAvailable(callID, recordingURL, duration))
}

// RecordingStatus handles POST /webhooks/recording-status/{callId}:
// RecordingStatus, RecordingSid, RecordingUrl. Audit-trail only; never
// mutates dialog state.
func (h *WebhookHandler) RecordingStatus(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")
	if callID == "" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.log.Warn().Err(err).Str("call_id", callID).Msg("malformed recording-status webhook body")
		w.WriteHeader(http.StatusOK)
		return
	}

	h.orch.HandleRecordingStatus(r.Context(), callID, r.FormValue("RecordingStatus"), r.FormValue("RecordingUrl"))
	w.WriteHeader(http.StatusOK)
}

func parseSecondsField(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}
