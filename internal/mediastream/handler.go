// Package mediastream implements the optional realtime audio path: a
// carrier WebSocket media stream feeding C9 VAD directly, bypassing the
// carrier's own record-then-fetch loop for calls where MEDIA_STREAM_ENABLED
// is set. Grounded on fanonxr-Lexiq-AI's voice-gateway stream manager
// (TwilioMessage/TwilioMedia/TwilioStart/TwilioStop event structs, one
// goroutine reading the socket and one VAD loop per connection), adapted
// to feed utterances into internal/orchestrator instead of a standalone
// conversation client.
//
// Outbound playback assumes the TTS vendor is configured for ulaw_8000
// output when MEDIA_STREAM_ENABLED is set, so synthesized audio can be
// base64-framed and streamed back without a transcoding step; see
// SPEC_FULL.md's Open Question #1 resolution.
package mediastream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/snarg/callengine/internal/orchestrator"
	"github.com/snarg/callengine/internal/vad"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// twilioMessage is one frame of the carrier's media stream protocol.
type twilioMessage struct {
	Event     string       `json:"event"`
	StreamSID string       `json:"streamSid,omitempty"`
	Start     *twilioStart `json:"start,omitempty"`
	Media     *twilioMedia `json:"media,omitempty"`
}

type twilioStart struct {
	CallSID          string            `json:"callSid"`
	StreamSID        string            `json:"streamSid"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

type twilioMedia struct {
	Track   string `json:"track"`
	Payload string `json:"payload"` // base64 mu-law
}

// Handler upgrades carrier media-stream connections and drives VAD-segmented
// utterances into the orchestrator's realtime pipeline, one goroutine per
// call (spec §4.7: single reader, single writer per stream).
type Handler struct {
	orch *orchestrator.Orchestrator
	log  zerolog.Logger
}

// New builds a media-stream Handler bound to the given orchestrator.
func New(orch *orchestrator.Orchestrator, log zerolog.Logger) *Handler {
	return &Handler{orch: orch, log: log.With().Str("component", "mediastream").Logger()}
}

// ServeHTTP upgrades the connection and runs the per-call read loop until
// the socket closes or the carrier sends a stop event.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("media stream upgrade failed")
		return
	}
	defer conn.Close()

	s := &session{conn: conn, orch: h.orch, log: h.log, detector: vad.NewDetector(defaultVADThreshold)}
	s.run()
}

const defaultVADThreshold = 0.03

// session holds the per-connection state for one carrier media stream.
type session struct {
	conn      *websocket.Conn
	orch      *orchestrator.Orchestrator
	log       zerolog.Logger
	detector  *vad.Detector
	callID    string
	streamSID string
}

// run reads frames off the socket until it closes, feeding each decoded
// media frame to the VAD detector and dispatching any utterance it emits.
func (s *session) run() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn().Err(err).Str("call_id", s.callID).Msg("media stream read error")
			}
			return
		}

		var msg twilioMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Warn().Err(err).Msg("malformed media stream frame")
			continue
		}

		switch msg.Event {
		case "start":
			s.streamSID = msg.StreamSID
			if msg.Start != nil {
				s.callID = msg.Start.CustomParameters["call_id"]
				if s.callID == "" {
					s.callID = msg.Start.CallSID
				}
			}
			s.log.Info().Str("call_id", s.callID).Str("stream_sid", s.streamSID).Msg("media stream started")

		case "media":
			s.handleMedia(msg.Media)

		case "stop":
			s.log.Info().Str("call_id", s.callID).Msg("media stream stopped")
			return
		}
	}
}

// handleMedia decodes one carrier audio frame and feeds it to the VAD
// detector, dispatching a background pipeline run whenever a complete
// utterance closes.
func (s *session) handleMedia(media *twilioMedia) {
	if media == nil || media.Payload == "" || s.callID == "" {
		return
	}
	frame, err := base64.StdEncoding.DecodeString(media.Payload)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to decode media stream frame")
		return
	}

	utterance := s.detector.PushFrame(frame)
	if utterance == nil {
		return
	}
	go s.processUtterance(*utterance)
}

// processUtterance runs the shared pipeline for one VAD-segmented
// utterance and streams the synthesized reply back over the socket. Never
// blocks handleMedia: VAD keeps segmenting audio while this runs.
func (s *session) processUtterance(u vad.Utterance) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, ok := s.orch.ProcessRealtimeUtterance(ctx, s.callID, u.WAV, u.Duration)
	if !ok {
		return
	}
	if result.URL == "" {
		// SourceFallback: carrier TwiML (not this socket) will speak it.
		return
	}
	if err := s.sendAudioURL(result.URL); err != nil {
		s.log.Warn().Err(err).Str("call_id", s.callID).Msg("failed to stream synthesized reply")
	}
}

// sendAudioURL fetches the synthesized clip and frames it back to the
// carrier as base64-encoded media events. The vendor is expected to emit
// ulaw_8000 already, so no resampling or transcoding happens here.
func (s *session) sendAudioURL(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := make([]byte, 160) // one 20ms mu-law frame at a time
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			frame := map[string]any{
				"event":     "media",
				"streamSid": s.streamSID,
				"media":     map[string]string{"payload": base64.StdEncoding.EncodeToString(buf[:n])},
			}
			if writeErr := s.conn.WriteJSON(frame); writeErr != nil {
				return writeErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
