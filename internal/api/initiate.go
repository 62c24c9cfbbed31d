package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/snarg/callengine/internal/database"
	"github.com/snarg/callengine/internal/orchestrator"
)

// InitiateHandler serves the initiator-facing call-placement API (spec
// §6's "Initiate API"), the only API surface this service exposes beyond
// its carrier webhooks.
type InitiateHandler struct {
	orch *orchestrator.Orchestrator
	log  zerolog.Logger
}

func NewInitiateHandler(orch *orchestrator.Orchestrator, log zerolog.Logger) *InitiateHandler {
	return &InitiateHandler{orch: orch, log: log.With().Str("component", "initiate-api").Logger()}
}

func (h *InitiateHandler) Routes(r chi.Router) {
	r.Post("/calls/client/{clientId}", h.InitiateOne)
	r.Post("/calls/bulk", h.InitiateBulk)
}

// callResponse is the {call-id, carrier-sid, client-name, phone, status}
// envelope spec §6 names for a single successful initiation.
type callResponse struct {
	Success    bool   `json:"success"`
	CallID     string `json:"call_id"`
	CarrierSID string `json:"carrier_sid"`
	ClientName string `json:"client_name"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
}

// InitiateOne handles POST /calls/client/{clientId}: 200 on success, 400
// for a malformed id, 404 if the client doesn't resolve, 502 for a
// carrier placement failure.
func (h *InitiateHandler) InitiateOne(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathString(r, "clientId")
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, ErrInvalidParameter, err.Error())
		return
	}

	call, err := h.orch.Initiate(r.Context(), clientID)
	if err != nil {
		h.log.Warn().Err(err).Str("client_id", clientID).Msg("initiate failed")
		if errors.Is(err, database.ErrClientNotFound) {
			WriteErrorWithCode(w, http.StatusNotFound, ErrNotFound, "client not found")
			return
		}
		WriteErrorWithCode(w, http.StatusBadGateway, ErrInternal, "failed to initiate call")
		return
	}

	clientName, phone := "", ""
	if client := h.orch.Client(call.ID); client != nil {
		clientName, phone = client.Name, client.Phone
	}

	WriteJSON(w, http.StatusOK, callResponse{
		Success:    true,
		CallID:     call.ID,
		CarrierSID: call.CarrierSID,
		ClientName: clientName,
		Phone:      phone,
		Status:     string(call.Status),
	})
}

// bulkRequest is the body for POST /calls/bulk.
type bulkRequest struct {
	ClientIDs []string `json:"clientIds"`
	DelayMS   int       `json:"delay-ms"`
}

// bulkResponse reports what was scheduled, not the outcome of every call
// (those complete asynchronously, one DelayMS apart).
type bulkResponse struct {
	Success   bool `json:"success"`
	Scheduled int  `json:"scheduled"`
}

// InitiateBulk handles POST /calls/bulk: sequences one initiation per
// client id with DelayMS between successive calls, per spec §6. Returns
// immediately once scheduling begins; an initiation failure for one
// client is logged and does not stop the rest (spec §7's "a single
// failed call never affects other calls").
func (h *InitiateHandler) InitiateBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, ErrInvalidBody, "invalid request body")
		return
	}
	if len(req.ClientIDs) == 0 {
		WriteErrorWithCode(w, http.StatusBadRequest, ErrInvalidParameter, "clientIds must not be empty")
		return
	}

	delay := time.Duration(req.DelayMS) * time.Millisecond
	go h.runBulk(req.ClientIDs, delay)

	WriteJSON(w, http.StatusAccepted, bulkResponse{Success: true, Scheduled: len(req.ClientIDs)})
}

func (h *InitiateHandler) runBulk(clientIDs []string, delay time.Duration) {
	for i, clientID := range clientIDs {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := h.orch.Initiate(ctx, clientID); err != nil {
			h.log.Warn().Err(err).Str("client_id", clientID).Msg("bulk initiate failed")
		}
		cancel()
	}
}
