// Package telephony wraps the carrier's REST API for placing outbound
// calls and builds the control markup the carrier's webhook endpoints
// return to it.
package telephony

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/snarg/callengine/internal/config"
)

// PlacedCall is what the carrier returns once a call is accepted.
type PlacedCall struct {
	CarrierSID string
	Status     string
}

// Client wraps the carrier REST client for outbound call placement, the
// one CallOrchestrator-facing operation this service needs from it.
// Grounded on the bland.ai REST wrapper shape (a thin struct holding
// credentials plus one method per carrier operation) adapted to the real
// Twilio SDK.
type Client struct {
	rest       *twilio.RestClient
	http       *http.Client
	accountSID string
	authToken  string
	fromNumber string
	serverURL  string
	log        zerolog.Logger
}

// New constructs a Client from config.
func New(cfg *config.Config, log zerolog.Logger) *Client {
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &Client{
		rest:       rest,
		http:       &http.Client{Timeout: 30 * time.Second},
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		fromNumber: cfg.TwilioFromNumber,
		serverURL:  cfg.ServerURL,
		log:        log.With().Str("component", "telephony").Logger(),
	}
}

// PlaceCall asks the carrier to dial toNumber, pointing its webhooks at
// this service's /webhooks/twiml/{callId} and /webhooks/status/{callId}
// endpoints so every carrier-initiated event can be routed back to the
// right DialogSession.
func (c *Client) PlaceCall(ctx context.Context, callID, toNumber string) (*PlacedCall, error) {
	params := &openapi.CreateCallParams{}
	params.SetTo(toNumber)
	params.SetFrom(c.fromNumber)
	params.SetUrl(fmt.Sprintf("%s/webhooks/twiml/%s", c.serverURL, callID))
	params.SetMethod("POST")
	params.SetStatusCallback(fmt.Sprintf("%s/webhooks/status/%s", c.serverURL, callID))
	params.SetStatusCallbackMethod("POST")
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})

	resp, err := c.rest.Api.CreateCall(params)
	if err != nil {
		return nil, fmt.Errorf("telephony: place call: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	status := ""
	if resp.Status != nil {
		status = *resp.Status
	}

	c.log.Info().Str("call_id", callID).Str("carrier_sid", sid).Str("to", toNumber).Msg("call placed")
	return &PlacedCall{CarrierSID: sid, Status: status}, nil
}

// FetchRecording downloads a completed recording from the carrier's
// recording URL, authenticating with the same credentials used for the
// REST API.
func (c *Client) FetchRecording(ctx context.Context, recordingURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("telephony: build recording request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telephony: fetch recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telephony: fetch recording: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telephony: read recording body: %w", err)
	}
	return data, nil
}
