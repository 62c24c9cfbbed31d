package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const elevenLabsTTSEndpointFmt = "https://api.elevenlabs.io/v1/text-to-speech/%s"

// ElevenLabsClient calls the ElevenLabs text-to-speech API, returning raw
// MP3 audio bytes.
type ElevenLabsClient struct {
	apiKey       string
	timeout      time.Duration
	client       *http.Client
	endpointFmt  string // overridable in tests; defaults to elevenLabsTTSEndpointFmt
}

type ttsRequest struct {
	Text          string              `json:"text"`
	ModelID       string              `json:"model_id"`
	VoiceSettings *elevenlabsVoiceOpt `json:"voice_settings,omitempty"`
}

type elevenlabsVoiceOpt struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// NewElevenLabsClient creates an ElevenLabs TTS client.
func NewElevenLabsClient(apiKey string, timeout time.Duration) *ElevenLabsClient {
	return &ElevenLabsClient{
		apiKey:      apiKey,
		timeout:     timeout,
		client:      &http.Client{Timeout: timeout},
		endpointFmt: elevenLabsTTSEndpointFmt,
	}
}

// Synthesize converts text to speech using voiceID, returning MP3 bytes
// and the response's declared content type.
func (el *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, string, error) {
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: "eleven_turbo_v2_5",
		VoiceSettings: &elevenlabsVoiceOpt{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf(el.endpointFmt, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", el.apiKey)
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := el.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("elevenlabs API error (status %d): %s", resp.StatusCode, string(data))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return data, contentType, nil
}
