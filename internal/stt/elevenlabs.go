package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const elevenLabsSTTEndpoint = "https://api.elevenlabs.io/v1/speech-to-text"

// ElevenLabsClient calls the ElevenLabs Speech-to-Text API. Implements
// Provider.
type ElevenLabsClient struct {
	apiKey   string
	model    string
	timeout  time.Duration
	client   *http.Client
	endpoint string // overridable in tests; defaults to elevenLabsSTTEndpoint
}

type elevenlabsResponse struct {
	LanguageCode string           `json:"language_code"`
	Text         string           `json:"text"`
	Words        []elevenlabsWord `json:"words"`
}

type elevenlabsWord struct {
	Text        string  `json:"text"`
	Type        string  `json:"type"` // "word" or "spacing"
	StartTimeMs float64 `json:"start_time_ms"`
	EndTimeMs   float64 `json:"end_time_ms"`
}

// NewElevenLabsClient creates an ElevenLabs STT client. model is the
// ElevenLabs model identifier, e.g. "scribe_v1".
func NewElevenLabsClient(apiKey, model string, timeout time.Duration) *ElevenLabsClient {
	return &ElevenLabsClient{
		apiKey:   apiKey,
		model:    model,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		endpoint: elevenLabsSTTEndpoint,
	}
}

func (el *ElevenLabsClient) Name() string { return "elevenlabs" }

// Transcribe sends recording audio bytes to the ElevenLabs STT API.
func (el *ElevenLabsClient) Transcribe(ctx context.Context, audio []byte, opts Opts) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "recording.wav")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	w.WriteField("model_id", el.model)

	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	w.WriteField("language_code", lang)
	w.WriteField("timestamps_granularity", "word")

	if keyterms := buildKeyterms(opts.Hotwords); keyterms != "" {
		w.WriteField("keyterms", keyterms)
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, el.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("xi-api-key", el.apiKey)

	resp, err := el.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result elevenlabsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var words []Word
	for _, ew := range result.Words {
		if ew.Type != "word" {
			continue
		}
		words = append(words, Word{
			Word:  ew.Text,
			Start: time.Duration(ew.StartTimeMs * float64(time.Millisecond)),
			End:   time.Duration(ew.EndTimeMs * float64(time.Millisecond)),
		})
	}

	return &Response{
		Text:     result.Text,
		Language: result.LanguageCode,
		Words:    words,
	}, nil
}

func buildKeyterms(hotwords string) string {
	var terms []string
	for _, t := range strings.Split(hotwords, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return ""
	}
	type keyterm struct {
		Text string `json:"text"`
	}
	arr := make([]keyterm, len(terms))
	for i, t := range terms {
		arr[i] = keyterm{Text: t}
	}
	b, _ := json.Marshal(arr)
	return string(b)
}
