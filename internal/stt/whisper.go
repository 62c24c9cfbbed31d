package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// WhisperClient calls an OpenAI-compatible /v1/audio/transcriptions
// endpoint. Implements Provider.
type WhisperClient struct {
	url     string
	model   string
	timeout time.Duration
	client  *http.Client
}

type whisperResponse struct {
	Text     string        `json:"text"`
	Language string        `json:"language"`
	Duration float64       `json:"duration"`
	Words    []whisperWord `json:"words"`
}

type whisperWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewWhisperClient creates a Whisper-compatible HTTP client against url
// (e.g. an OpenAI-compatible self-hosted endpoint).
func NewWhisperClient(url, model string, timeout time.Duration) *WhisperClient {
	return &WhisperClient{
		url:     url,
		model:   model,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

func (wc *WhisperClient) Name() string { return "whisper" }

// Transcribe sends recording audio bytes to the configured endpoint using
// multipart/form-data, matching OpenAI's /v1/audio/transcriptions shape.
func (wc *WhisperClient) Transcribe(ctx context.Context, audio []byte, opts Opts) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "recording.wav")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	if wc.model != "" {
		w.WriteField("model", wc.model)
	}
	if opts.Language != "" {
		w.WriteField("language", opts.Language)
	}
	if opts.Hotwords != "" {
		w.WriteField("prompt", opts.Hotwords)
	}
	w.WriteField("response_format", "verbose_json")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wc.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := wc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result whisperResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var words []Word
	for _, ww := range result.Words {
		words = append(words, Word{
			Word:  ww.Word,
			Start: time.Duration(ww.Start * float64(time.Second)),
			End:   time.Duration(ww.End * float64(time.Second)),
		})
	}

	return &Response{
		Text:     result.Text,
		Language: result.Language,
		Duration: time.Duration(result.Duration * float64(time.Second)),
		Words:    words,
	}, nil
}
