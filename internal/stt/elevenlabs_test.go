package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestElevenLabsClientTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("missing xi-api-key header")
		}
		resp := elevenlabsResponse{
			LanguageCode: "en",
			Text:         "I can pay next Friday",
			Words: []elevenlabsWord{
				{Text: "I", Type: "word", StartTimeMs: 0, EndTimeMs: 200},
				{Text: " ", Type: "spacing", StartTimeMs: 200, EndTimeMs: 220},
				{Text: "can", Type: "word", StartTimeMs: 220, EndTimeMs: 400},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewElevenLabsClient("test-key", "scribe_v1", 5*time.Second)
	client.endpoint = srv.URL

	got, err := client.Transcribe(context.Background(), []byte("fake-audio"), Opts{Hotwords: "payment, friday"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != "I can pay next Friday" {
		t.Errorf("Text = %q", got.Text)
	}
	if len(got.Words) != 2 {
		t.Fatalf("Words = %d, want 2 (spacing entries filtered)", len(got.Words))
	}
	if got.Words[0].Word != "I" || got.Words[1].Word != "can" {
		t.Errorf("Words = %+v", got.Words)
	}
}
