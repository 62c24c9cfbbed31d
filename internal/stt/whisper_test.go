package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWhisperClientTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.FormValue("model") != "whisper-1" {
			t.Errorf("model = %q", r.FormValue("model"))
		}
		resp := whisperResponse{
			Text:     "I'll pay by Friday",
			Language: "en",
			Duration: 2.5,
			Words: []whisperWord{
				{Word: "I'll", Start: 0, End: 0.4},
				{Word: "pay", Start: 0.4, End: 0.7},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewWhisperClient(srv.URL, "whisper-1", 5*time.Second)

	got, err := client.Transcribe(context.Background(), []byte("fake-audio"), Opts{Language: "en"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != "I'll pay by Friday" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Duration != 2500*time.Millisecond {
		t.Errorf("Duration = %v", got.Duration)
	}
	if len(got.Words) != 2 {
		t.Fatalf("Words = %d, want 2", len(got.Words))
	}
}
