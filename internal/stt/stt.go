package stt

import (
	"context"
	"fmt"

	"github.com/snarg/callengine/internal/config"
	"github.com/snarg/callengine/internal/metrics"
)

// New builds the configured STT provider. STTProvider selects between
// "elevenlabs" (default) and "whisper".
func New(cfg *config.Config) (Provider, error) {
	var p Provider
	switch cfg.STTProvider {
	case "whisper":
		if cfg.WhisperURL == "" {
			return nil, fmt.Errorf("stt: whisper provider selected but WHISPER_URL is unset")
		}
		p = NewWhisperClient(cfg.WhisperURL, "whisper-1", cfg.ResponseSoftTimeout)
	case "elevenlabs", "":
		p = NewElevenLabsClient(cfg.ElevenLabsAPIKey, "scribe_v1", cfg.ResponseSoftTimeout)
	default:
		return nil, fmt.Errorf("stt: unknown provider %q", cfg.STTProvider)
	}
	return instrumented{p}, nil
}

// instrumented wraps a Provider with request-outcome metrics, so every
// vendor backend is counted the same way without each one tracking it
// itself.
type instrumented struct {
	Provider
}

func (i instrumented) Transcribe(ctx context.Context, audio []byte, opts Opts) (*Response, error) {
	resp, err := i.Provider.Transcribe(ctx, audio, opts)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.STTRequestsTotal.WithLabelValues(outcome).Inc()
	return resp, err
}
