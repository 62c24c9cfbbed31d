// Package tts implements C3 TTSEngine: turning dialog text into audio,
// preferring a cached phrase, then the primary vendor, then falling back
// to carrier-native speech synthesis when the vendor is unavailable.
package tts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/callengine/internal/audiostore"
	"github.com/snarg/callengine/internal/config"
	"github.com/snarg/callengine/internal/metrics"
	"github.com/snarg/callengine/internal/phrasecache"
)

// Source names which path produced a TTSResult.
type Source string

const (
	// SourceCache means a previously synthesized, cached phrase was served.
	SourceCache Source = "cache"
	// SourcePrimary means the vendor synthesized new audio this call.
	SourcePrimary Source = "primary"
	// SourceFallback means the vendor failed and the carrier's own
	// text-to-speech (e.g. a <Say> verb) must be used instead. URL is
	// empty in this case; Text carries what the carrier should speak.
	SourceFallback Source = "fallback"
)

// Result is the sum-typed outcome of Synthesize: exactly one of a
// resolved audio URL (cache/primary) or carrier-native fallback text.
type Result struct {
	Source Source
	URL    string
	Text   string // populated only when Source == SourceFallback
}

const maxAttempts = 3

// Engine is C3 TTSEngine.
type Engine struct {
	vendor     *ElevenLabsClient
	store      audiostore.AudioStore
	cache      *phrasecache.Cache
	voiceID    string
	backoffBase time.Duration // overridable in tests; defaults to 1s
	log        zerolog.Logger
}

// New builds a TTS engine from config, store, and phrase cache.
func New(cfg *config.Config, store audiostore.AudioStore, cache *phrasecache.Cache, log zerolog.Logger) *Engine {
	return &Engine{
		vendor:      NewElevenLabsClient(cfg.ElevenLabsAPIKey, 15*time.Second),
		store:       store,
		cache:       cache,
		voiceID:     cfg.TTSVoiceID,
		backoffBase: time.Second,
		log:         log.With().Str("component", "tts-engine").Logger(),
	}
}

// Opts controls a single Synthesize call.
type Opts struct {
	// CallID scopes the storage key for non-cacheable audio.
	CallID string
	// AllowCache permits a cache lookup/admission for this text. Callers
	// pass false for text containing call-specific details that would
	// never recur verbatim (e.g. an amount or a promised date).
	AllowCache bool
}

// Synthesize returns a Result describing how to deliver text as speech:
// a cached URL, a freshly synthesized URL, or a fallback instruction for
// the carrier's own TTS. Synthesize never returns an error on a vendor
// failure; it downgrades to SourceFallback instead, since failing to
// speak to the callee is worse than using a lower-quality voice.
func (e *Engine) Synthesize(ctx context.Context, text string, opts Opts) Result {
	log := e.log.With().Str("call_id", opts.CallID).Logger()

	if opts.AllowCache {
		if cat, ok := phrasecache.ShouldCache(text); ok {
			if url, err := e.cache.Lookup(ctx, text, e.voiceID); err == nil && url != "" {
				log.Debug().Str("category", string(cat)).Msg("tts cache hit")
				metrics.TTSRequestsTotal.WithLabelValues(string(SourceCache)).Inc()
				metrics.TTSCacheHitsTotal.Inc()
				return Result{Source: SourceCache, URL: url}
			}
		}
	}

	data, contentType, err := e.synthesizeWithRetry(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("tts vendor failed after retries, falling back to carrier tts")
		metrics.TTSErrorsTotal.Inc()
		metrics.TTSRequestsTotal.WithLabelValues(string(SourceFallback)).Inc()
		return Result{Source: SourceFallback, Text: text}
	}

	var url string
	if opts.AllowCache {
		if _, ok := phrasecache.ShouldCache(text); ok {
			url, err = e.cache.Store(ctx, text, e.voiceID, data, contentType)
		}
	}
	if url == "" {
		key := fmt.Sprintf("calls/%s/%d.mp3", opts.CallID, time.Now().UnixNano())
		url, err = e.store.Save(ctx, key, data, contentType)
	}
	if err != nil {
		log.Warn().Err(err).Msg("audio store save failed, falling back to carrier tts")
		metrics.TTSRequestsTotal.WithLabelValues(string(SourceFallback)).Inc()
		return Result{Source: SourceFallback, Text: text}
	}

	metrics.TTSRequestsTotal.WithLabelValues(string(SourcePrimary)).Inc()
	return Result{Source: SourcePrimary, URL: url}
}

// synthesizeWithRetry calls the vendor up to maxAttempts times with
// exponential backoff (2^attempt seconds) between attempts.
func (e *Engine) synthesizeWithRetry(ctx context.Context, text string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * e.backoffBase
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, "", ctx.Err()
			}
		}
		data, contentType, err := e.vendor.Synthesize(ctx, text, e.voiceID)
		if err == nil {
			return data, contentType, nil
		}
		lastErr = err
	}
	return nil, "", errors.Join(errors.New("tts: all attempts failed"), lastErr)
}
