package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/callengine/internal/audiostore"
	"github.com/snarg/callengine/internal/phrasecache"
)

func newTestEngine(t *testing.T, handler http.HandlerFunc) (*Engine, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	store := audiostore.NewLocalStore(t.TempDir())
	cache := phrasecache.New(store, 8)
	e := &Engine{
		vendor:      NewElevenLabsClient("test-key", 5*time.Second),
		store:       store,
		cache:       cache,
		voiceID:     "voice-1",
		backoffBase: time.Millisecond,
		log:         zerolog.Nop(),
	}
	e.vendor.endpointFmt = srv.URL + "/%s"
	return e, srv
}

func TestSynthesizePrimarySuccess(t *testing.T) {
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	})
	defer srv.Close()

	result := e.Synthesize(context.Background(), "Your balance of $200 is overdue.", Opts{CallID: "call-1", AllowCache: false})
	if result.Source != SourcePrimary {
		t.Fatalf("Source = %v, want primary", result.Source)
	}
	if result.URL == "" {
		t.Fatal("expected non-empty URL")
	}
}

func TestSynthesizeCacheHitSkipsVendor(t *testing.T) {
	called := false
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte("mp3-bytes"))
	})
	defer srv.Close()

	ctx := context.Background()
	if _, err := e.cache.Store(ctx, "Hello, this is a courtesy call.", "voice-1", []byte("cached"), "audio/mpeg"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	result := e.Synthesize(ctx, "Hello, this is a courtesy call.", Opts{CallID: "call-1", AllowCache: true})
	if result.Source != SourceCache {
		t.Fatalf("Source = %v, want cache", result.Source)
	}
	if called {
		t.Fatal("vendor should not have been called on a cache hit")
	}
}

func TestSynthesizeFallsBackAfterVendorFailures(t *testing.T) {
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	result := e.Synthesize(context.Background(), "We need to confirm your payment plan.", Opts{CallID: "call-1"})
	if result.Source != SourceFallback {
		t.Fatalf("Source = %v, want fallback", result.Source)
	}
	if result.Text == "" {
		t.Fatal("expected fallback text to carry the original text")
	}
}

func TestSynthesizeNonCacheableTextNeverAdmittedToCache(t *testing.T) {
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp3-bytes"))
	})
	defer srv.Close()

	text := "Your promised payment of $150 is due March 5th."
	e.Synthesize(context.Background(), text, Opts{CallID: "call-1", AllowCache: true})

	url, err := e.cache.Lookup(context.Background(), text, "voice-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if url != "" {
		t.Fatalf("non-boilerplate text must never be cache-admitted, got url %q", url)
	}
}
