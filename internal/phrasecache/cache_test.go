package phrasecache

import (
	"context"
	"testing"

	"github.com/snarg/callengine/internal/audiostore"
)

func TestShouldCache(t *testing.T) {
	cases := []struct {
		text     string
		wantCat  Category
		wantHit  bool
	}{
		{"Hello, this is Acme Collections calling for John.", CategoryGreeting, true},
		{"Good morning, this is a courtesy call.", CategoryGreeting, true},
		{"Thank you for your time today.", CategoryFarewell, true},
		{"I understand you're having trouble paying right now.", "", false},
		{"Your balance of $452.10 is now overdue.", "", false},
	}
	for _, tc := range cases {
		cat, ok := ShouldCache(tc.text)
		if ok != tc.wantHit || cat != tc.wantCat {
			t.Errorf("ShouldCache(%q) = (%q, %v), want (%q, %v)", tc.text, cat, ok, tc.wantCat, tc.wantHit)
		}
	}
}

func TestKeyStableAcrossCalls(t *testing.T) {
	a := Key("Hello, this is Acme Collections.", "voice-1")
	b := Key("Hello, this is Acme Collections.", "voice-1")
	if a != b {
		t.Fatalf("Key is not stable: %q != %q", a, b)
	}
	c := Key("Hello, this is Acme Collections.", "voice-2")
	if a == c {
		t.Fatalf("Key must vary with voice")
	}
}

func TestStoreThenLookup(t *testing.T) {
	store := audiostore.NewLocalStore(t.TempDir())
	c := New(store, 8)
	ctx := context.Background()

	url, err := c.Store(ctx, "Goodbye.", "voice-1", []byte("bytes"), "audio/wav")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if url == "" {
		t.Fatal("expected non-empty url")
	}

	got, err := c.Lookup(ctx, "Goodbye.", "voice-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != url {
		t.Fatalf("Lookup = %q, want %q", got, url)
	}
}

func TestLookupMissReturnsEmpty(t *testing.T) {
	store := audiostore.NewLocalStore(t.TempDir())
	c := New(store, 8)

	got, err := c.Lookup(context.Background(), "never stored", "voice-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty url for miss, got %q", got)
	}
}

func TestLookupFallsBackToStoreAfterIndexEviction(t *testing.T) {
	store := audiostore.NewLocalStore(t.TempDir())
	c := New(store, 1)
	ctx := context.Background()

	urlA, err := c.Store(ctx, "Good morning.", "voice-1", []byte("a"), "audio/wav")
	if err != nil {
		t.Fatalf("Store a: %v", err)
	}
	if _, err := c.Store(ctx, "Good afternoon.", "voice-1", []byte("b"), "audio/wav"); err != nil {
		t.Fatalf("Store b: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (capacity-bounded index)", c.Len())
	}

	got, err := c.Lookup(ctx, "Good morning.", "voice-1")
	if err != nil {
		t.Fatalf("Lookup evicted entry: %v", err)
	}
	if got != urlA {
		t.Fatalf("Lookup after index eviction = %q, want %q (store entry is permanent)", got, urlA)
	}
}
