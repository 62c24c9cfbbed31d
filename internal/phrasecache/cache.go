// Package phrasecache implements C2 PhraseCache: recognizing cacheable
// boilerplate phrases (greetings, farewells, fixed prompts) and serving
// previously synthesized audio for them instead of re-calling TTS.
package phrasecache

import (
	"container/list"
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/snarg/callengine/internal/audiostore"
)

// Category names a cacheable phrase class. An empty Category means the
// text is not a candidate for caching.
type Category string

const (
	CategoryGreeting Category = "greeting"
	CategoryFarewell Category = "farewell"
)

// boilerplate lists the fixed-prefix phrases eligible for caching, per
// spec §4.2. Matching is case-insensitive and by prefix, since the
// dialog layer appends client-specific details (name, amount) after
// these stems for some stages but not others.
var boilerplate = []struct {
	prefix   string
	category Category
}{
	{"hello, this is", CategoryGreeting},
	{"good morning", CategoryGreeting},
	{"good afternoon", CategoryGreeting},
	{"good evening", CategoryGreeting},
	{"thank you for your time", CategoryFarewell},
	{"have a good day", CategoryFarewell},
	{"goodbye", CategoryFarewell},
	{"здравствуйте, это", CategoryGreeting},
	{"спасибо за разговор", CategoryFarewell},
}

// ShouldCache reports whether text matches a known boilerplate phrase and,
// if so, which category it belongs to.
func ShouldCache(text string) (Category, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, b := range boilerplate {
		if strings.HasPrefix(lower, b.prefix) {
			return b.category, true
		}
	}
	return "", false
}

// entry is one LRU node's payload.
type entry struct {
	key string
	url string
}

// Cache is an in-memory LRU index over AudioStore's permanent cache tier.
// A cache miss in the in-memory index still consults the store directly
// (CachedURL), so a restart does not cold-start the cache entirely — only
// the LRU ordering is lost.
type Cache struct {
	store    audiostore.AudioStore
	capacity int

	mu    sync.Mutex
	ll    *list.List
	index map[string]*list.Element
}

// New creates a phrase cache backed by store, holding up to capacity
// entries in its in-memory LRU index.
func New(store audiostore.AudioStore, capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		store:    store,
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
	}
}

// Key derives the cache key for a (text, voice) pair. Stable across
// process restarts so existing store entries remain addressable.
func Key(text, voice string) string {
	sum := md5.Sum([]byte(text + "-" + voice))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached URL for (text, voice), or "" if not cached.
// It accepts any text: the TTS engine calls it only when ShouldCache(text)
// is true, and the orchestrator calls it on each scripted reply to learn
// whether cached audio exists.
func (c *Cache) Lookup(ctx context.Context, text, voice string) (string, error) {
	key := Key(text, voice)

	c.mu.Lock()
	if el, ok := c.index[key]; ok {
		c.ll.MoveToFront(el)
		url := el.Value.(*entry).url
		c.mu.Unlock()
		return url, nil
	}
	c.mu.Unlock()

	url, err := c.store.CachedURL(ctx, key)
	if err != nil || url == "" {
		return "", err
	}
	c.touch(key, url)
	return url, nil
}

// Store admits data into the permanent cache tier under (text, voice) and
// returns its URL. Callers must check ShouldCache(text) first; Store does
// not re-check it, so non-boilerplate text is never passed here.
func (c *Cache) Store(ctx context.Context, text, voice string, data []byte, contentType string) (string, error) {
	key := Key(text, voice)
	url, err := c.store.SaveCached(ctx, key, data, contentType)
	if err != nil {
		return "", err
	}
	c.touch(key, url)
	return url, nil
}

func (c *Cache) touch(key, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value.(*entry).url = url
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{key: key, url: url})
	c.index[key] = el

	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.index, oldest.Value.(*entry).key)
	}
}

// Len reports the number of entries currently held in the in-memory
// index (not the number of entries in the underlying store).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
