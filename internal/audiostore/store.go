// Package audiostore implements C1 AudioStore: durable storage of
// synthesized audio blobs with publicly fetchable retrieval URLs, a
// permanent phrase-cache tier, and background pruning of expired temp
// files.
package audiostore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/callengine/internal/config"
)

// AudioStore abstracts the audio storage backend. put/put_cached/
// get_cached_url/purge_older_than/stats from spec §4.1 are realized as
// Save/SaveCached/CachedURL/(pruner, separate type)/Stats.
type AudioStore interface {
	// Save stores a call-scoped audio blob under key and returns a URL the
	// carrier can fetch for the lifetime of at least the call. Writes are
	// durable before the URL is returned.
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// SaveCached stores a blob under the permanent cache tier (never
	// pruned) and returns its URL.
	SaveCached(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// CachedURL returns the URL for an existing cache entry, or "" if absent.
	CachedURL(ctx context.Context, key string) (string, error)

	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) bool
	Type() string
	Stats() Stats
}

// Stats reports temp_count/cache_count per spec §4.1's stats() operation.
type Stats struct {
	TempCount  int
	CacheCount int
}

// BackgroundService is a stoppable background goroutine (the pruner).
type BackgroundService interface {
	Start()
	Stop()
}

// New builds an AudioStore from config. Returns the store and a background
// pruner the caller must Start/Stop. Returns an error if S3 is selected but
// unreachable.
func New(cfg *config.Config, log zerolog.Logger) (AudioStore, BackgroundService, error) {
	switch cfg.AudioStoreBackend {
	case "s3":
		s3store, err := NewS3Store(cfg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("S3 init failed: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s3store.HeadBucket(ctx); err != nil {
			return nil, nil, fmt.Errorf("S3 startup check failed (bucket=%q endpoint=%q): %w",
				cfg.S3Bucket, cfg.S3Endpoint, err)
		}
		log.Info().Str("bucket", cfg.S3Bucket).Str("endpoint", cfg.S3Endpoint).Msg("S3 connection verified")
		pruner := NewPruner(s3store, cfg.AudioRetention, cfg.AudioMaxBytes, log)
		return s3store, pruner, nil
	default:
		local := NewLocalStore(cfg.AudioDir)
		pruner := NewPruner(local, cfg.AudioRetention, cfg.AudioMaxBytes, log)
		return local, pruner, nil
	}
}
