package audiostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveDurableBeforeURL(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)

	url, err := s.Save(context.Background(), "calls/abc/greeting.wav", []byte("ok"), "audio/wav")
	require.NoError(t, err)
	require.NotEmpty(t, url)
	require.True(t, s.Exists(context.Background(), "calls/abc/greeting.wav"))
}

func TestLocalStorePathTraversalRejected(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)

	_, err := s.Save(context.Background(), "../../etc/passwd", []byte("x"), "text/plain")
	require.Error(t, err)
}

func TestLocalStoreCacheTierSeparateFromTemp(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)

	url, err := s.SaveCached(context.Background(), "greeting-voice1", []byte("hi"), "audio/wav")
	require.NoError(t, err)
	require.NotEmpty(t, url)

	got, err := s.CachedURL(context.Background(), "greeting-voice1")
	require.NoError(t, err)
	require.Equal(t, url, got)

	missing, err := s.CachedURL(context.Background(), "does-not-exist")
	require.NoError(t, err)
	require.Empty(t, missing)
}

func TestPrunerSkipsRecentlyReturnedFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)
	ctx := context.Background()

	_, err := s.Save(ctx, "turn1.wav", []byte("data"), "audio/wav")
	require.NoError(t, err)

	p := NewPruner(s, time.Nanosecond, 0, testLogger())
	p.prune()

	require.True(t, s.Exists(ctx, "turn1.wav"), "file returned within the last minute must survive a prune pass")
}

func TestPrunerNeverTouchesCacheTier(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)
	ctx := context.Background()

	_, err := s.SaveCached(ctx, "farewell-voice1", []byte("bye"), "audio/wav")
	require.NoError(t, err)

	p := NewPruner(s, time.Nanosecond, 0, testLogger())
	s.recent = map[string]time.Time{} // simulate the cache entry aging out of the recency window
	p.prune()

	url, err := s.CachedURL(ctx, "farewell-voice1")
	require.NoError(t, err)
	require.NotEmpty(t, url, "cache tier entries must never be pruned")
}
