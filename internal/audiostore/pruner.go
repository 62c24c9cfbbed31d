package audiostore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// recentWindow is how long after a URL is returned the pruner must leave
// the file alone, per spec §4.1's "not within the last minute" guarantee.
const recentWindow = 60 * time.Second

// Pruner evicts expired temp audio files (purge_older_than from spec
// §4.1). It never touches the permanent cache/ tier, and never deletes a
// file whose URL was returned within the last minute.
type Pruner struct {
	local     *LocalStore
	retention time.Duration
	maxBytes  int64
	interval  time.Duration
	log       zerolog.Logger
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewPruner creates a pruner. store may be any AudioStore; pruning is only
// meaningful (and only runs) for a *LocalStore — S3 storage has no local
// disk to reclaim and SaveCached entries there are permanent by design.
func NewPruner(store AudioStore, retention time.Duration, maxBytes int64, log zerolog.Logger) *Pruner {
	local, _ := store.(*LocalStore)
	return &Pruner{
		local:     local,
		retention: retention,
		maxBytes:  maxBytes,
		interval:  time.Hour,
		log:       log.With().Str("component", "audio-pruner").Logger(),
		stop:      make(chan struct{}),
	}
}

func (p *Pruner) Start() {
	if p.local == nil {
		return
	}
	go p.loop()
}

func (p *Pruner) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *Pruner) loop() {
	p.prune()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.prune()
		case <-p.stop:
			return
		}
	}
}

type fileEntry struct {
	path    string
	key     string
	modTime time.Time
	size    int64
}

func (p *Pruner) prune() {
	if p.retention == 0 && p.maxBytes == 0 {
		return
	}

	cutoff := time.Now().Add(-p.retention)
	var totalSize int64
	var prunedCount int
	var prunedBytes int64
	var skippedRecent int

	var files []fileEntry
	filepath.WalkDir(p.local.Dir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(p.local.Dir(), path)
		if relErr != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, cacheDirName+"/") {
			return nil // permanent tier, never pruned
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, fileEntry{path: path, key: key, modTime: info.ModTime(), size: info.Size()})
		totalSize += info.Size()
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	for _, f := range files {
		shouldPrune := false
		if p.retention > 0 && f.modTime.Before(cutoff) {
			shouldPrune = true
		}
		if p.maxBytes > 0 && totalSize > p.maxBytes {
			shouldPrune = true
		}
		if !shouldPrune {
			continue
		}

		if p.local.recentlyReturned(f.key, recentWindow) {
			skippedRecent++
			continue
		}

		if err := os.Remove(f.path); err == nil {
			prunedCount++
			prunedBytes += f.size
			totalSize -= f.size
		}
	}

	p.removeEmptyDirs()

	if prunedCount > 0 || skippedRecent > 0 {
		p.log.Info().
			Int("pruned", prunedCount).
			Str("freed", humanizeBytes(prunedBytes)).
			Str("remaining", humanizeBytes(totalSize)).
			Int("skipped_recent", skippedRecent).
			Msg("audio prune complete")
	}
}

func (p *Pruner) removeEmptyDirs() {
	entries, _ := os.ReadDir(p.local.Dir())
	for _, d := range entries {
		if !d.IsDir() || d.Name() == cacheDirName {
			continue
		}
		dirPath := filepath.Join(p.local.Dir(), d.Name())
		remaining, _ := os.ReadDir(dirPath)
		if len(remaining) == 0 {
			os.Remove(dirPath)
		}
	}
}

func humanizeBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
