// Package audit keeps a bounded, append-only in-memory log. When capacity is
// reached the oldest entries are evicted first.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// DefaultCapacity is the number of entries retained when none is configured.
const DefaultCapacity = 10000

// Log is a bounded append-only log safe for concurrent use.
type Log[T any] struct {
	mu       sync.RWMutex
	entries  []*T
	capacity int
}

// New creates a log retaining at most capacity entries.
func New[T any](capacity int) *Log[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log[T]{capacity: capacity}
}

// Append adds an entry, evicting the oldest ones beyond capacity.
func (l *Log[T]) Append(entry *T) {
	if entry == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if overflow := len(l.entries) - l.capacity; overflow > 0 {
		// copy so the evicted prefix does not pin the backing array
		l.entries = append([]*T(nil), l.entries[overflow:]...)
	}
}

// Len returns the number of retained entries.
func (l *Log[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Snapshot returns matching entries oldest first. A nil match selects all;
// limit <= 0 means no limit, otherwise the newest limit matches are kept.
func (l *Log[T]) Snapshot(match func(*T) bool, limit int) []*T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ret := make([]*T, 0, len(l.entries))
	for _, entry := range l.entries {
		if match == nil || match(entry) {
			ret = append(ret, entry)
		}
	}
	if limit > 0 && len(ret) > limit {
		ret = ret[len(ret)-limit:]
	}
	return ret
}

// Export writes the current entries as a JSON array to URL using fs. Any
// afs supported scheme works (file://, mem://, s3:// …).
func (l *Log[T]) Export(ctx context.Context, fs afs.Service, URL string) error {
	if fs == nil {
		fs = afs.New()
	}
	data, err := json.Marshal(l.Snapshot(nil, 0))
	if err != nil {
		return fmt.Errorf("failed to encode audit log: %w", err)
	}
	if err = fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to export audit log to %s: %w", URL, err)
	}
	return nil
}
