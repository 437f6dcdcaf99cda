package tasks

import (
	"sync"

	"github.com/desertthunder/shzx/internal/models"
)

// TrackIndex is the set of normalized identities already in, or queued for, the destination playlist.
//
// Owned by a single [Reconciler] run. All reads and writes go through one mutex.
type TrackIndex struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewTrackIndex seeds an index from the playlist's current entries.
func NewTrackIndex(tracks []models.PlaylistTrack) *TrackIndex {
	idx := &TrackIndex{keys: make(map[string]struct{}, len(tracks))}
	for _, t := range tracks {
		idx.keys[t.Key()] = struct{}{}
	}
	return idx
}

// Contains reports whether key is present.
func (i *TrackIndex) Contains(key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.keys[key]
	return ok
}

// Claim inserts key and reports true, or reports false when key is already present.
func (i *TrackIndex) Claim(key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.keys[key]; ok {
		return false
	}
	i.keys[key] = struct{}{}
	return true
}

// Len returns the number of distinct identities.
func (i *TrackIndex) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.keys)
}
