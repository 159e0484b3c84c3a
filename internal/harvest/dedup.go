package harvest

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Deduplicator tracks canonical item URLs across the whole run so an item
// reachable from several categories is processed exactly once. Keys are
// hashed before storage.
type Deduplicator struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	skipped int
}

// NewDeduplicator creates a new Deduplicator with the given estimated capacity.
func NewDeduplicator(estimatedCapacity int) *Deduplicator {
	return &Deduplicator{
		seen: make(map[string]struct{}, estimatedCapacity),
	}
}

// Observe records key and reports whether this is its first sighting.
// Repeat sightings are counted as skipped.
func (d *Deduplicator) Observe(key string) bool {
	hash := hashKey(key)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[hash]; ok {
		d.skipped++
		return false
	}
	d.seen[hash] = struct{}{}
	return true
}

// Count returns the number of unique keys seen.
func (d *Deduplicator) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Skipped returns how many repeat sightings were rejected.
func (d *Deduplicator) Skipped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.skipped
}

// Reset clears all seen keys and the skip counter.
func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]struct{})
	d.skipped = 0
}

// hashKey creates a compact hash of a dedup key.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:16])
}
