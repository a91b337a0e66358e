package watcher

import (
	"sync"

	"go.trai.ch/loom/internal/core/ports"
)

// Fingerprints remembers content hashes so that events which leave a file's
// content untouched (touch, editor save without edits) can be ignored.
type Fingerprints struct {
	mu     sync.Mutex
	hashes map[string]uint64
	hasher ports.Hasher
}

// NewFingerprints creates an empty fingerprint table.
func NewFingerprints(hasher ports.Hasher) *Fingerprints {
	return &Fingerprints{hashes: make(map[string]uint64), hasher: hasher}
}

// Record stores the current fingerprint of every readable path.
func (f *Fingerprints) Record(paths []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, path := range paths {
		if hash, err := f.hasher.ComputeFileHash(path); err == nil {
			f.hashes[path] = hash
		}
	}
}

// Changed returns the paths whose content differs from the recorded
// fingerprint, updating the table. Unknown, new and removed paths count as
// changed.
func (f *Fingerprints) Changed(paths []string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	changed := make([]string, 0, len(paths))
	for _, path := range paths {
		previous, known := f.hashes[path]
		hash, err := f.hasher.ComputeFileHash(path)
		if err != nil {
			delete(f.hashes, path)
			changed = append(changed, path)
			continue
		}
		f.hashes[path] = hash
		if !known || previous != hash {
			changed = append(changed, path)
		}
	}
	return changed
}
