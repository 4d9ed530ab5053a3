package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scratch is a per-run scratch directory under a user-supplied root (spec
// §5: "a single scratch directory rooted at a user-supplied path, with one
// sub-directory per run").
type Scratch struct {
	Dir string
}

// NewScratch creates a fresh subdirectory of root for one reconcile run.
func NewScratch(root string) (*Scratch, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("reconcile: creating scratch root: %w", err)
	}
	dir, err := os.MkdirTemp(root, "run-")
	if err != nil {
		return nil, fmt.Errorf("reconcile: creating scratch dir: %w", err)
	}
	return &Scratch{Dir: dir}, nil
}

// Path returns a scratch-local path for the given storage key, flattening
// slashes so nested keys don't require directory creation per download.
func (s *Scratch) Path(key string) string {
	flat := filepath.Base(key) + "-" + fmt.Sprintf("%x", hashKey(key))
	return filepath.Join(s.Dir, flat)
}

func hashKey(key string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return h
}

// Close removes the entire scratch directory and everything in it.
func (s *Scratch) Close() error {
	return os.RemoveAll(s.Dir)
}
