// Package cache memoizes full pipeline runs keyed by a content hash of the
// source text plus the config that shaped the run, so re-running the driver
// over an unchanged file (spec.md §9's "the driver may re-run the pipeline
// on an unchanged file" open question, resolved in DESIGN.md toward caching)
// skips straight to the cached output instead of re-lexing, re-parsing, and
// re-running the fixed-point loop. Grounded in the teacher's
// core/planfmt/canonical.go (CBOR-canonical-encode-then-hash) and
// core/planfmt/writer.go's use of blake2b for content hashing.
package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Entry is one cached pipeline run.
type Entry struct {
	Output     string
	Iterations int
}

// Cache is a directory of content-addressed entries, one CBOR file per key.
type Cache struct {
	dir string
}

// Open returns a Cache rooted at dir, creating it if necessary.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Key derives a content-addressed cache key from the source text and the
// config's unicode table and iteration bound — two runs of the same source
// under different configs must not collide.
func Key(source string, maxIterations int, unicodeSalt string) (string, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return "", fmt.Errorf("cache: cbor encoder: %w", err)
	}
	payload, err := encMode.Marshal(struct {
		Source        string
		MaxIterations int
		UnicodeSalt   string
	}{source, maxIterations, unicodeSalt})
	if err != nil {
		return "", fmt.Errorf("cache: encode key payload: %w", err)
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("cache: blake2b: %w", err)
	}
	if _, err := hasher.Write(payload); err != nil {
		return "", fmt.Errorf("cache: hash: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".cbor")
}

// Get returns the cached entry for key, or ok=false if absent.
func (c *Cache) Get(key string) (entry Entry, ok bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return Entry{}, false
	}
	if err := cbor.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false
	}
	return entry, true
}

// Put writes entry under key, overwriting any existing cached run.
func (c *Cache) Put(key string, entry Entry) error {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return fmt.Errorf("cache: cbor encoder: %w", err)
	}
	data, err := encMode.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}
	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := os.Rename(tmp, c.path(key)); err != nil {
		return errors.Join(fmt.Errorf("cache: rename: %w", err), os.Remove(tmp))
	}
	return nil
}
