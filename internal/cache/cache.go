// SPDX-License-Identifier: Apache-2.0

// Package cache keeps rendered lineage reports on disk, keyed by a digest
// of the snapshot and configuration they were built from. Only the CLI
// uses it; building a report never touches the disk.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when Payload changes shape. Entries with another schema are misses.
const schemaVersion uint16 = 1

// Summary carries the report totals so a cache hit can be reported without
// decoding the report itself.
type Summary struct {
	Total    int
	Kept     int
	Skipped  int
	Lineages int
	Flags    int
}

// Payload is one cached report.
type Payload struct {
	Schema     uint16
	SourceHash string
	Summary    Summary
	Report     []byte
}

// Cache is a directory of msgpack-encoded payloads. It is safe for
// concurrent use. A nil *Cache never hits and never stores.
type Cache struct {
	mu     sync.RWMutex
	dir    string
	logger *slog.Logger
}

// Open creates the cache directory if needed. An empty dir selects
// $XDG_CACHE_HOME/lineage, falling back to ~/.cache/lineage.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default().With(slog.String("component", "cache"))
	}
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("locating cache directory: %w", err)
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "lineage")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Key digests the inputs of a build. Each part is length-prefixed so that
// moving bytes between parts changes the key.
func Key(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, "reports", key+".mp")
}

// Put stores payload under key, replacing any previous entry atomically.
func (c *Cache) Put(key string, payload Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = schemaVersion
	payload.SourceHash = key

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(f.Name(), p); err != nil {
		return fmt.Errorf("committing cache entry: %w", err)
	}
	committed = true
	c.logger.Debug("cache store", slog.String("key", key), slog.Int("bytes", len(payload.Report)))
	return nil
}

// Get loads the payload stored under key. A missing entry, an entry from
// another schema version, or an entry recorded for another key is a miss.
func (c *Cache) Get(key string) (Payload, bool, error) {
	if c == nil {
		return Payload{}, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("cache miss", slog.String("key", key))
			return Payload{}, false, nil
		}
		return Payload{}, false, fmt.Errorf("opening cache entry: %w", err)
	}
	defer f.Close()

	var out Payload
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return Payload{}, false, fmt.Errorf("decoding cache entry: %w", err)
	}
	if out.Schema != schemaVersion || out.SourceHash != key {
		c.logger.Debug("cache stale", slog.String("key", key), slog.Int("schema", int(out.Schema)))
		return Payload{}, false, nil
	}
	c.logger.Debug("cache hit", slog.String("key", key))
	return out, true, nil
}

// Clear removes every cached report.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(filepath.Join(c.dir, "reports")); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
