package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Cache persists one snapshot per handle as a JSON file. Validity depends on
// both recency (fetched_at + ttl) and acquisition capability: an entry
// produced by the HTML fallback is discarded whenever the current run holds a
// token, so an authenticated fetch is never skipped in favor of a weaker
// cached snapshot.
type Cache struct {
	dir    string
	ttl    time.Duration
	logger *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewCache creates a snapshot cache rooted at dir with the given TTL.
func NewCache(dir string, ttlHours int, logger *zap.Logger) *Cache {
	return &Cache{
		dir:    dir,
		ttl:    time.Duration(ttlHours) * time.Hour,
		logger: logger,
		now:    time.Now,
	}
}

// Read returns the cached snapshot for handle, or nil when there is no entry,
// the entry is unparsable, it aged out, or it was produced by the HTML
// fallback while the caller now holds API capability. A missing or unparsable
// fetched_at is treated as always-fresh.
func (c *Cache) Read(handle, callerSource string) *Snapshot {
	data, err := os.ReadFile(c.path(handle))
	if err != nil {
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Debug("discarding unparsable cache entry",
			zap.String("handle", handle),
			zap.Error(err),
		)
		return nil
	}

	if callerSource == SourceAPI && snap.Source == SourceHTML {
		c.logger.Debug("discarding html cache entry, api capability available",
			zap.String("handle", handle),
		)
		return nil
	}

	fetched, ok := parseISO(snap.FetchedAt)
	if !ok {
		return &snap
	}

	if c.now().Sub(fetched) > c.ttl {
		return nil
	}

	return &snap
}

// Write persists the snapshot. Failures are logged and swallowed; the cache is
// best-effort. The temp-file + rename keeps concurrent writers for the same
// handle from interleaving partial JSON.
func (c *Cache) Write(handle string, snap *Snapshot) {
	if snap == nil {
		return
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.logger.Debug("creating cache dir failed", zap.Error(err))
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		c.logger.Debug("encoding cache entry failed", zap.String("handle", handle), zap.Error(err))
		return
	}
	data = asciiEscape(data)

	tmp, err := os.CreateTemp(c.dir, "snapshot_*.json")
	if err != nil {
		c.logger.Debug("creating cache temp file failed", zap.Error(err))
		return
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		c.logger.Debug("writing cache entry failed", zap.String("handle", handle), zap.Error(err))
		return
	}
	tmp.Close()

	if err := os.Rename(tmp.Name(), c.path(handle)); err != nil {
		os.Remove(tmp.Name())
		c.logger.Debug("publishing cache entry failed", zap.String("handle", handle), zap.Error(err))
	}
}

func (c *Cache) path(handle string) string {
	return filepath.Join(c.dir, NormalizeHandle(handle)+".json")
}

// asciiEscape rewrites non-ASCII runes in encoded JSON as \uXXXX escapes so
// cache files contain only ASCII bytes. Runes outside the basic plane become
// surrogate pairs.
func asciiEscape(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data))
	for _, r := range string(data) {
		if r < utf8.RuneSelf {
			buf.WriteByte(byte(r))
			continue
		}
		if r > 0xFFFF {
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&buf, `\u%04x\u%04x`, r1, r2)
			continue
		}
		fmt.Fprintf(&buf, `\u%04x`, r)
	}
	return buf.Bytes()
}
