// Package cache keeps compiled wasm binaries keyed by a hash of the
// client sources, so the dev server can skip rebuilds after no-op saves.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const indexVersion = "1"

// DefaultMaxEntries bounds how many builds are kept
const DefaultMaxEntries = 8

// Cache is a directory of artifacts plus a JSON index
type Cache struct {
	mu         sync.Mutex
	dir        string
	maxEntries int
	index      *Index
	stats      Stats
}

// Index tracks all cached entries
type Index struct {
	Version string            `json:"version"`
	Entries map[string]*Entry `json:"entries"`
	Updated time.Time         `json:"updated"`
}

// Entry is one cached artifact
type Entry struct {
	Key          string    `json:"key"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Created      time.Time `json:"created"`
	LastAccess   time.Time `json:"last_access"`
	Dependencies []string  `json:"dependencies,omitempty"`
}

// Stats tracks cache performance
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
	TotalSize int64 `json:"total_size"`
}

// DefaultDir returns $XDG_CACHE_HOME/treecanvas or the OS equivalent
func DefaultDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "treecanvas")
}

// Open opens or creates a cache in dir. maxEntries <= 0 uses
// DefaultMaxEntries.
func Open(dir string, maxEntries int) (*Cache, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if err := os.MkdirAll(filepath.Join(dir, "artifacts"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{dir: dir, maxEntries: maxEntries}
	if err := c.loadIndex(); err != nil {
		// Missing or corrupted index, start fresh
		c.index = newIndex()
	}
	c.stats.Entries = len(c.index.Entries)
	for _, e := range c.index.Entries {
		c.stats.TotalSize += e.Size
	}
	return c, nil
}

func newIndex() *Index {
	return &Index{
		Version: indexVersion,
		Entries: make(map[string]*Entry),
		Updated: time.Now(),
	}
}

// Dir returns the cache directory
func (c *Cache) Dir() string {
	return c.dir
}

// Get returns the artifact stored under key
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.index.Entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		c.dropLocked(key)
		c.stats.Misses++
		c.saveIndexLocked()
		return nil, false
	}

	entry.LastAccess = time.Now()
	c.stats.Hits++
	c.saveIndexLocked()
	return data, true
}

// Put stores data under key and records the files it was built from
func (c *Cache) Put(key string, data []byte, deps []string) error {
	path := filepath.Join(c.dir, "artifacts", sanitizeKey(key))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.index.Entries[key]; ok {
		c.stats.TotalSize -= old.Size
	}
	now := time.Now()
	c.index.Entries[key] = &Entry{
		Key:          key,
		Path:         path,
		Size:         int64(len(data)),
		Created:      now,
		LastAccess:   now,
		Dependencies: deps,
	}
	c.stats.TotalSize += int64(len(data))
	c.evictLocked()
	c.stats.Entries = len(c.index.Entries)

	return c.saveIndexLocked()
}

// InvalidateByDependency drops every entry built from path, or from a file
// under path when path is a directory. It returns how many were dropped.
func (c *Cache) InvalidateByDependency(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	path = filepath.Clean(path)
	count := 0
	for key, entry := range c.index.Entries {
		for _, d := range entry.Dependencies {
			if d == path || strings.HasPrefix(d, path+string(filepath.Separator)) {
				c.dropLocked(key)
				count++
				break
			}
		}
	}
	if count > 0 {
		c.saveIndexLocked()
	}
	return count
}

// Clear removes every entry
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	artifacts := filepath.Join(c.dir, "artifacts")
	if err := os.RemoveAll(artifacts); err != nil {
		return fmt.Errorf("failed to clear artifacts: %w", err)
	}
	if err := os.MkdirAll(artifacts, 0755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	c.index = newIndex()
	c.stats = Stats{}
	return c.saveIndexLocked()
}

// Stats returns a snapshot of the counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// evictLocked drops least recently used entries above the limit
func (c *Cache) evictLocked() {
	if len(c.index.Entries) <= c.maxEntries {
		return
	}

	entries := make([]*Entry, 0, len(c.index.Entries))
	for _, e := range c.index.Entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})

	for _, e := range entries[:len(entries)-c.maxEntries] {
		c.dropLocked(e.Key)
		c.stats.Evictions++
	}
}

func (c *Cache) dropLocked(key string) {
	entry, ok := c.index.Entries[key]
	if !ok {
		return
	}
	if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to remove cache file %s: %v\n", entry.Path, err)
	}
	delete(c.index.Entries, key)
	c.stats.TotalSize -= entry.Size
	c.stats.Entries = len(c.index.Entries)
}

func (c *Cache) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(c.dir, "index.json"))
	if err != nil {
		return err
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return err
	}
	if index.Version != indexVersion || index.Entries == nil {
		return fmt.Errorf("unsupported index version %q", index.Version)
	}
	c.index = &index
	return nil
}

func (c *Cache) saveIndexLocked() error {
	c.index.Updated = time.Now()
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, "index.json"), data, 0644)
}

// Key generates a cache key from inputs
func Key(inputs ...string) string {
	h := sha256.New()
	for _, input := range inputs {
		h.Write([]byte(input))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SourceKey hashes every file under root whose extension is in exts,
// together with extra (toolchain version, build flags). It returns the key
// and the files that went into it. Hidden directories, vendor and
// underscore-prefixed directories are skipped.
func SourceKey(root string, exts []string, extra ...string) (string, []string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		for _, ext := range exts {
			if strings.HasSuffix(path, ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(files)

	h := sha256.New()
	for _, s := range extra {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		h.Write([]byte(f))
		h.Write([]byte{0})
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), files, nil
}

func sanitizeKey(key string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	sanitized := replacer.Replace(key)
	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}
	return sanitized
}
