package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_GetPut(t *testing.T) {
	c, err := Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}

	data := []byte("\x00asm wasm bytes")
	if err := c.Put("build-1", data, nil); err != nil {
		t.Fatalf("Failed to put data: %v", err)
	}

	got, found := c.Get("build-1")
	if !found {
		t.Fatal("Data not found in cache")
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Retrieved data doesn't match: got %q, want %q", got, data)
	}

	if _, found := c.Get("missing"); found {
		t.Error("Found non-existent key")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d and %d", stats.Hits, stats.Misses)
	}
	if stats.Entries != 1 || stats.TotalSize != int64(len(data)) {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestCache_Persistence(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	c.Put("persist", []byte("kept"), []string{"app/client/main.go"})

	reopened, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Failed to reopen cache: %v", err)
	}
	data, found := reopened.Get("persist")
	if !found || string(data) != "kept" {
		t.Errorf("Expected persisted entry, got %q (found=%v)", data, found)
	}
}

func TestCache_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.json"), []byte("{not json"), 0644)

	c, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Expected corrupted index to be ignored, got %v", err)
	}
	if c.Stats().Entries != 0 {
		t.Errorf("Expected empty cache, got %d entries", c.Stats().Entries)
	}
}

func TestCache_MissingArtifact(t *testing.T) {
	c, _ := Open(t.TempDir(), 0)
	c.Put("gone", []byte("data"), nil)

	os.Remove(filepath.Join(c.Dir(), "artifacts", "gone"))

	if _, found := c.Get("gone"); found {
		t.Error("Expected miss for entry whose file was removed")
	}
	if c.Stats().Entries != 0 {
		t.Errorf("Expected entry to be dropped, got %d", c.Stats().Entries)
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := Open(t.TempDir(), 2)

	c.Put("a", []byte("1"), nil)
	time.Sleep(2 * time.Millisecond)
	c.Put("b", []byte("2"), nil)
	time.Sleep(2 * time.Millisecond)
	c.Get("a")
	time.Sleep(2 * time.Millisecond)
	c.Put("c", []byte("3"), nil)

	if _, found := c.Get("b"); found {
		t.Error("Expected b to be evicted")
	}
	if _, found := c.Get("a"); !found {
		t.Error("Expected a to survive")
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", c.Stats().Evictions)
	}
}

func TestCache_InvalidateByDependency(t *testing.T) {
	c, _ := Open(t.TempDir(), 0)

	c.Put("client", []byte("x"), []string{filepath.Join("app", "client", "main.go")})
	c.Put("other", []byte("y"), []string{filepath.Join("app", "clientele", "main.go")})

	if n := c.InvalidateByDependency(filepath.Join("app", "client")); n != 1 {
		t.Errorf("Expected 1 invalidated entry, got %d", n)
	}
	if _, found := c.Get("client"); found {
		t.Error("Expected client build to be invalidated")
	}
	if _, found := c.Get("other"); !found {
		t.Error("Expected sibling directory to be left alone")
	}
}

func TestCache_Clear(t *testing.T) {
	c, _ := Open(t.TempDir(), 0)
	c.Put("a", []byte("1"), nil)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get("a"); found {
		t.Error("Expected empty cache after Clear")
	}

	// Still usable
	if err := c.Put("b", []byte("2"), nil); err != nil {
		t.Errorf("Put after Clear failed: %v", err)
	}
}

func TestSourceKey(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "pkg"), 0755)
	os.MkdirAll(filepath.Join(root, ".git"), 0755)
	os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0644)
	os.WriteFile(filepath.Join(root, "pkg", "a.go"), []byte("package pkg"), 0644)
	os.WriteFile(filepath.Join(root, "README.md"), []byte("docs"), 0644)
	os.WriteFile(filepath.Join(root, ".git", "x.go"), []byte("ignored"), 0644)

	key1, files, err := SourceKey(root, []string{".go"}, "go1.23")
	if err != nil {
		t.Fatalf("SourceKey failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Expected 2 source files, got %v", files)
	}

	key2, _, _ := SourceKey(root, []string{".go"}, "go1.23")
	if key1 != key2 {
		t.Error("Expected stable key for unchanged sources")
	}

	os.WriteFile(filepath.Join(root, "README.md"), []byte("changed docs"), 0644)
	if key3, _, _ := SourceKey(root, []string{".go"}, "go1.23"); key3 != key1 {
		t.Error("Expected non-source change to keep the key")
	}

	os.WriteFile(filepath.Join(root, "pkg", "a.go"), []byte("package pkg // edit"), 0644)
	if key4, _, _ := SourceKey(root, []string{".go"}, "go1.23"); key4 == key1 {
		t.Error("Expected source change to change the key")
	}

	if key5, _, _ := SourceKey(root, []string{".go"}, "go1.24"); key5 == key1 {
		t.Error("Expected toolchain change to change the key")
	}
}

func TestKey(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("Expected input boundaries to matter")
	}
	if Key("x") != Key("x") {
		t.Error("Expected deterministic key")
	}
}
