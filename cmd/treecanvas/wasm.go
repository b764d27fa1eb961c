package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/recera/treecanvas/internal/cache"
)

// sourceExts are the files whose content goes into the build cache key
var sourceExts = []string{".go", "go.mod", "go.sum"}

// wasmBuilder compiles the client package with GOOS=js GOARCH=wasm
type wasmBuilder struct {
	mu        sync.Mutex
	clientDir string
	output    string
	cache     *cache.Cache
}

func newWASMBuilder(clientDir, output string, buildCache *cache.Cache) *wasmBuilder {
	return &wasmBuilder{clientDir: clientDir, output: output, cache: buildCache}
}

// Build writes the wasm binary to the output path. It reports whether the
// result came from the cache.
func (b *wasmBuilder) Build() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(b.output), 0755); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}

	var key string
	var deps []string
	if b.cache != nil {
		var err error
		key, deps, err = cache.SourceKey(".", sourceExts, goVersion(), b.clientDir)
		if err != nil {
			log.Printf("⚠️  Cache key generation failed: %v", err)
		} else if data, found := b.cache.Get(key); found {
			if err := os.WriteFile(b.output, data, 0644); err == nil {
				log.Println("⚡ Using cached WASM build")
				return true, nil
			}
		}
	}

	log.Println("🔨 Building WASM...")
	cmd := exec.Command("go", "build", "-trimpath", "-o", b.output, b.packagePath())
	cmd.Env = append(os.Environ(), "GOOS=js", "GOARCH=wasm")
	if output, err := cmd.CombinedOutput(); err != nil {
		return false, fmt.Errorf("go build failed: %w\n%s", err, output)
	}

	if info, err := os.Stat(b.output); err == nil {
		log.Printf("📦 WASM size: %.2f KB", float64(info.Size())/1024)
	}

	if b.cache != nil && key != "" {
		if data, err := os.ReadFile(b.output); err == nil {
			if err := b.cache.Put(key, data, deps); err != nil {
				log.Printf("⚠️  Failed to cache build: %v", err)
			} else {
				log.Println("💾 Cached WASM build")
			}
		}
	}
	return false, nil
}

// packagePath is the client directory as a go build package argument.
// Relative directories need a ./ prefix to not be read as import paths.
func (b *wasmBuilder) packagePath() string {
	if filepath.IsAbs(b.clientDir) {
		return b.clientDir
	}
	return "./" + filepath.ToSlash(filepath.Clean(b.clientDir))
}

// Invalidate drops cached builds that used path
func (b *wasmBuilder) Invalidate(path string) int {
	if b.cache == nil {
		return 0
	}
	return b.cache.InvalidateByDependency(path)
}

func goVersion() string {
	out, err := exec.Command("go", "env", "GOVERSION").Output()
	if err != nil {
		return runtime.Version()
	}
	return strings.TrimSpace(string(out))
}

func goRoot() string {
	out, err := exec.Command("go", "env", "GOROOT").Output()
	if err != nil || len(strings.TrimSpace(string(out))) == 0 {
		return runtime.GOROOT()
	}
	return strings.TrimSpace(string(out))
}

// findWasmExec locates wasm_exec.js in the Go installation
func findWasmExec() (string, error) {
	root := goRoot()
	for _, rel := range []string{"lib/wasm/wasm_exec.js", "misc/wasm/wasm_exec.js"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("wasm_exec.js not found in " + root)
}
