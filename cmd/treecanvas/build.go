package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recera/treecanvas/cmd/treecanvas/internal/config"
	"github.com/recera/treecanvas/internal/cache"
	"github.com/recera/treecanvas/pkg/widget"
)

func newBuildCommand() *cobra.Command {
	var output string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the browser client",
		Long:  `Compiles the wasm client and copies it with the static files into a deployable directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			return runBuild(cfg, output, !noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "dist", "Output directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Always rebuild instead of reusing cached wasm")

	return cmd
}

func runBuild(cfg *config.Config, output string, useCache bool) error {
	log.Println("🚀 Building treecanvas client...")

	if err := os.RemoveAll(output); err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}
	if err := os.MkdirAll(output, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var buildCache *cache.Cache
	if useCache {
		var err error
		if buildCache, err = cache.Open(cache.DefaultDir(), 0); err != nil {
			log.Printf("⚠️  Failed to initialize build cache: %v", err)
		}
	}

	wasmPath := filepath.Join(output, "app.wasm")
	if _, err := newWASMBuilder(cfg.Dev.ClientDir, wasmPath, buildCache).Build(); err != nil {
		return err
	}

	if err := copyWasmExec(output); err != nil {
		return err
	}
	if err := copyStaticFiles(cfg.Dev.PublicDir, output); err != nil {
		return fmt.Errorf("failed to copy static files: %w", err)
	}
	if err := writeSettings(cfg, output); err != nil {
		return err
	}

	reportBuildSizes(output)
	return nil
}

func copyWasmExec(output string) error {
	path, err := findWasmExec()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read wasm_exec.js: %w", err)
	}
	return os.WriteFile(filepath.Join(output, "wasm_exec.js"), content, 0644)
}

// writeSettings publishes the config values the client reads at startup
func writeSettings(cfg *config.Config, output string) error {
	data, err := json.MarshalIndent(cfg.Settings(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(filepath.Join(output, widget.SettingsFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// copyStaticFiles copies the public directory except wasm binaries
func copyStaticFiles(public, output string) error {
	info, err := os.Stat(public)
	if err != nil || !info.IsDir() {
		return nil
	}

	return filepath.Walk(public, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(path, ".wasm") {
			return nil
		}

		relPath, err := filepath.Rel(public, path)
		if err != nil {
			return err
		}
		destPath := filepath.Join(output, relPath)
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}

		input, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(destPath, input, 0644)
	})
}

func reportBuildSizes(output string) {
	wasmPath := filepath.Join(output, "app.wasm")
	if info, err := os.Stat(wasmPath); err == nil {
		log.Printf("  WASM:        %s", formatSize(info.Size()))
		log.Printf("  WASM (gzip): %s", formatSize(getGzippedSize(wasmPath)))
	}

	var totalSize int64
	filepath.Walk(output, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	log.Printf("  Total:       %s", formatSize(totalSize))
	log.Printf("✨ Build output: %s", output)
}

func getGzippedSize(path string) int64 {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	var buf strings.Builder
	gz := gzip.NewWriter(&buf)
	gz.Write(content)
	gz.Close()

	return int64(buf.Len())
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
