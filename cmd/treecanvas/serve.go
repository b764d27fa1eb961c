package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/recera/treecanvas/cmd/treecanvas/internal/config"
	"github.com/recera/treecanvas/internal/cache"
	"github.com/recera/treecanvas/pkg/live"
	"github.com/recera/treecanvas/pkg/widget"
)

const debounceDelay = 100 * time.Millisecond

// builder produces public/app.wasm
type builder interface {
	Build() (cached bool, err error)
	Invalidate(path string) int
}

type devServer struct {
	mu        sync.RWMutex
	cfg       *config.Config
	configDir string
	publicDir string
	hub       *live.Hub
	builder   builder
	watcher   *fsnotify.Watcher
}

func newServeCommand() *cobra.Command {
	var port int
	var host string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the development server",
		Long:  `Builds the wasm client, serves it with live reload and rebuilds on change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Dev.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Dev.Host = host
			}
			return runServe(dir, cfg, !noCache)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 5173, "Port to run the dev server on")
	cmd.Flags().StringVarP(&host, "host", "H", "localhost", "Host to bind the dev server to")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Always rebuild instead of reusing cached wasm")

	return cmd
}

func newDevServer(cfg *config.Config, b builder) *devServer {
	return &devServer{
		cfg:       cfg,
		publicDir: cfg.Dev.PublicDir,
		hub:       live.NewHub(),
		builder:   b,
	}
}

func runServe(dir string, cfg *config.Config, useCache bool) error {
	var buildCache *cache.Cache
	if useCache {
		var err error
		buildCache, err = cache.Open(cache.DefaultDir(), 0)
		if err != nil {
			log.Printf("⚠️  Failed to initialize build cache: %v", err)
		}
	}

	output := filepath.Join(cfg.Dev.PublicDir, "app.wasm")
	server := newDevServer(cfg, newWASMBuilder(cfg.Dev.ClientDir, output, buildCache))
	server.configDir = dir
	defer server.hub.Close()

	log.Println("🚀 Starting treecanvas dev server...")
	if _, err := server.builder.Build(); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()
	server.watcher = watcher

	if err := server.setupWatcher("."); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	go server.watchFiles()

	addr := cfg.Addr()
	srv := &http.Server{
		Addr:    addr,
		Handler: server.routes(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("🛑 Shutting down dev server...")
		server.hub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Printf("✨ Dev server running at http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *devServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(live.DefaultPath, s.hub)
	mux.HandleFunc("/app.wasm", s.serveWASM)
	mux.HandleFunc("/"+widget.SettingsFile, s.serveSettings)
	mux.HandleFunc("/wasm_exec.js", s.serveWasmExec)
	mux.HandleFunc("/favicon.ico", s.serveFavicon)
	mux.HandleFunc("/", s.serveStatic)
	return mux
}

func (s *devServer) setupWatcher(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "node_modules") {
			return filepath.SkipDir
		}
		return s.watcher.Add(path)
	})
}

func (s *devServer) watchFiles() {
	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}

	var pendingEvents []fsnotify.Event
	var mu sync.Mutex

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !isRelevantFile(event.Name) {
				continue
			}

			mu.Lock()
			pendingEvents = append(pendingEvents, event)
			mu.Unlock()

			debounce.Reset(debounceDelay)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Println("Watcher error:", err)

		case <-debounce.C:
			mu.Lock()
			events := pendingEvents
			pendingEvents = nil
			mu.Unlock()

			if len(events) > 0 {
				s.handleFileChanges(events)
			}
		}
	}
}

func isRelevantFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go", ".html", ".js", ".css", ".yaml", ".yml":
		return true
	}
	return filepath.Base(path) == "go.mod"
}

func (s *devServer) handleFileChanges(events []fsnotify.Event) {
	var goChanged, assetsChanged bool

	for _, event := range events {
		if filepath.Base(event.Name) == config.FileName {
			s.reloadConfig()
		}
		switch strings.ToLower(filepath.Ext(event.Name)) {
		case ".go", ".mod", ".yaml", ".yml":
			goChanged = true
			if n := s.builder.Invalidate(filepath.Clean(event.Name)); n > 0 {
				log.Printf("🗑️  Invalidated %d cached builds due to %s", n, filepath.Base(event.Name))
			}
		default:
			assetsChanged = true
		}
	}

	if goChanged {
		log.Println("🔄 Sources changed, rebuilding WASM...")
		if _, err := s.builder.Build(); err != nil {
			log.Printf("❌ Build failed: %v", err)
			s.hub.Broadcast(live.Error(fmt.Sprintf("Build failed: %v", err)))
			return
		}
		log.Println("✅ Build succeeded, reloading...")
		s.hub.Broadcast(live.Reload("wasm"))
		return
	}

	if assetsChanged {
		log.Println("🎨 Static files changed, reloading...")
		s.hub.Broadcast(live.Reload("static"))
	}
}

// reloadConfig re-reads treecanvas.yaml so the next page load gets the
// new settings. A broken file keeps the previous values.
func (s *devServer) reloadConfig() {
	if s.configDir == "" {
		return
	}
	cfg, err := config.Load(s.configDir)
	if err != nil {
		log.Printf("⚠️  Keeping previous config: %v", err)
		return
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	log.Println("⚙️  Reloaded " + config.FileName)
}

func (s *devServer) currentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *devServer) serveSettings(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(s.currentConfig().Settings())
	if err != nil {
		http.Error(w, "Failed to encode settings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

func (s *devServer) serveWASM(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/wasm")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filepath.Join(s.publicDir, "app.wasm"))
}

func (s *devServer) serveWasmExec(w http.ResponseWriter, r *http.Request) {
	path, err := findWasmExec()
	if err != nil {
		http.Error(w, "Failed to resolve wasm_exec.js", http.StatusInternalServerError)
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "Failed to load wasm_exec.js", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(content)
}

func (s *devServer) serveStatic(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	// Security: prevent directory traversal
	if strings.Contains(path, "..") {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	filePath := filepath.Join(s.publicDir, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	content, err := os.ReadFile(filePath)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	switch filepath.Ext(filePath) {
	case ".html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	case ".js":
		w.Header().Set("Content-Type", "application/javascript")
	case ".css":
		w.Header().Set("Content-Type", "text/css")
	case ".wasm":
		w.Header().Set("Content-Type", "application/wasm")
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Write(content)
}

// serveFavicon serves a project favicon if present, otherwise returns 204
func (s *devServer) serveFavicon(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.publicDir, "favicon.ico")
	if _, err := os.Stat(path); err == nil {
		http.ServeFile(w, r, path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
