package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/recera/treecanvas/pkg/geom"
	"github.com/recera/treecanvas/pkg/render"
	"github.com/recera/treecanvas/pkg/viewport"
	"github.com/recera/treecanvas/pkg/widget"
)

// FileName is the configuration file looked up in the project directory
const FileName = "treecanvas.yaml"

// Config represents treecanvas.yaml
type Config struct {
	// View
	Quality     float64 `yaml:"quality,omitempty"`
	MinZoom     float64 `yaml:"minZoom,omitempty"`
	ZoomDivisor float64 `yaml:"zoomDivisor,omitempty"`

	// Drawing
	Radius     float64 `yaml:"radius,omitempty"`
	Background string  `yaml:"background,omitempty"`
	Fill       string  `yaml:"fill,omitempty"`

	Scene *SceneConfig `yaml:"scene,omitempty"`
	Dev   *DevConfig   `yaml:"dev,omitempty"`
}

// SceneConfig overrides the drawn points
type SceneConfig struct {
	Root   *geom.Point  `yaml:"root,omitempty"`
	Points []geom.Point `yaml:"points,omitempty"`
}

// DevConfig contains development server configuration
type DevConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// Directory of the wasm entry package
	ClientDir string `yaml:"client,omitempty"`

	// Directory served as the site root; app.wasm is written here
	PublicDir string `yaml:"public,omitempty"`
}

// Load loads configuration from dir/treecanvas.yaml. A missing file yields
// the defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &config, nil
}

// Save writes configuration to dir/treecanvas.yaml
func Save(config *Config, dir string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	scene := render.DefaultScene()
	root := scene.Root
	return &Config{
		Quality:     viewport.DefaultQuality,
		MinZoom:     viewport.DefaultMinZoom,
		ZoomDivisor: viewport.DefaultZoomDivisor,
		Radius:      10,
		Background:  "#000000",
		Fill:        "#ffffff",
		Scene: &SceneConfig{
			Root:   &root,
			Points: scene.Points,
		},
		Dev: &DevConfig{
			Host:      "localhost",
			Port:      5173,
			ClientDir: "app/client",
			PublicDir: "public",
		},
	}
}

// applyDefaults applies default values to missing configuration
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Quality == 0 {
		config.Quality = defaults.Quality
	}
	if config.MinZoom == 0 {
		config.MinZoom = defaults.MinZoom
	}
	if config.ZoomDivisor == 0 {
		config.ZoomDivisor = defaults.ZoomDivisor
	}
	if config.Radius == 0 {
		config.Radius = defaults.Radius
	}
	if config.Background == "" {
		config.Background = defaults.Background
	}
	if config.Fill == "" {
		config.Fill = defaults.Fill
	}

	if config.Scene == nil {
		config.Scene = defaults.Scene
	} else {
		if config.Scene.Root == nil {
			config.Scene.Root = defaults.Scene.Root
		}
		if config.Scene.Points == nil {
			config.Scene.Points = defaults.Scene.Points
		}
	}

	if config.Dev == nil {
		config.Dev = defaults.Dev
	} else {
		if config.Dev.Host == "" {
			config.Dev.Host = defaults.Dev.Host
		}
		if config.Dev.Port == 0 {
			config.Dev.Port = defaults.Dev.Port
		}
		if config.Dev.ClientDir == "" {
			config.Dev.ClientDir = defaults.Dev.ClientDir
		}
		if config.Dev.PublicDir == "" {
			config.Dev.PublicDir = defaults.Dev.PublicDir
		}
	}
}

// Validate checks that the values can drive a viewport
func (c *Config) Validate() error {
	if c.Quality <= 0 {
		return fmt.Errorf("quality must be positive, got %v", c.Quality)
	}
	if c.MinZoom <= 0 {
		return fmt.Errorf("minZoom must be positive, got %v", c.MinZoom)
	}
	if c.ZoomDivisor == 0 {
		return errors.New("zoomDivisor must not be zero")
	}
	if c.Radius < 0 {
		return fmt.Errorf("radius must not be negative, got %v", c.Radius)
	}
	if _, err := render.ParseColor(c.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	if _, err := render.ParseColor(c.Fill); err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	if c.Dev != nil && (c.Dev.Port < 0 || c.Dev.Port > 65535) {
		return fmt.Errorf("dev.port out of range: %d", c.Dev.Port)
	}
	return nil
}

// ViewportOptions returns the controller options
func (c *Config) ViewportOptions() *viewport.Options {
	return &viewport.Options{
		Quality:     c.Quality,
		MinZoom:     c.MinZoom,
		ZoomDivisor: c.ZoomDivisor,
	}
}

// Style returns the renderer style. Colours must have passed Validate.
func (c *Config) Style() render.Style {
	style := render.DefaultStyle()
	if bg, err := render.ParseColor(c.Background); err == nil {
		style.Background = bg
	}
	if fill, err := render.ParseColor(c.Fill); err == nil {
		style.Fill = fill
	}
	if c.Radius > 0 {
		style.Radius = c.Radius
	}
	return style
}

// SceneOrDefault returns the configured scene
func (c *Config) SceneOrDefault() render.Scene {
	scene := render.DefaultScene()
	if c.Scene == nil {
		return scene
	}
	if c.Scene.Root != nil {
		scene.Root = *c.Scene.Root
	}
	if c.Scene.Points != nil {
		scene.Points = c.Scene.Points
	}
	return scene
}

// Settings returns the values the browser client reads at startup
func (c *Config) Settings() widget.Settings {
	scene := c.SceneOrDefault()
	return widget.Settings{
		Quality:     c.Quality,
		MinZoom:     c.MinZoom,
		ZoomDivisor: c.ZoomDivisor,
		Radius:      c.Radius,
		Background:  c.Background,
		Fill:        c.Fill,
		Scene:       &scene,
	}
}

// Addr returns host:port of the dev server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Dev.Host, c.Dev.Port)
}
