package widget

import (
	"encoding/json"
	"fmt"

	"github.com/recera/treecanvas/pkg/render"
	"github.com/recera/treecanvas/pkg/viewport"
)

// SettingsFile is where the dev server and the build output publish the
// project settings for the browser client
const SettingsFile = "treecanvas.json"

// Settings is the serializable part of Options. Zero fields take the
// defaults.
type Settings struct {
	Quality     float64 `json:"quality,omitempty"`
	MinZoom     float64 `json:"minZoom,omitempty"`
	ZoomDivisor float64 `json:"zoomDivisor,omitempty"`

	Radius     float64 `json:"radius,omitempty"`
	Background string  `json:"background,omitempty"`
	Fill       string  `json:"fill,omitempty"`

	Scene *render.Scene `json:"scene,omitempty"`
}

// ParseSettings decodes settings JSON
func ParseSettings(data []byte) (Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// Options converts the settings into widget options
func (s Settings) Options() (*Options, error) {
	style := render.DefaultStyle()
	if s.Background != "" {
		bg, err := render.ParseColor(s.Background)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		style.Background = bg
	}
	if s.Fill != "" {
		fill, err := render.ParseColor(s.Fill)
		if err != nil {
			return nil, fmt.Errorf("fill: %w", err)
		}
		style.Fill = fill
	}
	if s.Radius > 0 {
		style.Radius = s.Radius
	}

	opts := &Options{
		Style: &style,
		Viewport: &viewport.Options{
			Quality:     s.Quality,
			MinZoom:     s.MinZoom,
			ZoomDivisor: s.ZoomDivisor,
		},
	}
	if s.Scene != nil {
		scene := *s.Scene
		opts.Scene = &scene
	}
	return opts, nil
}
