// Package render draws the scene under a view onto a surface: a raster
// image, a browser canvas, or a terminal grid.
package render

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/recera/treecanvas/pkg/geom"
	"github.com/recera/treecanvas/pkg/viewport"
)

// Surface is a drawing target sized in device pixels
type Surface interface {
	Resize(device geom.Size)
	Clear(c color.Color)
	FillCircle(center geom.Point, radius float64, c color.Color)
}

// availability is implemented by surfaces that can lose their backing
// context, such as a canvas without a 2D context
type availability interface {
	Available() bool
}

// Scene is the fixed set of world points: one root and the rest
type Scene struct {
	Root   geom.Point   `yaml:"root" json:"root"`
	Points []geom.Point `yaml:"points" json:"points"`
}

// DefaultScene returns the root at (0,500) and the nine grid points
func DefaultScene() Scene {
	return Scene{
		Root: geom.Pt(0, 500),
		Points: []geom.Point{
			{X: 0, Y: 0},
			{X: 500, Y: 0},
			{X: -500, Y: 0},
			{X: 0, Y: 500},
			{X: 0, Y: -500},
			{X: 500, Y: 500},
			{X: 500, Y: -500},
			{X: -500, Y: 500},
			{X: -500, Y: -500},
		},
	}
}

// Len returns the number of circles the scene draws
func (s Scene) Len() int {
	return len(s.Points) + 1
}

// Style holds colours and the circle radius in device pixels
type Style struct {
	Background color.RGBA
	Fill       color.RGBA
	Radius     float64
}

// DefaultStyle is white radius-10 circles on black
func DefaultStyle() Style {
	return Style{
		Background: color.RGBA{A: 0xff},
		Fill:       color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Radius:     10,
	}
}

// ParseColor parses a "#rrggbb" or "#rgb" colour
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// CSSColor formats c as "#rrggbb"
func CSSColor(c color.Color) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}

// Renderer draws a scene with a style
type Renderer struct {
	Scene Scene
	Style Style
}

// NewRenderer creates a renderer for the default scene and style
func NewRenderer() *Renderer {
	return &Renderer{Scene: DefaultScene(), Style: DefaultStyle()}
}

// Draw resizes s to the device size, clears it and fills one circle per
// scene point under view. It returns the number of circles drawn, zero
// when there is nothing to draw on.
func (r *Renderer) Draw(s Surface, view viewport.ViewState, device geom.Size) int {
	if s == nil {
		return 0
	}
	if a, ok := s.(availability); ok && !a.Available() {
		return 0
	}

	s.Resize(device)
	s.Clear(r.Style.Background)

	s.FillCircle(view.Apply(r.Scene.Root, device), r.Style.Radius, r.Style.Fill)
	for _, p := range r.Scene.Points {
		s.FillCircle(view.Apply(p, device), r.Style.Radius, r.Style.Fill)
	}
	return r.Scene.Len()
}
