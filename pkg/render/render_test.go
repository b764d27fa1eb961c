package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/recera/treecanvas/pkg/geom"
	"github.com/recera/treecanvas/pkg/viewport"
)

type op struct {
	kind   string
	center geom.Point
	color  color.Color
}

type recordingSurface struct {
	size geom.Size
	ops  []op
	down bool
}

func (s *recordingSurface) Resize(device geom.Size) { s.size = device }

func (s *recordingSurface) Clear(c color.Color) {
	s.ops = append(s.ops, op{kind: "clear", color: c})
}

func (s *recordingSurface) FillCircle(center geom.Point, _ float64, c color.Color) {
	s.ops = append(s.ops, op{kind: "circle", center: center, color: c})
}

func (s *recordingSurface) Available() bool { return !s.down }

func TestRenderer_ClearsThenDrawsEveryPoint(t *testing.T) {
	r := NewRenderer()
	s := &recordingSurface{}
	device := geom.Sz(800, 600)

	n := r.Draw(s, viewport.DefaultView(), device)
	if n != 10 {
		t.Fatalf("Expected 10 circles, got %d", n)
	}
	if s.size != device {
		t.Errorf("Expected surface resized to %v, got %v", device, s.size)
	}
	if len(s.ops) != 11 || s.ops[0].kind != "clear" {
		t.Fatalf("Expected clear followed by 10 circles, got %d ops", len(s.ops))
	}
	if s.ops[0].color != r.Style.Background {
		t.Errorf("Expected clear to background, got %v", s.ops[0].color)
	}
	if got := s.ops[1].center; got != geom.Pt(400, 800) {
		t.Errorf("Expected root at (400,800), got %v", got)
	}
}

func TestRenderer_SkipsUnavailableSurface(t *testing.T) {
	r := NewRenderer()

	if n := r.Draw(nil, viewport.DefaultView(), geom.Sz(10, 10)); n != 0 {
		t.Errorf("Expected nil surface to draw nothing, got %d", n)
	}

	s := &recordingSurface{down: true}
	if n := r.Draw(s, viewport.DefaultView(), geom.Sz(10, 10)); n != 0 || len(s.ops) != 0 {
		t.Errorf("Expected unavailable surface to be skipped, got %d circles and %d ops", n, len(s.ops))
	}
}

func TestRaster_Pixels(t *testing.T) {
	r := NewRenderer()
	raster := NewRaster(geom.Sz(100, 100))
	r.Draw(raster, viewport.DefaultView(), geom.Sz(100, 100))

	img := raster.Image()
	if got := img.RGBAAt(50, 50); got != r.Style.Fill {
		t.Errorf("Expected fill at the origin point, got %v", got)
	}
	if got := img.RGBAAt(0, 0); got != r.Style.Background {
		t.Errorf("Expected background in the corner, got %v", got)
	}
	if got := img.RGBAAt(65, 50); got != r.Style.Background {
		t.Errorf("Expected background outside the radius, got %v", got)
	}
}

func TestRaster_ResizeAndEncode(t *testing.T) {
	raster := NewRaster(geom.Sz(20, 10))
	raster.Resize(geom.Sz(40, 30))
	raster.Clear(color.RGBA{R: 10, A: 255})

	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("Expected 40x30 image, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRaster_EmptyIsUnavailable(t *testing.T) {
	raster := NewRaster(geom.Size{})
	if raster.Available() {
		t.Error("Expected empty raster to be unavailable")
	}
	// Must not panic
	raster.FillCircle(geom.Pt(0, 0), 10, color.White)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	if err != nil {
		t.Fatalf("ParseColor failed: %v", err)
	}
	if c != (color.RGBA{R: 255, G: 128, B: 0, A: 255}) {
		t.Errorf("Unexpected color %v", c)
	}

	if _, err := ParseColor("orange"); err == nil {
		t.Error("Expected error for non-hex color")
	}

	if got := CSSColor(color.RGBA{R: 255, G: 255, B: 255, A: 255}); got != "#ffffff" {
		t.Errorf("Expected #ffffff, got %s", got)
	}
}
