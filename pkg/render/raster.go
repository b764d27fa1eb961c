package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/vector"

	"github.com/recera/treecanvas/pkg/geom"
)

// kappa places cubic Bézier control points so four curves approximate a
// circle
const kappa = 0.5522847498

// Raster is an in-memory RGBA surface with antialiased fills
type Raster struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

// NewRaster creates a raster of the given device size
func NewRaster(device geom.Size) *Raster {
	r := &Raster{}
	r.Resize(device)
	return r
}

// Resize reallocates the image when the pixel size changes
func (r *Raster) Resize(device geom.Size) {
	w, h := int(math.Round(device.Width)), int(math.Round(device.Height))
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	if r.img != nil && r.img.Rect.Dx() == w && r.img.Rect.Dy() == h {
		return
	}
	r.img = image.NewRGBA(image.Rect(0, 0, w, h))
	r.z = vector.NewRasterizer(w, h)
}

// Available reports whether the raster has any pixels
func (r *Raster) Available() bool {
	return r.img != nil && !r.img.Rect.Empty()
}

// Clear fills the whole image with c
func (r *Raster) Clear(c color.Color) {
	if !r.Available() {
		return
	}
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// FillCircle draws a filled circle. Circles entirely outside the image are
// skipped.
func (r *Raster) FillCircle(center geom.Point, radius float64, c color.Color) {
	if radius <= 0 || !r.Available() {
		return
	}
	b := r.img.Bounds()
	if center.X+radius < 0 || center.Y+radius < 0 ||
		center.X-radius > float64(b.Dx()) || center.Y-radius > float64(b.Dy()) {
		return
	}

	cx, cy := float32(center.X), float32(center.Y)
	rr := float32(radius)
	k := float32(kappa * radius)

	z := r.z
	z.Reset(b.Dx(), b.Dy())
	z.MoveTo(cx+rr, cy)
	z.CubeTo(cx+rr, cy+k, cx+k, cy+rr, cx, cy+rr)
	z.CubeTo(cx-k, cy+rr, cx-rr, cy+k, cx-rr, cy)
	z.CubeTo(cx-rr, cy-k, cx-k, cy-rr, cx, cy-rr)
	z.CubeTo(cx+k, cy-rr, cx+rr, cy-k, cx+rr, cy)
	z.ClosePath()
	z.Draw(r.img, b, image.NewUniform(c), image.Point{})
}

// Image returns the backing image
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// EncodePNG writes the image as PNG
func (r *Raster) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, r.img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WritePNG writes the image to path
func (r *Raster) WritePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := r.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
