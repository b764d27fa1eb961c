// Package viewport holds the pan/zoom state of the canvas, the
// world-to-screen transform, and the wheel and drag handlers that mutate
// them.
package viewport

import (
	"math"

	"github.com/recera/treecanvas/pkg/geom"
)

const (
	// DefaultQuality is the oversampling factor between CSS pixels and
	// device pixels of the canvas backing store.
	DefaultQuality = 2.0
	// DefaultMinZoom is the lower zoom bound. There is no upper bound.
	DefaultMinZoom = 0.5
	// DefaultZoomDivisor converts wheel deltaY into a zoom step.
	DefaultZoomDivisor = 1000.0
)

// Options configures the controller
type Options struct {
	Quality     float64 // default 2
	MinZoom     float64 // default 0.5
	ZoomDivisor float64 // default 1000
}

func (o *Options) withDefaults() Options {
	d := Options{
		Quality:     DefaultQuality,
		MinZoom:     DefaultMinZoom,
		ZoomDivisor: DefaultZoomDivisor,
	}
	if o == nil {
		return d
	}
	if o.Quality > 0 {
		d.Quality = o.Quality
	}
	if o.MinZoom > 0 {
		d.MinZoom = o.MinZoom
	}
	if o.ZoomDivisor != 0 {
		d.ZoomDivisor = o.ZoomDivisor
	}
	return d
}

// ViewState is the zoom factor and the pan offset. Pan is in device pixels
// and is subtracted after scaling.
type ViewState struct {
	Zoom float64    `json:"zoom"`
	Pan  geom.Point `json:"pan"`
}

// DefaultView is zoom 1 with no pan
func DefaultView() ViewState {
	return ViewState{Zoom: 1}
}

// InitialView is the view a controller starts and resets to: zoom 1, or
// the minimum zoom when that is larger, with no pan
func InitialView(opts *Options) ViewState {
	o := opts.withDefaults()
	return ViewState{Zoom: math.Max(1, o.MinZoom)}
}

// Transform maps a world point to device pixels:
// screen = center(device) + p*zoom - pan
func Transform(p geom.Point, zoom float64, pan geom.Point, device geom.Size) geom.Point {
	return device.Center().Add(p.Scale(zoom)).Sub(pan)
}

// Apply maps a world point to device pixels under this view
func (v ViewState) Apply(p geom.Point, device geom.Size) geom.Point {
	return Transform(p, v.Zoom, v.Pan, device)
}

// Wheel returns the view after a wheel event with the given deltaY at the
// given canvas offset. css is the canvas size in CSS pixels. A non-finite
// deltaY leaves the view unchanged.
//
// The pan correction keeps the world point under the cursor roughly in
// place. It is exact only while pan is zero; with a non-zero pan the point
// under the cursor drifts.
func (v ViewState) Wheel(deltaY float64, offset geom.Point, css geom.Size, o Options) ViewState {
	o = o.withDefaults()
	if math.IsNaN(deltaY) || math.IsInf(deltaY, 0) {
		return v
	}

	newZoom := math.Max(v.Zoom-deltaY/o.ZoomDivisor, o.MinZoom)
	dz := newZoom - v.Zoom

	return ViewState{
		Zoom: newZoom,
		Pan: geom.Point{
			X: v.Pan.X + (fraction(offset.X, css.Width)-0.5)*css.Width*dz*o.Quality,
			Y: v.Pan.Y + (fraction(offset.Y, css.Height)-0.5)*css.Height*dz*o.Quality,
		},
	}
}

// fraction is offset/dim, or the midpoint when the canvas has no extent yet
func fraction(offset, dim float64) float64 {
	if dim == 0 {
		return 0.5
	}
	return offset / dim
}

// DragPan returns the pan for a drag that started at start with pan
// startPan and is now at current. Client coordinates are used unscaled.
func DragPan(startPan, start, current geom.Point) geom.Point {
	return startPan.Sub(current.Sub(start))
}
