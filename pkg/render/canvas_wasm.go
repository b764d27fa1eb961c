//go:build js && wasm

package render

import (
	"image/color"
	"math"
	"strconv"
	"syscall/js"

	"github.com/recera/treecanvas/pkg/geom"
)

// Canvas2D draws onto an HTML canvas element through its 2D context
type Canvas2D struct {
	el      js.Value
	ctx     js.Value
	quality float64
}

// NewCanvas2D wraps a canvas element. quality is the ratio between device
// and CSS pixels.
func NewCanvas2D(el js.Value, quality float64) *Canvas2D {
	c := &Canvas2D{el: el, quality: quality}
	if el.Truthy() {
		c.ctx = el.Call("getContext", "2d")
	}
	return c
}

// Available reports whether the element has a 2D context
func (c *Canvas2D) Available() bool {
	return c.el.Truthy() && c.ctx.Truthy()
}

// Resize sets the backing store to the device size and the displayed size
// to the CSS size
func (c *Canvas2D) Resize(device geom.Size) {
	w, h := int(math.Round(device.Width)), int(math.Round(device.Height))
	if c.el.Get("width").Int() != w {
		c.el.Set("width", w)
	}
	if c.el.Get("height").Int() != h {
		c.el.Set("height", h)
	}

	css := device.Scale(1 / c.quality)
	style := c.el.Get("style")
	style.Set("width", px(css.Width))
	style.Set("height", px(css.Height))
}

// Clear fills the canvas with col
func (c *Canvas2D) Clear(col color.Color) {
	c.ctx.Set("fillStyle", CSSColor(col))
	c.ctx.Call("fillRect", 0, 0, c.el.Get("width").Int(), c.el.Get("height").Int())
}

// FillCircle fills a circle with col
func (c *Canvas2D) FillCircle(center geom.Point, radius float64, col color.Color) {
	c.ctx.Set("fillStyle", CSSColor(col))
	c.ctx.Call("beginPath")
	c.ctx.Call("arc", center.X, center.Y, radius, 0, math.Pi*2)
	c.ctx.Call("fill")
}

func px(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', -1, 64) + "px"
}
