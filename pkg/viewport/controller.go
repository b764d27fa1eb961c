package viewport

import (
	"log/slog"

	"github.com/recera/treecanvas/pkg/events"
	"github.com/recera/treecanvas/pkg/geom"
	"github.com/recera/treecanvas/pkg/reactive"
)

// Controller owns the reactive view state of one canvas. All mutation goes
// through Wheel, the drag session started by MouseDown, Resize and Reset.
type Controller struct {
	opts   Options
	sched  reactive.Scheduler
	window events.Target
	logger *slog.Logger

	zoom   *reactive.State[float64]
	pan    *reactive.State[geom.Point]
	size   *reactive.State[geom.Size]
	device *reactive.Computed[geom.Size]

	drag *DragSession
}

// NewController creates a controller. window is where drag move/up
// listeners are registered; sched receives dirty redraw jobs and may be nil.
func NewController(window events.Target, sched reactive.Scheduler, opts *Options) *Controller {
	o := opts.withDefaults()

	c := &Controller{
		opts:   o,
		sched:  sched,
		window: window,
		logger: slog.Default().With("component", "viewport"),
		zoom:   reactive.NewState(InitialView(&o).Zoom, sched),
		pan:    reactive.NewState(geom.Point{}, sched),
		size:   reactive.NewState(geom.Size{}, sched),
	}
	c.device = reactive.NewComputed(func() geom.Size {
		return c.size.Peek().Scale(c.opts.Quality)
	}, sched).DependOn(c.size)

	return c
}

// SetLogger replaces the controller's logger
func (c *Controller) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Options returns the effective options
func (c *Controller) Options() Options {
	return c.opts
}

// View returns the current view state, subscribing the running effect
func (c *Controller) View() ViewState {
	return ViewState{Zoom: c.zoom.Get(), Pan: c.pan.Get()}
}

// Peek returns the current view state without subscribing
func (c *Controller) Peek() ViewState {
	return ViewState{Zoom: c.zoom.Peek(), Pan: c.pan.Peek()}
}

// Zoom returns the current zoom factor
func (c *Controller) Zoom() float64 {
	return c.zoom.Get()
}

// Pan returns the current pan offset in device pixels
func (c *Controller) Pan() geom.Point {
	return c.pan.Get()
}

// Resize sets the canvas size in CSS pixels
func (c *Controller) Resize(css geom.Size) {
	c.size.Set(css)
}

// CanvasSize returns the canvas size in CSS pixels
func (c *Controller) CanvasSize() geom.Size {
	return c.size.Get()
}

// DeviceSize returns the canvas backing-store size, CSS size times quality
func (c *Controller) DeviceSize() geom.Size {
	return c.device.Get()
}

// Transform maps a world point to device pixels under the current view
func (c *Controller) Transform(p geom.Point) geom.Point {
	return c.View().Apply(p, c.DeviceSize())
}

// Watch calls fn with the new view after a change to zoom or pan. A wheel
// event writes both and is reported once.
func (c *Controller) Watch(fn func(ViewState)) (cancel func()) {
	return reactive.OnAnyChange(func() { fn(c.Peek()) }, c.zoom, c.pan)
}

// Reset returns to the initial view
func (c *Controller) Reset() {
	c.set(InitialView(&c.opts))
}

// set writes zoom and pan as one change
func (c *Controller) set(v ViewState) {
	reactive.RunBatch(c.sched, func() {
		c.zoom.Set(v.Zoom)
		c.pan.Set(v.Pan)
	})
}

// Wheel zooms around the cursor
func (c *Controller) Wheel(ev events.Event) {
	before := c.Peek()
	after := before.Wheel(ev.DeltaY, ev.Offset(), c.size.Peek(), c.opts)
	c.set(after)

	c.logger.Debug("wheel",
		"deltaY", ev.DeltaY,
		"offset", ev.Offset(),
		"zoom", after.Zoom,
		"pan", after.Pan)
}

// MouseDown starts a drag at the event's client position. A drag that is
// still active is closed first, so at most one pair of window listeners
// exists at any time.
func (c *Controller) MouseDown(ev events.Event) *DragSession {
	if c.drag != nil {
		c.logger.Debug("closing stale drag session")
		c.drag.Close()
	}
	c.drag = beginDrag(c, ev.Client())
	return c.drag
}

// Dragging reports whether a drag session holds window listeners
func (c *Controller) Dragging() bool {
	return c.drag != nil && c.drag.Active()
}

// Attach registers the wheel and mousedown handlers on the canvas element
func (c *Controller) Attach(canvas events.Target) events.Listener {
	return events.Group{
		canvas.Listen(events.Wheel, c.Wheel),
		canvas.Listen(events.MouseDown, func(ev events.Event) { c.MouseDown(ev) }),
	}
}

// Close releases any active drag listeners
func (c *Controller) Close() {
	if c.drag != nil {
		c.drag.Close()
	}
}
