// Package widget puts the viewport controller, the renderer and a redraw
// scheduler together into a mountable pan/zoom canvas.
package widget

import (
	"log/slog"
	"sync/atomic"

	"github.com/recera/treecanvas/pkg/events"
	"github.com/recera/treecanvas/pkg/geom"
	"github.com/recera/treecanvas/pkg/reactive"
	"github.com/recera/treecanvas/pkg/render"
	"github.com/recera/treecanvas/pkg/scheduler"
	"github.com/recera/treecanvas/pkg/viewport"
)

// Options configures a widget. Zero values take defaults.
type Options struct {
	Scene    *render.Scene
	Style    *render.Style
	Viewport *viewport.Options
	Logger   *slog.Logger

	// Schedule arranges for run to be called later, for example on the
	// next animation frame. When nil, redraws happen synchronously.
	Schedule func(run func())

	// OnViewportChange is called after zoom or pan changes (optional)
	OnViewportChange func(view viewport.ViewState)
}

// Widget is one pan/zoom canvas
type Widget struct {
	sched    *scheduler.Scheduler
	ctrl     *viewport.Controller
	renderer *render.Renderer
	logger   *slog.Logger

	surface render.Surface
	job     *scheduler.Job
	handle  events.Listener
	unwatch func()

	frames  atomic.Uint64
	pending atomic.Bool
}

// New creates a widget whose drags listen on window
func New(window events.Target, opts *Options) *Widget {
	if opts == nil {
		opts = &Options{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "widget")

	w := &Widget{
		sched:    scheduler.NewScheduler(),
		renderer: render.NewRenderer(),
		logger:   logger,
	}
	if opts.Scene != nil {
		w.renderer.Scene = *opts.Scene
	}
	if opts.Style != nil {
		w.renderer.Style = *opts.Style
	}

	w.sched.SetDefaultErrorHandler(func(job *scheduler.Job, err interface{}) bool {
		w.logger.Error("redraw failed", "job", job.Name(), "error", err)
		return true
	})

	if opts.Schedule == nil {
		w.sched.SetWakeFunc(func() { w.sched.Flush() })
	} else {
		schedule := opts.Schedule
		w.sched.SetWakeFunc(func() {
			if w.pending.CompareAndSwap(false, true) {
				schedule(func() {
					w.pending.Store(false)
					w.sched.Flush()
				})
			}
		})
	}

	w.ctrl = viewport.NewController(window, w.sched, opts.Viewport)
	w.ctrl.SetLogger(opts.Logger)

	if opts.OnViewportChange != nil {
		w.unwatch = w.ctrl.Watch(opts.OnViewportChange)
	}

	return w
}

// Mount sizes the canvas to css, attaches the wheel and mousedown handlers
// to canvas, and starts redrawing onto surface. Mounting again replaces
// the previous mount.
func (w *Widget) Mount(canvas events.Target, surface render.Surface, css geom.Size) {
	if w.job != nil {
		w.Unmount()
	}

	w.surface = surface
	w.ctrl.Resize(css)
	w.handle = w.ctrl.Attach(canvas)
	w.job = reactive.Effect(w.sched, "redraw", w.redraw)

	w.logger.Debug("mounted", "css", css, "device", w.ctrl.DeviceSize())
}

func (w *Widget) redraw() {
	n := w.renderer.Draw(w.surface, w.ctrl.View(), w.ctrl.DeviceSize())
	if n > 0 {
		w.frames.Add(1)
	}
}

// Unmount detaches every listener and stops redrawing
func (w *Widget) Unmount() {
	if w.handle != nil {
		w.handle.Release()
		w.handle = nil
	}
	w.ctrl.Close()

	if w.job != nil {
		w.sched.RemoveJob(w.job)
		w.job = nil
	}
	w.surface = nil
}

// Close unmounts and drops the viewport change callback
func (w *Widget) Close() {
	w.Unmount()
	if w.unwatch != nil {
		w.unwatch()
		w.unwatch = nil
	}
}

// Resize changes the canvas CSS size, for example after a window resize
func (w *Widget) Resize(css geom.Size) {
	w.ctrl.Resize(css)
}

// Mounted reports whether the widget is drawing onto a surface
func (w *Widget) Mounted() bool {
	return w.job != nil
}

// Flush runs pending redraws now
func (w *Widget) Flush() int {
	return w.sched.Flush()
}

// Frames returns the number of completed redraws
func (w *Widget) Frames() uint64 {
	return w.frames.Load()
}

// Controller returns the viewport controller
func (w *Widget) Controller() *viewport.Controller {
	return w.ctrl
}

// Renderer returns the renderer
func (w *Widget) Renderer() *render.Renderer {
	return w.renderer
}

// Scheduler returns the redraw scheduler
func (w *Widget) Scheduler() *scheduler.Scheduler {
	return w.sched
}
