package viewport

import (
	"github.com/recera/treecanvas/pkg/events"
	"github.com/recera/treecanvas/pkg/geom"
)

// DragSession owns the window move/up listeners of one drag. Close is the
// only way they are released and is safe to call more than once.
type DragSession struct {
	c        *Controller
	start    geom.Point
	startPan geom.Point

	listeners events.Group
	closed    bool
}

func beginDrag(c *Controller, start geom.Point) *DragSession {
	s := &DragSession{
		c:        c,
		start:    start,
		startPan: c.pan.Peek(),
	}
	s.listeners = events.Group{
		c.window.Listen(events.MouseMove, s.move),
		c.window.Listen(events.MouseUp, s.up),
	}

	c.logger.Debug("drag started", "start", start, "pan", s.startPan)
	return s
}

func (s *DragSession) move(ev events.Event) {
	// A panic while applying the pan (a watcher, a redraw run inline) must
	// not leave the window listeners behind.
	defer func() {
		if r := recover(); r != nil {
			s.Close()
			panic(r)
		}
	}()

	if s.closed {
		return
	}
	s.c.pan.Set(DragPan(s.startPan, s.start, ev.Client()))
}

func (s *DragSession) up(events.Event) {
	s.Close()
}

// Close releases the window listeners
func (s *DragSession) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.listeners.Release()

	if s.c.drag == s {
		s.c.drag = nil
	}
	s.c.logger.Debug("drag ended", "pan", s.c.pan.Peek())
}

// Active reports whether the session still holds its listeners
func (s *DragSession) Active() bool {
	return !s.closed
}

// Start returns the client position the drag started at
func (s *DragSession) Start() geom.Point {
	return s.start
}

// StartPan returns the pan at the moment the drag started
func (s *DragSession) StartPan() geom.Point {
	return s.startPan
}
