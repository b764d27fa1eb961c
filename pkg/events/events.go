// Package events carries pointer and wheel input from a host (the browser,
// a terminal, a replayed script) to the viewport controller.
package events

import (
	"sync"

	"github.com/recera/treecanvas/pkg/geom"
)

// Kind names an input event the same way the DOM does
type Kind string

const (
	Wheel     Kind = "wheel"
	MouseDown Kind = "mousedown"
	MouseMove Kind = "mousemove"
	MouseUp   Kind = "mouseup"
)

// Event is the subset of a DOM wheel/mouse event the viewer consumes.
// Client coordinates are relative to the window, offset coordinates to the
// canvas element, both in CSS pixels.
type Event struct {
	Kind    Kind    `yaml:"kind" json:"kind"`
	ClientX float64 `yaml:"clientX,omitempty" json:"clientX,omitempty"`
	ClientY float64 `yaml:"clientY,omitempty" json:"clientY,omitempty"`
	OffsetX float64 `yaml:"offsetX,omitempty" json:"offsetX,omitempty"`
	OffsetY float64 `yaml:"offsetY,omitempty" json:"offsetY,omitempty"`
	DeltaY  float64 `yaml:"deltaY,omitempty" json:"deltaY,omitempty"`
}

// Client returns the window-relative cursor position
func (e Event) Client() geom.Point {
	return geom.Pt(e.ClientX, e.ClientY)
}

// Offset returns the canvas-relative cursor position
func (e Event) Offset() geom.Point {
	return geom.Pt(e.OffsetX, e.OffsetY)
}

// Handler receives events of the kind it was registered for
type Handler func(Event)

// Listener is a registration that can be undone
type Listener interface {
	Release()
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func()

// Release calls f
func (f ListenerFunc) Release() { f() }

// Once wraps release so only the first call has an effect
func Once(release func()) ListenerFunc {
	var once sync.Once
	return func() { once.Do(release) }
}

// Group releases several listeners together, newest first
type Group []Listener

// Release releases every listener in the group
func (g Group) Release() {
	for i := len(g) - 1; i >= 0; i-- {
		if g[i] != nil {
			g[i].Release()
		}
	}
}

// Target is something handlers can be attached to: the browser window, a
// canvas element, or a Bus
type Target interface {
	Listen(kind Kind, h Handler) Listener
}

type entry struct {
	handler Handler
	removed bool
}

// Bus is an in-process Target. Hosts without a DOM (the terminal viewer,
// replayed scripts, tests) dispatch into it.
type Bus struct {
	mu       sync.Mutex
	handlers map[Kind][]*entry
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]*entry)}
}

// Listen registers h for kind
func (b *Bus) Listen(kind Kind, h Handler) Listener {
	e := &entry{handler: h}

	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], e)
	b.mu.Unlock()

	return Once(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		e.removed = true
		list := b.handlers[kind]
		for i, cur := range list {
			if cur == e {
				b.handlers[kind] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(b.handlers[kind]) == 0 {
			delete(b.handlers, kind)
		}
	})
}

// Dispatch delivers ev to every handler registered for its kind and
// returns how many ran. Handlers released by an earlier handler in the
// same dispatch are skipped.
func (b *Bus) Dispatch(ev Event) int {
	b.mu.Lock()
	list := append([]*entry(nil), b.handlers[ev.Kind]...)
	b.mu.Unlock()

	n := 0
	for _, e := range list {
		b.mu.Lock()
		removed := e.removed
		b.mu.Unlock()
		if removed {
			continue
		}
		e.handler(ev)
		n++
	}
	return n
}

// Count returns the number of handlers registered for kind
func (b *Bus) Count(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kind])
}

// Total returns the number of handlers registered for any kind
func (b *Bus) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, list := range b.handlers {
		n += len(list)
	}
	return n
}
