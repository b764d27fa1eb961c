//go:build js && wasm

package events

import "syscall/js"

// DOMTarget attaches handlers to a DOM event target through
// addEventListener. Each registration owns a js.Func that is released
// together with the listener.
type DOMTarget struct {
	v js.Value
}

// Window returns the global window as a Target
func Window() *DOMTarget {
	return &DOMTarget{v: js.Global().Get("window")}
}

// Element wraps a DOM element
func Element(v js.Value) *DOMTarget {
	return &DOMTarget{v: v}
}

// Value returns the wrapped JS object
func (t *DOMTarget) Value() js.Value {
	return t.v
}

// Listen registers h for kind. Wheel listeners are registered non-passive
// and cancel the default scroll.
func (t *DOMTarget) Listen(kind Kind, h Handler) Listener {
	fn := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 {
			return nil
		}
		ev := args[0]
		if kind == Wheel {
			ev.Call("preventDefault")
		}
		h(fromJS(kind, ev))
		return nil
	})

	opts := map[string]interface{}{"passive": kind != Wheel}
	t.v.Call("addEventListener", string(kind), fn, opts)

	return Once(func() {
		t.v.Call("removeEventListener", string(kind), fn, opts)
		fn.Release()
	})
}

func fromJS(kind Kind, ev js.Value) Event {
	out := Event{Kind: kind}
	out.ClientX = floatProp(ev, "clientX")
	out.ClientY = floatProp(ev, "clientY")
	out.OffsetX = floatProp(ev, "offsetX")
	out.OffsetY = floatProp(ev, "offsetY")
	if kind == Wheel {
		out.DeltaY = floatProp(ev, "deltaY")
	}
	return out
}

func floatProp(v js.Value, name string) float64 {
	p := v.Get(name)
	if p.Type() != js.TypeNumber {
		return 0
	}
	return p.Float()
}
