//go:build js && wasm

package main

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"syscall/js"

	"github.com/recera/treecanvas/pkg/debug"
	"github.com/recera/treecanvas/pkg/events"
	"github.com/recera/treecanvas/pkg/geom"
	"github.com/recera/treecanvas/pkg/live"
	"github.com/recera/treecanvas/pkg/render"
	"github.com/recera/treecanvas/pkg/widget"
)

var (
	document js.Value
	window   js.Value
)

func main() {
	document = js.Global().Get("document")
	window = js.Global().Get("window")

	if strings.Contains(window.Get("location").Get("search").String(), "debug") {
		debug.EnableLogging()
	}

	// Fetched before any callback runs: blocking inside a js.Func deadlocks
	opts := loadOptions()
	opts.Schedule = requestFrame

	if document.Get("readyState").String() != "loading" {
		onReady(opts)
	} else {
		var ready js.Func
		ready = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			ready.Release()
			onReady(opts)
			return nil
		})
		document.Call("addEventListener", "DOMContentLoaded", ready)
	}

	// Keep the WASM runtime alive
	select {}
}

func onReady(opts *widget.Options) {
	canvas := document.Call("getElementById", "canvas")
	if canvas.IsNull() {
		canvas = document.Call("createElement", "canvas")
		canvas.Set("id", "canvas")
		document.Get("body").Call("appendChild", canvas)
	}

	w := widget.New(events.Window(), opts)
	quality := w.Controller().Options().Quality

	w.Mount(events.Element(canvas), render.NewCanvas2D(canvas, quality), windowSize())

	window.Call("addEventListener", "resize", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		w.Resize(windowSize())
		return nil
	}))

	if isLocal() {
		client := live.NewClient("")
		if err := client.Connect(); err != nil {
			log.Printf("live reload unavailable: %v", err)
		}
	}
}

// loadOptions reads the settings published next to the page. Without them
// the built-in defaults apply.
func loadOptions() *widget.Options {
	base, err := url.Parse(window.Get("location").Get("href").String())
	if err != nil {
		log.Printf("settings unavailable, using defaults: %v", err)
		return &widget.Options{}
	}
	ref := base.ResolveReference(&url.URL{Path: widget.SettingsFile})

	resp, err := http.Get(ref.String())
	if err != nil {
		log.Printf("settings unavailable, using defaults: %v", err)
		return &widget.Options{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("settings unavailable, using defaults: %s", resp.Status)
		return &widget.Options{}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("settings unreadable, using defaults: %v", err)
		return &widget.Options{}
	}

	settings, err := widget.ParseSettings(data)
	if err == nil {
		var opts *widget.Options
		if opts, err = settings.Options(); err == nil {
			return opts
		}
	}
	log.Printf("invalid settings, using defaults: %v", err)
	return &widget.Options{}
}

func windowSize() geom.Size {
	return geom.Sz(window.Get("innerWidth").Float(), window.Get("innerHeight").Float())
}

// requestFrame runs fn on the next animation frame
func requestFrame(fn func()) {
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		cb.Release()
		fn()
		return nil
	})
	window.Call("requestAnimationFrame", cb)
}

func isLocal() bool {
	host := window.Get("location").Get("hostname").String()
	return host == "localhost" || host == "127.0.0.1" || host == "[::1]"
}
