//go:build js && wasm

package live

import (
	"log"
	"syscall/js"
)

// Client listens for reload notifications in the browser
type Client struct {
	ws        js.Value
	url       string
	onMessage func(Message)
	funcs     []js.Func
}

// NewClient creates a client for a websocket URL. An empty url derives
// ws(s)://<host>/treecanvas/live from the page location.
func NewClient(url string) *Client {
	if url == "" {
		loc := js.Global().Get("location")
		scheme := "ws://"
		if loc.Get("protocol").String() == "https:" {
			scheme = "wss://"
		}
		url = scheme + loc.Get("host").String() + DefaultPath
	}
	return &Client{url: url}
}

// OnMessage sets the handler for every message except ACK. Without a
// handler RELOAD reloads the page and ERROR is logged.
func (c *Client) OnMessage(handler func(Message)) {
	c.onMessage = handler
}

// Connect opens the websocket and sends HELLO once it is open
func (c *Client) Connect() error {
	c.ws = js.Global().Get("WebSocket").New(c.url)

	c.on("onopen", func(js.Value) {
		c.ws.Call("send", string(Message{Type: TypeHello}.Encode()))
	})
	c.on("onmessage", func(ev js.Value) {
		msg, err := Decode([]byte(ev.Get("data").String()))
		if err != nil {
			log.Printf("[Live Client] Bad message: %v", err)
			return
		}
		c.dispatch(msg)
	})
	c.on("onclose", func(js.Value) {
		log.Println("[Live Client] Disconnected")
	})
	return nil
}

func (c *Client) dispatch(msg Message) {
	if msg.Type == TypeAck {
		return
	}
	if c.onMessage != nil {
		c.onMessage(msg)
		return
	}
	switch msg.Type {
	case TypeReload:
		js.Global().Get("location").Call("reload")
	case TypeError:
		log.Printf("[Live Client] Build error:\n%s", msg.Message)
	}
}

func (c *Client) on(event string, fn func(js.Value)) {
	f := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		var ev js.Value
		if len(args) > 0 {
			ev = args[0]
		}
		fn(ev)
		return nil
	})
	c.funcs = append(c.funcs, f)
	c.ws.Set(event, f)
}

// Close closes the socket and releases the callbacks
func (c *Client) Close() {
	if c.ws.Truthy() {
		c.ws.Call("close")
	}
	for _, f := range c.funcs {
		f.Release()
	}
	c.funcs = nil
}
