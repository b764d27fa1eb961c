// Package live carries reload notifications from the dev server to the
// browser over a websocket.
package live

import "encoding/json"

// DefaultPath is where the dev server mounts the hub
const DefaultPath = "/treecanvas/live"

// Message types
const (
	TypeHello  = "HELLO"
	TypeAck    = "ACK"
	TypeReload = "RELOAD"
	TypeError  = "ERROR"
)

// Message is a JSON control frame. Target names the rebuilt artifact for
// RELOAD; Message carries build output for ERROR.
type Message struct {
	Type    string `json:"type"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message,omitempty"`
}

// Reload builds a RELOAD message
func Reload(target string) Message {
	return Message{Type: TypeReload, Target: target}
}

// Error builds an ERROR message
func Error(msg string) Message {
	return Message{Type: TypeError, Message: msg}
}

// Encode returns the JSON form of m
func (m Message) Encode() []byte {
	data, _ := json.Marshal(m)
	return data
}

// Decode parses a JSON message
func Decode(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}
