package events

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/recera/treecanvas/pkg/geom"
)

// Script is a recorded input sequence. The render command replays one
// against a headless viewer before taking a snapshot.
type Script struct {
	// Size is the CSS size of the canvas during the replay. Zero means the
	// caller's default.
	Size geom.Size `yaml:"size"`

	// Events are dispatched in order. Wheel and mousedown go to the canvas,
	// mousemove and mouseup to the window, as in the browser.
	Events []Event `yaml:"events"`
}

// LoadScript reads a YAML script file
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes and validates a YAML script
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, ev := range s.Events {
		switch ev.Kind {
		case Wheel, MouseDown, MouseMove, MouseUp:
		default:
			return nil, fmt.Errorf("event %d: unknown kind %q", i, ev.Kind)
		}
		for _, v := range []float64{ev.ClientX, ev.ClientY, ev.OffsetX, ev.OffsetY, ev.DeltaY} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("event %d: non-finite value %v", i, v)
			}
		}
	}
	for _, v := range []float64{s.Size.Width, s.Size.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("invalid size %v", s.Size)
		}
	}
	return &s, nil
}

// Replay dispatches the script's events. It returns the number of handler
// invocations.
func (s *Script) Replay(canvas, window *Bus) int {
	n := 0
	for _, ev := range s.Events {
		switch ev.Kind {
		case Wheel, MouseDown:
			n += canvas.Dispatch(ev)
		default:
			n += window.Dispatch(ev)
		}
	}
	return n
}
