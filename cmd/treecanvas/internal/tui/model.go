// Package tui is the terminal front end: a bubbletea program that feeds
// terminal mouse events into the widget and prints its cell surface.
package tui

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/recera/treecanvas/pkg/events"
	"github.com/recera/treecanvas/pkg/geom"
	"github.com/recera/treecanvas/pkg/render"
	"github.com/recera/treecanvas/pkg/viewport"
	"github.com/recera/treecanvas/pkg/widget"
)

const (
	// CSS pixels covered by one terminal cell
	cellWidth  = 8.0
	cellHeight = 16.0

	// wheelDelta is the deltaY sent per wheel notch
	wheelDelta = 100.0
)

// Options configures the viewer
type Options struct {
	Scene    render.Scene
	Style    render.Style
	Viewport *viewport.Options
	Logger   *slog.Logger
}

// Model represents the viewer state
type Model struct {
	widget  *widget.Widget
	canvas  *events.Bus
	window  *events.Bus
	surface *cellSurface

	width  int
	height int

	keys     KeyMap
	help     help.Model
	showHelp bool

	canvasStyle lipgloss.Style
	statusStyle lipgloss.Style
}

// New creates a viewer model. Nothing is drawn until the first window
// size message.
func New(opts Options) *Model {
	window := events.NewBus()
	w := widget.New(window, &widget.Options{
		Scene:    &opts.Scene,
		Style:    &opts.Style,
		Viewport: opts.Viewport,
		Logger:   opts.Logger,
	})
	quality := w.Controller().Options().Quality

	return &Model{
		widget:  w,
		canvas:  events.NewBus(),
		window:  window,
		surface: newCellSurface(cellWidth*quality, cellHeight*quality),
		keys:    DefaultKeyMap,
		help:    help.New(),
		canvasStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(render.CSSColor(opts.Style.Fill))).
			Background(lipgloss.Color(render.CSSColor(opts.Style.Background))),
		statusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8")),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.widget.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			m.resize(m.width, m.height)
		}

	case tea.MouseMsg:
		m.mouse(msg)
	}
	return m, nil
}

// resize gives the canvas every row except the status lines
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	rows := height - m.statusLines()
	if rows < 0 {
		rows = 0
	}
	css := geom.Sz(float64(width)*cellWidth, float64(rows)*cellHeight)

	if !m.widget.Mounted() {
		m.widget.Mount(m.canvas, m.surface, css)
		return
	}
	m.widget.Resize(css)
}

func (m *Model) statusLines() int {
	if m.showHelp {
		return 3
	}
	return 1
}

func (m *Model) mouse(msg tea.MouseMsg) {
	if !m.widget.Mounted() {
		return
	}

	// The canvas sits at the window origin, so client and offset agree
	x := (float64(msg.X) + 0.5) * cellWidth
	y := (float64(msg.Y) + 0.5) * cellHeight
	ev := events.Event{ClientX: x, ClientY: y, OffsetX: x, OffsetY: y}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		ev.Kind, ev.DeltaY = events.Wheel, -wheelDelta
		m.canvas.Dispatch(ev)
	case msg.Button == tea.MouseButtonWheelDown:
		ev.Kind, ev.DeltaY = events.Wheel, wheelDelta
		m.canvas.Dispatch(ev)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		ev.Kind = events.MouseDown
		m.canvas.Dispatch(ev)
	case msg.Action == tea.MouseActionMotion:
		ev.Kind = events.MouseMove
		m.window.Dispatch(ev)
	case msg.Action == tea.MouseActionRelease:
		ev.Kind = events.MouseUp
		m.window.Dispatch(ev)
	}
}

// View implements tea.Model
func (m *Model) View() string {
	if !m.widget.Mounted() {
		return "starting..."
	}

	view := m.widget.Controller().Peek()
	status := fmt.Sprintf("zoom %.2f  pan %s  frames %d  ",
		view.Zoom, view.Pan, m.widget.Frames())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.canvasStyle.Render(m.surface.String()),
		m.statusStyle.Render(status)+m.help.View(m.keys),
	)
}

// Widget returns the widget driven by the model
func (m *Model) Widget() *widget.Widget {
	return m.widget
}

// Run starts the terminal program
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal viewer failed: %w", err)
	}
	return nil
}
