package tui

import (
	"image/color"
	"math"
	"strings"

	"github.com/recera/treecanvas/pkg/geom"
)

const (
	blank = ' '
	dot   = '●'
)

// cellSurface rasterises circles onto a grid of terminal cells. Each cell
// covers cellW x cellH device pixels.
type cellSurface struct {
	cellW, cellH float64
	cols, rows   int
	cells        [][]rune
}

func newCellSurface(cellW, cellH float64) *cellSurface {
	return &cellSurface{cellW: cellW, cellH: cellH}
}

func (s *cellSurface) Resize(device geom.Size) {
	cols := int(math.Round(device.Width / s.cellW))
	rows := int(math.Round(device.Height / s.cellH))
	if cols == s.cols && rows == s.rows {
		return
	}
	s.cols, s.rows = cols, rows
	s.cells = make([][]rune, rows)
	for i := range s.cells {
		s.cells[i] = make([]rune, cols)
	}
}

func (s *cellSurface) Available() bool {
	return s.cols > 0 && s.rows > 0
}

// Clear blanks every cell; the colour is applied by the view style
func (s *cellSurface) Clear(color.Color) {
	for _, row := range s.cells {
		for i := range row {
			row[i] = blank
		}
	}
}

// FillCircle marks the cell holding the centre and every cell whose centre
// lies inside the circle
func (s *cellSurface) FillCircle(center geom.Point, radius float64, _ color.Color) {
	s.mark(int(math.Floor(center.X/s.cellW)), int(math.Floor(center.Y/s.cellH)))

	minCol := int(math.Floor((center.X - radius) / s.cellW))
	maxCol := int(math.Floor((center.X + radius) / s.cellW))
	minRow := int(math.Floor((center.Y - radius) / s.cellH))
	maxRow := int(math.Floor((center.Y + radius) / s.cellH))

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			cx := (float64(col) + 0.5) * s.cellW
			cy := (float64(row) + 0.5) * s.cellH
			if math.Hypot(cx-center.X, cy-center.Y) <= radius {
				s.mark(col, row)
			}
		}
	}
}

func (s *cellSurface) mark(col, row int) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return
	}
	s.cells[row][col] = dot
}

func (s *cellSurface) String() string {
	var b strings.Builder
	for i, row := range s.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}
