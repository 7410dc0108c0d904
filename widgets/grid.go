package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gridseq/grid"
	"gridseq/pitch"
	"gridseq/theme"
)

// LabelWidth is the width of the pitch column left of the grid
const LabelWidth = 5

// Ghost is another track shown faded under the edited one
type Ghost struct {
	Matrix grid.Matrix
	Color  string
}

// GridView renders a window of a track's matrix. The first line is a ruler
// with piece boundaries and the playhead, then one line per visible row.
type GridView struct {
	Matrix  grid.Matrix
	Pitches pitch.Map
	Color   string // track color, #rrggbb

	Top, Left  int // first visible row and column
	Rows, Cols int // window size

	CursorRow, CursorCol int
	Playhead             int // -1 hides it
	MarkCol              int // start of a pending run in the cursor row, -1 for none

	Ghosts []Ghost // drawn only where the track itself is empty
}

// Window clamps the scroll offsets so the cursor is visible
func (g GridView) Window() GridView {
	g.Top = follow(g.Top, g.CursorRow, g.Rows, g.Matrix.Rows())
	g.Left = follow(g.Left, g.CursorCol, g.Cols, g.Matrix.Cols())
	return g
}

func follow(offset, cursor, size, total int) int {
	if size <= 0 {
		return 0
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+size {
		offset = cursor - size + 1
	}
	if offset > total-size {
		offset = total - size
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

func (g GridView) lastRow() int { return min(g.Top+g.Rows, g.Matrix.Rows()) }
func (g GridView) lastCol() int { return min(g.Left+g.Cols, g.Matrix.Cols()) }

func (g GridView) marked(row, col int) bool {
	if g.MarkCol < 0 || row != g.CursorRow {
		return false
	}
	lo, hi := min(g.MarkCol, g.CursorCol), max(g.MarkCol, g.CursorCol)
	return col >= lo && col <= hi
}

// ghostAt returns the first ghost with a note starting in the cell
func (g GridView) ghostAt(row, col int) (Ghost, bool) {
	for _, gh := range g.Ghosts {
		if gh.Matrix.Cell(row, col) == grid.Start {
			return gh, true
		}
	}
	return Ghost{}, false
}

// Render draws the window
func (g GridView) Render(th *theme.Theme) string {
	labelStyle := lipgloss.NewStyle().Foreground(th.FG()).Width(LabelWidth)
	rulerStyle := lipgloss.NewStyle().Foreground(th.Muted())
	playStyle := lipgloss.NewStyle().Foreground(th.Success())
	cursorStyle := lipgloss.NewStyle().Foreground(th.Cursor()).Reverse(true)
	markStyle := lipgloss.NewStyle().Background(th.Surface())

	var lines []string

	var ruler strings.Builder
	ruler.WriteString(strings.Repeat(" ", LabelWidth))
	for col := g.Left; col < g.lastCol(); col++ {
		switch {
		case col == g.Playhead:
			ruler.WriteString(playStyle.Render(string(th.Symbols.Playhead)))
		case col%grid.PieceSize == 0:
			ruler.WriteString(rulerStyle.Render(string(th.Symbols.Piece)))
		default:
			ruler.WriteString(" ")
		}
	}
	lines = append(lines, ruler.String())

	for row := g.Top; row < g.lastRow(); row++ {
		var line strings.Builder
		line.WriteString(labelStyle.Render(g.Pitches.At(row)))
		for col := g.Left; col < g.lastCol(); col++ {
			cell := g.Matrix.Cell(row, col)
			sym := th.Symbol(cell)
			style := lipgloss.NewStyle().Foreground(th.CellColor(g.Color, cell))
			if cell == grid.Off {
				if ghost, ok := g.ghostAt(row, col); ok {
					sym = th.Symbols.Ghost
					style = lipgloss.NewStyle().Foreground(th.GhostColor(ghost.Color))
				}
			}
			if col == g.Playhead {
				style = style.Bold(true)
			}
			if g.marked(row, col) {
				style = style.Inherit(markStyle)
			}
			if row == g.CursorRow && col == g.CursorCol {
				if cell == grid.Off {
					sym = th.Symbols.Cursor
				}
				style = cursorStyle
			}
			line.WriteString(style.Render(string(sym)))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// HitTest maps a position relative to the top-left of the rendered grid to
// a cell
func (g GridView) HitTest(x, y int) (row, col int, ok bool) {
	if y < 1 || x < LabelWidth {
		return 0, 0, false
	}
	row = g.Top + y - 1
	col = g.Left + x - LabelWidth
	if row >= g.lastRow() || col >= g.lastCol() {
		return 0, 0, false
	}
	return row, col, true
}

// Position describes the window for the status line, e.g. "C6-B4 1-32/48"
func (g GridView) Position() string {
	if g.Matrix.Rows() == 0 {
		return ""
	}
	return fmt.Sprintf("%s-%s %d-%d/%d",
		g.Pitches.At(g.Top), g.Pitches.At(g.lastRow()-1),
		g.Left+1, g.lastCol(), g.Matrix.Cols())
}
