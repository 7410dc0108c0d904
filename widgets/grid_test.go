package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridseq/grid"
	"gridseq/pitch"
	"gridseq/theme"
)

func testView(t *testing.T) GridView {
	pitches, err := pitch.Build("C6", 48)
	require.NoError(t, err)
	m := grid.New(48, 16)
	m, err = m.PaintRun(1, 2, 4)
	require.NoError(t, err)
	return GridView{
		Matrix:    m,
		Pitches:   pitches,
		Color:     "#27ae60",
		Rows:      4,
		Cols:      16,
		Playhead:  -1,
		MarkCol:   -1,
		CursorRow: 3,
	}
}

func TestGridRender(t *testing.T) {
	g := testView(t)
	g.Playhead = 5
	out := ansi.Strip(g.Render(theme.New(nil)))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, "     │    ▼  │       ", lines[0])
	assert.Equal(t, "C6   ················", lines[1])
	assert.Equal(t, "B5   ··●━━···········", lines[2])
	assert.Equal(t, "A5   ○···············", lines[4])
}

func TestGridRenderGhosts(t *testing.T) {
	g := testView(t)
	other := grid.New(48, 16)
	other, err := other.PaintRun(1, 2, 2)
	require.NoError(t, err)
	other, err = other.PaintRun(2, 6, 9)
	require.NoError(t, err)
	g.Ghosts = []Ghost{{Matrix: other, Color: "#2980b9"}}

	lines := strings.Split(ansi.Strip(g.Render(theme.New(nil))), "\n")
	require.Len(t, lines, 5)
	// the track's own note hides the ghost, held cells are not drawn
	assert.Equal(t, "B5   ··●━━···········", lines[2])
	assert.Equal(t, "A#5  ······•·········", lines[3])
}

func TestGridWindowFollowsCursor(t *testing.T) {
	g := testView(t)
	g.CursorRow = 10
	g.CursorCol = 15
	g.Cols = 8
	g = g.Window()
	assert.Equal(t, 7, g.Top)
	assert.Equal(t, 8, g.Left)

	g.CursorRow = 0
	g = g.Window()
	assert.Equal(t, 0, g.Top)
	assert.Equal(t, "C6-A5 9-16/16", g.Position())
}

func TestGridHitTest(t *testing.T) {
	g := testView(t)
	g.Top = 2

	row, col, ok := g.HitTest(LabelWidth+3, 1)
	require.True(t, ok)
	assert.Equal(t, 2, row)
	assert.Equal(t, 3, col)

	_, _, ok = g.HitTest(1, 1)
	assert.False(t, ok, "label column")
	_, _, ok = g.HitTest(LabelWidth, 0)
	assert.False(t, ok, "ruler")
	_, _, ok = g.HitTest(LabelWidth, 5)
	assert.False(t, ok, "below the window")
}

func TestGridMark(t *testing.T) {
	g := testView(t)
	g.CursorCol = 2
	g.MarkCol = 5
	assert.True(t, g.marked(3, 4))
	assert.False(t, g.marked(3, 6))
	assert.False(t, g.marked(2, 4))
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{
		{Title: "Edit", Keys: []KeyBinding{{"x", "erase"}}},
		{Keys: []KeyBinding{{"q", "quit"}}},
	})
	assert.Equal(t, "Edit\n  x            erase\n  q            quit", out)
}
