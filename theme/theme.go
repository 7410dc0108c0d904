package theme

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"gridseq/grid"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Off      rune // · empty cell
	Start    rune // ● note start
	Sustain  rune // ━ held
	Playhead rune // ▼ column marker above the grid
	Cursor   rune // ○ cursor on an empty cell
	Piece    rune // │ piece boundary in the ruler
	Ghost    rune // • note start on another track
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Off:      '·',
			Start:    '●',
			Sustain:  '━',
			Playhead: '▼',
			Cursor:   '○',
			Piece:    '│',
			Ghost:    '•',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleCursor  = 0.6
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

// sustainFade is how far a held cell is pulled toward the background
const sustainFade = 0.45

// ghostFade leaves other tracks' notes at about a third of their strength
const ghostFade = 0.7

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) Surface() lipgloss.Color { return t.Color(RoleSurface) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color  { return t.Color(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// CellColor returns the foreground of a cell drawn in a track's color.
// Sustain cells are faded toward the background, Off cells use the muted role.
func (t *Theme) CellColor(trackHex string, cell grid.Cell) lipgloss.Color {
	if cell == grid.Off {
		return t.Muted()
	}
	c, err := colorful.Hex(trackHex)
	if err != nil {
		c = t.Palette.Lookup(RoleActive)
	}
	if cell == grid.Sustain {
		c = c.BlendLab(t.Palette.Lookup(RoleBG), sustainFade).Clamped()
	}
	return lipgloss.Color(c.Hex())
}

// GhostColor is the faded track color used for onion-skinned tracks
func (t *Theme) GhostColor(trackHex string) lipgloss.Color {
	c, err := colorful.Hex(trackHex)
	if err != nil {
		return t.Muted()
	}
	return lipgloss.Color(c.BlendLab(t.Palette.Lookup(RoleBG), ghostFade).Clamped().Hex())
}

// Symbol returns the rune for a cell
func (t *Theme) Symbol(cell grid.Cell) rune {
	switch cell {
	case grid.Start:
		return t.Symbols.Start
	case grid.Sustain:
		return t.Symbols.Sustain
	}
	return t.Symbols.Off
}
