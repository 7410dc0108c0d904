package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gridseq/sequencer"
	"gridseq/theme"
	"gridseq/widgets"
)

// gridTop is the screen line of the grid ruler: header, blank line, grid
const gridTop = 2

const tempoStep = 5

type mode int

const (
	modeGrid mode = iota
	modeAddTrack
)

// setting is one editable instrument parameter
type setting struct {
	name string
	step float64
	get  func(s sequencer.Settings) float64
	set  func(s *sequencer.Settings, v float64)
}

var settings = []setting{
	{"volume", 0.05, func(s sequencer.Settings) float64 { return s.Volume }, func(s *sequencer.Settings, v float64) { s.Volume = v }},
	{"attack", 0.01, func(s sequencer.Settings) float64 { return s.Attack }, func(s *sequencer.Settings, v float64) { s.Attack = v }},
	{"decay", 0.05, func(s sequencer.Settings) float64 { return s.Decay }, func(s *sequencer.Settings, v float64) { s.Decay = v }},
	{"sustain", 0.05, func(s sequencer.Settings) float64 { return s.Sustain }, func(s *sequencer.Settings, v float64) { s.Sustain = v }},
	{"release", 0.1, func(s sequencer.Settings) float64 { return s.Release }, func(s *sequencer.Settings, v float64) { s.Release = v }},
}

type Model struct {
	Manager *sequencer.Manager
	Theme   *theme.Theme

	visibleRows, visibleCols int
	top, left                int
	cursorRow, cursorCol     int
	markCol                  int // -1 = no pending run

	setting int // index into settings

	mode    mode
	search  textinput.Model
	choices []sequencer.Instrument
	choice  int

	dragRow, dragCol int
	dragging         bool

	help     help.Model
	showHelp bool // full key list instead of the grid

	status   string
	quitting bool
}

type UpdateMsg struct{}

func NewModel(manager *sequencer.Manager, th *theme.Theme, visibleRows, visibleCols int) Model {
	search := textinput.New()
	search.Placeholder = "search instruments"
	search.CharLimit = 32

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.FG())
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Muted())
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(th.Muted())
	return Model{
		Manager:     manager,
		Theme:       th,
		visibleRows: visibleRows,
		visibleCols: visibleCols,
		markCol:     -1,
		search:      search,
		help:        h,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Manager)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			return m.updateHelp(msg)
		}
		if m.mode == modeAddTrack {
			return m.updateAddTrack(msg)
		}
		return m.updateGrid(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.MouseMsg:
		if m.mode == modeGrid && !m.showHelp {
			m.handleMouse(msg)
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)
	}

	return m, nil
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	rows := m.Manager.Pitches().Len()
	cols := m.Manager.Length()

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		m.Manager.Stop()
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = true

	case key.Matches(msg, keys.Up):
		m.cursorRow = max(m.cursorRow-1, 0)
		m.markCol = -1
	case key.Matches(msg, keys.Down):
		m.cursorRow = min(m.cursorRow+1, rows-1)
		m.markCol = -1
	case key.Matches(msg, keys.Left):
		m.cursorCol = max(m.cursorCol-1, 0)
	case key.Matches(msg, keys.Right):
		m.cursorCol = min(m.cursorCol+1, max(cols-1, 0))

	case key.Matches(msg, keys.Note):
		m.paint(m.cursorCol, m.cursorCol)
	case key.Matches(msg, keys.Mark):
		if m.markCol >= 0 {
			m.markCol = -1
		} else {
			m.markCol = m.cursorCol
		}
	case key.Matches(msg, keys.Commit):
		if m.markCol >= 0 {
			m.paint(min(m.markCol, m.cursorCol), max(m.markCol, m.cursorCol))
			m.markCol = -1
		}
	case key.Matches(msg, keys.Cancel):
		m.markCol = -1
	case key.Matches(msg, keys.Erase):
		m.erase(m.cursorRow, m.cursorCol)

	case key.Matches(msg, keys.Add):
		m.mode = modeAddTrack
		m.search.SetValue("")
		m.choices = sequencer.InstrumentList()
		m.choice = 0
		return m, m.search.Focus()

	case key.Matches(msg, keys.NextTrack):
		m.cycleTrack()
	case key.Matches(msg, keys.Track):
		idx := int(msg.String()[0] - '1')
		if tracks := m.Manager.Tracks(); idx < len(tracks) {
			m.Manager.SelectTrack(tracks[idx].ID)
		}

	case key.Matches(msg, keys.Play):
		m.Manager.TogglePlay()
	case key.Matches(msg, keys.Faster):
		m.setTempo(m.Manager.Tempo() + tempoStep)
	case key.Matches(msg, keys.Slower):
		m.setTempo(m.Manager.Tempo() - tempoStep)
	case key.Matches(msg, keys.Metronome):
		m.Manager.SetMetronome(!m.Manager.GetState().Metronome)

	case key.Matches(msg, keys.PrevSetting):
		m.setting = (m.setting + len(settings) - 1) % len(settings)
	case key.Matches(msg, keys.NextSetting):
		m.setting = (m.setting + 1) % len(settings)
	case key.Matches(msg, keys.Less):
		m.adjustSetting(-1)
	case key.Matches(msg, keys.More):
		m.adjustSetting(1)
	}
	m.scroll()
	return m, nil
}

// updateHelp closes the overlay on any key except quit
func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.showHelp = false
	if key.Matches(msg, keys.Quit) {
		return m.updateGrid(msg)
	}
	return m, nil
}

func (m Model) updateAddTrack(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeGrid
		m.search.Blur()
		return m, nil
	case "up":
		m.choice = max(m.choice-1, 0)
		return m, nil
	case "down":
		m.choice = min(m.choice+1, max(len(m.choices)-1, 0))
		return m, nil
	case "enter":
		if m.choice < len(m.choices) {
			inst := m.choices[m.choice]
			id := m.Manager.AddTrack(inst.Bind())
			m.status = fmt.Sprintf("added track %d (%s)", id, inst.Name)
		}
		m.mode = modeGrid
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.choices = sequencer.FilterInstruments(m.search.Value())
	if m.choice >= len(m.choices) {
		m.choice = max(len(m.choices)-1, 0)
	}
	return m, cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	row, col, ok := m.gridView().HitTest(msg.X, msg.Y-gridTop)

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if !ok {
			return
		}
		m.dragging = true
		m.dragRow, m.dragCol = row, col
		m.cursorRow, m.cursorCol = row, col

	case msg.Action == tea.MouseActionMotion && m.dragging:
		if ok && row == m.dragRow {
			m.cursorCol = col
		}

	case msg.Action == tea.MouseActionRelease && m.dragging:
		m.dragging = false
		end := m.cursorCol
		if ok && row == m.dragRow {
			end = col
		}
		m.cursorRow, m.cursorCol = m.dragRow, end
		m.paint(min(m.dragCol, end), max(m.dragCol, end))

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonRight:
		if ok {
			m.cursorRow, m.cursorCol = row, col
			m.erase(row, col)
		}
	}
}

func (m *Model) paint(start, end int) {
	id := m.Manager.Selected()
	if id == 0 {
		m.status = "no track, press a to add one"
		return
	}
	if err := m.Manager.PaintRun(id, m.cursorRow, start, end); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) erase(row, col int) {
	id := m.Manager.Selected()
	if id == 0 {
		return
	}
	if _, err := m.Manager.EraseRunAt(id, row, col); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) cycleTrack() {
	tracks := m.Manager.Tracks()
	if len(tracks) == 0 {
		return
	}
	sel := m.Manager.Selected()
	for i, t := range tracks {
		if t.ID == sel {
			m.Manager.SelectTrack(tracks[(i+1)%len(tracks)].ID)
			return
		}
	}
	m.Manager.SelectTrack(tracks[0].ID)
}

func (m *Model) setTempo(bpm float64) {
	if err := m.Manager.SetTempo(bpm); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) adjustSetting(dir float64) {
	t, ok := m.Manager.Track(m.Manager.Selected())
	if !ok {
		return
	}
	s := t.Instrument.Settings
	p := settings[m.setting]
	p.set(&s, p.get(s)+dir*p.step)
	m.Manager.UpdateInstrumentSettings(t.ID, s)
}

// scroll keeps the cursor inside the visible window
func (m *Model) scroll() {
	g := m.gridView()
	m.top, m.left = g.Top, g.Left
}

// gridView builds the grid widget for the selected track with the other
// tracks onion-skinned under it, scrolled so the cursor is visible
func (m Model) gridView() widgets.GridView {
	g := widgets.GridView{
		Pitches:   m.Manager.Pitches(),
		Rows:      m.visibleRows,
		Cols:      m.visibleCols,
		Top:       m.top,
		Left:      m.left,
		CursorRow: m.cursorRow,
		CursorCol: m.cursorCol,
		Playhead:  -1,
		MarkCol:   m.markCol,
	}
	for _, t := range m.Manager.Tracks() {
		if t.Selected {
			g.Matrix = t.Matrix
			g.Color = t.Instrument.Color
			continue
		}
		g.Ghosts = append(g.Ghosts, widgets.Ghost{Matrix: t.Matrix, Color: t.Instrument.Color})
	}
	if st := m.Manager.GetState(); st.Playing {
		g.Playhead = st.Step
	}
	return g.Window()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Manager.GetState()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	statusStyle := lipgloss.NewStyle().
		Foreground(m.Theme.FG()).
		Background(m.Theme.Muted()).
		Padding(0, 1)

	playState := "STOP"
	if st.Playing {
		playState = "PLAY"
	}
	metro := ""
	if st.Metronome {
		metro = "  click"
	}
	g := m.gridView()
	header := headerStyle.Render(fmt.Sprintf("gridseq  %s  %3.0fbpm  step:%02d/%d  %s%s",
		playState, st.Tempo, st.Step, st.Length, g.Position(), metro))

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n\n")
	if m.showHelp {
		out.WriteString(m.helpView())
		return out.String()
	}
	if st.Tracks == 0 {
		out.WriteString(dimStyle.Render("no tracks, press a to add one"))
	} else {
		out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, g.Render(m.Theme), "  ", m.trackList()))
	}
	out.WriteString("\n\n")
	out.WriteString(m.settingsLine())
	out.WriteString("\n")

	if m.mode == modeAddTrack {
		out.WriteString("\n")
		out.WriteString(m.addTrackView())
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(m.help.View(keys))
	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(statusStyle.Render(m.status))
	}
	return out.String()
}

func (m Model) trackList() string {
	var lines []string
	for i, t := range m.Manager.Tracks() {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Instrument.Color)).Render(string(m.Theme.Symbols.Start))
		line := fmt.Sprintf("%d %s %s  %s", i+1, swatch, t.Name, t.Instrument.Name)
		if t.Selected {
			line = lipgloss.NewStyle().Foreground(m.Theme.Cursor()).Bold(true).Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) settingsLine() string {
	t, ok := m.Manager.Track(m.Manager.Selected())
	if !ok {
		return ""
	}
	active := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Underline(true)
	var parts []string
	for i, p := range settings {
		part := fmt.Sprintf("%s %.2f", p.name, p.get(t.Instrument.Settings))
		if i == m.setting {
			part = active.Render(part)
		}
		parts = append(parts, part)
	}
	return t.Instrument.Name + ": " + strings.Join(parts, "  ")
}

func (m Model) addTrackView() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.Theme.Accent()).
		Padding(0, 1)

	lines := []string{"Add track", m.search.View()}
	for i, inst := range m.choices {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(inst.Color)).Render(string(m.Theme.Symbols.Start))
		prefix := "  "
		if i == m.choice {
			prefix = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%s %s", prefix, swatch, inst.Name))
	}
	if len(m.choices) == 0 {
		lines = append(lines, "  no match")
	}
	return box.Render(strings.Join(lines, "\n"))
}

func (m Model) helpView() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.Theme.Accent()).
		Padding(0, 1)
	hint := lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render("any key to close")
	return box.Render(widgets.RenderKeyHelp(keys.Sections()) + "\n\n" + hint)
}
