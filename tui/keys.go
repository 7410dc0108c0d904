package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"gridseq/widgets"
)

// Key builds a binding whose help shows the first key
func Key(help string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
}

type keyMap struct {
	Up, Down, Left, Right key.Binding

	Note, Mark, Commit, Cancel, Erase key.Binding

	Add, NextTrack, Track key.Binding

	Play, Faster, Slower, Metronome key.Binding

	PrevSetting, NextSetting, Less, More key.Binding

	Help, Quit key.Binding
}

var keys = keyMap{
	Up:    Key("up", "k", "up"),
	Down:  Key("down", "j", "down"),
	Left:  Key("left", "h", "left"),
	Right: Key("right", "l", "right"),

	Note:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "note")),
	Mark:   Key("start run", "v"),
	Commit: Key("paint run", "enter"),
	Cancel: Key("cancel run", "esc"),
	Erase:  Key("erase note", "x"),

	Add:       Key("add track", "a"),
	NextTrack: Key("next track", "tab"),
	Track:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "select track")),

	Play:      Key("play/stop", "p"),
	Faster:    Key("tempo up", "+", "="),
	Slower:    Key("tempo down", "-", "_"),
	Metronome: Key("click", "m"),

	PrevSetting: Key("prev setting", "["),
	NextSetting: Key("next setting", "]"),
	Less:        Key("decrease", "<", ","),
	More:        Key("increase", ">", "."),

	Help: Key("help", "?"),
	Quit: Key("quit", "q", "ctrl+c"),
}

// ShortHelp is the one line under the grid
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Note, k.Mark, k.Erase, k.Add, k.NextTrack, k.Play, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Note, k.Mark, k.Commit, k.Cancel, k.Erase},
		{k.Add, k.NextTrack, k.Track},
		{k.Play, k.Faster, k.Slower, k.Metronome},
		{k.PrevSetting, k.NextSetting, k.Less, k.More},
		{k.Help, k.Quit},
	}
}

var sectionTitles = []string{"Move", "Edit", "Tracks", "Playback", "Instrument", "General"}

// Sections lays out FullHelp for the help overlay
func (k keyMap) Sections() []widgets.KeySection {
	groups := k.FullHelp()
	sections := make([]widgets.KeySection, len(groups))
	for i, group := range groups {
		sections[i].Title = sectionTitles[i]
		for _, b := range group {
			h := b.Help()
			sections[i].Keys = append(sections[i].Keys, widgets.KeyBinding{Key: h.Key, Desc: h.Desc})
		}
	}
	return sections
}
