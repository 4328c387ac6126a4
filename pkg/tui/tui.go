// Package tui provides a terminal user interface for pitch2tab
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/pitch2tab/pkg/config"
	"github.com/james-see/pitch2tab/pkg/pitch"
	"github.com/james-see/pitch2tab/pkg/tab"
	"github.com/james-see/pitch2tab/pkg/tab/tunings"
)

// Fretboard color scheme: rosewood and nickel
var (
	amber      = lipgloss.Color("#FFB000")
	ivory      = lipgloss.Color("#F5F0E1")
	nickelGray = lipgloss.Color("#A8A9AD")
	rosewood   = lipgloss.Color("#3B1F1A")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(amber).
			Background(rosewood).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(nickelGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(ivory).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4040")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateSynthesizing
	StateResult
)

// Action is what a menu item does with the picked pitch track.
type Action int

const (
	ActionRender Action = iota
	ActionMIDI
	ActionBoth
	ActionTuning
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
}

var menuItems = []MenuItem{
	{Title: "Render tab", Description: "Turn a pitch track into ASCII tablature (.tab.txt)", Action: ActionRender},
	{Title: "Export MIDI", Description: "Turn a pitch track into a guitar MIDI file (.mid)", Action: ActionMIDI},
	{Title: "Tab + MIDI", Description: "Write both the tablature and the MIDI file", Action: ActionBoth},
	{Title: "Tuning", Description: "Cycle through the tuning presets", Action: ActionTuning},
	{Title: "Exit", Description: "Exit the application", Action: ActionExit},
}

// Model represents the TUI model
type Model struct {
	cfg          *config.Config
	state        State
	menuIndex    int
	tuningIndex  int
	filePicker   filepicker.Model
	spinner      spinner.Model
	viewport     viewport.Model
	selectedFile string
	outputs      []string
	action       Action
	doc          *tab.Document
	err          error
	width        int
	height       int
}

// synthesisDoneMsg signals synthesis completion
type synthesisDoneMsg struct {
	doc     *tab.Document
	text    string
	outputs []string
	err     error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model for cfg
func New(cfg *config.Config) Model {
	fp := filepicker.New()
	fp.AllowedTypes = pitch.Supported()
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(amber)

	m := Model{
		cfg:        cfg,
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
		viewport:   viewport.New(cfg.Tab.Width+4, 20),
	}
	for i, name := range tunings.Names() {
		if name == cfg.Tab.Tuning {
			m.tuningIndex = i
		}
	}
	return m
}

// Tuning returns the currently selected tuning preset name
func (m Model) Tuning() string {
	return tunings.Names()[m.tuningIndex]
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs every message while it is open.
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateSynthesizing
			return m, tea.Batch(m.spinner.Tick, m.synthesize())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = max(msg.Height-16, 5)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case synthesisDoneMsg:
		m.state = StateResult
		m.doc = msg.doc
		m.outputs = msg.outputs
		m.err = msg.err
		m.viewport.SetContent(msg.text)
		m.viewport.GotoTop()
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		item := menuItems[m.menuIndex]
		switch item.Action {
		case ActionExit:
			return m, tea.Quit
		case ActionTuning:
			m.tuningIndex = (m.tuningIndex + 1) % len(tunings.Names())
			return m, nil
		}
		m.action = item.Action
		m.state = StateFilePicker
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.doc = nil
		m.selectedFile = ""
		m.outputs = nil
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) synthesize() tea.Cmd {
	cfg := *m.cfg
	cfg.Tab.Tuning = m.Tuning()
	path, action := m.selectedFile, m.action
	return func() tea.Msg {
		return process(&cfg, path, action)
	}
}

// process reads the pitch track at path and writes the outputs next to it.
func process(cfg *config.Config, path string, action Action) synthesisDoneMsg {
	tc, err := cfg.TabConfig()
	if err != nil {
		return synthesisDoneMsg{err: err}
	}
	samples, err := pitch.ReadFile(path)
	if err != nil {
		return synthesisDoneMsg{err: err}
	}
	doc, err := tab.Synthesize(tab.Samples(samples), tc)
	if err != nil {
		return synthesisDoneMsg{err: err}
	}
	text, err := tab.RenderText(doc, tc.RenderOptions())
	if err != nil {
		return synthesisDoneMsg{err: err}
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	base = strings.TrimSuffix(base, ".f0")
	var outputs []string

	if action == ActionRender || action == ActionBoth {
		out := base + ".tab.txt"
		if err := os.WriteFile(out, []byte(text), 0644); err != nil {
			return synthesisDoneMsg{err: err}
		}
		outputs = append(outputs, out)
	}
	if action == ActionMIDI || action == ActionBoth {
		data, err := tab.GenerateMIDI(doc)
		if err != nil {
			return synthesisDoneMsg{err: err}
		}
		out := base + ".mid"
		if err := os.WriteFile(out, data, 0644); err != nil {
			return synthesisDoneMsg{err: err}
		}
		outputs = append(outputs, out)
	}

	return synthesisDoneMsg{doc: doc, text: text, outputs: outputs}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateSynthesizing:
		s.WriteString(m.viewSynthesizing())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" PITCH TRACK → TAB "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		title := item.Title
		if item.Action == ActionTuning {
			title = fmt.Sprintf("%s: %s", item.Title, m.Tuning())
		}
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(ivory).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT PITCH TRACK "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("csv, json or midi • esc: back to menu"))

	return s.String()
}

func (m Model) viewSynthesizing() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" TRANSCRIBING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Reading %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  tuning %s • %.0f BPM", m.Tuning(), m.cfg.Tab.Tempo)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Transcription failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" TAB "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render(fmt.Sprintf("✓ %d notes", len(m.doc.Events))))
		for kind, n := range m.doc.CountDiagnostics() {
			s.WriteString(statusStyle.Render(fmt.Sprintf("  %s: %d", kind, n)))
		}
		s.WriteString("\n\n")
		s.WriteString(m.viewport.View())
		s.WriteString("\n\n")
		for _, out := range m.outputs {
			s.WriteString(fmt.Sprintf("Output: %s\n", filepath.Base(out)))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("pgup/pgdn: scroll • enter: continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
         _ _       _     ____  _        _     
   _ __ (_) |_ ___| |__ |___ \| |_ __ _| |__  
  | '_ \| | __/ __| '_ \  __) | __/ _' | '_ \ 
  | |_) | | || (__| | | |/ __/| || (_| | |_) |
  | .__/|_|\__\___|_| |_|_____|\__\__,_|_.__/ 
  |_|                                         
`
	return lipgloss.NewStyle().Foreground(amber).Render(logo)
}

// Run starts the TUI application
func Run(cfg *config.Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
