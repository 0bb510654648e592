package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/control"
	"github.com/san-kum/kitesim/internal/sim"
)

const (
	stateMenu = iota
	stateSim
)

// Menu lets the user pick a preset and a pilot, then flies it in a live
// Model. Esc returns to the list.
type Menu struct {
	state   int
	cursor  int
	presets []string
	pilots  []string
	pilot   int
	opts    []sim.Option
	err     error
	live    Model
}

func NewMenu(opts ...sim.Option) Menu {
	m := Menu{
		presets: config.ListPresets(),
		pilots:  control.ListPilots(),
		opts:    opts,
	}
	for i, name := range m.pilots {
		if name == "manual" {
			m.pilot = i
		}
	}
	return m
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.state = stateMenu
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "tab", "p":
		m.pilot = (m.pilot + 1) % len(m.pilots)
	case "enter", " ":
		return m.start()
	}
	return m, nil
}

func (m Menu) start() (tea.Model, tea.Cmd) {
	name := m.presets[m.cursor]
	cfg, err := config.LookupPreset(name)
	if err != nil {
		m.err = err
		return m, nil
	}
	stepper, err := sim.NewStepper(cfg, m.opts...)
	if err != nil {
		m.err = err
		return m, nil
	}
	params := map[string]float64{"limit": cfg.Bar.MaxRotation}
	pilot, err := control.NewPilot(m.pilots[m.pilot], params)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.live = NewModel(stepper, pilot, name)
	m.state = stateSim
	return m, m.live.Init()
}

func (m Menu) View() string {
	if m.state == stateSim {
		return m.live.View()
	}

	title := headerStyle.Foreground(CurrentTheme.Kite)
	sub := lipgloss.NewStyle().Foreground(CurrentTheme.Text)
	selected := lipgloss.NewStyle().Foreground(CurrentTheme.Success).Bold(true)

	var b strings.Builder
	b.WriteString("\n    " + title.Render("KITESIM") + "\n    " + sub.Render("two-line kite simulator") + "\n\n")
	for i, name := range m.presets {
		desc := config.Presets[name].Description
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", selected.Render("▸"), selected.Render(fmt.Sprintf("%-10s", name)), desc))
			continue
		}
		b.WriteString(fmt.Sprintf("      %s  %s\n", sub.Render(fmt.Sprintf("%-10s", name)), sub.Render(desc)))
	}
	b.WriteString(fmt.Sprintf("\n    pilot: %s\n", selected.Render(m.pilots[m.pilot])))
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + helpStyle.Render("j/k select  tab pilot  enter fly  esc back  q quit") + "\n")
	return b.String()
}
