package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/control"
	"github.com/san-kum/kitesim/internal/sim"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	s, err := sim.NewStepper(config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewStepper: %v", err)
	}
	return NewModel(s, control.NewNone(), "test")
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModelTickAdvances(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 5; i++ {
		m, _ = update(m, TickMsg(time.Now()))
	}
	if got := m.stepper.Steps(); got != 5 {
		t.Errorf("steps = %d, want 5", got)
	}
	if len(m.tension) != 5 || len(m.altitude) != 5 {
		t.Errorf("history = %d/%d, want 5", len(m.tension), len(m.altitude))
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = update(m, TickMsg(time.Now()))
	if got := m.stepper.Steps(); got != 5 {
		t.Errorf("paused steps = %d, want 5", got)
	}
}

func TestModelSteeringTakesOver(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = update(m, runes("h"))

	if m.pilot != m.manual {
		t.Fatal("arrow key should switch to manual control")
	}
	if got := m.manual.Target; got < 0.2-1e-9 || got > 0.2+1e-9 {
		t.Errorf("target = %v, want 0.2", got)
	}
	m, _ = update(m, runes("0"))
	if m.manual.Target != 0 {
		t.Errorf("target after center = %v, want 0", m.manual.Target)
	}
}

func TestModelWindKeys(t *testing.T) {
	m := newTestModel(t)
	speed := m.stepper.Wind().Speed()
	turb := m.stepper.Wind().Turbulence()

	m, _ = update(m, runes("+"))
	m, _ = update(m, runes("t"))
	if got := m.stepper.Wind().Speed(); got != speed+windStep {
		t.Errorf("speed = %v, want %v", got, speed+windStep)
	}
	if got := m.stepper.Wind().Turbulence(); got != turb+turbulenceStep {
		t.Errorf("turbulence = %v, want %v", got, turb+turbulenceStep)
	}
}

func TestModelResetAndQuit(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 10; i++ {
		m, _ = update(m, TickMsg(time.Now()))
	}
	m, _ = update(m, runes("r"))
	if m.stepper.Steps() != 0 || len(m.trail) != 0 {
		t.Errorf("reset left steps=%d trail=%d", m.stepper.Steps(), len(m.trail))
	}

	_, cmd := update(m, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModelViews(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(m, TickMsg(time.Now()))
	m, _ = update(m, TickMsg(time.Now()))

	for _, want := range []string{"side", "front", "3d"} {
		out := m.View()
		if !strings.Contains(out, "view:"+want) {
			t.Errorf("view %q missing from output", want)
		}
		for _, label := range []string{"Altitude", "Left", "Right", "Warnings"} {
			if !strings.Contains(out, label) {
				t.Errorf("%s view missing %q", want, label)
			}
		}
		m, _ = update(m, runes("v"))
	}
}

func TestMenuStartsLiveModel(t *testing.T) {
	menu := NewMenu()
	if len(menu.presets) == 0 {
		t.Fatal("no presets")
	}
	next, cmd := menu.Update(tea.KeyMsg{Type: tea.KeyEnter})
	menu = next.(Menu)
	if menu.state != stateSim {
		t.Fatalf("state = %d, want live; err = %v", menu.state, menu.err)
	}
	if cmd == nil {
		t.Error("starting a flight should schedule a tick")
	}
	if !strings.Contains(menu.View(), strings.ToUpper(menu.presets[0])) {
		t.Error("live view should show the preset name")
	}

	next, _ = menu.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(Menu).state != stateMenu {
		t.Error("esc should return to the menu")
	}
}
