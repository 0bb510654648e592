package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/kitesim/internal/control"
	"github.com/san-kum/kitesim/internal/dynamo"
	"github.com/san-kum/kitesim/internal/sim"
)

const (
	canvasWidth     = 72
	canvasHeight    = 22
	historyCapacity = 600
	trailCapacity   = 240

	barStep        = 0.1
	windStep       = 1.0
	turbulenceStep = 5.0
)

type TickMsg time.Time

type viewMode int

const (
	viewSide viewMode = iota
	viewFront
	view3D
)

func (v viewMode) String() string {
	switch v {
	case viewSide:
		return "side"
	case viewFront:
		return "front"
	}
	return "3d"
}

// Model flies one stepper in real time. Arrow keys take over from the
// configured pilot and steer manually.
type Model struct {
	stepper *sim.Stepper
	pilot   dynamo.Pilot
	manual  *control.Manual
	title   string
	dt      float64

	running  bool
	showHelp bool
	view     viewMode
	canvas   *Canvas
	camera   *Camera

	tension  []float64
	altitude []float64
	trail    []mgl64.Vec3
}

func NewModel(stepper *sim.Stepper, pilot dynamo.Pilot, title string) Model {
	maxRot := stepper.Config().Bar.MaxRotation
	manual, ok := pilot.(*control.Manual)
	if !ok {
		manual = control.NewManual(maxRot)
	}
	if pilot == nil {
		pilot = manual
	}
	return Model{
		stepper:  stepper,
		pilot:    pilot,
		manual:   manual,
		title:    title,
		dt:       1.0 / 60,
		running:  true,
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		camera:   NewCamera(),
		tension:  make([]float64, 0, historyCapacity),
		altitude: make([]float64, 0, historyCapacity),
		trail:    make([]mgl64.Vec3, 0, trailCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := m.stepper.Wind()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		m.reset()
	case "left", "h":
		m.steer(barStep)
	case "right", "l":
		m.steer(-barStep)
	case "0":
		m.steer(-m.manual.Target)
	case "+", "=":
		m.stepper.SetWindParameters(w.Speed()+windStep, w.Direction(), w.Turbulence())
	case "-", "_":
		m.stepper.SetWindParameters(w.Speed()-windStep, w.Direction(), w.Turbulence())
	case "t":
		m.stepper.SetWindParameters(w.Speed(), w.Direction(), w.Turbulence()+turbulenceStep)
	case "T":
		m.stepper.SetWindParameters(w.Speed(), w.Direction(), w.Turbulence()-turbulenceStep)
	case "v":
		m.view = (m.view + 1) % 3
	case "c":
		NextTheme()
	case "x":
		m.camera.Orbit(0.1, 0)
	case "X":
		m.camera.Orbit(-0.1, 0)
	case "y":
		m.camera.Orbit(0, 0.1)
	case "Y":
		m.camera.Orbit(0, -0.1)
	case "z":
		m.camera.ZoomIn()
	case "Z":
		m.camera.ZoomOut()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// steer hands control to the keyboard and moves the bar target.
func (m *Model) steer(delta float64) {
	if m.pilot != dynamo.Pilot(m.manual) {
		m.manual.Set(m.stepper.BarRotation())
		m.pilot = m.manual
	}
	m.manual.Nudge(delta)
}

func (m *Model) step() {
	target := m.pilot.Steer(m.stepper.Frame())
	m.stepper.Step(m.dt, target)
	f := m.stepper.Frame()

	m.tension = appendCapped(m.tension, f.Tensions.Total(), historyCapacity)
	m.altitude = appendCapped(m.altitude, f.Altitude(), historyCapacity)
	m.trail = append(m.trail, f.Body.Position)
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
}

func appendCapped(s []float64, v float64, n int) []float64 {
	s = append(s, v)
	if len(s) > n {
		s = s[1:]
	}
	return s
}

func (m *Model) reset() {
	m.stepper.Reset()
	m.manual.Set(0)
	if p, ok := m.pilot.(interface{ Reset() }); ok {
		p.Reset()
	}
	m.tension = m.tension[:0]
	m.altitude = m.altitude[:0]
	m.trail = m.trail[:0]
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(
		lipgloss.NewStyle().Foreground(CurrentTheme.Kite).Render(m.canvas.String()))

	f := m.stepper.Frame()
	cfg := m.stepper.Config()
	w := m.stepper.Wind()

	var s strings.Builder
	s.WriteString(headerStyle.Foreground(CurrentTheme.Text).Render(strings.ToUpper(m.title)) + "\n")
	status := StatusRunning.Render("FLYING")
	if !m.running {
		status = StatusPaused.Render("PAUSED")
	}
	s.WriteString(fmt.Sprintf("%s  view:%s  pilot:%s\n\n", status, m.view, pilotName(m.pilot)))

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", f.Time))
	row("Altitude", fmt.Sprintf("%.2f m", f.Altitude()))
	row("Speed", fmt.Sprintf("%.2f m/s", f.Body.Velocity.Len()))
	row("Azimuth", fmt.Sprintf("%+.1f°", control.Azimuth(f)))
	row("Wind", fmt.Sprintf("%.1f m/s  %.0f°  %.0f%%", w.Speed(), w.Direction(), w.Turbulence()))
	row("Apparent", fmt.Sprintf("%.2f m/s", f.Apparent.Len()))
	row("Bar", fmt.Sprintf("%+.2f rad → %+.2f", f.BarRotation, m.manual.Target))
	row("Left", fmt.Sprintf("%s %5.1f N", TensionGauge(f.Tensions.LeftTension, cfg.Lines.MaxTension, 14), f.Tensions.LeftTension))
	row("Right", fmt.Sprintf("%s %5.1f N", TensionGauge(f.Tensions.RightTension, cfg.Lines.MaxTension, 14), f.Tensions.RightTension))
	row("Warnings", WarningBadges(f.Warnings))
	row("Height", Sparkline(m.altitude, 24))

	if len(m.tension) > 1 {
		chart := asciigraph.Plot(m.tension,
			asciigraph.Height(5),
			asciigraph.Width(32),
			asciigraph.Caption("total tension (N)"))
		s.WriteString("\n" + graphStyle.Render(chart) + "\n")
	}
	s.WriteString(helpStyle.Render("←/→ steer  +/- wind  t/T gust  v view\nspace pause  r reset  c theme  ? help  q quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
  ←/→ h/l   steer (bar rotation)      0     center bar
  +/-       wind speed                t/T   turbulence
  v         side / front / 3d view    x/y   orbit 3d camera
  z/Z       zoom 3d camera            c     cycle theme
  space     pause                     r     reset kite
  q         quit                      ?     toggle help
`

func pilotName(p dynamo.Pilot) string {
	switch p.(type) {
	case *control.Manual:
		return "manual"
	case *control.PID:
		return "pid"
	case *control.None:
		return "none"
	}
	return "custom"
}

// draw renders the current frame into the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	if m.view == view3D {
		m.draw3D()
		return
	}

	length := m.stepper.LineLength()
	var vp Viewport
	var project func(p mgl64.Vec3) (float64, float64)
	if m.view == viewSide {
		vp = Fit(m.canvas, length*0.5, length*0.5, length*1.25)
		project = func(p mgl64.Vec3) (float64, float64) { return -p.Z(), p.Y() }
	} else {
		vp = Fit(m.canvas, 0, length*0.5, length*1.25)
		project = func(p mgl64.Vec3) (float64, float64) { return p.X(), p.Y() }
	}
	line := func(a, b mgl64.Vec3) {
		au, av := project(a)
		bu, bv := project(b)
		vp.Line(au, av, bu, bv)
	}

	vp.Line(vp.MinU, 0, vp.MaxU, 0)
	for _, p := range m.trail {
		u, v := project(p)
		vp.Point(u, v)
	}
	for _, e := range m.kiteEdges() {
		line(e.Start, e.End)
	}
}

// kiteEdges returns the sail outline, both lines and the bar in world
// space.
func (m *Model) kiteEdges() []Edge {
	body := m.stepper.RigidBodyState()
	geom := m.stepper.Geometry()
	var edges []Edge
	for _, p := range geom.Panels {
		for i := 0; i < 3; i++ {
			edges = append(edges, Edge{body.ToWorld(p.Vertices[i]), body.ToWorld(p.Vertices[(i+1)%3])})
		}
	}
	left, right := m.stepper.Handles()
	edges = append(edges,
		Edge{left, body.ToWorld(geom.LeftControl)},
		Edge{right, body.ToWorld(geom.RightControl)},
		Edge{left, right},
	)
	return edges
}

func (m *Model) draw3D() {
	length := m.stepper.LineLength()
	w := GroundGrid(0, -length/2, length*1.5, 6)
	for _, e := range m.kiteEdges() {
		w.AddEdge(e.Start, e.End)
	}
	for _, p := range m.trail {
		w.AddPoint(p)
	}
	m.camera.Target = mgl64.Vec3{0, length * 0.35, -length * 0.5}
	Render3D(m.canvas, w, m.camera)
}

// Run starts the live view full screen and blocks until it quits.
func Run(model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
