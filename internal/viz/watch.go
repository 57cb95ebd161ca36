package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/driftsim/internal/particle"
	"github.com/san-kum/driftsim/internal/sim"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
)

// ErrClosed is returned to the simulator once the view has quit.
var ErrClosed = fmt.Errorf("viz: view closed: %w", context.Canceled)

// Frame is the population after one step.
type Frame struct {
	Step     int
	Time     float64
	X, Y     []float64 // grid positions of the living particles
	Alive    int
	Released int
	Causes   map[string]int
}

// Feed is a sim.Observer passing frames to a Model. OnStep blocks until
// the view takes the frame, so a paused view holds the simulation.
type Feed struct {
	frames chan Frame
	done   chan struct{}
	once   sync.Once
}

func NewFeed() *Feed {
	return &Feed{
		frames: make(chan Frame),
		done:   make(chan struct{}),
	}
}

func (f *Feed) OnStep(step int, t float64, pop []*particle.Particle) error {
	fr := Frame{
		Step:     step,
		Time:     t,
		Released: len(pop),
		Causes:   sim.Census(pop),
	}
	for _, p := range pop {
		if !p.IsLiving() {
			continue
		}
		fr.X = append(fr.X, p.X())
		fr.Y = append(fr.Y, p.Y())
	}
	fr.Alive = len(fr.X)

	select {
	case f.frames <- fr:
		return nil
	case <-f.done:
		return ErrClosed
	}
}

// Close releases a simulator blocked in OnStep.
func (f *Feed) Close() { f.once.Do(func() { close(f.done) }) }

type frameMsg Frame

// DoneMsg tells the view the simulation has returned.
type DoneMsg struct{ Err error }

func (f *Feed) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case fr := <-f.frames:
			return frameMsg(fr)
		case <-f.done:
			return nil
		}
	}
}

// Model draws the particles of a running simulation over the coastline.
type Model struct {
	name      string
	feed      *Feed
	steps     int
	start     float64
	proj      Projection
	coast     *Canvas
	canvas    *Canvas
	frame     Frame
	alive     []float64
	running   bool
	waiting   bool
	done      bool
	err       error
	showCoast bool
	showHelp  bool
}

// NewModel builds the view for a run of steps steps from start over an
// nx by ny grid.
func NewModel(name string, feed *Feed, basin Basin, nx, ny, steps int, start float64) Model {
	canvas := NewCanvas(width, height)
	w, h := canvas.Pixels()
	proj := Projection{Nx: nx, Ny: ny, W: w, H: h}
	return Model{
		name:      name,
		feed:      feed,
		steps:     steps,
		start:     start,
		proj:      proj,
		coast:     Coastline(basin, proj),
		canvas:    canvas,
		alive:     make([]float64, 0, historyCapacity),
		running:   true,
		waiting:   true,
		showCoast: true,
	}
}

func (m Model) Init() tea.Cmd { return m.feed.next() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.feed.Close()
			return m, tea.Quit
		case " ":
			m.running = !m.running
			if m.running && !m.waiting && !m.done {
				m.waiting = true
				return m, m.feed.next()
			}
		case "t":
			NextPalette()
		case "c":
			m.showCoast = !m.showCoast
		case "?":
			m.showHelp = !m.showHelp
		}
	case frameMsg:
		m.waiting = false
		m.frame = Frame(msg)
		if len(m.alive) == historyCapacity {
			m.alive = m.alive[1:]
		}
		m.alive = append(m.alive, float64(msg.Alive))
		if m.running {
			m.waiting = true
			return m, m.feed.next()
		}
	case DoneMsg:
		m.done = true
		m.err = msg.Err
	}
	return m, nil
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return "FAILED"
	case m.done:
		return "DONE"
	case !m.running:
		return "PAUSED"
	}
	return "RUNNING"
}

func (m Model) draw() {
	m.canvas.Clear()
	for i := range m.frame.X {
		m.canvas.Set(m.proj.ToPixel(m.frame.X[i], m.frame.Y[i]))
	}
}

func (m Model) View() string {
	m.draw()
	coast := m.coast
	if !m.showCoast {
		coast = nil
	}
	canvasView := canvasStyle.Render(Layers(coast, m.canvas,
		lipgloss.NewStyle().Foreground(current.Coast),
		lipgloss.NewStyle().Foreground(current.Drifters)))

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(m.name)) + "\n")
	status := m.status()
	s.WriteString(statusStyle(status).Render(status) + "\n\n")

	progress := 0.0
	if m.steps > 0 {
		progress = float64(m.frame.Step) / float64(m.steps)
	}
	s.WriteString(ProgressBar(progress, 30) + fmt.Sprintf(" %d/%d\n\n", m.frame.Step, m.steps))

	days := (m.frame.Time - m.start) / 86400
	s.WriteString(labelStyle.Render("Elapsed") + valueStyle.Render(fmt.Sprintf("%+.2f d", days)) + "\n")
	s.WriteString(labelStyle.Render("Alive") + valueStyle.Render(fmt.Sprintf("%d / %d", m.frame.Alive, m.frame.Released)) + "\n")

	causes := make([]string, 0, len(m.frame.Causes))
	for name, n := range m.frame.Causes {
		if name != particle.Alive.String() && n > 0 {
			causes = append(causes, name)
		}
	}
	sort.Strings(causes)
	for _, name := range causes {
		fate := lipgloss.NewStyle().Foreground(current.Fate(name))
		s.WriteString(labelStyle.Render(name) + fate.Render(fmt.Sprintf("%d", m.frame.Causes[name])) + "\n")
	}

	if len(m.alive) > 1 {
		chart := asciigraph.Plot(m.alive, asciigraph.Height(5), asciigraph.Width(34), asciigraph.Caption("Alive"))
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(current.Curve).Render(chart) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + statusStyle("FAILED").Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render(Separator(34) + "\nSP:Pause T:Palette C:Coast\n?:Help Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  T        - Cycle palettes           ║
║  C        - Toggle coastline         ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
