// Package tui provides the live turn-by-turn watch view.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/askival/ringtrack/internal/beam"
	"github.com/askival/ringtrack/internal/lattice"
	"github.com/askival/ringtrack/internal/tracking"
)

const historyCapacity = 256

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	lostStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type tickMsg time.Time

// Model steps one particle around the ring, one turn per frame.
type Model struct {
	acc       *lattice.Accelerator
	name      string
	p         beam.Pos
	turn      int
	maxTurns  int
	rxHistory []float64
	running   bool
	lost      bool
	lostPlane tracking.Plane
	err       error
}

// NewModel prepares a watch session starting from p0.
func NewModel(acc *lattice.Accelerator, name string, p0 beam.Pos, maxTurns int) Model {
	return Model{
		acc:      acc,
		name:     name,
		p:        p0,
		maxTurns: maxTurns,
		running:  true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}
	case tickMsg:
		if m.running && !m.lost && m.turn < m.maxTurns {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	_, _, _, plane, err := tracking.RingPass(m.acc, &m.p, 1, false)
	m.turn++
	if err != nil {
		m.lost = true
		m.lostPlane = plane
		m.err = err
		return
	}
	m.rxHistory = appendCapped(m.rxHistory, m.p.RX*1e3)
}

func appendCapped(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[len(hist)-historyCapacity:]
	}
	return hist
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("ringtrack watch — "+m.name) + "\n")
	s.WriteString(labelStyle.Render("Turn") + valueStyle.Render(fmt.Sprintf("%d / %d", m.turn, m.maxTurns)) + "\n")
	s.WriteString(labelStyle.Render("rx [mm]") + valueStyle.Render(fmt.Sprintf("%+.6f", m.p.RX*1e3)) + "\n")
	s.WriteString(labelStyle.Render("px [mrad]") + valueStyle.Render(fmt.Sprintf("%+.6f", m.p.PX*1e3)) + "\n")
	s.WriteString(labelStyle.Render("ry [mm]") + valueStyle.Render(fmt.Sprintf("%+.6f", m.p.RY*1e3)) + "\n")
	s.WriteString(labelStyle.Render("py [mrad]") + valueStyle.Render(fmt.Sprintf("%+.6f", m.p.PY*1e3)) + "\n")
	s.WriteString(labelStyle.Render("de") + valueStyle.Render(fmt.Sprintf("%+.3e", m.p.DE)) + "\n")
	s.WriteString(labelStyle.Render("dl [m]") + valueStyle.Render(fmt.Sprintf("%+.3e", m.p.DL)) + "\n")

	if len(m.rxHistory) > 1 {
		chart := asciigraph.Plot(m.rxHistory,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption("rx [mm] turn by turn"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	if m.lost {
		s.WriteString(lostStyle.Render(fmt.Sprintf("particle lost on turn %d (plane %s)", m.turn, m.lostPlane)) + "\n")
	} else if m.turn >= m.maxTurns {
		s.WriteString(valueStyle.Render("done") + "\n")
	}

	s.WriteString(helpStyle.Render("space pause · q quit"))
	return s.String()
}

// Run starts the watch program.
func Run(acc *lattice.Accelerator, name string, p0 beam.Pos, maxTurns int) error {
	_, err := tea.NewProgram(NewModel(acc, name, p0, maxTurns)).Run()
	return err
}
