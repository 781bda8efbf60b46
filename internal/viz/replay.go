package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/motorsim/internal/dynamo"
)

const (
	dialWidth  = 24
	dialHeight = 12
	plotWidth  = 60
	plotHeight = 10
	frameRate  = time.Second / 30
)

var speeds = []int{1, 2, 5, 10, 25}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// ReplayModel steps through a finished trace, drawing the shaft on a dial
// next to the position history up to the play head.
type ReplayModel struct {
	title    string
	trace    dynamo.Trace
	summary  dynamo.Summary
	playHead int
	speed    int
	running  bool
	showHelp bool
	canvas   *Canvas
}

func NewReplayModel(title string, trace dynamo.Trace, summary dynamo.Summary) ReplayModel {
	return ReplayModel{
		title:   title,
		trace:   trace,
		summary: summary,
		running: true,
		canvas:  NewCanvas(dialWidth, dialHeight),
	}
}

func (m ReplayModel) PlayHead() int { return m.playHead }

func (m ReplayModel) Running() bool { return m.running }

func (m ReplayModel) Init() tea.Cmd {
	return tick()
}

func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	last := len(m.trace) - 1
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r", "home":
			m.playHead = 0
		case "end":
			m.playHead = max(last, 0)
		case "left", "h":
			m.running = false
			m.playHead = max(m.playHead-speeds[m.speed], 0)
		case "right", "l":
			m.running = false
			m.playHead = min(m.playHead+speeds[m.speed], max(last, 0))
		case "+", "=":
			m.speed = min(m.speed+1, len(speeds)-1)
		case "-", "_":
			m.speed = max(m.speed-1, 0)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.playHead < last {
			m.playHead = min(m.playHead+speeds[m.speed], last)
		}
		if m.playHead >= last {
			m.running = false
		}
		return m, tick()
	}
	return m, nil
}

func (m ReplayModel) View() string {
	if len(m.trace) == 0 {
		return Subtle.Render("empty trace") + "\n"
	}
	r := m.trace[m.playHead]

	m.canvas.Clear()
	m.canvas.DrawDial(r.TruePosition, m.summary.TargetPosition)
	dial := lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Render(m.canvas.String())

	stats := strings.Join([]string{
		Title.Render(m.title),
		"",
		row("step", fmt.Sprintf("%d / %d", r.Step, m.trace[len(m.trace)-1].Step)),
		row("time", fmt.Sprintf("%.3f s", r.Time)),
		row("position", fmt.Sprintf("%.2f°", r.TruePosition)),
		row("encoder", fmt.Sprintf("%.2f°", r.MeasuredPosition)),
		row("error", fmt.Sprintf("%.2f°", r.Error)),
		row("control", fmt.Sprintf("%.2f", r.Control)),
		row("voltage", fmt.Sprintf("%.2f V", r.Voltage)),
		row("speed", fmt.Sprintf("%dx", speeds[m.speed])),
		"",
		ProgressBar(float64(m.playHead)/float64(max(len(m.trace)-1, 1)), 30),
		"control " + Sparkline(m.trace[:m.playHead+1].Controls(), 30),
	}, "\n")

	top := lipgloss.JoinHorizontal(lipgloss.Top, dial, Panel.Render(stats))
	history := PositionPlot(m.trace[:m.playHead+1], m.summary.TargetPosition, plotWidth, plotHeight)

	var b strings.Builder
	b.WriteString(top)
	b.WriteString("\n")
	b.WriteString(history)
	b.WriteString("\n")
	if m.playHead == len(m.trace)-1 {
		b.WriteString(OutcomeBadge(m.summary.Outcome) + "\n")
	}
	if m.showHelp {
		b.WriteString(KeyHint.Render("space pause · ←/→ step · +/- speed · r restart · end jump · q quit") + "\n")
	} else {
		b.WriteString(KeyHint.Render("? help · q quit") + "\n")
	}
	return b.String()
}
