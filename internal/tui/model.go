// Package tui renders a terminal progress bar for a running Monte Carlo simulation.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/montecarlo"
)

const maxBarWidth = 60

// runMessageMsg wraps an engine message so it can travel through the Bubble Tea update cycle
type runMessageMsg struct {
	msg montecarlo.Message
}

// channelClosedMsg signals the engine closed its message channel
type channelClosedMsg struct{}

// Model represents the progress view state
type Model struct {
	label string
	runID string
	msgs  <-chan montecarlo.Message
	bar   progress.Model

	completed int
	failed    int
	total     int

	result      *domain.AggregateResult
	err         error
	done        bool
	interrupted bool
}

// NewModel creates a progress model fed by the engine's message channel
func NewModel(label string, total int, msgs <-chan montecarlo.Message) Model {
	return Model{
		label: label,
		msgs:  msgs,
		total: total,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Init starts listening for engine messages
func (m Model) Init() tea.Cmd {
	return waitForMessage(m.msgs)
}

func waitForMessage(ch <-chan montecarlo.Message) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return runMessageMsg{msg: msg}
	}
}

// Update handles key presses, resizes and engine messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, maxBarWidth)
		return m, nil

	case runMessageMsg:
		if id := montecarlo.RunIDOf(msg.msg); id != "" {
			m.runID = id
		}
		switch rm := msg.msg.(type) {
		case montecarlo.ProgressMsg:
			m.completed, m.failed, m.total = rm.Completed, rm.Failed, rm.Total
			return m, waitForMessage(m.msgs)
		case montecarlo.CompleteMsg:
			m.result = rm.Result
			m.done = true
			if rm.Result != nil {
				m.completed, m.failed = rm.Result.Completed, rm.Result.Failed
			}
			return m, tea.Quit
		case montecarlo.ErrorMsg:
			m.err = rm.Err
			m.done = true
			return m, tea.Quit
		}
		return m, waitForMessage(m.msgs)

	case channelClosedMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// Fraction returns the finished share of scenarios
func (m Model) Fraction() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.completed+m.failed) / float64(m.total)
}

// View renders the progress bar and counters
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.label))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.Fraction()))
	b.WriteString("\n")
	b.WriteString(StatusStyle.Render(fmt.Sprintf("%d/%d scenarios", m.completed+m.failed, m.total)))
	if m.failed > 0 {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("  %d failed", m.failed)))
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render("Error: " + m.err.Error()))
	case m.result != nil:
		b.WriteString(DoneStyle.Render(fmt.Sprintf("Done: %.1f%% success", m.result.SuccessProbability*100)))
	case m.interrupted:
		b.WriteString(ErrorStyle.Render("Interrupted"))
	default:
		b.WriteString(HelpStyle.Render("q: cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// Result returns the aggregate once the run completed
func (m Model) Result() *domain.AggregateResult { return m.result }

// RunID returns the identifier of the observed run, once a message arrived
func (m Model) RunID() string { return m.runID }

// Err returns the run error, if any
func (m Model) Err() error { return m.err }

// Interrupted reports whether the user cancelled from the keyboard
func (m Model) Interrupted() bool { return m.interrupted }

// Run shows the progress view until the run completes, fails or the user cancels
func Run(label string, total int, msgs <-chan montecarlo.Message, opts ...tea.ProgramOption) (Model, error) {
	final, err := tea.NewProgram(NewModel(label, total, msgs), opts...).Run()
	if err != nil {
		return Model{}, err
	}
	return final.(Model), nil
}
