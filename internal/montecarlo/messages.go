package montecarlo

import (
	"github.com/rgehrsitz/rpmc/internal/domain"
)

// Message is a typed event emitted by a run on its progress channel
type Message interface {
	runID() string
}

// ProgressMsg reports how many scenarios have finished so far
type ProgressMsg struct {
	RunID     string
	Completed int
	Failed    int
	Total     int
}

// CompleteMsg signals the run finished and carries the aggregate
type CompleteMsg struct {
	RunID  string
	Result *domain.AggregateResult
}

// ErrorMsg signals the run aborted
type ErrorMsg struct {
	RunID string
	Err   error
}

func (m ProgressMsg) runID() string { return m.RunID }
func (m CompleteMsg) runID() string { return m.RunID }
func (m ErrorMsg) runID() string    { return m.RunID }

// Fraction returns the completed share of the run in [0,1]
func (m ProgressMsg) Fraction() float64 {
	if m.Total <= 0 {
		return 0
	}
	return float64(m.Completed+m.Failed) / float64(m.Total)
}

// RunIDOf returns the run identifier carried by m
func RunIDOf(m Message) string {
	if m == nil {
		return ""
	}
	return m.runID()
}
