package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/montecarlo"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestModel_ProgressThenComplete(t *testing.T) {
	ch := make(chan montecarlo.Message, 2)
	m := NewModel("Simulating", 10, ch)
	assert.Equal(t, 0.0, m.Fraction())

	m, cmd := update(t, m, runMessageMsg{msg: montecarlo.ProgressMsg{RunID: "r", Completed: 4, Failed: 1, Total: 10}})
	require.NotNil(t, cmd)
	assert.InDelta(t, 0.5, m.Fraction(), 1e-12)
	assert.Contains(t, m.View(), "5/10 scenarios")
	assert.Contains(t, m.View(), "1 failed")

	// the returned command waits on the channel for the next message
	ch <- montecarlo.CompleteMsg{RunID: "r", Result: &domain.AggregateResult{Completed: 10, SuccessProbability: 0.875}}
	next := cmd()
	m, cmd = update(t, m, next)
	require.NotNil(t, cmd)
	require.NotNil(t, m.Result())
	assert.NoError(t, m.Err())
	assert.False(t, m.Interrupted())
	assert.InDelta(t, 1.0, m.Fraction(), 1e-12)
	assert.Equal(t, "r", m.RunID())
	assert.Contains(t, m.View(), "Done: 87.5% success")
}

func TestModel_Error(t *testing.T) {
	m := NewModel("Simulating", 10, nil)
	m, cmd := update(t, m, runMessageMsg{msg: montecarlo.ErrorMsg{RunID: "r", Err: errors.New("boom")}})
	require.NotNil(t, cmd)
	assert.EqualError(t, m.Err(), "boom")
	assert.Nil(t, m.Result())
	assert.Contains(t, m.View(), "Error: boom")
}

func TestModel_ChannelClosed(t *testing.T) {
	ch := make(chan montecarlo.Message)
	close(ch)
	m := NewModel("Simulating", 3, ch)
	msg := m.Init()()
	assert.IsType(t, channelClosedMsg{}, msg)

	m, cmd := update(t, m, msg)
	require.NotNil(t, cmd)
	assert.True(t, m.done)
}

func TestModel_KeyQuit(t *testing.T) {
	m := NewModel("Simulating", 3, nil)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.True(t, m.Interrupted())
	assert.Contains(t, m.View(), "Interrupted")

	m = NewModel("Simulating", 3, nil)
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
	assert.False(t, m.Interrupted())
}

func TestModel_WindowResize(t *testing.T) {
	m := NewModel("Simulating", 3, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 30, Height: 10})
	assert.Equal(t, 26, m.bar.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 10})
	assert.Equal(t, maxBarWidth, m.bar.Width)
}

func TestModel_ZeroTotal(t *testing.T) {
	m := NewModel("Simulating", 0, nil)
	assert.Equal(t, 0.0, m.Fraction())
	assert.Contains(t, m.View(), "q: cancel")
}
