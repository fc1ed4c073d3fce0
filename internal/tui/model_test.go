package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streaklit/internal/storage/memory"
	"github.com/julianstephens/streaklit/internal/tracker"
	"github.com/julianstephens/streaklit/internal/tui/components/habits"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Init())
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	tr := tracker.New(store,
		tracker.WithClock(func() time.Time { return now }),
		tracker.WithLocation(time.UTC),
	)
	return NewModel(tr, "sam")
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm
}

func TestTabsCycle(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, StateToday, m.state)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateProgress, m.state)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateMemories, m.state)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateToday, m.state)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, StateMemories, m.state)
}

func TestToggleUpdatesScore(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, 0, m.habitsModel.Score())

	m = update(t, m, habits.ToggleHabitMsg{ID: "water"})
	assert.Empty(t, m.status)
	assert.Equal(t, 10, m.habitsModel.Score())
	require.Len(t, m.chart, 1)
	assert.Equal(t, 10, m.chart[0].Score)

	m = update(t, m, habits.ToggleHabitMsg{ID: "missing"})
	assert.Contains(t, m.status, "Toggle failed")
}

func TestDeleteHabit(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, habits.ToggleHabitMsg{ID: "water"})
	m = update(t, m, habits.DeleteHabitMsg{ID: "exercise"})
	assert.Empty(t, m.status)
	assert.Equal(t, 11, m.habitsModel.Score())
}

func TestProgressWindow(t *testing.T) {
	m := newTestModel(t)
	m.state = StateProgress
	assert.Equal(t, 7, m.window())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	assert.Equal(t, 14, m.window())
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	assert.Equal(t, 7, m.window(), "window does not shrink past the first size")
}

func TestMemoriesView(t *testing.T) {
	m := newTestModel(t)
	_, _, err := m.tracker.AddMemory(context.Background(), "sam", "first line\nsecond line")
	require.NoError(t, err)
	m.refresh()
	m.state = StateMemories

	require.Len(t, m.memories, 1)
	assert.Contains(t, m.View(), "first line …")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	assert.Empty(t, m.memories)
	assert.Contains(t, m.View(), "No memories yet")
}

func TestAddHabitOpensForm(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, habits.AddHabitMsg{})
	assert.Equal(t, StateAddHabit, m.state)
	require.NotNil(t, m.form)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateToday, m.state)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}
