package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/tui/components/habits"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateAddHabit:
		return m.updateHabitForm(msg)
	case StateAddMemory:
		return m.updateMemoryForm(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.habitsModel.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case habits.AddHabitMsg:
		m.habitForm = &HabitFormModel{Category: constants.CategoryHealth}
		m.form = newHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()

	case habits.ToggleHabitMsg:
		if _, _, err := m.tracker.Toggle(context.Background(), m.user, msg.ID); err != nil {
			m.status = fmt.Sprintf("Toggle failed: %v", err)
			return m, nil
		}
		m.refresh()
		return m, nil

	case habits.DeleteHabitMsg:
		if err := m.tracker.DeleteHabit(context.Background(), m.user, msg.ID); err != nil {
			m.status = fmt.Sprintf("Delete failed: %v", err)
			return m, nil
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

		switch m.state {
		case StateProgress:
			return m.updateProgress(msg)
		case StateMemories:
			return m.updateMemories(msg)
		}
	}

	if m.state == StateToday {
		var cmd tea.Cmd
		m.habitsModel, cmd = m.habitsModel.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateProgress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Narrow):
		if m.windowIdx > 0 {
			m.windowIdx--
			m.refresh()
		}
	case key.Matches(msg, m.keys.Widen):
		if m.windowIdx < len(constants.ViewWindows)-1 {
			m.windowIdx++
			m.refresh()
		}
	}
	return m, nil
}

func (m Model) updateMemories(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.memoryCursor > 0 {
			m.memoryCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.memoryCursor < len(m.memories)-1 {
			m.memoryCursor++
		}
	case key.Matches(msg, m.keys.Add):
		m.memoryForm = &MemoryFormModel{}
		m.form = newMemoryForm(m.memoryForm)
		m.state = StateAddMemory
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Delete):
		if len(m.memories) == 0 {
			return m, nil
		}
		id := m.memories[m.memoryCursor].ID
		if err := m.tracker.DeleteMemory(context.Background(), m.user, id); err != nil {
			m.status = fmt.Sprintf("Delete failed: %v", err)
			return m, nil
		}
		m.refresh()
	}
	return m, nil
}

// updateForm feeds msg to the active form. It reports whether the form
// finished; back is the state to return to when it was aborted.
func (m *Model) updateForm(msg tea.Msg, back SessionState) (done bool, cmd tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = back
		return false, nil
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return true, cmd
	case huh.StateAborted:
		m.state = back
	}
	return false, cmd
}

func (m Model) updateHabitForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	done, cmd := m.updateForm(msg, StateToday)
	if !done {
		return m, cmd
	}
	_, err := m.tracker.AddHabit(context.Background(), m.user, m.habitForm.Label, m.habitForm.Category)
	if err != nil {
		// stay in the form so the user can retry or cancel with esc
		m.status = fmt.Sprintf("Add failed: %v", err)
		m.form.State = huh.StateNormal
		return m, cmd
	}
	m.state = StateToday
	m.refresh()
	return m, cmd
}

// updateMemoryForm saves the memory and applies the habit reset it yields.
func (m Model) updateMemoryForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	done, cmd := m.updateForm(msg, StateMemories)
	if !done {
		return m, cmd
	}
	ctx := context.Background()
	_, reset, err := m.tracker.AddMemory(ctx, m.user, m.memoryForm.Text)
	if err != nil {
		m.status = fmt.Sprintf("Save failed: %v", err)
		m.form.State = huh.StateNormal
		return m, cmd
	}
	m.state = StateMemories
	if _, _, err := m.tracker.ApplyReset(ctx, reset); err != nil {
		m.refresh()
		m.status = fmt.Sprintf("Memory saved, but habits were not reset: %v", err)
		return m, cmd
	}
	m.refresh()
	m.status = "Memory saved. Today's habits were reset."
	return m, cmd
}
