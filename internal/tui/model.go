package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/tracker"
	"github.com/julianstephens/streaklit/internal/tui/components/habits"
	"github.com/julianstephens/streaklit/internal/validation"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateProgress
	StateMemories
	StateAddHabit
	StateAddMemory
)

// tabCount is the number of tab states at the start of SessionState.
const tabCount = 3

type HabitFormModel struct {
	Label    string
	Category constants.Category
}

type MemoryFormModel struct {
	Text string
}

type Model struct {
	tracker     *tracker.Tracker
	user        string
	state       SessionState
	keys        KeyMap
	help        help.Model
	habitsModel habits.Model
	form        *huh.Form
	habitForm   *HabitFormModel
	memoryForm  *MemoryFormModel

	memories     []models.Memory
	memoryCursor int

	windowIdx int
	chart     []analytics.ChartPoint
	summary   analytics.Summary
	summaryOK bool
	streak    analytics.Streak

	status   string
	quitting bool
	width    int
	height   int
}

func NewModel(tr *tracker.Tracker, user string) Model {
	m := Model{
		tracker:     tr,
		user:        user,
		state:       StateToday,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		habitsModel: habits.New(nil, 0, 0),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) window() int {
	return constants.ViewWindows[m.windowIdx]
}

// refresh reloads every view from the tracker. The first error is kept as
// the status line.
func (m *Model) refresh() {
	ctx := context.Background()
	m.status = ""
	fail := func(what string, err error) {
		if m.status == "" {
			m.status = fmt.Sprintf("Failed to load %s: %v", what, err)
		}
	}

	if snap, err := m.tracker.Today(ctx, m.user); err != nil {
		fail("habits", err)
	} else {
		score, _ := analytics.Score(snap.Habits)
		m.habitsModel.SetHabits(snap.Habits, score)
	}

	if mems, err := m.tracker.Memories(ctx, m.user); err != nil {
		fail("memories", err)
	} else {
		m.memories = mems
		m.memoryCursor = min(m.memoryCursor, max(len(mems)-1, 0))
	}

	if chart, err := m.tracker.Chart(ctx, m.user, m.window()); err != nil {
		fail("chart", err)
	} else {
		m.chart = chart
	}
	if s, ok, err := m.tracker.Summary(ctx, m.user, m.window()); err != nil {
		fail("summary", err)
	} else {
		m.summary, m.summaryOK = s, ok
	}
	if st, err := m.tracker.Streak(ctx, m.user); err != nil {
		fail("streak", err)
	} else {
		m.streak = st
	}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateToday:
		keys = append(keys, m.keys.Add)
	case StateProgress:
		keys = append(keys, m.keys.Narrow, m.keys.Widen)
	case StateMemories:
		keys = append(keys, m.keys.Add, m.keys.Delete)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case StateToday:
		actions = []key.Binding{m.keys.Add}
	case StateProgress:
		actions = []key.Binding{m.keys.Narrow, m.keys.Widen}
	case StateMemories:
		actions = []key.Binding{m.keys.Add, m.keys.Delete}
	}
	return [][]key.Binding{global, navigation, actions}
}

func newHabitForm(fm *HabitFormModel) *huh.Form {
	options := make([]huh.Option[constants.Category], 0, len(constants.Categories))
	for _, c := range constants.Categories {
		options = append(options, huh.NewOption(string(c), c))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit").
				Value(&fm.Label).
				Validate(validation.ValidateLabel),
			huh.NewSelect[constants.Category]().
				Title("Category").
				Options(options...).
				Value(&fm.Category),
		),
	)
}

func newMemoryForm(fm *MemoryFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Memory").
				Description("Saving a memory resets today's habits.").
				Value(&fm.Text).
				Validate(validation.ValidateMemoryText),
		),
	)
}
