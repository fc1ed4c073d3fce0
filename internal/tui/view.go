package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/streaklit/internal/tui/components/progress"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = m.viewToday()
	case StateProgress:
		content = m.viewProgress()
	case StateMemories:
		content = m.viewMemories()
	case StateAddHabit, StateAddMemory:
		content = docStyle.Render(m.form.View())
	}

	parts := []string{m.viewTabs(), content}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(m))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Today", "Progress", "Memories"} {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewToday() string {
	header := fmt.Sprintf("%s  %d%%", m.tracker.TodayKey(), m.habitsModel.Score())
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, m.habitsModel.View()))
}

func (m Model) viewProgress() string {
	barWidth := 30
	if m.width > 0 {
		barWidth = max(10, min(50, m.width-20))
	}
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		progress.Summary(m.summary, m.summaryOK, m.streak),
		"",
		progress.Chart(m.chart, barWidth),
	))
}

func (m Model) viewMemories() string {
	if len(m.memories) == 0 {
		return docStyle.Render("No memories yet.\nPress 'a' to write one.")
	}
	var b strings.Builder
	for i, mem := range m.memories {
		line := fmt.Sprintf("%s  %s", mem.CreatedAt.Format("Jan 2 15:04"), firstLine(mem.Text))
		if i == m.memoryCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(dimStyle.Render("  ") + line)
		}
		b.WriteByte('\n')
	}
	return docStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
