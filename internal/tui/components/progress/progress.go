// Package progress renders score windows as bar charts.
package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/constants"
)

const defaultBarWidth = 30

var (
	labelStyle  = lipgloss.NewStyle().Width(7)
	scoreStyle  = lipgloss.NewStyle().Width(5).Align(lipgloss.Right)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	bandStyles = map[constants.Band]lipgloss.Style{
		constants.BandHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		constants.BandMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		constants.BandLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Bar renders one score as a proportional bar of the given width.
func Bar(score, width int) string {
	if width <= 0 {
		width = defaultBarWidth
	}
	score = min(max(score, 0), constants.PerfectScore)
	filled := score * width / constants.PerfectScore
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Chart renders one line per point: label, coloured bar and score.
func Chart(points []analytics.ChartPoint, width int) string {
	if len(points) == 0 {
		return mutedStyle.Render("No data yet.")
	}
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(labelStyle.Render(p.Label))
		b.WriteString(bandStyles[p.Band].Render(Bar(p.Score, width)))
		b.WriteString(scoreStyle.Render(fmt.Sprintf("%d%%", p.Score)))
	}
	return b.String()
}

// Summary renders a window summary with the current streak.
func Summary(s analytics.Summary, ok bool, streak analytics.Streak) string {
	if !ok {
		return mutedStyle.Render("No data for this window.")
	}
	trend := fmt.Sprintf("%+d", s.Trend)
	lines := []string{
		headerStyle.Render(fmt.Sprintf("Last %d days", s.Days)),
		fmt.Sprintf("Average:      %d%%", s.Average),
		fmt.Sprintf("Best:         %s (%d%%)", s.Best.Label, s.Best.Score),
		fmt.Sprintf("Worst:        %s (%d%%)", s.Worst.Label, s.Worst.Score),
		fmt.Sprintf("Trend:        %s", trend),
		fmt.Sprintf("Perfect days: %d", s.PerfectDays),
		fmt.Sprintf("Streak:       %d current, %d longest", streak.Current, streak.Longest),
	}
	return strings.Join(lines, "\n")
}
