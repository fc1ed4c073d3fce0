package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
)

// completeAll marks every habit done for the clock's current day.
func completeAll(t *testing.T, tr *Tracker) {
	t.Helper()
	habits, err := tr.Habits(context.Background(), user)
	require.NoError(t, err)
	for _, h := range habits {
		_, _, err := tr.SetCompleted(context.Background(), user, h.ID, true)
		require.NoError(t, err)
	}
}

func TestProgressViews(t *testing.T) {
	tr, c := newTracker(t)
	ctx := context.Background()

	completeAll(t, tr)
	c.NextDay()
	completeAll(t, tr)
	c.NextDay()
	_, _, err := tr.Toggle(ctx, user, "water")
	require.NoError(t, err)

	series, err := tr.Series(ctx, user)
	require.NoError(t, err)
	require.Len(t, series, 3)

	window, err := tr.Window(ctx, user, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 10}, []int{window[0].Score, window[1].Score})

	_, err = tr.Window(ctx, user, -1)
	assert.ErrorIs(t, err, analytics.ErrInvalidWindow)

	summary, ok, err := tr.Summary(ctx, user, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 70, summary.Average)
	assert.Equal(t, 2, summary.PerfectDays)
	assert.Equal(t, -90, summary.Trend)
	assert.Equal(t, "2024-03-15", summary.Best.Day)

	points, err := tr.Chart(ctx, user, 7)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, constants.BandHigh, points[0].Band)
	assert.Equal(t, constants.BandLow, points[2].Band)

	// today is pending, so the run ending yesterday still counts
	streak, err := tr.Streak(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, analytics.Streak{Current: 2, Longest: 2}, streak)

	habitStreaks, err := tr.HabitStreaks(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, analytics.Streak{Current: 3, Longest: 3}, habitStreaks["water"])
	assert.Equal(t, analytics.Streak{Current: 2, Longest: 2}, habitStreaks["sleep"])

	cats, err := tr.Categories(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 9, cats[constants.CategoryHealth])
	assert.Equal(t, 4, cats[constants.CategoryLearning])

	report, err := tr.Report(ctx, user, 0)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultReportDays, report.Days)
	assert.Len(t, report.Habits, 10)
	assert.Equal(t, "water", report.Habits[0].ID)
	assert.Equal(t, 100, report.Habits[0].Percentage)
	require.Len(t, report.Trend, constants.TrendDays)
	last := report.Trend[len(report.Trend)-1]
	assert.True(t, last.HasData)
	assert.Equal(t, 10, last.Rate)
	assert.False(t, report.Trend[0].HasData)

	_, err = tr.Report(ctx, user, -1)
	assert.ErrorIs(t, err, analytics.ErrInvalidWindow)
}

func TestSummaryEmpty(t *testing.T) {
	tr, _ := newTracker(t)
	_, ok, err := tr.Summary(context.Background(), user, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	snaps, err := tr.Snapshots(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, snaps)
	assert.IsType(t, []models.DaySnapshot{}, snaps)
}
