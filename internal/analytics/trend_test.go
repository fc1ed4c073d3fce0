package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
)

func TestFilterWindow(t *testing.T) {
	series := seriesEndingToday(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	got, err := FilterWindow(series, 7)
	require.NoError(t, err)
	assert.Equal(t, series[3:], got)

	got[0].Score = 999
	assert.Equal(t, 4, series[3].Score, "window must be a copy")

	got, err = FilterWindow(series, 30)
	require.NoError(t, err)
	assert.Equal(t, series, got)

	got, err = FilterWindow(series, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = FilterWindow(series, -1)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestSummarize(t *testing.T) {
	window := []models.DailyScore{
		{Label: "Jan 1", Score: 40},
		{Label: "Jan 2", Score: 80},
	}
	s, ok := Summarize(window)
	require.True(t, ok)
	assert.Equal(t, Summary{
		Days:        2,
		Average:     60,
		Best:        models.DailyScore{Label: "Jan 2", Score: 80},
		Worst:       models.DailyScore{Label: "Jan 1", Score: 40},
		Trend:       40,
		PerfectDays: 0,
	}, s)
}

func TestSummarizeTiesAndPerfectDays(t *testing.T) {
	window := []models.DailyScore{
		{Label: "Jan 1", Score: 100},
		{Label: "Jan 2", Score: 10},
		{Label: "Jan 3", Score: 100},
		{Label: "Jan 4", Score: 10},
		{Label: "Jan 5", Score: 55},
	}
	s, ok := Summarize(window)
	require.True(t, ok)
	assert.Equal(t, "Jan 1", s.Best.Label, "first occurrence wins")
	assert.Equal(t, "Jan 2", s.Worst.Label, "first occurrence wins")
	assert.Equal(t, 2, s.PerfectDays)
	assert.Equal(t, -45, s.Trend)
	assert.Equal(t, 55, s.Average)
}

func TestSummarizeEmptyIsNoData(t *testing.T) {
	s, ok := Summarize(nil)
	assert.False(t, ok)
	assert.Equal(t, Summary{}, s)
}

func TestBucketByCategory(t *testing.T) {
	snaps := []models.DaySnapshot{
		{Day: "2024-03-14", Habits: []models.Habit{
			{ID: "a", Category: constants.CategoryHealth, Completed: true},
			{ID: "b", Category: constants.CategoryLearning},
			{ID: "c", Completed: true},
		}},
		{Day: "2024-03-15", Habits: []models.Habit{
			{ID: "a", Category: constants.CategoryHealth, Completed: true},
			{ID: "d", Category: "Chores", Completed: true},
		}},
	}
	orig := snaps[0].Habits[2]

	got := BucketByCategory(snaps)
	assert.Equal(t, map[constants.Category]int{
		constants.CategoryHealth: 2,
		constants.CategoryOther:  1,
		"Chores":                 1,
	}, got)
	assert.Equal(t, orig, snaps[0].Habits[2], "input must not be mutated")
	assert.Empty(t, BucketByCategory(nil))
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score int
		want  constants.Band
	}{
		{100, constants.BandHigh},
		{70, constants.BandHigh},
		{69, constants.BandMedium},
		{40, constants.BandMedium},
		{39, constants.BandLow},
		{0, constants.BandLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(tt.score), "score %d", tt.score)
	}
}

func TestChart(t *testing.T) {
	window := seriesEndingToday(20, 50, 90)
	points := Chart(window)
	require.Len(t, points, 3)
	assert.Equal(t, ChartPoint{Day: "2024-03-15", Label: "Mar 15", Score: 90, Band: constants.BandHigh}, points[2])
	assert.Equal(t, constants.BandLow, points[0].Band)
	assert.Equal(t, constants.BandMedium, points[1].Band)
}
