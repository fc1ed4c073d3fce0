package analytics

import (
	"errors"
	"fmt"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
)

// ErrInvalidWindow is returned for a negative window size.
var ErrInvalidWindow = errors.New("invalid window")

// FilterWindow returns a copy of the last days entries in their original
// order, or the whole series when it is shorter.
func FilterWindow(series []models.DailyScore, days int) ([]models.DailyScore, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidWindow, days)
	}
	start := 0
	if len(series) > days {
		start = len(series) - days
	}
	out := make([]models.DailyScore, len(series)-start)
	copy(out, series[start:])
	return out, nil
}

// Summary describes a window of daily scores.
type Summary struct {
	Days        int               `json:"days"`
	Average     int               `json:"average"`
	Best        models.DailyScore `json:"best"`
	Worst       models.DailyScore `json:"worst"`
	Trend       int               `json:"trend"`
	PerfectDays int               `json:"perfectDays"`
}

// Summarize reports ok == false for an empty window; the zero Summary is
// then meaningless and must be rendered as "no data".
func Summarize(window []models.DailyScore) (Summary, bool) {
	if len(window) == 0 {
		return Summary{}, false
	}
	s := Summary{
		Days:  len(window),
		Best:  window[0],
		Worst: window[0],
		Trend: window[len(window)-1].Score - window[0].Score,
	}
	total := 0
	for _, e := range window {
		total += e.Score
		if e.Score > s.Best.Score {
			s.Best = e
		}
		if e.Score < s.Worst.Score {
			s.Worst = e
		}
		if e.Score == constants.PerfectScore {
			s.PerfectDays++
		}
	}
	s.Average = Percent(total, 100*len(window))
	return s, true
}

// BucketByCategory counts completed habits per category across snapshots.
// Habits without a category land in "Other".
func BucketByCategory(snapshots []models.DaySnapshot) map[constants.Category]int {
	out := make(map[constants.Category]int)
	for _, snap := range snapshots {
		for _, h := range snap.Habits {
			if h.Completed {
				out[h.CategoryOrOther()]++
			}
		}
	}
	return out
}

// BandFor classifies a score for chart colouring.
func BandFor(score int) constants.Band {
	switch {
	case score >= constants.BandHighMinScore:
		return constants.BandHigh
	case score >= constants.BandMidMinScore:
		return constants.BandMedium
	default:
		return constants.BandLow
	}
}

// ChartPoint is one chart-ready entry.
type ChartPoint struct {
	Day   string         `json:"day,omitempty"`
	Label string         `json:"label"`
	Score int            `json:"score"`
	Band  constants.Band `json:"band"`
}

// Chart shapes a window into chart points.
func Chart(window []models.DailyScore) []ChartPoint {
	out := make([]ChartPoint, len(window))
	for i, e := range window {
		out[i] = ChartPoint{Day: e.Day, Label: e.Label, Score: e.Score, Band: BandFor(e.Score)}
	}
	return out
}
