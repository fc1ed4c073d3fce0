// Package analytics turns habit snapshots into daily scores, streaks and
// trend summaries. Every function is pure: inputs are never modified and
// persistence is left to the caller.
package analytics

import (
	"math"
	"time"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

// Percent returns round(100 * part / total), or 0 when total is zero.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

// Score returns the completion score of a day's habits. An empty list
// scores 0 with ok == false so callers can tell "nothing tracked" apart
// from "nothing done".
func Score(habits []models.Habit) (score int, ok bool) {
	if len(habits) == 0 {
		return 0, false
	}
	return Percent(models.CompletedCount(habits), len(habits)), true
}

// Entry builds the series entry for the calendar day of t.
func Entry(t time.Time, score int) models.DailyScore {
	return models.DailyScore{Day: utils.DayKey(t), Label: utils.Label(t), Score: score}
}

// Upsert replaces the entry for entry's day, or appends it, then drops the
// oldest entries by position while the series is longer than window. A
// window of zero or less keeps everything.
func Upsert(series []models.DailyScore, entry models.DailyScore, window int) []models.DailyScore {
	out := make([]models.DailyScore, 0, len(series)+1)
	replaced := false
	for _, e := range series {
		if !replaced && e.SameDay(entry) {
			out = append(out, entry)
			replaced = true
			continue
		}
		if replaced && e.SameDay(entry) {
			// collapse stray duplicates left by older writers
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, entry)
	}
	if window > 0 && len(out) > window {
		out = out[len(out)-window:]
	}
	return out
}

// RecomputeToday scores habits and upserts the result as today's entry.
func RecomputeToday(habits []models.Habit, series []models.DailyScore, today time.Time, window int) []models.DailyScore {
	score, _ := Score(habits)
	return Upsert(series, Entry(today, score), window)
}
