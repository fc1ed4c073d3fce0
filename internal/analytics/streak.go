package analytics

import (
	"sort"
	"time"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

// Streak holds the current and longest runs of qualifying days.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Qualifier decides whether a day counts toward a streak.
type Qualifier func(models.DailyScore) bool

// Perfect qualifies days scored 100.
func Perfect(e models.DailyScore) bool {
	return e.Score == constants.PerfectScore
}

type datedScore struct {
	date time.Time
	ok   bool
}

// resolveDates parses entry dates in today's location, drops unparsable and
// future entries, and orders the rest chronologically. When a day repeats
// the later entry wins.
func resolveDates(series []models.DailyScore, today time.Time, qualifies Qualifier) []datedScore {
	today = utils.StartOfDay(today)
	byDay := make(map[string]int)
	var days []datedScore
	for _, e := range series {
		var (
			d   time.Time
			err error
		)
		if e.Day != "" {
			d, err = utils.ParseDateInLocation(e.Day, today.Location())
		} else {
			d, err = utils.ParseLabel(e.Label, today)
		}
		if err != nil || d.After(today) {
			continue
		}
		key := utils.DayKey(d)
		if i, seen := byDay[key]; seen {
			days[i].ok = qualifies(e)
			continue
		}
		byDay[key] = len(days)
		days = append(days, datedScore{date: d, ok: qualifies(e)})
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })
	return days
}

// ComputeStreak walks a score series relative to today. The current run
// ends today when today qualifies, otherwise it ends yesterday: a day still
// in progress never breaks a streak. A gap in the dates or a
// non-qualifying day ends a run. A nil qualifier means Perfect.
func ComputeStreak(series []models.DailyScore, today time.Time, qualifies Qualifier) Streak {
	if qualifies == nil {
		qualifies = Perfect
	}
	days := resolveDates(series, today, qualifies)
	if len(days) == 0 {
		return Streak{}
	}

	var s Streak
	run := 0
	for i, d := range days {
		switch {
		case !d.ok:
			run = 0
		case i > 0 && days[i-1].ok && utils.DaysBetween(days[i-1].date, d.date) == 1:
			run++
		default:
			run = 1
		}
		if run > s.Longest {
			s.Longest = run
		}
	}

	qualified := make(map[string]bool, len(days))
	for _, d := range days {
		qualified[utils.DayKey(d.date)] = d.ok
	}
	cursor := utils.StartOfDay(today)
	if !qualified[utils.DayKey(cursor)] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for qualified[utils.DayKey(cursor)] {
		s.Current++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return s
}

// HabitStreaks computes a streak per habit id from raw daily completion
// flags. A day snapshot that does not list a habit leaves a gap for it.
func HabitStreaks(snapshots []models.DaySnapshot, today time.Time) map[string]Streak {
	perHabit := make(map[string][]models.DailyScore)
	for _, snap := range snapshots {
		for _, h := range snap.Habits {
			score := 0
			if h.Completed {
				score = constants.PerfectScore
			}
			perHabit[h.ID] = append(perHabit[h.ID], models.DailyScore{Day: snap.Day, Score: score})
		}
	}
	out := make(map[string]Streak, len(perHabit))
	for id, series := range perHabit {
		out[id] = ComputeStreak(series, today, Perfect)
	}
	return out
}
