package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

// HabitStat aggregates one habit over a report window.
type HabitStat struct {
	ID            string             `json:"id"`
	Label         string             `json:"label"`
	Category      constants.Category `json:"category"`
	Completions   int                `json:"completions"`
	Total         int                `json:"total"`
	Percentage    int                `json:"percentage"`
	CurrentStreak int                `json:"currentStreak"`
	LongestStreak int                `json:"longestStreak"`
}

// Overall summarises every habit in a report.
type Overall struct {
	TotalHabits       int `json:"totalHabits"`
	AverageCompletion int `json:"averageCompletion"`
	BestStreak        int `json:"bestStreak"`
	TotalCompletions  int `json:"totalCompletions"`
}

// TrendPoint is the completion rate of one day. HasData is false when no
// snapshot exists for the day, and Rate must then not be read as 0%.
type TrendPoint struct {
	Day     string `json:"day"`
	Label   string `json:"label"`
	Rate    int    `json:"rate"`
	HasData bool   `json:"hasData"`
}

// Report is the per-habit view over a window of day snapshots.
type Report struct {
	Days        int          `json:"days"`
	Habits      []HabitStat  `json:"habits"`
	Leaderboard []HabitStat  `json:"leaderboard"`
	Overall     Overall      `json:"overall"`
	Trend       []TrendPoint `json:"trend"`
}

// PerformanceLabel names a completion percentage.
func PerformanceLabel(percentage int) string {
	switch {
	case percentage >= constants.PerformanceExcellent:
		return "Excellent"
	case percentage >= constants.PerformanceGood:
		return "Good"
	case percentage >= constants.PerformanceFair:
		return "Fair"
	default:
		return "Needs Work"
	}
}

// BuildReport aggregates snapshots dated within the last days calendar days
// (today included). Snapshots that are unparsable, in the future or older
// than the window are ignored. A zero window means the default report window;
// a negative one is an error.
func BuildReport(snapshots []models.DaySnapshot, today time.Time, days int) (Report, error) {
	if days < 0 {
		return Report{}, fmt.Errorf("%w: %d days", ErrInvalidWindow, days)
	}
	if days == 0 {
		days = constants.DefaultReportDays
	}
	today = utils.StartOfDay(today)
	oldest := today.AddDate(0, 0, -(days - 1))

	var inWindow []models.DaySnapshot
	for _, snap := range snapshots {
		d, err := utils.ParseDateInLocation(snap.Day, today.Location())
		if err != nil || d.After(today) || d.Before(oldest) {
			continue
		}
		inWindow = append(inWindow, snap)
	}
	sort.SliceStable(inWindow, func(i, j int) bool { return inWindow[i].Day < inWindow[j].Day })

	var order []string
	stats := make(map[string]*HabitStat)
	for _, snap := range inWindow {
		for _, h := range snap.Habits {
			st, ok := stats[h.ID]
			if !ok {
				st = &HabitStat{ID: h.ID}
				stats[h.ID] = st
				order = append(order, h.ID)
			}
			// latest label and category win
			st.Label = h.Label
			st.Category = h.CategoryOrOther()
			st.Total++
			if h.Completed {
				st.Completions++
			}
		}
	}

	streaks := HabitStreaks(inWindow, today)
	r := Report{Days: days, Habits: make([]HabitStat, 0, len(order))}
	percentSum := 0
	for _, id := range order {
		st := stats[id]
		st.Percentage = Percent(st.Completions, st.Total)
		st.CurrentStreak = streaks[id].Current
		st.LongestStreak = streaks[id].Longest
		r.Habits = append(r.Habits, *st)

		percentSum += st.Percentage
		r.Overall.TotalCompletions += st.Completions
		if st.LongestStreak > r.Overall.BestStreak {
			r.Overall.BestStreak = st.LongestStreak
		}
	}
	r.Overall.TotalHabits = len(r.Habits)
	if r.Overall.TotalHabits > 0 {
		r.Overall.AverageCompletion = Percent(percentSum, 100*r.Overall.TotalHabits)
	}
	sort.SliceStable(r.Habits, func(i, j int) bool { return r.Habits[i].Percentage > r.Habits[j].Percentage })

	for _, st := range r.Habits {
		if st.LongestStreak > 0 {
			r.Leaderboard = append(r.Leaderboard, st)
		}
	}
	sort.SliceStable(r.Leaderboard, func(i, j int) bool { return r.Leaderboard[i].LongestStreak > r.Leaderboard[j].LongestStreak })
	if len(r.Leaderboard) > constants.LeaderboardSize {
		r.Leaderboard = r.Leaderboard[:constants.LeaderboardSize]
	}

	r.Trend = completionTrend(snapshots, today, constants.TrendDays)
	return r, nil
}

func completionTrend(snapshots []models.DaySnapshot, today time.Time, days int) []TrendPoint {
	byDay := make(map[string]models.DaySnapshot, len(snapshots))
	for _, snap := range snapshots {
		byDay[snap.Day] = snap
	}
	out := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		p := TrendPoint{Day: utils.DayKey(d), Label: utils.Label(d)}
		if snap, ok := byDay[p.Day]; ok && len(snap.Habits) > 0 {
			p.HasData = true
			p.Rate, _ = Score(snap.Habits)
		}
		out = append(out, p)
	}
	return out
}
