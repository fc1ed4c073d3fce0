package tracker

import (
	"context"
	"fmt"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
)

// Series returns the user's habit score series, oldest first.
func (t *Tracker) Series(ctx context.Context, user string) ([]models.DailyScore, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	return t.series(ctx, user, storage.KindSeries)
}

// Window returns the last days entries of the habit score series.
func (t *Tracker) Window(ctx context.Context, user string, days int) ([]models.DailyScore, error) {
	series, err := t.Series(ctx, user)
	if err != nil {
		return nil, err
	}
	return analytics.FilterWindow(series, days)
}

// Summary summarises the last days entries. ok is false when there is no data.
func (t *Tracker) Summary(ctx context.Context, user string, days int) (analytics.Summary, bool, error) {
	window, err := t.Window(ctx, user, days)
	if err != nil {
		return analytics.Summary{}, false, err
	}
	s, ok := analytics.Summarize(window)
	return s, ok, nil
}

// Chart returns chart points for the last days entries.
func (t *Tracker) Chart(ctx context.Context, user string, days int) ([]analytics.ChartPoint, error) {
	window, err := t.Window(ctx, user, days)
	if err != nil {
		return nil, err
	}
	return analytics.Chart(window), nil
}

// Streak returns the current and longest run of perfect days.
func (t *Tracker) Streak(ctx context.Context, user string) (analytics.Streak, error) {
	series, err := t.Series(ctx, user)
	if err != nil {
		return analytics.Streak{}, err
	}
	return analytics.ComputeStreak(series, t.Now(), analytics.Perfect), nil
}

// Snapshots returns every stored day snapshot of the user, oldest first.
func (t *Tracker) Snapshots(ctx context.Context, user string) ([]models.DaySnapshot, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	records, err := t.store.List(ctx, user, storage.KindDay)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots for %s: %w", user, err)
	}
	out := make([]models.DaySnapshot, 0, len(records))
	for _, r := range records {
		snap := decodeOrEmpty[models.DaySnapshot](r.Key, r.Value)
		if snap.Habits == nil {
			continue
		}
		snap.Day = r.Key.Day
		out = append(out, snap)
	}
	return out, nil
}

// Categories counts completions per category across all snapshots.
func (t *Tracker) Categories(ctx context.Context, user string) (map[constants.Category]int, error) {
	snaps, err := t.Snapshots(ctx, user)
	if err != nil {
		return nil, err
	}
	return analytics.BucketByCategory(snaps), nil
}

// HabitStreaks returns per-habit streaks from the raw completion flags.
func (t *Tracker) HabitStreaks(ctx context.Context, user string) (map[string]analytics.Streak, error) {
	snaps, err := t.Snapshots(ctx, user)
	if err != nil {
		return nil, err
	}
	return analytics.HabitStreaks(snaps, t.Now()), nil
}

// Report builds the per-habit report over the last days days.
func (t *Tracker) Report(ctx context.Context, user string, days int) (analytics.Report, error) {
	snaps, err := t.Snapshots(ctx, user)
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.BuildReport(snaps, t.Now(), days)
}
