package stats

import (
	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/tui/components/progress"
)

type ReportCmd struct {
	Days int `short:"d" help:"Report window in days." default:"30"`
}

func (c *ReportCmd) Validate() error { return validateDays(c.Days) }

func (c *ReportCmd) Run(ctx *cli.Context) error {
	r, err := ctx.Tracker.Report(ctx.Context(), ctx.User, c.Days)
	if err != nil {
		return err
	}
	if len(r.Habits) == 0 {
		ctx.Printf("No habit history in the last %d days.\n", r.Days)
		return nil
	}

	ctx.Printf("Habit report, last %d days\n\n", r.Days)
	for _, st := range r.Habits {
		ctx.Printf("  %-36s %s %3d%%  %d/%d  streak %d (best %d)\n",
			st.Label, progress.Bar(st.Percentage, 15), st.Percentage,
			st.Completions, st.Total, st.CurrentStreak, st.LongestStreak)
	}

	if len(r.Leaderboard) > 0 {
		ctx.Println("\nStreak leaders:")
		for i, st := range r.Leaderboard {
			ctx.Printf("  %d. %s (%d days)\n", i+1, st.Label, st.LongestStreak)
		}
	}

	ctx.Println("\nOverall:")
	ctx.Printf("  Habits:             %d\n", r.Overall.TotalHabits)
	ctx.Printf("  Average completion: %d%% (%s)\n", r.Overall.AverageCompletion, analytics.PerformanceLabel(r.Overall.AverageCompletion))
	ctx.Printf("  Best streak:        %d\n", r.Overall.BestStreak)
	ctx.Printf("  Total completions:  %d\n", r.Overall.TotalCompletions)

	ctx.Printf("\nCompletion rate, last %d days:\n", constants.TrendDays)
	for _, p := range r.Trend {
		if !p.HasData {
			ctx.Printf("  %-7s %s\n", p.Label, "no data")
			continue
		}
		ctx.Printf("  %-7s %s %3d%%\n", p.Label, progress.Bar(p.Rate, 20), p.Rate)
	}
	return nil
}
