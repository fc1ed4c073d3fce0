package stats

import (
	"fmt"
	"sort"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/tui/components/progress"
)

type ProgressCmd struct {
	Summary    SummaryCmd    `cmd:"" help:"Summarize recent daily scores." default:"1"`
	Chart      ChartCmd      `cmd:"" help:"Chart recent daily scores."`
	Streak     StreakCmd     `cmd:"" help:"Show perfect-day streaks."`
	Categories CategoriesCmd `cmd:"" help:"Show completions per category."`
	Report     ReportCmd     `cmd:"" help:"Per-habit report over a window."`
}

func validateDays(days int) error {
	if days <= 0 {
		return fmt.Errorf("--days must be greater than zero")
	}
	return nil
}

type SummaryCmd struct {
	Days int `short:"d" help:"Window size in days." default:"7"`
}

func (c *SummaryCmd) Validate() error { return validateDays(c.Days) }

func (c *SummaryCmd) Run(ctx *cli.Context) error {
	s, ok, err := ctx.Tracker.Summary(ctx.Context(), ctx.User, c.Days)
	if err != nil {
		return err
	}
	streak, err := ctx.Tracker.Streak(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}
	ctx.Println(progress.Summary(s, ok, streak))
	return nil
}

type ChartCmd struct {
	Days  int `short:"d" help:"Window size in days." default:"7"`
	Width int `short:"w" help:"Bar width in characters." default:"30"`
}

func (c *ChartCmd) Validate() error { return validateDays(c.Days) }

func (c *ChartCmd) Run(ctx *cli.Context) error {
	points, err := ctx.Tracker.Chart(ctx.Context(), ctx.User, c.Days)
	if err != nil {
		return err
	}
	ctx.Println(progress.Chart(points, c.Width))
	return nil
}

type StreakCmd struct {
	Habits bool `help:"Also show per-habit streaks."`
}

func (c *StreakCmd) Run(ctx *cli.Context) error {
	streak, err := ctx.Tracker.Streak(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}
	ctx.Printf("Current streak: %s\n", days(streak.Current))
	ctx.Printf("Longest streak: %s\n", days(streak.Longest))
	if !c.Habits {
		return nil
	}

	habits, err := ctx.Tracker.Habits(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}
	perHabit, err := ctx.Tracker.HabitStreaks(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}
	ctx.Println()
	for _, h := range habits {
		s := perHabit[h.ID]
		ctx.Printf("  %-36s %3d current  %3d longest\n", h.Label, s.Current, s.Longest)
	}
	return nil
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

type CategoriesCmd struct{}

func (c *CategoriesCmd) Run(ctx *cli.Context) error {
	counts, err := ctx.Tracker.Categories(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		ctx.Println("No completed habits yet.")
		return nil
	}

	cats := make([]constants.Category, 0, len(counts))
	total := 0
	for cat, n := range counts {
		cats = append(cats, cat)
		total += n
	}
	sort.Slice(cats, func(i, j int) bool {
		if counts[cats[i]] != counts[cats[j]] {
			return counts[cats[i]] > counts[cats[j]]
		}
		return cats[i] < cats[j]
	})
	for _, cat := range cats {
		share := counts[cat] * constants.PerfectScore / total
		ctx.Printf("%-14s %s %d\n", cat, progress.Bar(share, 20), counts[cat])
	}
	return nil
}
