package habits

import (
	"fmt"
	"strings"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/tracker"
	"github.com/julianstephens/streaklit/internal/tui/components/progress"
)

type HabitCmd struct {
	List   HabitListCmd   `cmd:"" help:"List today's habits." default:"1"`
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit a habit's label or category."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit."`
	Done   HabitDoneCmd   `cmd:"" help:"Mark a habit as done today."`
	Undo   HabitUndoCmd   `cmd:"" help:"Mark a habit as not done today."`
	Toggle HabitToggleCmd `cmd:"" help:"Toggle a habit for today."`
}

type HabitListCmd struct {
	Category string `short:"c" help:"Only show habits in this category."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	snap, err := ctx.Tracker.Today(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}

	habits := snap.Habits
	if c.Category != "" {
		habits = tracker.FilterCategory(habits, constants.Category(c.Category))
	}
	if len(habits) == 0 {
		if c.Category != "" {
			ctx.Printf("No habits in category %q.\n", c.Category)
		} else {
			ctx.Println("No habits found. Add one with 'streaklit habit add'.")
		}
		return nil
	}

	ctx.Printf("Habits for %s (%s):\n\n", snap.Day, ctx.User)
	for _, h := range habits {
		ctx.Println(formatHabit(h))
	}

	score, _ := analytics.Score(snap.Habits)
	ctx.Printf("\nCompleted: %d/%d  %s %d%%\n", models.CompletedCount(snap.Habits), len(snap.Habits), progress.Bar(score, 20), score)
	return nil
}

func formatHabit(h models.Habit) string {
	mark := "[ ]"
	if h.Completed {
		mark = "[✓]"
	}
	return fmt.Sprintf("%s %-8s  %s  %s", mark, cli.ShortID(h.ID), h.Label, strings.ToLower(string(h.CategoryOrOther())))
}
