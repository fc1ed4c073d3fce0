package habits

import (
	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/models"
)

type HabitDoneCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or label."`
}

func (c *HabitDoneCmd) Run(ctx *cli.Context) error {
	return mark(ctx, c.Habit, func(id string) (models.DaySnapshot, models.DailyScore, error) {
		return ctx.Tracker.SetCompleted(ctx.Context(), ctx.User, id, true)
	})
}

type HabitUndoCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or label."`
}

func (c *HabitUndoCmd) Run(ctx *cli.Context) error {
	return mark(ctx, c.Habit, func(id string) (models.DaySnapshot, models.DailyScore, error) {
		return ctx.Tracker.SetCompleted(ctx.Context(), ctx.User, id, false)
	})
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or label."`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	return mark(ctx, c.Habit, func(id string) (models.DaySnapshot, models.DailyScore, error) {
		return ctx.Tracker.Toggle(ctx.Context(), ctx.User, id)
	})
}

func mark(ctx *cli.Context, ref string, apply func(id string) (models.DaySnapshot, models.DailyScore, error)) error {
	h, err := ctx.ResolveHabit(ref)
	if err != nil {
		return err
	}
	snap, score, err := apply(h.ID)
	if err != nil {
		return err
	}
	for _, sh := range snap.Habits {
		if sh.ID == h.ID {
			ctx.Println(formatHabit(sh))
			break
		}
	}
	ctx.Printf("Today's score: %d%%\n", score.Score)
	return nil
}
