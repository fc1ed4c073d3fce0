package habits

import (
	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/constants"
)

type HabitEditCmd struct {
	Habit    string `arg:"" help:"Habit id, id prefix or label."`
	Label    string `short:"l" help:"New label."`
	Category string `short:"c" help:"New category."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	if c.Label == "" && c.Category == "" {
		ctx.Println("No changes specified. Use --label or --category.")
		return nil
	}

	current, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	label, category := current.Label, current.Category
	if c.Label != "" {
		label = c.Label
	}
	if c.Category != "" {
		category = constants.Category(c.Category)
	}

	h, err := ctx.Tracker.EditHabit(ctx.Context(), ctx.User, current.ID, label, category)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Updated habit %s: %s (%s)\n", cli.ShortID(h.ID), h.Label, h.Category)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or label."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.DeleteHabit(ctx.Context(), ctx.User, h.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", h.Label)
	ctx.Println("(Past days keep their record of this habit)")
	return nil
}
