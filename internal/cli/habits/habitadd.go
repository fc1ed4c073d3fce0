package habits

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/validation"
)

type HabitAddCmd struct {
	Label    string `arg:"" optional:"" help:"Habit label. Prompts when omitted."`
	Category string `short:"c" help:"Category (Health, Wellness, Learning, Social, Productivity, or your own)." default:"Health"`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	label, category := strings.TrimSpace(c.Label), c.Category
	if label == "" {
		var err error
		label, category, err = promptHabit(category)
		if errors.Is(err, huh.ErrUserAborted) {
			ctx.Println("Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	h, err := ctx.Tracker.AddHabit(ctx.Context(), ctx.User, label, constants.Category(category))
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added habit: %s (%s, id %s)\n", h.Label, h.Category, cli.ShortID(h.ID))
	return nil
}

func categoryOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(constants.Categories))
	for _, cat := range constants.Categories {
		opts = append(opts, huh.NewOption(string(cat), string(cat)))
	}
	return opts
}

func promptHabit(category string) (string, string, error) {
	var label string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New habit").
				Placeholder("e.g. Stretch for 5 minutes").
				Value(&label).
				Validate(validation.ValidateLabel),
			huh.NewSelect[string]().
				Title("Category").
				Options(categoryOptions()...).
				Value(&category),
		),
	)
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(label), category, nil
}
