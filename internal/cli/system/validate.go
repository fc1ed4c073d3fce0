package system

import (
	"fmt"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/validation"
)

type ValidateCmd struct {
	All bool `help:"Validate every user in the store instead of --user."`
	Fix bool `help:"Repair score series: drop unparsable dates, clamp scores, merge duplicates and reorder."`
}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	users := []string{ctx.User}
	if cmd.All {
		var err error
		if users, err = ctx.Store.Users(ctx.Context()); err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
	}

	for _, user := range users {
		ctx.Printf("Validating %s...\n", user)
		result, err := validateUser(ctx, user)
		if err != nil {
			return err
		}
		ctx.Println(result.FormatReport())

		if cmd.Fix && result.HasConflicts() {
			if err := fixUser(ctx, user); err != nil {
				return err
			}
		}
	}
	return nil
}

var seriesKinds = []storage.Kind{storage.KindSeries, storage.KindAnswersSeries}

func readSeries(ctx *cli.Context, user string, kind storage.Kind) ([]models.DailyScore, error) {
	var series []models.DailyScore
	if _, err := storage.GetJSON(ctx.Context(), ctx.Store, storage.Key{User: user, Kind: kind}, &series); err != nil {
		return nil, fmt.Errorf("failed to read %s for %s: %w", kind, user, err)
	}
	return series, nil
}

// validateUser checks the habit catalogue and both score series of user.
func validateUser(ctx *cli.Context, user string) (validation.ValidationResult, error) {
	v := validation.New(ctx.Tracker.Now())

	var habits []models.Habit
	if _, err := storage.GetJSON(ctx.Context(), ctx.Store, storage.Key{User: user, Kind: storage.KindHabits}, &habits); err != nil {
		return validation.ValidationResult{}, fmt.Errorf("failed to read habits for %s: %w", user, err)
	}
	result := v.ValidateHabits(habits)

	for _, kind := range seriesKinds {
		series, err := readSeries(ctx, user, kind)
		if err != nil {
			return validation.ValidationResult{}, err
		}
		sr := v.ValidateSeries(series)
		result.Conflicts = append(result.Conflicts, sr.Conflicts...)
	}
	return result, nil
}

func fixUser(ctx *cli.Context, user string) error {
	v := validation.New(ctx.Tracker.Now())
	for _, kind := range seriesKinds {
		series, err := readSeries(ctx, user, kind)
		if err != nil {
			return err
		}
		fixed, actions := v.FixSeries(series)
		if len(actions) == 0 {
			continue
		}
		if err := storage.SetJSON(ctx.Context(), ctx.Store, storage.Key{User: user, Kind: kind}, fixed); err != nil {
			return fmt.Errorf("failed to save repaired %s: %w", kind, err)
		}
		for _, a := range actions {
			ctx.Printf("  fixed: %s\n", a.Action)
		}
	}
	return nil
}
