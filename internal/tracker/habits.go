package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/validation"
)

// Habits returns the user's habit definitions. A user without definitions
// gets the default catalogue, which is stored on first use.
func (t *Tracker) Habits(ctx context.Context, user string) ([]models.Habit, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	k := key(user, storage.KindHabits)
	raw, err := t.load(ctx, k)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		return models.Definitions(decodeOrEmpty[[]models.Habit](k, raw)), nil
	}
	defs, err := storage.UpdateJSON(ctx, t.store, k,
		func(raw []byte) []models.Habit { return decodeOrEmpty[[]models.Habit](k, raw) },
		func(cur []models.Habit) ([]models.Habit, error) {
			if cur == nil {
				return models.DefaultHabits(), nil
			}
			return cur, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("seeding habits for %s: %w", user, err)
	}
	return models.Definitions(defs), nil
}

// FilterCategory returns the habits in category, or all habits when
// category is empty.
func FilterCategory(habits []models.Habit, category constants.Category) []models.Habit {
	if category == "" {
		return habits
	}
	var out []models.Habit
	for _, h := range habits {
		if h.CategoryOrOther() == category {
			out = append(out, h)
		}
	}
	return out
}

// Today returns today's snapshot. Before anything is recorded today it is
// built from the definitions with every habit unchecked.
func (t *Tracker) Today(ctx context.Context, user string) (models.DaySnapshot, error) {
	defs, err := t.Habits(ctx, user)
	if err != nil {
		return models.DaySnapshot{}, err
	}
	day := t.TodayKey()
	k := dayKey(user, storage.KindDay, day)
	raw, err := t.load(ctx, k)
	if err != nil {
		return models.DaySnapshot{}, err
	}
	snap := decodeOrEmpty[models.DaySnapshot](k, raw)
	if raw == nil || snap.Habits == nil {
		snap = models.DaySnapshot{Day: day, Habits: models.Definitions(defs)}
	}
	snap.Day = day
	return snap, nil
}

// mutateToday applies fn to today's snapshot atomically, seeding it from
// defs when absent, then rescores the day.
func (t *Tracker) mutateToday(ctx context.Context, user string, defs []models.Habit, fn func([]models.Habit) ([]models.Habit, error)) (models.DaySnapshot, models.DailyScore, error) {
	day := t.TodayKey()
	k := dayKey(user, storage.KindDay, day)
	snap, err := storage.UpdateJSON(ctx, t.store, k,
		func(raw []byte) models.DaySnapshot {
			s := decodeOrEmpty[models.DaySnapshot](k, raw)
			if s.Habits == nil {
				s.Habits = models.Definitions(defs)
			}
			s.Day = day
			return s
		},
		func(s models.DaySnapshot) (models.DaySnapshot, error) {
			habits, err := fn(s.Habits)
			if err != nil {
				return s, err
			}
			s.Habits = habits
			return s, nil
		},
	)
	if err != nil {
		return models.DaySnapshot{}, models.DailyScore{}, err
	}
	entry, err := t.recordHabits(ctx, user, snap.Habits)
	return snap, entry, err
}

// recordHabits rescores today's habits into the daily series.
func (t *Tracker) recordHabits(ctx context.Context, user string, habits []models.Habit) (models.DailyScore, error) {
	k := key(user, storage.KindSeries)
	now := t.Now()
	series, err := storage.UpdateJSON(ctx, t.store, k,
		func(raw []byte) []models.DailyScore { return decodeOrEmpty[[]models.DailyScore](k, raw) },
		func(s []models.DailyScore) ([]models.DailyScore, error) {
			return analytics.RecomputeToday(habits, s, now, t.retention), nil
		},
	)
	if err != nil {
		return models.DailyScore{}, fmt.Errorf("recording score for %s: %w", user, err)
	}
	today := analytics.Entry(now, 0)
	for _, e := range series {
		if e.SameDay(today) {
			return e, nil
		}
	}
	return today, nil
}

// SetCompleted marks one of today's habits done or not done.
func (t *Tracker) SetCompleted(ctx context.Context, user, id string, done bool) (models.DaySnapshot, models.DailyScore, error) {
	return t.setCompletion(ctx, user, id, func(bool) bool { return done })
}

// Toggle flips the completion flag of one of today's habits.
func (t *Tracker) Toggle(ctx context.Context, user, id string) (models.DaySnapshot, models.DailyScore, error) {
	return t.setCompletion(ctx, user, id, func(cur bool) bool { return !cur })
}

func (t *Tracker) setCompletion(ctx context.Context, user, id string, next func(bool) bool) (models.DaySnapshot, models.DailyScore, error) {
	defs, err := t.Habits(ctx, user)
	if err != nil {
		return models.DaySnapshot{}, models.DailyScore{}, err
	}
	return t.mutateToday(ctx, user, defs, func(habits []models.Habit) ([]models.Habit, error) {
		out := append([]models.Habit(nil), habits...)
		for i := range out {
			if out[i].ID == id {
				out[i].Completed = next(out[i].Completed)
				return out, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrHabitNotFound, id)
	})
}

// updateDefinitions rewrites the user's definitions atomically.
func (t *Tracker) updateDefinitions(ctx context.Context, user string, fn func([]models.Habit) ([]models.Habit, error)) ([]models.Habit, error) {
	if _, err := t.Habits(ctx, user); err != nil {
		return nil, err
	}
	k := key(user, storage.KindHabits)
	return storage.UpdateJSON(ctx, t.store, k,
		func(raw []byte) []models.Habit { return models.Definitions(decodeOrEmpty[[]models.Habit](k, raw)) },
		fn,
	)
}

func normalizeCategory(c constants.Category) constants.Category {
	c = constants.Category(strings.TrimSpace(string(c)))
	if c == "" {
		return constants.CategoryHealth
	}
	return c
}

// AddHabit appends a habit to the definitions and to today's snapshot.
// An empty category defaults to Health.
func (t *Tracker) AddHabit(ctx context.Context, user, label string, category constants.Category) (models.Habit, error) {
	if err := checkUser(user); err != nil {
		return models.Habit{}, err
	}
	if err := validation.ValidateLabel(label); err != nil {
		return models.Habit{}, fmt.Errorf("%w: %v", ErrInvalidHabit, err)
	}
	habit := models.Habit{
		ID:       uuid.New().String(),
		Label:    strings.TrimSpace(label),
		Category: normalizeCategory(category),
	}

	defs, err := t.updateDefinitions(ctx, user, func(cur []models.Habit) ([]models.Habit, error) {
		return append(cur, habit), nil
	})
	if err != nil {
		return models.Habit{}, fmt.Errorf("adding habit: %w", err)
	}
	if _, _, err := t.mutateToday(ctx, user, defs, func(habits []models.Habit) ([]models.Habit, error) {
		for _, h := range habits {
			if h.ID == habit.ID {
				return habits, nil
			}
		}
		return append(habits, habit), nil
	}); err != nil {
		return models.Habit{}, err
	}
	return habit, nil
}

// EditHabit changes a habit's label and category. Today's completion flag
// is kept.
func (t *Tracker) EditHabit(ctx context.Context, user, id, label string, category constants.Category) (models.Habit, error) {
	if err := validation.ValidateLabel(label); err != nil {
		return models.Habit{}, fmt.Errorf("%w: %v", ErrInvalidHabit, err)
	}
	label = strings.TrimSpace(label)
	category = normalizeCategory(category)

	var edited models.Habit
	apply := func(habits []models.Habit) ([]models.Habit, error) {
		out := append([]models.Habit(nil), habits...)
		for i := range out {
			if out[i].ID == id {
				out[i].Label = label
				out[i].Category = category
				edited = out[i]
				return out, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrHabitNotFound, id)
	}

	defs, err := t.updateDefinitions(ctx, user, apply)
	if err != nil {
		return models.Habit{}, err
	}
	if _, _, err := t.mutateToday(ctx, user, defs, func(habits []models.Habit) ([]models.Habit, error) {
		out, err := apply(habits)
		if err != nil {
			// absent from a snapshot written before the habit existed
			return habits, nil
		}
		return out, nil
	}); err != nil {
		return models.Habit{}, err
	}
	return edited, nil
}

// DeleteHabit removes a habit from the definitions and today's snapshot.
// Past snapshots keep it.
func (t *Tracker) DeleteHabit(ctx context.Context, user, id string) error {
	remove := func(habits []models.Habit) ([]models.Habit, bool) {
		out := make([]models.Habit, 0, len(habits))
		found := false
		for _, h := range habits {
			if h.ID == id {
				found = true
				continue
			}
			out = append(out, h)
		}
		return out, found
	}

	defs, err := t.updateDefinitions(ctx, user, func(cur []models.Habit) ([]models.Habit, error) {
		out, found := remove(cur)
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrHabitNotFound, id)
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	_, _, err = t.mutateToday(ctx, user, defs, func(habits []models.Habit) ([]models.Habit, error) {
		out, _ := remove(habits)
		return out, nil
	})
	return err
}
