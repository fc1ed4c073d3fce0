package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/utils"
	"github.com/julianstephens/streaklit/internal/validation"
)

// ResetHabits asks the caller to clear the completion flags of User's
// snapshot for Day. It is returned by AddMemory and applied with ApplyReset.
type ResetHabits struct {
	User string `json:"user"`
	Day  string `json:"day"`
}

func (t *Tracker) memories(ctx context.Context, user string) ([]models.Memory, error) {
	k := key(user, storage.KindMemories)
	raw, err := t.load(ctx, k)
	if err != nil {
		return nil, err
	}
	return decodeOrEmpty[[]models.Memory](k, raw), nil
}

// Memories returns the user's memories, newest first.
func (t *Tracker) Memories(ctx context.Context, user string) ([]models.Memory, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	list, err := t.memories(ctx, user)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// AddMemory stores a memory and returns the reset command for today's habits.
func (t *Tracker) AddMemory(ctx context.Context, user, text string) (models.Memory, ResetHabits, error) {
	if err := checkUser(user); err != nil {
		return models.Memory{}, ResetHabits{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Memory{}, ResetHabits{}, ErrEmptyMemory
	}
	if err := validation.ValidateMemoryText(text); err != nil {
		return models.Memory{}, ResetHabits{}, fmt.Errorf("invalid memory: %w", err)
	}

	now := t.Now()
	mem := models.Memory{ID: uuid.New().String(), Text: text, CreatedAt: now}
	k := key(user, storage.KindMemories)
	_, err := storage.UpdateJSON(ctx, t.store, k,
		func(raw []byte) []models.Memory { return decodeOrEmpty[[]models.Memory](k, raw) },
		func(list []models.Memory) ([]models.Memory, error) {
			return append(list, mem), nil
		},
	)
	if err != nil {
		return models.Memory{}, ResetHabits{}, fmt.Errorf("saving memory: %w", err)
	}
	return mem, ResetHabits{User: user, Day: utils.DayKey(now)}, nil
}

// ApplyReset clears the completion flags in the snapshot named by cmd and
// rescores the day. Past days are not rewritten: a command for a day other
// than today fails with ErrStaleReset.
func (t *Tracker) ApplyReset(ctx context.Context, cmd ResetHabits) (models.DaySnapshot, models.DailyScore, error) {
	if err := checkUser(cmd.User); err != nil {
		return models.DaySnapshot{}, models.DailyScore{}, err
	}
	if cmd.Day != t.TodayKey() {
		return models.DaySnapshot{}, models.DailyScore{}, fmt.Errorf("%w: %s", ErrStaleReset, cmd.Day)
	}
	defs, err := t.Habits(ctx, cmd.User)
	if err != nil {
		return models.DaySnapshot{}, models.DailyScore{}, err
	}
	return t.mutateToday(ctx, cmd.User, defs, func(habits []models.Habit) ([]models.Habit, error) {
		return models.Definitions(habits), nil
	})
}

// DeleteMemory removes a memory by id.
func (t *Tracker) DeleteMemory(ctx context.Context, user, id string) error {
	if err := checkUser(user); err != nil {
		return err
	}
	k := key(user, storage.KindMemories)
	_, err := storage.UpdateJSON(ctx, t.store, k,
		func(raw []byte) []models.Memory { return decodeOrEmpty[[]models.Memory](k, raw) },
		func(list []models.Memory) ([]models.Memory, error) {
			out := make([]models.Memory, 0, len(list))
			for _, m := range list {
				if m.ID != id {
					out = append(out, m)
				}
			}
			if len(out) == len(list) {
				return nil, fmt.Errorf("%w: %q", ErrMemoryNotFound, id)
			}
			return out, nil
		},
	)
	return err
}

// ExportMemories returns every memory of the user as indented JSON,
// newest first.
func (t *Tracker) ExportMemories(ctx context.Context, user string) ([]byte, error) {
	list, err := t.Memories(ctx, user)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Memory{}
	}
	return json.MarshalIndent(list, "", "  ")
}
