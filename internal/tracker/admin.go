package tracker

import (
	"context"
	"fmt"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/utils"
)

// Dashboard aggregates activity across every user in the store.
type Dashboard struct {
	Users                int `json:"users"`
	TotalMemories        int `json:"totalMemories"`
	MemoriesThisWeek     int `json:"memoriesThisWeek"`
	MemoriesThisMonth    int `json:"memoriesThisMonth"`
	HabitsCompletedToday int `json:"habitsCompletedToday"`
}

// Dashboard builds the cross-user activity overview.
func (t *Tracker) Dashboard(ctx context.Context) (Dashboard, error) {
	users, err := t.store.Users(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("listing users: %w", err)
	}
	now := t.Now()
	today := utils.StartOfDay(now)
	weekStart := today.AddDate(0, 0, -(constants.MemoryWeekDays - 1))
	monthStart := today.AddDate(0, 0, -(constants.MemoryMonthDays - 1))

	d := Dashboard{Users: len(users)}
	for _, user := range users {
		mems, err := t.memories(ctx, user)
		if err != nil {
			return Dashboard{}, err
		}
		d.TotalMemories += len(mems)
		for _, m := range mems {
			created := m.CreatedAt.In(now.Location())
			if !created.Before(weekStart) {
				d.MemoriesThisWeek++
			}
			if !created.Before(monthStart) {
				d.MemoriesThisMonth++
			}
		}

		k := dayKey(user, storage.KindDay, utils.DayKey(now))
		raw, err := t.load(ctx, k)
		if err != nil {
			return Dashboard{}, err
		}
		d.HabitsCompletedToday += models.CompletedCount(decodeOrEmpty[models.DaySnapshot](k, raw).Habits)
	}
	return d, nil
}

// Prune deletes day snapshots and questionnaire answers older than the
// retention window for every user. It returns the number of records removed.
func (t *Tracker) Prune(ctx context.Context) (int, error) {
	if t.retention <= 0 {
		return 0, nil
	}
	users, err := t.store.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing users: %w", err)
	}
	cutoff := utils.DayKey(utils.StartOfDay(t.Now()).AddDate(0, 0, -(t.retention - 1)))

	removed := 0
	for _, user := range users {
		for _, kind := range []storage.Kind{storage.KindDay, storage.KindAnswers} {
			records, err := t.store.List(ctx, user, kind)
			if err != nil {
				return removed, fmt.Errorf("listing %s for %s: %w", kind, user, err)
			}
			for _, r := range records {
				if r.Key.Day >= cutoff {
					continue
				}
				if err := t.store.Delete(ctx, r.Key); err != nil {
					return removed, fmt.Errorf("deleting %s: %w", r.Key, err)
				}
				removed++
			}
		}
	}
	if removed > 0 {
		logger.Info("Pruned expired records", "count", removed, "cutoff", cutoff)
	}
	return removed, nil
}
