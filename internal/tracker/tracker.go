// Package tracker applies habit, memory and questionnaire operations to a
// record store and keeps each user's score series in step.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/utils"
	"github.com/julianstephens/streaklit/internal/validation"
)

var (
	ErrInvalidUser     = errors.New("invalid user")
	ErrHabitNotFound   = errors.New("habit not found")
	ErrInvalidHabit    = errors.New("invalid habit")
	ErrMemoryNotFound  = errors.New("memory not found")
	ErrEmptyMemory     = errors.New("memory text cannot be empty")
	ErrInvalidAnswer   = errors.New("invalid questionnaire answer")
	ErrStaleReset      = errors.New("reset refers to a day that has ended")
	ErrInvalidSettings = errors.New("invalid settings")
)

type Tracker struct {
	store     storage.Provider
	now       func() time.Time
	loc       *time.Location
	retention int
}

type Option func(*Tracker)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the calendar used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) { t.loc = loc }
}

// WithRetention bounds score series length and snapshot age, in days.
func WithRetention(days int) Option {
	return func(t *Tracker) { t.retention = days }
}

func New(store storage.Provider, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		now:       time.Now,
		loc:       time.Local,
		retention: constants.DefaultRetentionDays,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FromSettings builds a Tracker using the stored timezone and retention.
// Explicit options are applied afterwards and take precedence.
func FromSettings(store storage.Provider, settings models.Settings, opts ...Option) (*Tracker, error) {
	models.ApplyDefaultSettings(&settings)
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidSettings, settings.Timezone, err)
	}
	base := []Option{WithLocation(loc), WithRetention(settings.RetentionDays)}
	return New(store, append(base, opts...)...), nil
}

// Store returns the underlying record store.
func (t *Tracker) Store() storage.Provider { return t.store }

// Retention returns the configured retention window in days.
func (t *Tracker) Retention() int { return t.retention }

// Now returns the current time in the tracker's calendar.
func (t *Tracker) Now() time.Time { return t.now().In(t.loc) }

// TodayKey returns today's YYYY-MM-DD in the tracker's calendar.
func (t *Tracker) TodayKey() string { return utils.DayKey(t.Now()) }

func checkUser(user string) error {
	if err := validation.ValidateUserName(user); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	return nil
}

func key(user string, kind storage.Kind) storage.Key {
	return storage.Key{User: user, Kind: kind}
}

func dayKey(user string, kind storage.Kind, day string) storage.Key {
	return storage.Key{User: user, Kind: kind, Day: day}
}

// decodeOrEmpty unmarshals raw into a T. Missing or malformed data yields
// the zero value; malformed data is logged, never returned.
func decodeOrEmpty[T any](k storage.Key, raw []byte) T {
	var v T
	if raw == nil {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warn("Discarding malformed record", "key", k.String(), "error", err)
		var zero T
		return zero
	}
	return v
}

func (t *Tracker) load(ctx context.Context, k storage.Key) ([]byte, error) {
	raw, err := t.store.Get(ctx, k)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return raw, err
}

func (t *Tracker) series(ctx context.Context, user string, kind storage.Kind) ([]models.DailyScore, error) {
	k := key(user, kind)
	raw, err := t.load(ctx, k)
	if err != nil {
		return nil, err
	}
	return decodeOrEmpty[[]models.DailyScore](k, raw), nil
}

// upsertScore records score as today's entry in a series with the
// store's atomic read-modify-write.
func (t *Tracker) upsertScore(ctx context.Context, user string, kind storage.Kind, score int) (models.DailyScore, error) {
	k := key(user, kind)
	entry := analytics.Entry(t.Now(), score)
	_, err := storage.UpdateJSON(ctx, t.store, k,
		func(raw []byte) []models.DailyScore { return decodeOrEmpty[[]models.DailyScore](k, raw) },
		func(s []models.DailyScore) ([]models.DailyScore, error) {
			return analytics.Upsert(s, entry, t.retention), nil
		},
	)
	if err != nil {
		return models.DailyScore{}, fmt.Errorf("recording score for %s: %w", user, err)
	}
	return entry, nil
}
