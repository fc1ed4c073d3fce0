package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/storage/memory"
)

const user = "sam"

var start = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

// clock is a settable wall clock for tests.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time  { return c.now }
func (c *clock) NextDay()        { c.now = c.now.AddDate(0, 0, 1) }
func (c *clock) Set(t time.Time) { c.now = t }

func newTracker(t *testing.T, opts ...Option) (*Tracker, *clock) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Init())
	c := &clock{now: start}
	base := []Option{WithClock(c.Now), WithLocation(time.UTC), WithRetention(30)}
	return New(store, append(base, opts...)...), c
}

func TestFromSettings(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Init())

	tr, err := FromSettings(store, models.Settings{Timezone: "America/New_York", RetentionDays: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, tr.Retention())
	assert.Equal(t, "America/New_York", tr.Now().Location().String())

	tr, err = FromSettings(store, models.Settings{}, WithRetention(3))
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Retention(), "explicit options win over settings")

	_, err = FromSettings(store, models.Settings{Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestTodayFollowsConfiguredTimezone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	tr, _ := newTracker(t, WithLocation(tokyo))
	// 18:30 UTC is already the next morning in Tokyo
	assert.Equal(t, "2024-03-16", tr.TodayKey())
}

func TestInvalidUser(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	_, err := tr.Habits(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidUser)
	_, err = tr.Series(ctx, "../etc")
	assert.ErrorIs(t, err, ErrInvalidUser)
	_, _, err = tr.AddMemory(ctx, "a b", "text")
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestMalformedRecordsReadAsEmpty(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Store().Set(ctx, storage.Key{User: user, Kind: storage.KindSeries}, []byte("{not json")))
	series, err := tr.Series(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, series)

	_, entry, err := tr.Toggle(ctx, user, "water")
	require.NoError(t, err)
	assert.Equal(t, 10, entry.Score)

	series, err = tr.Series(ctx, user)
	require.NoError(t, err)
	assert.Len(t, series, 1)
}

func TestPrune(t *testing.T) {
	tr, c := newTracker(t, WithRetention(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := tr.Toggle(ctx, user, "water")
		require.NoError(t, err)
		_, err = tr.AnswerQuestionnaire(ctx, user, []models.Answer{{QuestionID: 1, Answer: models.AnswerYes}})
		require.NoError(t, err)
		c.NextDay()
	}

	removed, err := tr.Prune(ctx)
	require.NoError(t, err)
	// days 1-3 of 5 fall outside a 3-day window ending on day 6
	assert.Equal(t, 6, removed)

	snaps, err := tr.Snapshots(ctx, user)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "2024-03-18", snaps[0].Day)
	assert.Equal(t, "2024-03-19", snaps[1].Day)

	series, err := tr.Series(ctx, user)
	require.NoError(t, err)
	assert.Len(t, series, 3, "series retention is enforced on upsert")
}

func TestDashboard(t *testing.T) {
	tr, c := newTracker(t)
	ctx := context.Background()

	c.Set(start.AddDate(0, 0, -20))
	_, _, err := tr.AddMemory(ctx, "alex", "three weeks ago")
	require.NoError(t, err)
	c.Set(start.AddDate(0, 0, -40))
	_, _, err = tr.AddMemory(ctx, user, "last month")
	require.NoError(t, err)
	c.Set(start)
	_, _, err = tr.AddMemory(ctx, user, "today")
	require.NoError(t, err)

	_, _, err = tr.Toggle(ctx, user, "water")
	require.NoError(t, err)
	_, _, err = tr.Toggle(ctx, "alex", "sleep")
	require.NoError(t, err)
	_, _, err = tr.Toggle(ctx, "alex", "reading")
	require.NoError(t, err)

	d, err := tr.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, Dashboard{
		Users:                2,
		TotalMemories:        3,
		MemoriesThisWeek:     1,
		MemoriesThisMonth:    2,
		HabitsCompletedToday: 3,
	}, d)
}

func TestDefaultRetention(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Init())
	assert.Equal(t, constants.DefaultRetentionDays, New(store).Retention())
}
