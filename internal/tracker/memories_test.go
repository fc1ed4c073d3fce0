package tracker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streaklit/internal/models"
)

func TestAddMemoryReturnsReset(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	_, _, err := tr.Toggle(ctx, user, "water")
	require.NoError(t, err)
	_, _, err = tr.Toggle(ctx, user, "sleep")
	require.NoError(t, err)

	mem, reset, err := tr.AddMemory(ctx, user, "  walked by the river \n")
	require.NoError(t, err)
	assert.Equal(t, "walked by the river", mem.Text)
	assert.NotEmpty(t, mem.ID)
	assert.Equal(t, ResetHabits{User: user, Day: "2024-03-15"}, reset)

	// adding alone leaves habits untouched
	snap, err := tr.Today(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, models.CompletedCount(snap.Habits))

	snap, entry, err := tr.ApplyReset(ctx, reset)
	require.NoError(t, err)
	assert.Equal(t, 0, models.CompletedCount(snap.Habits))
	assert.Len(t, snap.Habits, 10)
	assert.Equal(t, 0, entry.Score)

	series, err := tr.Series(ctx, user)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 0, series[0].Score)
}

func TestApplyResetRejectsPastDay(t *testing.T) {
	tr, c := newTracker(t)
	ctx := context.Background()

	_, reset, err := tr.AddMemory(ctx, user, "late night")
	require.NoError(t, err)
	c.NextDay()

	_, _, err = tr.ApplyReset(ctx, reset)
	assert.ErrorIs(t, err, ErrStaleReset)
}

func TestAddMemoryRejectsEmpty(t *testing.T) {
	tr, _ := newTracker(t)
	_, _, err := tr.AddMemory(context.Background(), user, " \t\n ")
	assert.ErrorIs(t, err, ErrEmptyMemory)
}

func TestMemoriesNewestFirst(t *testing.T) {
	tr, c := newTracker(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		_, _, err := tr.AddMemory(ctx, user, text)
		require.NoError(t, err)
		c.Set(c.Now().Add(time.Minute))
	}

	list, err := tr.Memories(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Text)
	assert.Equal(t, "first", list[2].Text)

	require.NoError(t, tr.DeleteMemory(ctx, user, list[1].ID))
	list, err = tr.Memories(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assert.ErrorIs(t, tr.DeleteMemory(ctx, user, "missing"), ErrMemoryNotFound)
}

func TestExportMemories(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	raw, err := tr.ExportMemories(ctx, user)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	_, _, err = tr.AddMemory(ctx, user, "ran 5k")
	require.NoError(t, err)
	raw, err = tr.ExportMemories(ctx, user)
	require.NoError(t, err)

	var got []models.Memory
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "ran 5k", got[0].Text)
	assert.True(t, got[0].CreatedAt.Equal(start))
}
