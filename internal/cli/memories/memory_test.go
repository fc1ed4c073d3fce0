package memories

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage/sqlite"
	"github.com/julianstephens/streaklit/internal/tracker"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	ctx, err := cli.NewContext(store, cli.Overrides{User: "sam", Timezone: "UTC"},
		tracker.WithClock(func() time.Time {
			now = now.Add(time.Minute)
			return now
		}))
	if err != nil {
		t.Fatalf("failed to build context: %v", err)
	}
	out := &bytes.Buffer{}
	ctx.Out = out
	return ctx, out
}

func TestMemoryAddCmd_ResetsHabits(t *testing.T) {
	ctx, out := setupTestDB(t)

	if _, _, err := ctx.Tracker.SetCompleted(ctx.Context(), ctx.User, "water", true); err != nil {
		t.Fatalf("failed to complete habit: %v", err)
	}

	cmd := &MemoryAddCmd{Text: []string{"  Walked", "by", "the", "river  "}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("memory add failed: %v", err)
	}
	if !strings.Contains(out.String(), "Today's habits were reset (score 0%)") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	snap, err := ctx.Tracker.Today(ctx.Context(), ctx.User)
	if err != nil {
		t.Fatalf("today failed: %v", err)
	}
	if n := models.CompletedCount(snap.Habits); n != 0 {
		t.Errorf("expected no completed habits after reset, got %d", n)
	}

	list, err := ctx.Tracker.Memories(ctx.Context(), ctx.User)
	if err != nil {
		t.Fatalf("memories failed: %v", err)
	}
	if len(list) != 1 || list[0].Text != "Walked by the river" {
		t.Errorf("unexpected memories: %+v", list)
	}
}

func TestMemoryListAndDelete(t *testing.T) {
	ctx, out := setupTestDB(t)

	for _, text := range []string{"first", "second"} {
		if err := (&MemoryAddCmd{Text: []string{text}}).Run(ctx); err != nil {
			t.Fatalf("memory add failed: %v", err)
		}
	}

	out.Reset()
	if err := (&MemoryListCmd{Limit: 1}).Run(ctx); err != nil {
		t.Fatalf("memory list failed: %v", err)
	}
	if !strings.Contains(out.String(), "second") || strings.Contains(out.String(), "first") {
		t.Errorf("expected only the newest memory, got:\n%s", out.String())
	}

	list, _ := ctx.Tracker.Memories(ctx.Context(), ctx.User)
	if err := (&MemoryDeleteCmd{ID: cli.ShortID(list[0].ID)}).Run(ctx); err != nil {
		t.Fatalf("memory delete failed: %v", err)
	}
	list, _ = ctx.Tracker.Memories(ctx.Context(), ctx.User)
	if len(list) != 1 || list[0].Text != "first" {
		t.Errorf("unexpected memories after delete: %+v", list)
	}

	err := (&MemoryDeleteCmd{ID: "does-not-exist"}).Run(ctx)
	if !errors.Is(err, tracker.ErrMemoryNotFound) {
		t.Errorf("expected ErrMemoryNotFound, got %v", err)
	}
}

func TestMemoryExportCmd(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&MemoryExportCmd{}).Run(ctx); err != nil {
		t.Fatalf("memory export failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %q", out.String())
	}

	if err := (&MemoryAddCmd{Text: []string{"exported"}}).Run(ctx); err != nil {
		t.Fatalf("memory add failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "memories.json")
	if err := (&MemoryExportCmd{Output: path}).Run(ctx); err != nil {
		t.Fatalf("memory export failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	var got []models.Memory
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(got) != 1 || got[0].Text != "exported" {
		t.Errorf("unexpected export: %+v", got)
	}
}
