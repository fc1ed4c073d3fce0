package questionnaire

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/streaklit/internal/cli"
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

	now := time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC)
	ctx, err := cli.NewContext(store, cli.Overrides{User: "sam", Timezone: "UTC"},
		tracker.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("failed to build context: %v", err)
	}
	out := &bytes.Buffer{}
	ctx.Out = out
	return ctx, out
}

func TestTakeCmd_Partial(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&TakeCmd{Yes: []int{1, 2}}).Run(ctx); err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if !strings.Contains(out.String(), "Answered 2 of 8 questions.") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	series, err := ctx.Tracker.QuestionnaireSeries(ctx.Context(), ctx.User)
	if err != nil {
		t.Fatalf("series failed: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("incomplete questionnaire should not be scored, got %+v", series)
	}
}

func TestTakeCmd_Complete(t *testing.T) {
	ctx, out := setupTestDB(t)

	cmd := &TakeCmd{Yes: []int{1, 2, 3, 4, 5, 6}, No: []int{7, 8}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if !strings.Contains(out.String(), "Score: 75%") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	if err := (&HistoryCmd{Days: 7}).Run(ctx); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out.String(), "Mar 15") || !strings.Contains(out.String(), "Average 75% over 1 days") {
		t.Errorf("unexpected history:\n%s", out.String())
	}
}

func TestTakeCmd_UnknownQuestion(t *testing.T) {
	ctx, _ := setupTestDB(t)

	err := (&TakeCmd{Yes: []int{42}}).Run(ctx)
	if !errors.Is(err, tracker.ErrInvalidAnswer) {
		t.Errorf("expected ErrInvalidAnswer, got %v", err)
	}
}

func TestResetCmd(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&TakeCmd{No: []int{3}}).Run(ctx); err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if err := (&ResetCmd{}).Run(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	out.Reset()
	if err := (&ShowCmd{}).Run(ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out.String(), "Answered 0 of 8 questions.") {
		t.Errorf("unexpected output after reset:\n%s", out.String())
	}
}
