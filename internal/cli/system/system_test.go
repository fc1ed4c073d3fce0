package system

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/keyring"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/storage/sqlite"
	"github.com/julianstephens/streaklit/internal/tracker"
)

var now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) (*cli.Context, string, *bytes.Buffer) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx, err := cli.NewContext(store, cli.Overrides{User: "sam", Timezone: "UTC"},
		tracker.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("failed to build context: %v", err)
	}
	out := &bytes.Buffer{}
	ctx.Out = out
	return ctx, dbPath, out
}

func TestInitCmd_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")
	store := sqlite.NewStore(dbPath)
	t.Cleanup(func() { _ = store.Close() })
	ctx := &cli.Context{Store: store, Out: &bytes.Buffer{}}

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}

	// Run init a second time
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Errorf("second init failed: %v", err)
	}
}

func TestInitCmd_MigratesSource(t *testing.T) {
	src, srcPath, _ := setupTestDB(t)
	if _, _, err := src.Tracker.SetCompleted(src.Context(), "sam", "water", true); err != nil {
		t.Fatalf("failed to seed source: %v", err)
	}
	if _, _, err := src.Tracker.AddMemory(src.Context(), "kim", "hello"); err != nil {
		t.Fatalf("failed to seed source: %v", err)
	}
	if err := src.Store.Close(); err != nil {
		t.Fatalf("failed to close source: %v", err)
	}

	dest := sqlite.NewStore(filepath.Join(t.TempDir(), "dest.db"))
	t.Cleanup(func() { _ = dest.Close() })
	out := &bytes.Buffer{}
	ctx := &cli.Context{Store: dest, Out: out}

	if err := (&InitCmd{Source: srcPath}).Run(ctx); err != nil {
		t.Fatalf("init with source failed: %v", err)
	}
	if !strings.Contains(out.String(), "Migration completed successfully!") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	users, err := dest.Users(ctx.Context())
	if err != nil {
		t.Fatalf("failed to list users: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 migrated users, got %v", users)
	}
	var snap models.DaySnapshot
	found, err := storage.GetJSON(ctx.Context(), dest, storage.Key{User: "sam", Kind: storage.KindDay, Day: "2024-03-15"}, &snap)
	if err != nil || !found {
		t.Fatalf("day snapshot not migrated: found=%v err=%v", found, err)
	}
	if models.CompletedCount(snap.Habits) != 1 {
		t.Errorf("expected 1 completed habit, got %d", models.CompletedCount(snap.Habits))
	}
}

func TestInitCmd_ForceRejectsSameSource(t *testing.T) {
	ctx, dbPath, _ := setupTestDB(t)

	err := (&InitCmd{Force: true, Source: dbPath}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "source and destination are the same") {
		t.Errorf("expected same-source error, got %v", err)
	}
}

func TestDoctorCmd_HealthyDB(t *testing.T) {
	ctx, _, out := setupTestDB(t)

	// Missing backups is a warning, not a failure
	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Errorf("doctor command failed on healthy database: %v\n%s", err, out.String())
	}
	for _, want := range []string{"✓ Database reachable: OK", "✓ Schema version: OK", "⚠ Backups present: WARNING", "✓ Data validation: OK"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in:\n%s", want, out.String())
		}
	}
}

func TestDoctorCmd_DetectsConflicts(t *testing.T) {
	ctx, _, out := setupTestDB(t)

	bad := []models.DailyScore{{Day: "2024-03-14", Label: "Mar 14", Score: 140}}
	if err := storage.SetJSON(ctx.Context(), ctx.Store, storage.Key{User: "sam", Kind: storage.KindSeries}, bad); err != nil {
		t.Fatalf("failed to seed series: %v", err)
	}

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Errorf("expected doctor to fail, output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "❌ Data validation: FAIL") {
		t.Errorf("expected validation failure in:\n%s", out.String())
	}
}

func TestValidateCmd_Fix(t *testing.T) {
	ctx, _, out := setupTestDB(t)

	key := storage.Key{User: "sam", Kind: storage.KindSeries}
	bad := []models.DailyScore{
		{Day: "2024-03-14", Label: "Mar 14", Score: 50},
		{Day: "2024-03-13", Label: "Mar 13", Score: 120},
		{Day: "2024-03-14", Label: "Mar 14", Score: 60},
	}
	if err := storage.SetJSON(ctx.Context(), ctx.Store, key, bad); err != nil {
		t.Fatalf("failed to seed series: %v", err)
	}

	if err := (&ValidateCmd{Fix: true}).Run(ctx); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out.String(), "Conflicts detected:") || !strings.Contains(out.String(), "fixed:") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	var fixed []models.DailyScore
	if _, err := storage.GetJSON(ctx.Context(), ctx.Store, key, &fixed); err != nil {
		t.Fatalf("failed to read series: %v", err)
	}
	want := []models.DailyScore{
		{Day: "2024-03-13", Label: "Mar 13", Score: 100},
		{Day: "2024-03-14", Label: "Mar 14", Score: 60},
	}
	if len(fixed) != len(want) {
		t.Fatalf("fixed series = %+v, want %+v", fixed, want)
	}
	for i := range want {
		if fixed[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, fixed[i], want[i])
		}
	}
}

func TestDebugDumpRecordCmd(t *testing.T) {
	ctx, _, out := setupTestDB(t)

	if _, _, err := ctx.Tracker.Toggle(ctx.Context(), "sam", "sleep"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if err := (&DebugDumpRecordCmd{Kind: "day", Date: "today"}).Run(ctx); err != nil {
		t.Fatalf("dump record failed: %v", err)
	}
	if !strings.Contains(out.String(), `"id": "sleep"`) {
		t.Errorf("unexpected dump:\n%s", out.String())
	}

	if err := (&DebugDumpRecordCmd{Kind: "day", Date: "2024-13-40"}).Run(ctx); err == nil {
		t.Error("expected error for invalid date")
	}
	if err := (&DebugDumpRecordCmd{Kind: "memories"}).Run(ctx); err == nil {
		t.Error("expected error for missing record")
	}
	if err := (&DebugDumpRecordCmd{Kind: "plans"}).Run(ctx); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestDebugDBPathCmd(t *testing.T) {
	ctx, dbPath, out := setupTestDB(t)

	if err := (&DebugDBPathCmd{}).Run(ctx); err != nil {
		t.Fatalf("debug db-path command failed: %v", err)
	}
	if !strings.Contains(out.String(), filepath.Base(dbPath)) {
		t.Errorf("path missing from output: %s", out.String())
	}
}

func TestDashboardAndPrune(t *testing.T) {
	ctx, _, out := setupTestDB(t)

	if _, _, err := ctx.Tracker.SetCompleted(ctx.Context(), "sam", "water", true); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	old := storage.Key{User: "sam", Kind: storage.KindDay, Day: "2023-12-01"}
	if err := storage.SetJSON(ctx.Context(), ctx.Store, old, models.DaySnapshot{Habits: models.DefaultHabits()}); err != nil {
		t.Fatalf("failed to seed old snapshot: %v", err)
	}

	if err := (&DashboardCmd{}).Run(ctx); err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if !strings.Contains(out.String(), "Habits completed today: 1") {
		t.Errorf("unexpected dashboard:\n%s", out.String())
	}

	out.Reset()
	if err := (&PruneCmd{}).Run(ctx); err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if !strings.Contains(out.String(), "Pruned 1 record(s)") {
		t.Errorf("unexpected prune output: %s", out.String())
	}
}

func TestKeyringCmds(t *testing.T) {
	gokeyring.MockInit()
	ctx := &cli.Context{Out: &bytes.Buffer{}}

	if err := (&KeyringGetCmd{Role: "streaklit"}).Run(ctx); err == nil {
		t.Error("expected error when nothing is stored")
	}
	if err := (&KeyringSetCmd{Role: "streaklit", Password: "s3cret"}).Run(ctx); err != nil {
		t.Fatalf("keyring set failed: %v", err)
	}
	pw, err := keyring.GetPassword("streaklit")
	if err != nil || pw != "s3cret" {
		t.Errorf("stored password = %q, %v", pw, err)
	}
	if err := (&KeyringStatusCmd{Role: "streaklit"}).Run(ctx); err != nil {
		t.Errorf("keyring status failed: %v", err)
	}
	if err := (&KeyringDeleteCmd{Role: "streaklit"}).Run(ctx); err != nil {
		t.Errorf("keyring delete failed: %v", err)
	}
	if err := (&KeyringDeleteCmd{Role: "streaklit"}).Run(ctx); err == nil {
		t.Error("expected error deleting a missing password")
	}
}

func TestMaskPassword(t *testing.T) {
	tests := map[string]string{
		"":       "****",
		"x":      "****",
		"secret": "s*****",
	}
	for in, want := range tests {
		if got := maskPassword(in); got != want {
			t.Errorf("maskPassword(%q) = %q, want %q", in, got, want)
		}
	}
}
