package settings

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	out := &bytes.Buffer{}
	return &cli.Context{Store: store, Out: out}, out
}

func TestSettingsCmd_List(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&SettingsCmd{List: true}).Run(ctx); err != nil {
		t.Fatalf("settings list failed: %v", err)
	}
	for _, want := range []string{"Default User:   me", "Timezone:       Local", "Retention Days: 30"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in:\n%s", want, out.String())
		}
	}
}

func TestSettingsCmd_Update(t *testing.T) {
	ctx, _ := setupTestDB(t)

	user, tz, days := "alex", "Europe/London", 90
	cmd := &SettingsCmd{DefaultUser: &user, Timezone: &tz, Retention: &days}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if settings.DefaultUser != user || settings.Timezone != tz || settings.RetentionDays != days {
		t.Errorf("settings not saved: %+v", settings)
	}
}

func TestSettingsCmd_Validate(t *testing.T) {
	badTZ := "Mars/Olympus"
	badUser := "two words"
	tooLong := 400

	tests := []struct {
		name string
		cmd  SettingsCmd
	}{
		{"timezone", SettingsCmd{Timezone: &badTZ}},
		{"user", SettingsCmd{DefaultUser: &badUser}},
		{"retention", SettingsCmd{Retention: &tooLong}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
