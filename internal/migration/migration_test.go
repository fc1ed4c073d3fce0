package migration

import (
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/streaklit/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test migration %s: %v", name, err)
		}
	}
	return dir
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	return n == 1
}

func TestCurrentVersionRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, os.DirFS(setupTestMigrations(t, map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	})), SQLite)

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("fresh database version = %d, want 0", version)
	}

	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if version, _ = runner.GetCurrentVersion(); version != 5 {
		t.Errorf("version after SetVersion = %d, want 5", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		want    []string
		wantErr string
	}{
		{
			name: "sorted by version",
			files: map[string]string{
				"003_streaks.sql": "CREATE TABLE c (id INTEGER);",
				"001_init.sql":    "CREATE TABLE a (id INTEGER);",
				"002_scores.sql":  "CREATE TABLE b (id INTEGER);",
				"README.md":       "ignored",
			},
			want: []string{"init", "scores", "streaks"},
		},
		{
			name:    "missing separator",
			files:   map[string]string{"001init.sql": "SELECT 1;"},
			wantErr: "invalid migration filename",
		},
		{
			name:    "zero version",
			files:   map[string]string{"000_init.sql": "SELECT 1;"},
			wantErr: "version must be at least 1",
		},
		{
			name: "duplicate version",
			files: map[string]string{
				"001_init.sql":  "SELECT 1;",
				"001_other.sql": "SELECT 2;",
			},
			wantErr: "duplicate migration version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(setupTestDB(t), os.DirFS(setupTestMigrations(t, tt.files)), SQLite)
			got, err := runner.ReadMigrationFiles()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ReadMigrationFiles() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadMigrationFiles() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d migrations, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Name != name || got[i].Version != i+1 {
					t.Errorf("migration %d = %d/%s, want %d/%s", i, got[i].Version, got[i].Name, i+1, name)
				}
			}
		})
	}
}

func TestApplyMigrationsIncremental(t *testing.T) {
	db := setupTestDB(t)
	dir := setupTestMigrations(t, map[string]string{
		"001_init.sql": "CREATE TABLE habits (id TEXT PRIMARY KEY);",
	})
	runner := NewRunner(db, os.DirFS(dir), SQLite)

	if n, err := runner.ApplyMigrations(); err != nil || n != 1 {
		t.Fatalf("first ApplyMigrations = %d, %v; want 1, nil", n, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "002_scores.sql"), []byte("CREATE TABLE scores (day TEXT);"), 0644); err != nil {
		t.Fatal(err)
	}
	if n, err := runner.ApplyMigrations(); err != nil || n != 1 {
		t.Fatalf("second ApplyMigrations = %d, %v; want 1, nil", n, err)
	}
	if n, err := runner.ApplyMigrations(); err != nil || n != 0 {
		t.Fatalf("third ApplyMigrations = %d, %v; want 0, nil", n, err)
	}

	if v, _ := runner.GetCurrentVersion(); v != 2 {
		t.Errorf("version = %d, want 2", v)
	}
	if !tableExists(t, db, "habits") || !tableExists(t, db, "scores") {
		t.Error("expected both tables to exist")
	}
}

func TestMigrationRollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, os.DirFS(setupTestMigrations(t, map[string]string{
		"001_init.sql": `
			CREATE TABLE habits (id TEXT PRIMARY KEY);
			THIS IS INVALID SQL;
		`,
	})), SQLite)

	if _, err := runner.ApplyMigrations(); err == nil {
		t.Fatal("ApplyMigrations should have failed with invalid SQL")
	}
	if v, _ := runner.GetCurrentVersion(); v != 0 {
		t.Errorf("version after failed migration = %d, want 0", v)
	}
	if tableExists(t, db, "habits") {
		t.Error("table should not exist after failed migration")
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	runner := NewRunner(setupTestDB(t), os.DirFS(setupTestMigrations(t, map[string]string{
		"001_init.sql": "CREATE TABLE habits (id TEXT);",
	})), SQLite)

	if err := runner.SetVersion(10); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if err := runner.ValidateVersion(); err == nil {
		t.Error("ValidateVersion should fail for a newer database")
	}
	if _, err := runner.ApplyMigrations(); err == nil {
		t.Error("ApplyMigrations should fail for a newer database")
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatal(err)
	}
	db := setupTestDB(t)
	runner := NewRunner(db, sub, SQLite)

	if _, err := runner.ApplyMigrations(); err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	latest, err := runner.GetLatestVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := runner.GetCurrentVersion(); v != latest {
		t.Errorf("version = %d, want %d", v, latest)
	}
	if !tableExists(t, db, "records") || !tableExists(t, db, "settings") {
		t.Error("embedded migrations did not create records and settings")
	}

	pg, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		t.Fatal(err)
	}
	pgLatest, err := NewRunner(db, pg, Postgres).GetLatestVersion()
	if err != nil {
		t.Fatal(err)
	}
	if pgLatest != latest {
		t.Errorf("postgres latest version = %d, sqlite = %d; backends must stay in step", pgLatest, latest)
	}
}
