package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/streaklit/internal/backup"
	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/storage/backend"
	"github.com/julianstephens/streaklit/internal/utils"
)

// skipError marks a check that does not apply to the current store.
type skipError struct{ reason string }

func (e skipError) Error() string { return e.reason }

type DoctorCmd struct{}

type check struct {
	name    string
	warning bool
	run     func(*cli.Context) error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	checks := []check{
		{name: "Database reachable", run: checkDBReachable},
		{name: "Schema version", run: checkSchemaVersion},
		{name: "Settings", run: checkSettings},
		{name: "Log directory", run: checkLogDir},
		{name: "Backups present", warning: true, run: checkBackupsPresent},
		{name: "Data validation", run: checkValidation},
		{name: "Clock/timezone", run: checkClockTimezone},
	}

	hasError := false
	reachable := true
	for _, c := range checks {
		if !reachable && c.name == "Data validation" {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		var skip skipError
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case errors.As(err, &skip):
			ctx.Printf("⊘ %s: SKIPPED (%s)\n", c.name, skip.reason)
		case c.warning:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			if c.name == "Database reachable" {
				reachable = false
			}
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func skipped(reason string) error {
	return skipError{reason: reason}
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Ping(ctx.Context()); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}
	return nil
}

type versioned interface {
	SchemaVersion() (current, latest int, err error)
}

func checkSchemaVersion(ctx *cli.Context) error {
	store, ok := ctx.Store.(versioned)
	if !ok {
		return skipped("store has no SQL schema")
	}
	current, latest, err := store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if settings.Timezone != "" && !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("unknown timezone %q", settings.Timezone)
	}
	if settings.RetentionDays < 0 || settings.RetentionDays > constants.MaxRetentionDays {
		return fmt.Errorf("retention of %d days is outside 1-%d", settings.RetentionDays, constants.MaxRetentionDays)
	}
	return nil
}

func checkLogDir(ctx *cli.Context) error {
	dir, err := cli.ConfigDir(ctx.Store.GetConfigPath())
	if err != nil {
		return err
	}
	logDir := filepath.Join(dir, "logs")
	info, err := os.Stat(logDir)
	if os.IsNotExist(err) {
		return skipped("no logs written yet")
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", logDir)
	}
	probe, err := os.CreateTemp(logDir, ".doctor-*")
	if err != nil {
		return fmt.Errorf("log directory is not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

func checkBackupsPresent(ctx *cli.Context) error {
	path := ctx.Store.GetConfigPath()
	if !backend.IsFile(path) {
		return skipped("backups only apply to SQLite databases")
	}
	mgr := backup.NewManager(path)
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'streaklit backup create'")
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	users, err := ctx.Store.Users(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, user := range users {
		result, err := validateUser(ctx, user)
		if err != nil {
			return err
		}
		if result.HasConflicts() {
			return fmt.Errorf("%d conflict(s) for user %s - run 'streaklit validate --user %s'", len(result.Conflicts), user, user)
		}
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Tracker != nil {
		ctx.Printf("   Note: today is %s in %s\n", ctx.Tracker.TodayKey(), ctx.Tracker.Now().Location())
	}
	return nil
}
