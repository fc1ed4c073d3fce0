package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/storage/backend"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting an existing SQLite database before initialization."`
	Source string `help:"Source database path or connection string to migrate data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	dest := ctx.Store.GetConfigPath()
	if c.Force {
		if !backend.IsFile(dest) {
			return fmt.Errorf("--force only applies to SQLite databases")
		}
		if c.Source != "" {
			absDest, err := filepath.Abs(dest)
			if err == nil {
				dest = absDest
			}
			absSource, err := filepath.Abs(c.Source)
			if err == nil && absSource == dest {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dest)
			}
		}
		if _, err := os.Stat(dest); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dest); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dest)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Printf("Initialized streaklit storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Migrating data from: %s\n", c.Source)
		if err := c.migrateData(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Println("Migration completed successfully!")
	}
	return nil
}

// migrateData copies settings and every record of every user from the
// source store into ctx.Store.
func (c *InitCmd) migrateData(ctx *cli.Context) error {
	source, err := backend.Open(c.Source, backend.Options{UseKeyring: true})
	if err != nil {
		return err
	}
	if err := source.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	ctx.Println("  Migrating settings...")
	settings, err := source.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	users, err := source.Users(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list users in source: %w", err)
	}
	for _, user := range users {
		copied := 0
		for _, kind := range storage.Kinds {
			records, err := source.List(ctx.Context(), user, kind)
			if err != nil {
				return fmt.Errorf("failed to list %s records for %s: %w", kind, user, err)
			}
			for _, rec := range records {
				if err := ctx.Store.Set(ctx.Context(), rec.Key, rec.Value); err != nil {
					return fmt.Errorf("failed to copy %s: %w", rec.Key, err)
				}
			}
			copied += len(records)
		}
		ctx.Printf("  Migrated %d records for %s\n", copied, user)
	}
	return nil
}
