package settings

import (
	"fmt"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
	"github.com/julianstephens/streaklit/internal/validation"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	DefaultUser *string `help:"User namespace used when --user is not given."`
	Timezone    *string `help:"IANA timezone that decides when a day starts (or 'Local')."`
	Retention   *int    `help:"Days of history kept in score series and snapshots."`
}

func (c *SettingsCmd) Validate() error {
	if c.DefaultUser != nil {
		if err := validation.ValidateUserName(*c.DefaultUser); err != nil {
			return err
		}
	}
	if c.Timezone != nil && !utils.ValidateTimezone(*c.Timezone) {
		return fmt.Errorf("unknown timezone %q", *c.Timezone)
	}
	if c.Retention != nil && (*c.Retention < 1 || *c.Retention > constants.MaxRetentionDays) {
		return fmt.Errorf("--retention must be between 1 and %d", constants.MaxRetentionDays)
	}
	return nil
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)

	if c.List {
		ctx.Println("Current Settings:")
		ctx.Printf("  Default User:   %s\n", settings.DefaultUser)
		ctx.Printf("  Timezone:       %s\n", settings.Timezone)
		ctx.Printf("  Retention Days: %d\n", settings.RetentionDays)
		return nil
	}

	updated := false
	if c.DefaultUser != nil {
		settings.DefaultUser = *c.DefaultUser
		updated = true
	}
	if c.Timezone != nil {
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.Retention != nil {
		settings.RetentionDays = *c.Retention
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		ctx.Println("Settings updated successfully.")
	} else {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}
