package system

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/storage"
)

type DebugCmd struct {
	DBPath       *DebugDBPathCmd       `cmd:"" help:"Show database path."`
	Users        *DebugUsersCmd        `cmd:"" help:"List user namespaces as JSON."`
	DumpRecord   *DebugDumpRecordCmd   `cmd:"" help:"Dump a raw record as JSON."`
	DumpSettings *DebugDumpSettingsCmd `cmd:"" help:"Dump settings as JSON."`
}

func printJSON(ctx *cli.Context, v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	// Output in machine-readable format
	return printJSON(ctx, map[string]string{
		"path": ctx.Store.GetConfigPath(),
	})
}

type DebugUsersCmd struct{}

func (cmd *DebugUsersCmd) Run(ctx *cli.Context) error {
	users, err := ctx.Store.Users(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []string{}
	}
	return printJSON(ctx, users)
}

type DebugDumpRecordCmd struct {
	Kind string `arg:"" help:"Record kind (habits, day, series, answers, answers_series, memories)."`
	Date string `arg:"" optional:"" help:"Day for dated kinds (YYYY-MM-DD or 'today')."`
}

func (cmd *DebugDumpRecordCmd) Run(ctx *cli.Context) error {
	key := storage.Key{User: ctx.User, Kind: storage.Kind(cmd.Kind)}
	if key.Kind.Dated() {
		date := cmd.Date
		if date == "" || date == "today" {
			date = ctx.Tracker.TodayKey()
		}
		if _, err := time.Parse(constants.DateFormat, date); err != nil {
			return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD or 'today')", date)
		}
		key.Day = date
	}
	if err := key.Validate(); err != nil {
		return err
	}

	raw, err := ctx.Store.Get(ctx.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no record found for %s", key)
	}
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		// not JSON, show it as stored
		ctx.Println(string(raw))
		return nil
	}
	ctx.Println(out.String())
	return nil
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(ctx, settings)
}
