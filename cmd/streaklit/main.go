package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/cli/backups"
	"github.com/julianstephens/streaklit/internal/cli/habits"
	"github.com/julianstephens/streaklit/internal/cli/memories"
	"github.com/julianstephens/streaklit/internal/cli/questionnaire"
	"github.com/julianstephens/streaklit/internal/cli/settings"
	"github.com/julianstephens/streaklit/internal/cli/stats"
	"github.com/julianstephens/streaklit/internal/cli/system"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/storage/backend"
)

var CLI struct {
	Version   kong.VersionFlag
	Config    string `help:"SQLite database path, PostgreSQL connection string, redis:// URL or mem://. For PostgreSQL, credentials must NOT be embedded in the connection string. Use the OS keyring, PGPASSWORD or .pgpass instead." env:"STREAKLIT_CONFIG" default:"${config}"`
	User      string `short:"u" help:"User namespace. Defaults to the stored default user." env:"STREAKLIT_USER"`
	Timezone  string `help:"IANA timezone overriding the stored setting for this run."`
	Retention int    `help:"Retention window in days overriding the stored setting for this run."`
	Debug     bool   `help:"Mirror debug logs to stderr."`

	Init          system.InitCmd                 `cmd:"" help:"Initialize streaklit storage."`
	Tui           system.TuiCmd                  `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Habit         habits.HabitCmd                `cmd:"" help:"Manage and check off habits."`
	Memory        memories.MemoryCmd             `cmd:"" help:"Log and browse memories."`
	Progress      stats.ProgressCmd              `cmd:"" help:"Scores, charts, streaks and reports."`
	Questionnaire questionnaire.QuestionnaireCmd `cmd:"" aliases:"q" help:"Daily yes/no questionnaire."`
	Dashboard     system.DashboardCmd            `cmd:"" help:"Activity across every user in the store."`
	Serve         system.ServeCmd                `cmd:"" help:"Run the HTTP sync server with scheduled maintenance."`
	Prune         system.PruneCmd                `cmd:"" help:"Delete snapshots and answers older than the retention window."`
	Settings      settings.SettingsCmd           `cmd:"" help:"Manage stored settings."`
	Doctor        system.DoctorCmd               `cmd:"" help:"Run health checks and diagnostics."`
	Validate      system.ValidateCmd             `cmd:"" help:"Check habits and score series for conflicts."`
	Inspect       system.DebugCmd                `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Keyring       system.KeyringCmd              `cmd:"" help:"Manage the PostgreSQL password in the OS keyring."`
	Backup        backups.BackupCmd              `cmd:"" help:"Manage database backups."`
}

// standalone commands open or create the store themselves.
var standalone = map[string]bool{
	"init":    true,
	"keyring": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily habit tracker with streaks and trends"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": constants.Version,
			"config":  constants.DefaultConfigPath,
		},
	)
	command := strings.Fields(ctx.Command())[0]

	configDir, err := cli.ConfigDir(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir, Stderr: command == "serve"}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := backend.Open(CLI.Config, backend.Options{UseKeyring: true})
	if err != nil {
		errors.Fatal(err)
	}

	appCtx := &cli.Context{Store: store}
	if !standalone[command] {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
		appCtx, err = cli.NewContext(store, cli.Overrides{
			User:      CLI.User,
			Timezone:  CLI.Timezone,
			Retention: CLI.Retention,
		})
		if err != nil {
			errors.Fatal(err)
		}
	}
	logger.Debug("Running command", "command", ctx.Command(), "store", store.GetConfigPath(), "user", appCtx.User)

	err = ctx.Run(appCtx)
	if cerr := store.Close(); cerr != nil {
		logger.Warn("Failed to close store", "error", cerr)
	}
	errors.Fatal(err)
}
