package system

import (
	"github.com/julianstephens/streaklit/internal/cli"
)

type DashboardCmd struct {
	JSON bool `help:"Print as JSON."`
}

func (cmd *DashboardCmd) Run(ctx *cli.Context) error {
	d, err := ctx.Tracker.Dashboard(ctx.Context())
	if err != nil {
		return err
	}
	if cmd.JSON {
		return printJSON(ctx, d)
	}
	ctx.Printf("Users:                  %d\n", d.Users)
	ctx.Printf("Memories:               %d\n", d.TotalMemories)
	ctx.Printf("  this week:            %d\n", d.MemoriesThisWeek)
	ctx.Printf("  this month:           %d\n", d.MemoriesThisMonth)
	ctx.Printf("Habits completed today: %d\n", d.HabitsCompletedToday)
	return nil
}

type PruneCmd struct{}

func (cmd *PruneCmd) Run(ctx *cli.Context) error {
	removed, err := ctx.Tracker.Prune(ctx.Context())
	if err != nil {
		return err
	}
	ctx.Printf("Pruned %d record(s) older than %d days.\n", removed, ctx.Tracker.Retention())
	return nil
}
