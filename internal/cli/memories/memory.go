package memories

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/tracker"
	"github.com/julianstephens/streaklit/internal/validation"
)

type MemoryCmd struct {
	List   MemoryListCmd   `cmd:"" help:"List memories, newest first." default:"1"`
	Add    MemoryAddCmd    `cmd:"" help:"Log a memory. Resets today's habits."`
	Delete MemoryDeleteCmd `cmd:"" help:"Delete a memory."`
	Export MemoryExportCmd `cmd:"" help:"Export all memories as JSON."`
}

type MemoryAddCmd struct {
	Text []string `arg:"" optional:"" help:"Memory text. Prompts when omitted."`
}

func (c *MemoryAddCmd) Run(ctx *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Text, " "))
	if text == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewText().
				Title("What happened today?").
				CharLimit(validation.MaxMemoryLength).
				Value(&text).
				Validate(validation.ValidateMemoryText),
		))
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				ctx.Println("Cancelled.")
				return nil
			}
			return err
		}
	}

	mem, reset, err := ctx.Tracker.AddMemory(ctx.Context(), ctx.User, text)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Memory saved (id %s)\n", cli.ShortID(mem.ID))

	_, score, err := ctx.Tracker.ApplyReset(ctx.Context(), reset)
	if err != nil {
		return fmt.Errorf("memory saved but resetting today's habits failed: %w", err)
	}
	ctx.Printf("Today's habits were reset (score %d%%)\n", score.Score)
	return nil
}

type MemoryListCmd struct {
	Limit int `short:"n" help:"Show at most this many memories (0 for all)." default:"0"`
}

func (c *MemoryListCmd) Run(ctx *cli.Context) error {
	list, err := ctx.Tracker.Memories(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		ctx.Println("No memories yet. Log one with 'streaklit memory add'.")
		return nil
	}
	if c.Limit > 0 && len(list) > c.Limit {
		list = list[:c.Limit]
	}

	loc := ctx.Tracker.Now().Location()
	for _, m := range list {
		ctx.Printf("%s  %s\n", cli.ShortID(m.ID), m.CreatedAt.In(loc).Format(constants.DateFormat+" 15:04"))
		for _, line := range strings.Split(m.Text, "\n") {
			ctx.Printf("    %s\n", line)
		}
	}
	return nil
}

type MemoryDeleteCmd struct {
	ID string `arg:"" help:"Memory id or id prefix."`
}

func (c *MemoryDeleteCmd) Run(ctx *cli.Context) error {
	list, err := ctx.Tracker.Memories(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}
	id := ""
	for _, m := range list {
		if m.ID == c.ID {
			id = m.ID
			break
		}
		if strings.HasPrefix(m.ID, c.ID) {
			if id != "" {
				return fmt.Errorf("memory id %q is ambiguous", c.ID)
			}
			id = m.ID
		}
	}
	if id == "" {
		return fmt.Errorf("%w: %s", tracker.ErrMemoryNotFound, c.ID)
	}

	if err := ctx.Tracker.DeleteMemory(ctx.Context(), ctx.User, id); err != nil {
		return err
	}
	ctx.Printf("Deleted memory %s\n", cli.ShortID(id))
	return nil
}

type MemoryExportCmd struct {
	Output string `short:"o" help:"Write to this file instead of stdout." type:"path"`
}

func (c *MemoryExportCmd) Run(ctx *cli.Context) error {
	data, err := ctx.Tracker.ExportMemories(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}
	if c.Output == "" {
		ctx.Println(string(data))
		return nil
	}
	if err := os.WriteFile(c.Output, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	ctx.Printf("✓ Exported memories to %s\n", c.Output)
	return nil
}
