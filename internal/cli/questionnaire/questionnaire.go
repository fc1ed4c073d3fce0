package questionnaire

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/tracker"
	"github.com/julianstephens/streaklit/internal/tui/components/progress"
)

type QuestionnaireCmd struct {
	Take    TakeCmd    `cmd:"" help:"Answer today's questionnaire." default:"1"`
	Show    ShowCmd    `cmd:"" help:"Show today's answers."`
	Reset   ResetCmd   `cmd:"" help:"Discard today's answers."`
	History HistoryCmd `cmd:"" help:"Chart recent questionnaire scores."`
}

type TakeCmd struct {
	Yes []int `help:"Question ids to answer yes, without prompting." sep:","`
	No  []int `help:"Question ids to answer no, without prompting." sep:","`
}

func (c *TakeCmd) Run(ctx *cli.Context) error {
	var answers []models.Answer
	if len(c.Yes) > 0 || len(c.No) > 0 {
		for _, id := range c.Yes {
			answers = append(answers, models.Answer{QuestionID: id, Answer: models.AnswerYes})
		}
		for _, id := range c.No {
			answers = append(answers, models.Answer{QuestionID: id, Answer: models.AnswerNo})
		}
	} else {
		current, err := ctx.Tracker.Questionnaire(ctx.Context(), ctx.User)
		if err != nil {
			return err
		}
		answers, err = prompt(current)
		if errors.Is(err, huh.ErrUserAborted) {
			ctx.Println("Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	state, err := ctx.Tracker.AnswerQuestionnaire(ctx.Context(), ctx.User, answers)
	if err != nil {
		return err
	}
	printState(ctx, state)
	return nil
}

// prompt asks every question as a yes/no confirm, preselecting today's
// earlier answers.
func prompt(current tracker.QuestionnaireState) ([]models.Answer, error) {
	prev := make(map[int]bool, len(current.Answers))
	for _, a := range current.Answers {
		prev[a.QuestionID] = a.Answer == models.AnswerYes
	}

	values := make([]bool, len(current.Questions))
	fields := make([]huh.Field, len(current.Questions))
	for i, q := range current.Questions {
		values[i] = prev[q.ID]
		fields[i] = huh.NewConfirm().
			Title(q.Text).
			Description(string(q.Category)).
			Affirmative("Yes").
			Negative("No").
			Value(&values[i])
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return nil, err
	}

	answers := make([]models.Answer, len(current.Questions))
	for i, q := range current.Questions {
		answers[i] = models.Answer{QuestionID: q.ID, Answer: models.AnswerNo}
		if values[i] {
			answers[i].Answer = models.AnswerYes
		}
	}
	return answers, nil
}

func printState(ctx *cli.Context, state tracker.QuestionnaireState) {
	given := make(map[int]string, len(state.Answers))
	for _, a := range state.Answers {
		given[a.QuestionID] = a.Answer
	}
	ctx.Printf("Questionnaire for %s:\n\n", state.Day)
	for _, q := range state.Questions {
		answer, ok := given[q.ID]
		if !ok {
			answer = "-"
		}
		ctx.Printf("  %d. %-44s %s\n", q.ID, q.Text, answer)
	}
	if state.Complete {
		ctx.Printf("\nScore: %d%%\n", state.Score)
	} else {
		ctx.Printf("\nAnswered %d of %d questions.\n", len(state.Answers), len(state.Questions))
	}
}

type ShowCmd struct{}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	state, err := ctx.Tracker.Questionnaire(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}
	printState(ctx, state)
	return nil
}

type ResetCmd struct{}

func (c *ResetCmd) Run(ctx *cli.Context) error {
	if err := ctx.Tracker.ResetQuestionnaire(ctx.Context(), ctx.User); err != nil {
		return err
	}
	ctx.Println("Today's answers were discarded.")
	return nil
}

type HistoryCmd struct {
	Days int `short:"d" help:"Window size in days." default:"7"`
}

func (c *HistoryCmd) Validate() error {
	if c.Days <= 0 {
		return fmt.Errorf("--days must be greater than zero")
	}
	return nil
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	series, err := ctx.Tracker.QuestionnaireSeries(ctx.Context(), ctx.User)
	if err != nil {
		return err
	}
	window, err := analytics.FilterWindow(series, c.Days)
	if err != nil {
		return err
	}
	ctx.Println(progress.Chart(analytics.Chart(window), 0))

	s, ok := analytics.Summarize(window)
	if ok {
		ctx.Printf("\nAverage %d%% over %d days, trend %+d\n", s.Average, s.Days, s.Trend)
	}
	return nil
}
