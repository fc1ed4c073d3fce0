package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
)

// QuestionnaireState is today's questionnaire with the answers given so far.
type QuestionnaireState struct {
	Day       string            `json:"day"`
	Questions []models.Question `json:"questions"`
	Answers   []models.Answer   `json:"answers"`
	Complete  bool              `json:"complete"`
	Score     int               `json:"score"`
}

func questionExists(id int) bool {
	for _, q := range models.Questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

func validAnswer(a models.Answer) error {
	if !questionExists(a.QuestionID) {
		return fmt.Errorf("%w: unknown question %d", ErrInvalidAnswer, a.QuestionID)
	}
	if a.Answer != models.AnswerYes && a.Answer != models.AnswerNo {
		return fmt.Errorf("%w: question %d: answer must be %q or %q", ErrInvalidAnswer, a.QuestionID, models.AnswerYes, models.AnswerNo)
	}
	return nil
}

func questionnaireState(day string, answers []models.Answer) QuestionnaireState {
	if answers == nil {
		answers = []models.Answer{}
	}
	return QuestionnaireState{
		Day:       day,
		Questions: models.Questions,
		Answers:   answers,
		Complete:  len(answers) == len(models.Questions),
		Score:     analytics.Percent(models.YesCount(answers), len(models.Questions)),
	}
}

// Questionnaire returns today's questionnaire state.
func (t *Tracker) Questionnaire(ctx context.Context, user string) (QuestionnaireState, error) {
	if err := checkUser(user); err != nil {
		return QuestionnaireState{}, err
	}
	day := t.TodayKey()
	k := dayKey(user, storage.KindAnswers, day)
	raw, err := t.load(ctx, k)
	if err != nil {
		return QuestionnaireState{}, err
	}
	return questionnaireState(day, decodeOrEmpty[[]models.Answer](k, raw)), nil
}

// AnswerQuestionnaire merges answers into today's set, replacing earlier
// answers to the same question. Once every question is answered the score
// is upserted into the questionnaire series.
func (t *Tracker) AnswerQuestionnaire(ctx context.Context, user string, answers []models.Answer) (QuestionnaireState, error) {
	if err := checkUser(user); err != nil {
		return QuestionnaireState{}, err
	}
	if len(answers) == 0 {
		return QuestionnaireState{}, fmt.Errorf("%w: no answers given", ErrInvalidAnswer)
	}
	for _, a := range answers {
		if err := validAnswer(a); err != nil {
			return QuestionnaireState{}, err
		}
	}

	day := t.TodayKey()
	k := dayKey(user, storage.KindAnswers, day)
	merged, err := storage.UpdateJSON(ctx, t.store, k,
		func(raw []byte) []models.Answer { return decodeOrEmpty[[]models.Answer](k, raw) },
		func(cur []models.Answer) ([]models.Answer, error) {
			byID := make(map[int]string, len(cur)+len(answers))
			for _, a := range cur {
				byID[a.QuestionID] = a.Answer
			}
			for _, a := range answers {
				byID[a.QuestionID] = a.Answer
			}
			out := make([]models.Answer, 0, len(byID))
			for _, q := range models.Questions {
				if v, ok := byID[q.ID]; ok {
					out = append(out, models.Answer{QuestionID: q.ID, Answer: v})
				}
			}
			return out, nil
		},
	)
	if err != nil {
		return QuestionnaireState{}, fmt.Errorf("saving answers: %w", err)
	}

	state := questionnaireState(day, merged)
	if state.Complete {
		if _, err := t.upsertScore(ctx, user, storage.KindAnswersSeries, state.Score); err != nil {
			return QuestionnaireState{}, err
		}
	}
	return state, nil
}

// ResetQuestionnaire discards today's answers. The series entry recorded
// for today, if any, is kept.
func (t *Tracker) ResetQuestionnaire(ctx context.Context, user string) error {
	if err := checkUser(user); err != nil {
		return err
	}
	err := t.store.Delete(ctx, dayKey(user, storage.KindAnswers, t.TodayKey()))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("resetting questionnaire: %w", err)
	}
	return nil
}

// QuestionnaireSeries returns the questionnaire score series, oldest first.
func (t *Tracker) QuestionnaireSeries(ctx context.Context, user string) ([]models.DailyScore, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	return t.series(ctx, user, storage.KindAnswersSeries)
}
