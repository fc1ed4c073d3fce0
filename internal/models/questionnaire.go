package models

import "github.com/julianstephens/streaklit/internal/constants"

const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

type Question struct {
	ID       int                `json:"id"`
	Text     string             `json:"text"`
	Category constants.Category `json:"category"`
}

type Answer struct {
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer"`
}

// YesCount returns how many answers are "yes".
func YesCount(answers []Answer) int {
	n := 0
	for _, a := range answers {
		if a.Answer == AnswerYes {
			n++
		}
	}
	return n
}
