package models

import (
	"fmt"
	"strings"

	"github.com/julianstephens/streaklit/internal/constants"
)

// Habit represents one trackable behavior. Completed only has meaning inside a
// day snapshot; habit definitions are stored with it cleared.
type Habit struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Category  constants.Category `json:"category,omitempty"`
	Completed bool               `json:"completed"`
}

// CategoryOrOther returns the habit category, or "Other" when it is missing.
func (h Habit) CategoryOrOther() constants.Category {
	if strings.TrimSpace(string(h.Category)) == "" {
		return constants.CategoryOther
	}
	return h.Category
}

func (h *Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return fmt.Errorf("habit id cannot be empty")
	}
	if strings.TrimSpace(h.Label) == "" {
		return fmt.Errorf("habit label cannot be empty")
	}
	return nil
}

// Definitions strips completion state so the list can be stored as the
// user's habit catalogue.
func Definitions(habits []Habit) []Habit {
	defs := make([]Habit, len(habits))
	for i, h := range habits {
		h.Completed = false
		defs[i] = h
	}
	return defs
}

// CompletedCount returns the number of completed habits in a snapshot.
func CompletedCount(habits []Habit) int {
	n := 0
	for _, h := range habits {
		if h.Completed {
			n++
		}
	}
	return n
}

// DaySnapshot is the habit state recorded for one calendar day.
type DaySnapshot struct {
	Day    string  `json:"day"` // YYYY-MM-DD format
	Habits []Habit `json:"habits"`
}
