package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

const (
	MaxLabelLength  = 120
	MaxMemoryLength = 2000
	MaxUserLength   = 64
)

var userPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateUserName checks that name is usable as a record namespace.
func ValidateUserName(name string) error {
	if name == "" {
		return fmt.Errorf("user name cannot be empty")
	}
	if len(name) > MaxUserLength {
		return fmt.Errorf("user name cannot exceed %d characters", MaxUserLength)
	}
	if !userPattern.MatchString(name) {
		return fmt.Errorf("user name %q may only contain letters, digits, '.', '_' and '-'", name)
	}
	return nil
}

// ValidateLabel checks a habit label.
func ValidateLabel(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return fmt.Errorf("habit label cannot be empty")
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return fmt.Errorf("habit label cannot exceed %d characters", MaxLabelLength)
	}
	return nil
}

// ValidateMemoryText checks memory text after trimming.
func ValidateMemoryText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("memory text cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxMemoryLength {
		return fmt.Errorf("memory text cannot exceed %d characters", MaxMemoryLength)
	}
	return nil
}

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateHabitID    ConflictType = "duplicate_habit_id"
	ConflictDuplicateHabitLabel ConflictType = "duplicate_habit_label"
	ConflictEmptyHabitLabel     ConflictType = "empty_habit_label"
	ConflictDuplicateSeriesDay  ConflictType = "duplicate_series_day"
	ConflictUnorderedSeries     ConflictType = "unordered_series"
	ConflictScoreOutOfRange     ConflictType = "score_out_of_range"
	ConflictInvalidDate         ConflictType = "invalid_date"
)

// Conflict represents a detected problem in stored habit data
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string   // YYYY-MM-DD or label (if applicable)
	Items       []string // habit ids or labels involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction describes one change made by FixSeries.
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}
	var sb strings.Builder
	sb.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&sb, "- %s\n", c.Description)
	}
	return sb.String()
}

// Validator checks stored habit data for consistency problems.
type Validator struct {
	today time.Time
}

// New creates a Validator that resolves yearless labels relative to today.
func New(today time.Time) *Validator {
	return &Validator{today: today}
}

// ValidateHabits checks a habit list for duplicate ids, duplicate labels and empty labels.
func (v *Validator) ValidateHabits(habits []models.Habit) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	ids := map[string]int{}
	labels := map[string][]string{}
	for _, h := range habits {
		ids[h.ID]++
		label := strings.TrimSpace(h.Label)
		if label == "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictEmptyHabitLabel,
				Description: fmt.Sprintf("Habit %q has an empty label", h.ID),
				Items:       []string{h.ID},
			})
			continue
		}
		key := strings.ToLower(label)
		labels[key] = append(labels[key], h.ID)
	}

	for _, id := range sortedKeys(ids) {
		if ids[id] > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitID,
				Description: fmt.Sprintf("Duplicate habit id: %q appears %d times", id, ids[id]),
				Items:       []string{id},
			})
		}
	}
	for _, label := range sortedKeys(labels) {
		if len(labels[label]) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitLabel,
				Description: fmt.Sprintf("Duplicate habit label: %q (IDs: %v)", label, labels[label]),
				Items:       labels[label],
			})
		}
	}
	return result
}

func (v *Validator) resolve(e models.DailyScore) (time.Time, error) {
	if e.Day != "" {
		return utils.ParseDateInLocation(e.Day, v.today.Location())
	}
	return utils.ParseLabel(e.Label, v.today)
}

func entryName(e models.DailyScore) string {
	if e.Day != "" {
		return e.Day
	}
	return e.Label
}

// ValidateSeries checks a score series for unparsable dates, out-of-range
// scores, repeated days and entries out of chronological order.
func (v *Validator) ValidateSeries(series []models.DailyScore) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	seen := map[string]bool{}
	var prev time.Time
	for _, e := range series {
		name := entryName(e)
		if e.Score < 0 || e.Score > constants.PerfectScore {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictScoreOutOfRange,
				Description: fmt.Sprintf("Entry %s has score %d outside 0-100", name, e.Score),
				Date:        name,
			})
		}
		d, err := v.resolve(e)
		if err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDate,
				Description: fmt.Sprintf("Entry %q has an unparsable date", name),
				Date:        name,
			})
			continue
		}
		key := utils.DayKey(d)
		if seen[key] {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateSeriesDay,
				Description: fmt.Sprintf("Day %s appears more than once", key),
				Date:        key,
			})
		}
		seen[key] = true
		if !prev.IsZero() && d.Before(prev) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnorderedSeries,
				Description: fmt.Sprintf("Entry %s is older than the entry before it", key),
				Date:        key,
			})
		}
		prev = d
	}
	return result
}

// FixSeries returns a repaired copy of series: unparsable entries dropped,
// scores clamped, one entry per day (the later one wins) in chronological
// order, and every entry carrying its ISO day.
func (v *Validator) FixSeries(series []models.DailyScore) ([]models.DailyScore, []FixAction) {
	var actions []FixAction
	type dated struct {
		d time.Time
		e models.DailyScore
	}
	byDay := map[string]int{}
	var kept []dated
	for _, e := range series {
		name := entryName(e)
		d, err := v.resolve(e)
		if err != nil {
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Dropped entry %q with unparsable date", name),
				SourceConflict: Conflict{Type: ConflictInvalidDate, Date: name},
			})
			continue
		}
		if e.Score < 0 || e.Score > constants.PerfectScore {
			clamped := min(max(e.Score, 0), constants.PerfectScore)
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Clamped score of %s from %d to %d", name, e.Score, clamped),
				SourceConflict: Conflict{Type: ConflictScoreOutOfRange, Date: name},
			})
			e.Score = clamped
		}
		e.Day, e.Label = utils.DayKey(d), utils.Label(d)
		if i, ok := byDay[e.Day]; ok {
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Merged duplicate entries for %s", e.Day),
				SourceConflict: Conflict{Type: ConflictDuplicateSeriesDay, Date: e.Day},
			})
			kept[i].e = e
			continue
		}
		byDay[e.Day] = len(kept)
		kept = append(kept, dated{d: d, e: e})
	}

	if !sort.SliceIsSorted(kept, func(i, j int) bool { return kept[i].d.Before(kept[j].d) }) {
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].d.Before(kept[j].d) })
		actions = append(actions, FixAction{
			Action:         "Reordered entries chronologically",
			SourceConflict: Conflict{Type: ConflictUnorderedSeries},
		})
	}

	out := make([]models.DailyScore, len(kept))
	for i, k := range kept {
		out[i] = k.e
	}
	return out, actions
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
