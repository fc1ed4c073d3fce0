package models

// DailyScore is one point in the progress time series.
type DailyScore struct {
	Day   string `json:"day,omitempty"` // YYYY-MM-DD format; empty for legacy label-only entries
	Label string `json:"date"`          // display label, e.g. "Jan 5"
	Score int    `json:"score"`         // 0-100
}

// SameDay reports whether two entries describe the same calendar date. The
// ISO day wins when both carry one; otherwise the display label is compared.
func (s DailyScore) SameDay(other DailyScore) bool {
	if s.Day != "" && other.Day != "" {
		return s.Day == other.Day
	}
	return s.Label == other.Label
}
