package models

// Settings represents store-wide settings
type Settings struct {
	DefaultUser   string `json:"default_user"`   // user namespace used when --user is not given
	Timezone      string `json:"timezone"`       // IANA timezone name (e.g. "Europe/London", or "Local" for system timezone)
	RetentionDays int    `json:"retention_days"` // maximum number of entries kept in a score series
}
