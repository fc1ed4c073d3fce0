package constants

const (
	// Setting keys
	SettingDefaultUser   = "default_user"
	SettingTimezone      = "timezone"
	SettingRetentionDays = "retention_days"

	// Default settings values
	DefaultTimezone      = "Local" // Use system local timezone by default
	DefaultRetentionDays = 30
	MaxRetentionDays     = 366
)
