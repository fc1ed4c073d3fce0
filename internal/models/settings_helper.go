package models

import (
	"fmt"

	"github.com/julianstephens/streaklit/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingDefaultUser:
			settings.DefaultUser = value
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingRetentionDays:
			if _, err := fmt.Sscanf(value, "%d", &settings.RetentionDays); err != nil {
				return Settings{}, fmt.Errorf("parsing retention_days: %w", err)
			}
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingDefaultUser:   settings.DefaultUser,
		constants.SettingTimezone:      settings.Timezone,
		constants.SettingRetentionDays: fmt.Sprintf("%d", settings.RetentionDays),
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.DefaultUser == "" {
		settings.DefaultUser = constants.DefaultUser
	}
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.RetentionDays <= 0 {
		settings.RetentionDays = constants.DefaultRetentionDays
	}
	if settings.RetentionDays > constants.MaxRetentionDays {
		settings.RetentionDays = constants.MaxRetentionDays
	}
}
