package models

import "github.com/julianstephens/streaklit/internal/constants"

// DefaultHabits is the catalogue a user starts with on first run.
func DefaultHabits() []Habit {
	return []Habit{
		{ID: "exercise", Label: "🏃 Exercise (30 min)", Category: constants.CategoryHealth},
		{ID: "water", Label: "💧 Drink 8 glasses of water", Category: constants.CategoryHealth},
		{ID: "reading", Label: "📚 Read for 20 minutes", Category: constants.CategoryLearning},
		{ID: "meditation", Label: "🧘 Meditate (10 min)", Category: constants.CategoryWellness},
		{ID: "sleep", Label: "😴 Sleep 7-8 hours", Category: constants.CategoryHealth},
		{ID: "gratitude", Label: "🙏 Practice gratitude", Category: constants.CategoryWellness},
		{ID: "healthy-meal", Label: "🥗 Eat healthy meals", Category: constants.CategoryHealth},
		{ID: "social", Label: "👥 Connect with loved ones", Category: constants.CategorySocial},
		{ID: "learn", Label: "💡 Learn something new", Category: constants.CategoryLearning},
		{ID: "organize", Label: "📝 Organize workspace", Category: constants.CategoryProductivity},
	}
}

// Questions is the fixed daily questionnaire.
var Questions = []Question{
	{ID: 1, Text: "Did you exercise today?", Category: constants.CategoryHealth},
	{ID: 2, Text: "Did you drink enough water?", Category: constants.CategoryHealth},
	{ID: 3, Text: "Did you read for at least 15 minutes?", Category: constants.CategoryLearning},
	{ID: 4, Text: "Did you meditate or practice mindfulness?", Category: constants.CategoryWellness},
	{ID: 5, Text: "Did you complete your priority tasks?", Category: constants.CategoryProductivity},
	{ID: 6, Text: "Did you connect with friends or family?", Category: constants.CategorySocial},
	{ID: 7, Text: "Did you practice gratitude?", Category: constants.CategoryWellness},
	{ID: 8, Text: "Did you get enough sleep last night?", Category: constants.CategoryHealth},
}
