package constants

const (
	AppName            = "streaklit"
	DefaultKeyringUser = "database-password"
	DefaultConfigPath  = "~/.config/streaklit/streaklit.db"
	DefaultUser        = "me"
	Version            = "v0.3.0"

	// DateFormat is the storage date format used for record keys (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// LabelFormat is the display format of a daily score entry, e.g. "Jan 5"
	LabelFormat = "Jan 2"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "streaklit-"
	BackupFileSuffix = ".db"

	// Score thresholds
	PerfectScore     = 100
	BandHighMinScore = 70
	BandMidMinScore  = 40

	// Performance label thresholds for habit completion percentages
	PerformanceExcellent = 80
	PerformanceGood      = 60
	PerformanceFair      = 40

	// Report constants
	DefaultReportDays  = 30
	TrendDays          = 14
	LeaderboardSize    = 5
	MemoryWeekDays     = 7
	MemoryMonthDays    = 30
	QuestionnaireScale = 8
)

// Category is the grouping of a habit. Unknown strings are user-defined categories.
type Category string

const (
	CategoryHealth       Category = "Health"
	CategoryWellness     Category = "Wellness"
	CategoryLearning     Category = "Learning"
	CategorySocial       Category = "Social"
	CategoryProductivity Category = "Productivity"
	CategoryOther        Category = "Other"
)

// Categories lists the built-in categories in display order.
var Categories = []Category{
	CategoryHealth,
	CategoryWellness,
	CategoryLearning,
	CategorySocial,
	CategoryProductivity,
}

// Band classifies a daily score for charts.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// ViewWindows are the window sizes offered by the reporting views.
var ViewWindows = []int{7, 14, 21, 30}
