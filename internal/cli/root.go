package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/streaklit/internal/backup"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/storage/backend"
	"github.com/julianstephens/streaklit/internal/tracker"
	"github.com/julianstephens/streaklit/internal/validation"
)

type Context struct {
	Store   storage.Provider
	Tracker *tracker.Tracker
	// User is the namespace commands act on.
	User string
	// Out receives command output. Nil means stdout.
	Out io.Writer
	// Overrides are kept so trackers over other stores honour them too.
	Overrides Overrides

	ctx context.Context
}

// Overrides are command-line values that take precedence over stored settings.
type Overrides struct {
	User      string
	Timezone  string
	Retention int
}

func (o Overrides) apply(settings *models.Settings) {
	if o.Timezone != "" {
		settings.Timezone = o.Timezone
	}
	if o.Retention > 0 {
		settings.RetentionDays = o.Retention
	}
	models.ApplyDefaultSettings(settings)
}

// trackerFor reads the settings of store and builds a tracker with o applied.
func trackerFor(store storage.Provider, o Overrides, opts ...tracker.Option) (*tracker.Tracker, models.Settings, error) {
	settings, err := store.GetSettings()
	if err != nil {
		return nil, models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	o.apply(&settings)
	tr, err := tracker.FromSettings(store, settings, opts...)
	if err != nil {
		return nil, models.Settings{}, err
	}
	return tr, settings, nil
}

// NewContext builds a command context for a loaded store.
func NewContext(store storage.Provider, o Overrides, opts ...tracker.Option) (*Context, error) {
	tr, settings, err := trackerFor(store, o, opts...)
	if err != nil {
		return nil, err
	}

	user := strings.TrimSpace(o.User)
	if user == "" {
		user = settings.DefaultUser
	}
	if err := validation.ValidateUserName(user); err != nil {
		return nil, err
	}

	return &Context{Store: store, Tracker: tr, User: user, Overrides: o}, nil
}

// NewTracker builds a tracker over another store, such as the Redis store of
// serve, using that store's settings and the context's overrides.
func (c *Context) NewTracker(store storage.Provider, opts ...tracker.Option) (*tracker.Tracker, error) {
	tr, _, err := trackerFor(store, c.Overrides, opts...)
	return tr, err
}

// WithContext sets the context handed to storage calls.
func (c *Context) WithContext(ctx context.Context) *Context {
	c.ctx = ctx
	return c
}

func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Printf writes formatted output to the command's writer.
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Stdout(), args...)
}

// ResolveHabit finds one of the user's habits by id, id prefix or label.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	habits, err := c.Tracker.Habits(c.Context(), c.User)
	if err != nil {
		return models.Habit{}, err
	}
	ref = strings.TrimSpace(ref)
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
	}
	var matches []models.Habit
	for _, h := range habits {
		if strings.EqualFold(h.Label, ref) {
			return h, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(h.ID, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Habit{}, fmt.Errorf("%w: %s", tracker.ErrHabitNotFound, ref)
	default:
		return models.Habit{}, fmt.Errorf("habit reference %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// PerformAutomaticBackup creates an automatic backup of SQLite stores and
// silently handles errors
func (c *Context) PerformAutomaticBackup() {
	path := c.Store.GetConfigPath()
	if !backend.IsFile(path) {
		return
	}
	mgr := backup.NewManager(path)
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ShortID returns the leading part of an id for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ConfigDir returns the directory holding logs and other local state for a
// --config value: the database's directory for SQLite files, otherwise the
// user config directory.
func ConfigDir(config string) (string, error) {
	if backend.IsFile(config) {
		path, err := backend.ExpandPath(config)
		if err != nil {
			return "", err
		}
		return filepath.Dir(path), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, constants.AppName), nil
}
