package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/streaklit/internal/models"
)

var (
	// ErrNotFound is returned when a key has no record.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidKey is returned for keys missing a user, a kind, or a day the kind requires.
	ErrInvalidKey = errors.New("invalid record key")
	// ErrNotInitialized is returned by Load when the backing store has never been initialized.
	ErrNotInitialized = errors.New("storage not initialized, run 'streaklit init' first")
)

// Kind names a family of records within a user namespace.
type Kind string

const (
	KindHabits        Kind = "habits"         // habit definitions
	KindDay           Kind = "day"            // dated habit snapshot
	KindSeries        Kind = "series"         // daily score series
	KindAnswers       Kind = "answers"        // dated questionnaire answers
	KindAnswersSeries Kind = "answers_series" // questionnaire score series
	KindMemories      Kind = "memories"       // memory log
)

// Kinds lists every record kind.
var Kinds = []Kind{KindHabits, KindDay, KindSeries, KindAnswers, KindAnswersSeries, KindMemories}

// Dated reports whether records of this kind are keyed by calendar day.
func (k Kind) Dated() bool {
	return k == KindDay || k == KindAnswers
}

// Key addresses one record. Day is YYYY-MM-DD and is only set for dated kinds.
type Key struct {
	User string
	Kind Kind
	Day  string
}

// Validate checks that the key is complete for its kind.
func (k Key) Validate() error {
	if strings.TrimSpace(k.User) == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidKey)
	}
	known := false
	for _, kind := range Kinds {
		if k.Kind == kind {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidKey, k.Kind)
	}
	if k.Kind.Dated() && k.Day == "" {
		return fmt.Errorf("%w: kind %q requires a day", ErrInvalidKey, k.Kind)
	}
	if !k.Kind.Dated() && k.Day != "" {
		return fmt.Errorf("%w: kind %q is not dated", ErrInvalidKey, k.Kind)
	}
	return nil
}

func (k Key) String() string {
	if k.Day == "" {
		return k.User + "/" + string(k.Kind)
	}
	return k.User + "/" + string(k.Kind) + "/" + k.Day
}

// Record is a stored value together with its key.
type Record struct {
	Key       Key
	Value     []byte
	UpdatedAt time.Time
}

// UpdateFunc receives the current value (nil when absent) and returns the
// value to store.
type UpdateFunc func(current []byte) ([]byte, error)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Ping(ctx context.Context) error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Records
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, key Key) error
	// List returns a user's records of one kind ordered by day.
	List(ctx context.Context, user string, kind Kind) ([]Record, error)
	// Update performs an atomic read-modify-write of a single key and
	// returns the stored value.
	Update(ctx context.Context, key Key, fn UpdateFunc) ([]byte, error)
	// Users returns every user namespace holding at least one record.
	Users(ctx context.Context) ([]string, error)

	// Utils
	GetConfigPath() string
}
