// Package memory is an in-process record store used by tests and the
// ephemeral "mem://" configuration.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
)

type Store struct {
	mu       sync.Mutex
	records  map[storage.Key]storage.Record
	settings *models.Settings
	now      func() time.Time
}

func New() *Store {
	return &Store{
		records: make(map[storage.Key]storage.Record),
		now:     time.Now,
	}
}

func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		settings := models.Settings{}
		models.ApplyDefaultSettings(&settings)
		s.settings = &settings
	}
	return nil
}

func (s *Store) Load() error                    { return s.Init() }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) GetConfigPath() string          { return "mem://" }

func (s *Store) GetSettings() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return models.Settings{}, storage.ErrNotInitialized
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

func (s *Store) Get(ctx context.Context, key storage.Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(rec.Value), nil
}

func (s *Store) Set(ctx context.Context, key storage.Key, value []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, value)
	return nil
}

func (s *Store) put(key storage.Key, value []byte) {
	s.records[key] = storage.Record{Key: key, Value: clone(value), UpdatedAt: s.now().UTC()}
}

func (s *Store) Delete(ctx context.Context, key storage.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *Store) List(ctx context.Context, user string, kind storage.Kind) ([]storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Record
	for k, rec := range s.records {
		if k.User == user && k.Kind == kind {
			rec.Value = clone(rec.Value)
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Day < out[j].Key.Day })
	return out, nil
}

func (s *Store) Update(ctx context.Context, key storage.Key, fn storage.UpdateFunc) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var current []byte
	if rec, ok := s.records[key]; ok {
		current = clone(rec.Value)
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	s.put(key, next)
	return clone(next), nil
}

func (s *Store) Users(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var users []string
	for k := range s.records {
		if !seen[k.User] {
			seen[k.User] = true
			users = append(users, k.User)
		}
	}
	sort.Strings(users)
	return users, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
