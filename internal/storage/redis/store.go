// Package redis stores records in Redis hashes with a per-user sorted-set
// index, for deployments that share state between sync servers.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
)

const (
	fieldValue     = "value"
	fieldUpdatedAt = "updated_at"
	undatedMember  = "_"
	schemaVersion  = "1"

	// maxTxRetries bounds optimistic-lock retries in Update.
	maxTxRetries = 64
)

// Options configures the Redis connection.
type Options struct {
	URL      string // redis://[:password@]host:port/db; overrides Addr/Password/DB when set
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Store struct {
	opts   Options
	client *goredis.Client
	owned  bool
}

// IsURL reports whether config names a Redis database.
func IsURL(config string) bool {
	return strings.HasPrefix(config, "redis://") || strings.HasPrefix(config, "rediss://")
}

func New(opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = constants.AppName
	}
	return &Store{opts: opts}
}

// NewWithClient wraps an existing client. The caller keeps ownership of it.
func NewWithClient(client *goredis.Client, prefix string) *Store {
	s := New(Options{Prefix: prefix})
	s.client = client
	return s
}

func (s *Store) connect() error {
	if s.client != nil {
		return nil
	}
	var ro *goredis.Options
	if s.opts.URL != "" {
		parsed, err := goredis.ParseURL(s.opts.URL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		ro = parsed
	} else {
		ro = &goredis.Options{Addr: s.opts.Addr, Password: s.opts.Password, DB: s.opts.DB}
	}
	ro.DialTimeout = 5 * time.Second
	ro.ReadTimeout = 3 * time.Second
	ro.WriteTimeout = 3 * time.Second
	ro.MaxRetries = 3

	client := goredis.NewClient(ro)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.client = client
	s.owned = true
	return nil
}

// key joins non-empty parts under the store prefix.
func (s *Store) key(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(s.opts.Prefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func member(day string) string {
	if day == "" {
		return undatedMember
	}
	return day
}

func (s *Store) recordKey(k storage.Key) string {
	return s.key("rec", k.User, string(k.Kind), member(k.Day))
}

func (s *Store) indexKey(user string, kind storage.Kind) string {
	return s.key("idx", user, string(kind))
}

func (s *Store) Init() error {
	if err := s.connect(); err != nil {
		return err
	}
	ctx := context.Background()
	if err := s.client.SetNX(ctx, s.key("schema"), schemaVersion, 0).Err(); err != nil {
		return fmt.Errorf("failed to write schema marker: %w", err)
	}
	if _, err := s.GetSettings(); err != nil {
		settings := models.Settings{}
		models.ApplyDefaultSettings(&settings)
		if err := s.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}
	return nil
}

func (s *Store) Load() error {
	if err := s.connect(); err != nil {
		return err
	}
	version, err := s.client.Get(context.Background(), s.key("schema")).Result()
	if errors.Is(err, goredis.Nil) {
		return storage.ErrNotInitialized
	}
	if err != nil {
		return err
	}
	if version != schemaVersion {
		return fmt.Errorf("redis schema version (%s) is not supported (want %s)", version, schemaVersion)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client != nil && s.owned {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return storage.ErrNotInitialized
	}
	return s.client.Ping(ctx).Err()
}

func (s *Store) GetConfigPath() string {
	if s.opts.URL != "" {
		return s.opts.URL
	}
	return "redis://" + s.opts.Addr
}

func (s *Store) GetSettings() (models.Settings, error) {
	data, err := s.client.HGetAll(context.Background(), s.key("settings")).Result()
	if err != nil {
		return models.Settings{}, err
	}
	if len(data) == 0 {
		return models.Settings{}, fmt.Errorf("settings not found")
	}
	return models.MapToSettings(data)
}

func (s *Store) SaveSettings(settings models.Settings) error {
	return s.client.HSet(context.Background(), s.key("settings"), models.SettingsToMap(settings)).Err()
}

func (s *Store) Get(ctx context.Context, key storage.Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	value, err := s.client.HGet(ctx, s.recordKey(key), fieldValue).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) write(ctx context.Context, pipe goredis.Pipeliner, key storage.Key, value []byte) {
	pipe.HSet(ctx, s.recordKey(key),
		fieldValue, value,
		fieldUpdatedAt, time.Now().UTC().Format(time.RFC3339Nano),
	)
	pipe.ZAdd(ctx, s.indexKey(key.User, key.Kind), goredis.Z{Score: 0, Member: member(key.Day)})
	pipe.SAdd(ctx, s.key("users"), key.User)
}

func (s *Store) Set(ctx context.Context, key storage.Key, value []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if _, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		s.write(ctx, pipe, key, value)
		return nil
	}); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key storage.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if _, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.recordKey(key))
		pipe.ZRem(ctx, s.indexKey(key.User, key.Kind), member(key.Day))
		return nil
	}); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return s.forgetUserIfEmpty(ctx, key.User)
}

func (s *Store) forgetUserIfEmpty(ctx context.Context, user string) error {
	cmds, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, kind := range storage.Kinds {
			pipe.ZCard(ctx, s.indexKey(user, kind))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		if cmd.(*goredis.IntCmd).Val() > 0 {
			return nil
		}
	}
	return s.client.SRem(ctx, s.key("users"), user).Err()
}

func (s *Store) List(ctx context.Context, user string, kind storage.Kind) ([]storage.Record, error) {
	members, err := s.client.ZRange(ctx, s.indexKey(user, kind), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", user, kind, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]storage.Key, len(members))
	cmds := make([]*goredis.MapStringStringCmd, len(members))
	if _, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, m := range members {
			keys[i] = storage.Key{User: user, Kind: kind}
			if m != undatedMember {
				keys[i].Day = m
			}
			cmds[i] = pipe.HGetAll(ctx, s.recordKey(keys[i]))
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", user, kind, err)
	}

	out := make([]storage.Record, 0, len(members))
	for i, cmd := range cmds {
		fields := cmd.Val()
		value, ok := fields[fieldValue]
		if !ok {
			logger.Warn("Index entry without record", "key", keys[i].String())
			continue
		}
		updatedAt, _ := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
		out = append(out, storage.Record{Key: keys[i], Value: []byte(value), UpdatedAt: updatedAt})
	}
	return out, nil
}

// Update runs fn under WATCH on the record key and retries when another
// client wrote the key between the read and the MULTI/EXEC.
func (s *Store) Update(ctx context.Context, key storage.Key, fn storage.UpdateFunc) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	rk := s.recordKey(key)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var next []byte
		err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
			current, err := tx.HGet(ctx, rk, fieldValue).Bytes()
			if errors.Is(err, goredis.Nil) {
				current = nil
			} else if err != nil {
				return err
			}
			if next, err = fn(current); err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				s.write(ctx, pipe, key, next)
				return nil
			})
			return err
		}, rk)
		if errors.Is(err, goredis.TxFailedErr) {
			logger.Debug("Retrying contended update", "key", key.String(), "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		return next, nil
	}
	return nil, fmt.Errorf("updating %s: too much contention", key)
}

func (s *Store) Users(ctx context.Context) ([]string, error) {
	users, err := s.client.SMembers(ctx, s.key("users")).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(users)
	return users, nil
}
