package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/migration"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/migrations"
)

type Store struct {
	connStr  string
	password string
	db       *sql.DB
}

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// Option configures a Store.
type Option func(*Store)

// WithPassword supplies a password resolved outside the connection string,
// e.g. from the OS keyring.
func WithPassword(password string) Option {
	return func(s *Store) { s.password = password }
}

func New(connStr string, opts ...Option) *Store {
	s := &Store{connStr: connStr}
	for _, opt := range opts {
		opt(s)
	}
	s.ensureSearchPath()
	return s
}

// IsConnString reports whether config names a PostgreSQL database.
func IsConnString(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

func (s *Store) ensureSearchPath() {
	if IsConnString(s.connStr) {
		u, err := url.Parse(s.connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
			s.connStr = u.String()
		}
		return
	}
	if !hasParam(s.connStr, "search_path") {
		s.connStr = strings.TrimSpace(s.connStr) + " search_path=" + constants.AppName
	}
}

// hasParam reports whether a DSN-style or URL connection string carries the
// given parameter (case-insensitive).
func hasParam(connStr, name string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, name) {
				return true
			}
		}
	}
	for _, part := range strings.Fields(connStr) {
		if k, _, ok := strings.Cut(part, "="); ok && strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// Role returns the user named in a connection string, if any.
func Role(connStr string) string {
	if IsConnString(connStr) {
		if u, err := url.Parse(connStr); err == nil && u.User != nil {
			return u.User.Username()
		}
		return ""
	}
	for _, part := range strings.Fields(connStr) {
		if k, v, ok := strings.Cut(part, "="); ok && strings.EqualFold(k, "user") {
			return v
		}
	}
	return ""
}

// ValidateConnString checks that connStr is a PostgreSQL URI or DSN and
// that it does not embed a password.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	if IsConnString(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
		}
		if _, set := u.User.Password(); set {
			return ErrEmbeddedCredentials
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return nil
	}
	if hasParam(connStr, "password") {
		return ErrEmbeddedCredentials
	}
	return nil
}

// dsn returns the connection string with the out-of-band password applied.
func (s *Store) dsn() string {
	if s.password == "" {
		return s.connStr
	}
	if IsConnString(s.connStr) {
		u, err := url.Parse(s.connStr)
		if err != nil {
			return s.connStr
		}
		u.User = url.UserPassword(u.User.Username(), s.password)
		return u.String()
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s.password)
	return s.connStr + " password='" + escaped + "'"
}

func (s *Store) open() error {
	connector, err := pq.NewConnector(s.dsn())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasParam(s.connStr, "sslmode") {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Init() error {
	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}
	if _, err := s.db.Exec("CREATE SCHEMA IF NOT EXISTS " + constants.AppName); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	runner, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := runner.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
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
	if s.db != nil {
		return nil
	}
	if err := s.open(); err != nil {
		return err
	}
	runner, err := s.runner()
	if err != nil {
		return err
	}
	current, err := runner.GetCurrentVersion()
	if err != nil {
		return err
	}
	if current == 0 {
		return storage.ErrNotInitialized
	}
	return runner.ValidateVersion()
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrNotInitialized
	}
	return s.db.PingContext(ctx)
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.Postgres), nil
}

// SchemaVersion returns the applied and latest available schema versions.
func (s *Store) SchemaVersion() (current, latest int, err error) {
	runner, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	if current, err = runner.GetCurrentVersion(); err != nil {
		return 0, 0, err
	}
	latest, err = runner.GetLatestVersion()
	return current, latest, err
}

func (s *Store) GetConfigPath() string {
	return s.connStr
}

func (s *Store) GetSettings() (models.Settings, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	data := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		data[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, err
	}
	if len(data) == 0 {
		return models.Settings{}, fmt.Errorf("settings not found")
	}
	return models.MapToSettings(data)
}

func (s *Store) SaveSettings(settings models.Settings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range models.SettingsToMap(settings) {
		if _, err := tx.Exec(
			"INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
			key, value,
		); err != nil {
			return fmt.Errorf("saving setting %s: %w", key, err)
		}
	}
	return tx.Commit()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func get(ctx context.Context, q querier, key storage.Key) ([]byte, error) {
	var value string
	err := q.QueryRowContext(ctx,
		"SELECT value FROM records WHERE user_name = $1 AND kind = $2 AND day = $3",
		key.User, string(key.Kind), key.Day,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return []byte(value), nil
}

func put(ctx context.Context, q querier, key storage.Key, value []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO records (user_name, kind, day, value, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_name, kind, day) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`,
		key.User, string(key.Kind), key.Day, string(value),
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key storage.Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return get(ctx, s.db, key)
}

func (s *Store) Set(ctx context.Context, key storage.Key, value []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return put(ctx, s.db, key, value)
}

func (s *Store) Delete(ctx context.Context, key storage.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE user_name = $1 AND kind = $2 AND day = $3",
		key.User, string(key.Kind), key.Day,
	); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, user string, kind storage.Kind) ([]storage.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT day, value, updated_at FROM records WHERE user_name = $1 AND kind = $2 ORDER BY day",
		user, string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", user, kind, err)
	}
	defer rows.Close()

	var out []storage.Record
	for rows.Next() {
		var (
			day, value string
			updatedAt  time.Time
		)
		if err := rows.Scan(&day, &value, &updatedAt); err != nil {
			return nil, err
		}
		out = append(out, storage.Record{
			Key:       storage.Key{User: user, Kind: kind, Day: day},
			Value:     []byte(value),
			UpdatedAt: updatedAt,
		})
	}
	return out, rows.Err()
}

// Update serializes concurrent writers of the same key with a
// transaction-scoped advisory lock, so a missing row cannot be inserted twice.
func (s *Store) Update(ctx context.Context, key storage.Key, fn storage.UpdateFunc) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key.String()); err != nil {
		return nil, fmt.Errorf("locking %s: %w", key, err)
	}
	current, err := get(ctx, tx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := put(ctx, tx, key, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing %s: %w", key, err)
	}
	return next, nil
}

func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT user_name FROM records ORDER BY user_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
