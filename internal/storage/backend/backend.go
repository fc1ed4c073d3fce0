// Package backend picks a storage.Provider from a --config value.
package backend

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/streaklit/internal/keyring"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/storage/memory"
	"github.com/julianstephens/streaklit/internal/storage/postgres"
	"github.com/julianstephens/streaklit/internal/storage/redis"
	"github.com/julianstephens/streaklit/internal/storage/sqlite"
)

// MemoryConfig selects the non-persistent in-process store.
const MemoryConfig = "mem://"

// Options carries backend-specific settings that do not fit in the config string.
type Options struct {
	RedisPrefix string
	// UseKeyring looks up a PostgreSQL password in the OS keyring.
	UseKeyring bool
}

// Open returns an unopened provider for config: a PostgreSQL connection
// string, a redis:// URL, mem://, or a SQLite file path ("~" is expanded).
func Open(config string, opts Options) (storage.Provider, error) {
	switch {
	case config == MemoryConfig:
		return memory.New(), nil
	case postgres.IsConnString(config):
		if err := postgres.ValidateConnString(config); err != nil {
			return nil, err
		}
		var pgOpts []postgres.Option
		if opts.UseKeyring {
			pw, err := keyring.GetPassword(postgres.Role(config))
			switch {
			case err == nil:
				pgOpts = append(pgOpts, postgres.WithPassword(pw))
			case errors.Is(err, keyring.ErrNotFound):
				logger.Debug("No keyring password, relying on PGPASSWORD or .pgpass")
			default:
				logger.Warn("Keyring lookup failed", "error", err)
			}
		}
		return postgres.New(config, pgOpts...), nil
	case redis.IsURL(config):
		return redis.New(redis.Options{URL: config, Prefix: opts.RedisPrefix}), nil
	default:
		path, err := ExpandPath(config)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil
	}
}

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// IsFile reports whether config names a SQLite database file.
func IsFile(config string) bool {
	return config != MemoryConfig && !postgres.IsConnString(config) && !redis.IsURL(config)
}
