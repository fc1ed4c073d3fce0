// Package config loads the sync server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/julianstephens/streaklit/internal/logger"
)

// Server configures `streaklit serve`.
type Server struct {
	ListenAddr  string        `env:"STREAKLIT_LISTEN" envDefault:"127.0.0.1:8080"`
	ReadTimeout time.Duration `env:"STREAKLIT_READ_TIMEOUT" envDefault:"10s"`

	// A non-empty RedisAddr makes the server store records in Redis instead
	// of the --config store.
	RedisAddr     string `env:"STREAKLIT_REDIS_ADDR"`
	RedisPassword string `env:"STREAKLIT_REDIS_PASSWORD"`
	RedisDB       int    `env:"STREAKLIT_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"STREAKLIT_REDIS_PREFIX" envDefault:"streaklit"`

	// Cron specs; an empty spec disables the job.
	PruneSchedule  string `env:"STREAKLIT_PRUNE_SCHEDULE" envDefault:"15 3 * * *"`
	BackupSchedule string `env:"STREAKLIT_BACKUP_SCHEDULE" envDefault:"45 3 * * *"`
}

// Load reads envFile (when it exists) into the process environment and
// parses the server settings. Variables already set are not overridden.
func Load(envFile string) (Server, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Server{}, fmt.Errorf("loading %s: %w", envFile, err)
			}
			logger.Debug("No env file, using environment only", "path", envFile)
		}
	}

	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks the listen address, timeout and cron specs.
func (c Server) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen address cannot be empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %s", c.ReadTimeout)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis db must be non-negative, got %d", c.RedisDB)
	}
	for name, spec := range map[string]string{"prune": c.PruneSchedule, "backup": c.BackupSchedule} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s schedule %q: %w", name, spec, err)
		}
	}
	return nil
}
