package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/streaklit/internal/backup"
	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/config"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/scheduler"
	"github.com/julianstephens/streaklit/internal/server"
	"github.com/julianstephens/streaklit/internal/storage/backend"
	"github.com/julianstephens/streaklit/internal/storage/redis"
	"github.com/julianstephens/streaklit/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

type ServeCmd struct {
	EnvFile string `help:"Load environment variables from this file when it exists." default:".env" type:"path"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	cfg, err := config.Load(c.EnvFile)
	if err != nil {
		return err
	}

	tr := ctx.Tracker
	if cfg.RedisAddr != "" {
		rs := redis.New(redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err := rs.Init(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		defer rs.Close()
		if tr, err = ctx.NewTracker(rs); err != nil {
			return fmt.Errorf("failed to read redis settings: %w", err)
		}
		logger.Info("Serving records from redis", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
	}

	sched, err := newScheduler(ctx, cfg, tr)
	if err != nil {
		return err
	}
	srv := server.New(tr, server.Config{ReadTimeout: cfg.ReadTimeout})

	sigCtx, stop := signal.NotifyContext(ctx.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.ListenAddr) }()
	ctx.Printf("Serving %s on http://%s (Ctrl+C to stop)\n", ctx.Store.GetConfigPath(), cfg.ListenAddr)

	var listenErr error
	select {
	case listenErr = <-errCh:
	case <-sigCtx.Done():
		logger.Info("Shutting down sync server")
		if err := srv.Shutdown(); err != nil {
			logger.Warn("Server shutdown failed", "error", err)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		logger.Warn("Scheduler did not stop cleanly", "error", err)
	}
	if listenErr != nil {
		return fmt.Errorf("server stopped: %w", listenErr)
	}
	return nil
}

// newScheduler registers the maintenance jobs. Backups only apply when the
// server writes to the SQLite file named by --config.
func newScheduler(ctx *cli.Context, cfg config.Server, tr *tracker.Tracker) (*scheduler.Scheduler, error) {
	sched := scheduler.New(scheduler.WithLocation(tr.Now().Location()))
	if err := sched.Add(scheduler.PruneJob(cfg.PruneSchedule, tr)); err != nil {
		return nil, err
	}
	if path := ctx.Store.GetConfigPath(); cfg.RedisAddr == "" && backend.IsFile(path) {
		if err := sched.Add(scheduler.BackupJob(cfg.BackupSchedule, backup.NewManager(path))); err != nil {
			return nil, err
		}
	}
	for _, name := range sched.Jobs() {
		if next, ok := sched.Next(name); ok {
			logger.Info("Scheduled job", "job", name, "next", next.Format(time.RFC3339))
		}
	}
	return sched, nil
}
