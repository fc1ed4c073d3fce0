// Package server exposes a tracker over a JSON HTTP API.
package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/tracker"
)

const defaultViewDays = 7

type Config struct {
	ReadTimeout time.Duration
}

type Server struct {
	app     *fiber.App
	tracker *tracker.Tracker
}

func New(tr *tracker.Tracker, cfg Config) *Server {
	s := &Server{tracker: tr}
	s.app = fiber.New(fiber.Config{
		AppName:               constants.AppName,
		ReadTimeout:           cfg.ReadTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(requestLogger)
	s.routes()
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown is called or the listener fails.
func (s *Server) Listen(addr string) error {
	logger.Info("Sync server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.health)

	api := s.app.Group("/api")
	api.Get("/dashboard", s.dashboard)

	u := api.Group("/users/:user")
	u.Get("/habits", s.listHabits)
	u.Post("/habits", s.addHabit)
	u.Put("/habits/:id", s.editHabit)
	u.Delete("/habits/:id", s.deleteHabit)
	u.Post("/habits/:id/toggle", s.toggleHabit)
	u.Get("/today", s.today)

	u.Get("/series", s.series)
	u.Get("/summary", s.summary)
	u.Get("/streak", s.streak)
	u.Get("/categories", s.categories)
	u.Get("/chart", s.chart)
	u.Get("/report", s.report)

	u.Get("/memories", s.listMemories)
	u.Post("/memories", s.addMemory)
	u.Delete("/memories/:id", s.deleteMemory)

	u.Get("/questionnaire", s.questionnaire)
	u.Post("/questionnaire", s.answerQuestionnaire)
	u.Delete("/questionnaire", s.resetQuestionnaire)
}

// requestLogger logs one line per request. Errors are rendered here so the
// logged status is the one sent.
func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	status := c.Response().StatusCode()
	kv := []interface{}{
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"latency", time.Since(start),
	}
	if status >= fiber.StatusInternalServerError {
		logger.Error("Request failed", append(kv, "error", err)...)
	} else {
		logger.Info("Request", kv...)
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, tracker.ErrHabitNotFound),
		errors.Is(err, tracker.ErrMemoryNotFound),
		errors.Is(err, storage.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, tracker.ErrInvalidUser),
		errors.Is(err, tracker.ErrInvalidHabit),
		errors.Is(err, tracker.ErrEmptyMemory),
		errors.Is(err, tracker.ErrInvalidAnswer),
		errors.Is(err, tracker.ErrStaleReset),
		errors.Is(err, analytics.ErrInvalidWindow),
		errors.Is(err, storage.ErrInvalidKey):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = "internal server error"
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// queryDays parses the days query parameter, falling back to def. Negative
// windows are rejected.
func queryDays(c *fiber.Ctx, def int) (int, error) {
	raw := c.Query("days")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "days must be an integer")
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d days", analytics.ErrInvalidWindow, n)
	}
	return n, nil
}

func bindJSON(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return nil
}
