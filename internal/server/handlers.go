package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/julianstephens/streaklit/internal/analytics"
	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/tracker"
)

type habitRequest struct {
	Label    string             `json:"label"`
	Category constants.Category `json:"category"`
}

type memoryRequest struct {
	Text string `json:"text"`
}

type answersRequest struct {
	Answers []models.Answer `json:"answers"`
}

type dayResponse struct {
	Snapshot models.DaySnapshot `json:"snapshot"`
	Score    models.DailyScore  `json:"score"`
}

func (s *Server) health(c *fiber.Ctx) error {
	if err := s.tracker.Store().Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) dashboard(c *fiber.Ctx) error {
	d, err := s.tracker.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (s *Server) listHabits(c *fiber.Ctx) error {
	habits, err := s.tracker.Habits(c.UserContext(), c.Params("user"))
	if err != nil {
		return err
	}
	return c.JSON(tracker.FilterCategory(habits, constants.Category(c.Query("category"))))
}

func (s *Server) addHabit(c *fiber.Ctx) error {
	var req habitRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	h, err := s.tracker.AddHabit(c.UserContext(), c.Params("user"), req.Label, req.Category)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(h)
}

func (s *Server) editHabit(c *fiber.Ctx) error {
	var req habitRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	h, err := s.tracker.EditHabit(c.UserContext(), c.Params("user"), c.Params("id"), req.Label, req.Category)
	if err != nil {
		return err
	}
	return c.JSON(h)
}

func (s *Server) deleteHabit(c *fiber.Ctx) error {
	if err := s.tracker.DeleteHabit(c.UserContext(), c.Params("user"), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) toggleHabit(c *fiber.Ctx) error {
	snap, score, err := s.tracker.Toggle(c.UserContext(), c.Params("user"), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dayResponse{Snapshot: snap, Score: score})
}

func (s *Server) today(c *fiber.Ctx) error {
	snap, err := s.tracker.Today(c.UserContext(), c.Params("user"))
	if err != nil {
		return err
	}
	score, _ := analytics.Score(snap.Habits)
	return c.JSON(dayResponse{Snapshot: snap, Score: analytics.Entry(s.tracker.Now(), score)})
}

func (s *Server) series(c *fiber.Ctx) error {
	series, err := s.tracker.Series(c.UserContext(), c.Params("user"))
	if err != nil {
		return err
	}
	if series == nil {
		series = []models.DailyScore{}
	}
	return c.JSON(series)
}

func (s *Server) summary(c *fiber.Ctx) error {
	days, err := queryDays(c, defaultViewDays)
	if err != nil {
		return err
	}
	summary, ok, err := s.tracker.Summary(c.UserContext(), c.Params("user"), days)
	if err != nil {
		return err
	}
	if !ok {
		return c.JSON(fiber.Map{"hasData": false})
	}
	return c.JSON(fiber.Map{"hasData": true, "summary": summary})
}

func (s *Server) streak(c *fiber.Ctx) error {
	user := c.Params("user")
	overall, err := s.tracker.Streak(c.UserContext(), user)
	if err != nil {
		return err
	}
	perHabit, err := s.tracker.HabitStreaks(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"current": overall.Current, "longest": overall.Longest, "habits": perHabit})
}

func (s *Server) categories(c *fiber.Ctx) error {
	cats, err := s.tracker.Categories(c.UserContext(), c.Params("user"))
	if err != nil {
		return err
	}
	return c.JSON(cats)
}

func (s *Server) chart(c *fiber.Ctx) error {
	days, err := queryDays(c, defaultViewDays)
	if err != nil {
		return err
	}
	points, err := s.tracker.Chart(c.UserContext(), c.Params("user"), days)
	if err != nil {
		return err
	}
	return c.JSON(points)
}

func (s *Server) report(c *fiber.Ctx) error {
	days, err := queryDays(c, constants.DefaultReportDays)
	if err != nil {
		return err
	}
	r, err := s.tracker.Report(c.UserContext(), c.Params("user"), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"report":      r,
		"performance": analytics.PerformanceLabel(r.Overall.AverageCompletion),
	})
}

func (s *Server) listMemories(c *fiber.Ctx) error {
	mems, err := s.tracker.Memories(c.UserContext(), c.Params("user"))
	if err != nil {
		return err
	}
	if mems == nil {
		mems = []models.Memory{}
	}
	return c.JSON(mems)
}

// addMemory stores the memory and applies the habit reset it yields.
func (s *Server) addMemory(c *fiber.Ctx) error {
	var req memoryRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	mem, reset, err := s.tracker.AddMemory(c.UserContext(), c.Params("user"), req.Text)
	if err != nil {
		return err
	}
	// The memory is already stored, so a failed reset is reported alongside it.
	snap, score, err := s.tracker.ApplyReset(c.UserContext(), reset)
	if err != nil {
		logger.Warn("Memory saved but habit reset failed", "user", reset.User, "day", reset.Day, "error", err)
		msg := err.Error()
		if statusFor(err) == fiber.StatusInternalServerError {
			msg = "resetting today's habits failed"
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"memory":     mem,
			"resetError": msg,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"memory": mem,
		"today":  dayResponse{Snapshot: snap, Score: score},
	})
}

func (s *Server) deleteMemory(c *fiber.Ctx) error {
	if err := s.tracker.DeleteMemory(c.UserContext(), c.Params("user"), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) questionnaire(c *fiber.Ctx) error {
	state, err := s.tracker.Questionnaire(c.UserContext(), c.Params("user"))
	if err != nil {
		return err
	}
	return c.JSON(state)
}

func (s *Server) answerQuestionnaire(c *fiber.Ctx) error {
	var req answersRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	state, err := s.tracker.AnswerQuestionnaire(c.UserContext(), c.Params("user"), req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(state)
}

func (s *Server) resetQuestionnaire(c *fiber.Ctx) error {
	if err := s.tracker.ResetQuestionnaire(c.UserContext(), c.Params("user")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
