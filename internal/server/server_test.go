package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage/memory"
	"github.com/julianstephens/streaklit/internal/tracker"
)

var now = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Init())
	tr := tracker.New(store,
		tracker.WithClock(func() time.Time { return now }),
		tracker.WithLocation(time.UTC),
		tracker.WithRetention(30),
	)
	return New(tr, Config{ReadTimeout: time.Second})
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func errorOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	decode(t, resp, &body)
	return body["error"]
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	resp := do(t, s, "GET", "/healthz", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHabitLifecycle(t *testing.T) {
	s := newTestServer(t)

	resp := do(t, s, "GET", "/api/users/sam/habits", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var habits []models.Habit
	decode(t, resp, &habits)
	assert.Len(t, habits, 10)

	resp = do(t, s, "GET", "/api/users/sam/habits?category=Learning", nil)
	decode(t, resp, &habits)
	assert.Len(t, habits, 2)

	resp = do(t, s, "POST", "/api/users/sam/habits", map[string]string{"label": "Stretch", "category": "Wellness"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created models.Habit
	decode(t, resp, &created)
	assert.NotEmpty(t, created.ID)

	resp = do(t, s, "PUT", "/api/users/sam/habits/"+created.ID, map[string]string{"label": "Stretch 10 min"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var edited models.Habit
	decode(t, resp, &edited)
	assert.Equal(t, "Stretch 10 min", edited.Label)

	resp = do(t, s, "POST", "/api/users/sam/habits/"+created.ID+"/toggle", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var day dayResponse
	decode(t, resp, &day)
	assert.Equal(t, 9, day.Score.Score)
	assert.Equal(t, "2024-03-15", day.Score.Day)

	resp = do(t, s, "DELETE", "/api/users/sam/habits/"+created.ID, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = do(t, s, "GET", "/api/users/sam/today", nil)
	decode(t, resp, &day)
	assert.Len(t, day.Snapshot.Habits, 10)
	assert.Equal(t, 0, day.Score.Score)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{name: "unknown habit", method: "POST", path: "/api/users/sam/habits/nope/toggle", status: fiber.StatusNotFound},
		{name: "unknown memory", method: "DELETE", path: "/api/users/sam/memories/nope", status: fiber.StatusNotFound},
		{name: "invalid user", method: "GET", path: "/api/users/bad!user/habits", status: fiber.StatusBadRequest},
		{name: "empty label", method: "POST", path: "/api/users/sam/habits", body: map[string]string{"label": " "}, status: fiber.StatusBadRequest},
		{name: "empty memory", method: "POST", path: "/api/users/sam/memories", body: map[string]string{"text": ""}, status: fiber.StatusBadRequest},
		{name: "negative summary window", method: "GET", path: "/api/users/sam/summary?days=-1", status: fiber.StatusBadRequest},
		{name: "negative chart window", method: "GET", path: "/api/users/sam/chart?days=-3", status: fiber.StatusBadRequest},
		{name: "negative report window", method: "GET", path: "/api/users/sam/report?days=-5", status: fiber.StatusBadRequest},
		{name: "non-numeric window", method: "GET", path: "/api/users/sam/chart?days=week", status: fiber.StatusBadRequest},
		{name: "bad answer", method: "POST", path: "/api/users/sam/questionnaire", body: answersRequest{Answers: []models.Answer{{QuestionID: 42, Answer: "yes"}}}, status: fiber.StatusBadRequest},
		{name: "no route", method: "GET", path: "/api/nothing", status: fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, errorOf(t, resp))
		})
	}
}

func TestMemoryResetsHabits(t *testing.T) {
	s := newTestServer(t)

	do(t, s, "POST", "/api/users/sam/habits/water/toggle", nil)
	resp := do(t, s, "POST", "/api/users/sam/memories", memoryRequest{Text: "good day"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Memory models.Memory `json:"memory"`
		Today  dayResponse   `json:"today"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "good day", body.Memory.Text)
	assert.Equal(t, 0, models.CompletedCount(body.Today.Snapshot.Habits))
	assert.Equal(t, 0, body.Today.Score.Score)

	resp = do(t, s, "GET", "/api/users/sam/memories", nil)
	var mems []models.Memory
	decode(t, resp, &mems)
	assert.Len(t, mems, 1)

	resp = do(t, s, "GET", "/api/dashboard", nil)
	var d tracker.Dashboard
	decode(t, resp, &d)
	assert.Equal(t, 1, d.TotalMemories)
	assert.Equal(t, 1, d.Users)
}

func TestMemoryAcrossMidnight(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Init())
	// The memory is stamped just before midnight; every later reading of the
	// clock is already on the next day.
	calls := 0
	clock := func() time.Time {
		calls++
		if calls == 1 {
			return time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
		}
		return time.Date(2024, 3, 16, 0, 0, 1, 0, time.UTC)
	}
	s := New(tracker.New(store, tracker.WithClock(clock), tracker.WithLocation(time.UTC)), Config{})

	resp := do(t, s, "POST", "/api/users/sam/memories", memoryRequest{Text: "late night"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Memory     models.Memory `json:"memory"`
		ResetError string        `json:"resetError"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "late night", body.Memory.Text)
	assert.Contains(t, body.ResetError, "2024-03-15")

	resp = do(t, s, "GET", "/api/users/sam/memories", nil)
	var mems []models.Memory
	decode(t, resp, &mems)
	assert.Len(t, mems, 1)
}

func TestProgressEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp := do(t, s, "GET", "/api/users/sam/summary", nil)
	var empty map[string]interface{}
	decode(t, resp, &empty)
	assert.Equal(t, false, empty["hasData"])

	do(t, s, "POST", "/api/users/sam/habits/water/toggle", nil)

	resp = do(t, s, "GET", "/api/users/sam/series", nil)
	var series []models.DailyScore
	decode(t, resp, &series)
	require.Len(t, series, 1)
	assert.Equal(t, 10, series[0].Score)

	resp = do(t, s, "GET", "/api/users/sam/chart?days=7", nil)
	var points []map[string]interface{}
	decode(t, resp, &points)
	require.Len(t, points, 1)
	assert.Equal(t, "low", points[0]["band"])

	resp = do(t, s, "GET", "/api/users/sam/streak", nil)
	var streak struct {
		Current int `json:"current"`
		Longest int `json:"longest"`
		Habits  map[string]struct {
			Current int `json:"current"`
		} `json:"habits"`
	}
	decode(t, resp, &streak)
	assert.Equal(t, 0, streak.Current)
	assert.Equal(t, 1, streak.Habits["water"].Current)

	resp = do(t, s, "GET", "/api/users/sam/categories", nil)
	var cats map[string]int
	decode(t, resp, &cats)
	assert.Equal(t, 1, cats["Health"])

	resp = do(t, s, "GET", "/api/users/sam/report?days=7", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var report struct {
		Performance string `json:"performance"`
	}
	decode(t, resp, &report)
	assert.Equal(t, "Needs Work", report.Performance)
}

func TestQuestionnaireEndpoints(t *testing.T) {
	s := newTestServer(t)

	answers := make([]models.Answer, 0, len(models.Questions))
	for _, q := range models.Questions {
		answers = append(answers, models.Answer{QuestionID: q.ID, Answer: models.AnswerYes})
	}
	resp := do(t, s, "POST", "/api/users/sam/questionnaire", answersRequest{Answers: answers})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var state tracker.QuestionnaireState
	decode(t, resp, &state)
	assert.True(t, state.Complete)
	assert.Equal(t, 100, state.Score)

	resp = do(t, s, "DELETE", "/api/users/sam/questionnaire", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = do(t, s, "GET", "/api/users/sam/questionnaire", nil)
	decode(t, resp, &state)
	assert.Empty(t, state.Answers)
	assert.False(t, state.Complete)
}
