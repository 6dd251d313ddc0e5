package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/app"
	"github.com/abhisek/prepbuddy/internal/groups"
	"github.com/abhisek/prepbuddy/internal/plangen"
	"github.com/abhisek/prepbuddy/internal/progress"
	"github.com/abhisek/prepbuddy/internal/quiz"
)

// Handler binds HTTP requests to controller calls.
type Handler struct {
	ctrl   *app.Controller
	logger *zap.Logger
}

type planRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Duration    string          `json:"duration"`
	Difficulty  string          `json:"difficulty"`
	Topics      []string        `json:"topics"`
	Schedule    []progress.Day  `json:"schedule"`
	Files       []progress.File `json:"files"`
}

type generateRequest struct {
	Topic       string             `json:"topic" binding:"required"`
	Difficulty  string             `json:"difficulty"`
	Days        int                `json:"days" binding:"required,min=1"`
	HoursPerDay float64            `json:"hoursPerDay"`
	Goals       []string           `json:"goals"`
	Material    []plangen.Material `json:"material"`
}

type fileRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content"`
}

type taskRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type quizRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

// GET /plans
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.ctrl.Plans(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// POST /plans
func (h *Handler) CreatePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, out, err := h.ctrl.CreatePlan(c, progress.Draft{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Difficulty:  req.Difficulty,
		Topics:      req.Topics,
		Schedule:    req.Schedule,
		Files:       req.Files,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan, "outcome": out})
}

// POST /plans/generate
func (h *Handler) GeneratePlan(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, out, err := h.ctrl.GeneratePlan(c, plangen.Request(req))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan, "outcome": out})
}

// GET /plans/:id
func (h *Handler) GetPlan(c *gin.Context) {
	plan, err := h.ctrl.Plan(c, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DELETE /plans/:id
func (h *Handler) DeletePlan(c *gin.Context) {
	if err := h.ctrl.DeletePlan(c, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /plans/:id/files
func (h *Handler) AttachFile(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := h.ctrl.AttachFile(c, c.Param("id"), req.Name, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// PUT /plans/:id/days/:day/tasks/:task
func (h *Handler) SetTask(c *gin.Context) {
	day, err1 := strconv.Atoi(c.Param("day"))
	task, err2 := strconv.Atoi(c.Param("task"))
	if err := errors.Join(err1, err2); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day and task must be integers"})
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.ctrl.SetTaskCompletion(c, c.Param("id"), day, task, *req.Completed)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /plans/:id/quizzes
func (h *Handler) QuizResults(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.ctrl.Plan(c, id); err != nil {
		h.fail(c, err)
		return
	}
	results, err := h.ctrl.QuizResults(c, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// POST /plans/:id/quizzes/:quiz/result
func (h *Handler) SubmitQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, out, err := h.ctrl.SubmitQuiz(c, c.Param("id"), c.Param("quiz"), req.Answers)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "outcome": out})
}

// GET /dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	s, err := h.ctrl.Dashboard(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": s, "ratio": s.Ratio()})
}

// GET /incentives
func (h *Handler) Incentives(c *gin.Context) {
	data, err := h.ctrl.Incentives(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GET /celebration
func (h *Handler) Celebration(c *gin.Context) {
	cel, ok := h.ctrl.Celebration()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, cel)
}

// DELETE /celebration
func (h *Handler) AcknowledgeCelebration(c *gin.Context) {
	if err := h.ctrl.AcknowledgeCelebration(c); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /reminder
func (h *Handler) Reminder(c *gin.Context) {
	due, err := h.ctrl.ReminderDue(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"show": due})
}

// POST /reminder/dismiss
func (h *Handler) DismissReminder(c *gin.Context) {
	if err := h.ctrl.DismissReminder(c); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /groups
func (h *Handler) ListGroups(c *gin.Context) {
	gs, err := h.ctrl.Groups().List(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gs)
}

// GET /groups/:id
func (h *Handler) GetGroup(c *gin.Context) {
	g, err := h.ctrl.Groups().Get(c, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g, "leaderboard": groups.Leaderboard(g)})
}

// fail maps domain errors onto status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, progress.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, quiz.ErrAnswerMismatch),
		errors.Is(err, quiz.ErrNoQuestions),
		errors.Is(err, plangen.ErrBadRequest),
		errors.Is(err, app.ErrInvalidPlan):
		status = http.StatusBadRequest
	case errors.Is(err, app.ErrNoGenerator):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
