package routes

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"grokparser/core"
	utils "grokparser/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	Service = "grok"

	TaskTimeout  = 30 * time.Second
	TaskLifetime = 10 * time.Minute

	// Colors
	Reset        = "\033[0m"
	Purple       = "\033[35m"
	DarkGray     = "\033[90m"
	Neutral      = "\033[37m" // Light gray
	LabelColor   = "\033[97m" // White
	SuccessColor = "\033[32m" // Green
	ErrorColor   = "\033[31m" // Red
)

type ActionTask struct {
	mu sync.Mutex

	ID          string
	Status      string
	Scripts     []string
	Solution    utils.ActionSolution
	ErrorReason string
	ProcessTime float64
}

func (t *ActionTask) finish(solution utils.ActionSolution, reason string, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ProcessTime = duration.Seconds()
	if reason != "" {
		t.Status = "error"
		t.ErrorReason = reason
		return
	}
	t.Status = "completed"
	t.Solution = solution
}

type Handler struct {
	Parser *core.Parser
	tasks  *cache.Cache
}

func NewHandler(parser *core.Parser) *Handler {
	return &Handler{
		Parser: parser,
		tasks:  cache.New(TaskLifetime, TaskLifetime/2),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", HealthRoute)
	e.POST("/parseChallenge", h.ParseChallengeRoute)
	e.POST("/createTask", h.CreateTaskRoute)
	e.POST("/getTask", h.GetTaskRoute)
}

func HealthRoute(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
}

// Challenge step, answered inline
func (h *Handler) ParseChallengeRoute(c echo.Context) error {
	var req utils.ChallengeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request"})
	}
	if strings.TrimSpace(req.HTML) == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "html is required"})
	}
	if req.Verification == "" {
		req.Verification = utils.DefaultVerification
	}

	data, err := h.Parser.Challenge.Parse(req.HTML, req.Verification, req.ScriptID)
	if err != nil {
		utils.Log.WithError(err).WithField("script_id", req.ScriptID).Warn("challenge parse failed")
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"error":   errorReason(err),
			"details": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": data})
}

// Action step, solved in the background
func (h *Handler) CreateTaskRoute(c echo.Context) error {
	contentType := c.Request().Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusUnsupportedMediaType, map[string]interface{}{
			"success": false,
			"error":   "Unsupported Content-Type",
			"details": fmt.Sprintf("Expected 'Content-Type: application/json' but got '%s'", contentType),
		})
	}

	var req utils.ActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request"})
	}
	if len(req.Scripts) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "scripts weren't provided"})
	}

	task := &ActionTask{
		ID:      strings.ReplaceAll(uuid.New().String(), "-", ""),
		Status:  "processing",
		Scripts: req.Scripts,
	}
	h.tasks.SetDefault(task.ID, task)

	go h.solve(task)

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "task_id": task.ID})
}

func (h *Handler) solve(task *ActionTask) {
	start := time.Now()

	type result struct {
		solution utils.ActionSolution
		err      error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		solution, err := h.Parser.Actions.Resolve(task.Scripts)
		done <- result{solution, err}
	}()

	var res result
	select {
	case res = <-done:
		reason := ""
		if res.err != nil {
			reason = errorReason(res.err)
		}
		task.finish(res.solution, reason, time.Since(start))
	case <-time.After(TaskTimeout):
		res.err = fmt.Errorf("timeout reached")
		task.finish(utils.ActionSolution{}, "timeout reached - bundle fetch took too long", time.Since(start))
	}

	logTaskCompletion(task, res.err, time.Since(start))
}

func (h *Handler) GetTaskRoute(c echo.Context) error {
	var req utils.ActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request"})
	}

	val, exists := h.tasks.Get(req.TaskID)
	if !exists {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid task_id"})
	}
	task := val.(*ActionTask)

	task.mu.Lock()
	defer task.mu.Unlock()

	switch task.Status {
	case "completed":
		h.tasks.Delete(req.TaskID)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":       true,
			"status":        task.Status,
			"actions":       task.Solution.Actions,
			"xsid_script":   task.Solution.XsidScript,
			"action_script": task.Solution.ActionScript,
			"fallback":      task.Solution.Fallback,
			"time":          math.Round(task.ProcessTime*100) / 100,
		})

	case "error":
		h.tasks.Delete(req.TaskID)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": false,
			"status":  task.Status,
			"error":   task.ErrorReason,
		})

	case "processing":
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": false,
			"status":  task.Status,
		})

	default:
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "unknown task status",
		})
	}
}

// Utilities
func errorReason(err error) string {
	switch {
	case errors.Is(err, core.ErrMissingField):
		return "expected field missing from page"
	case errors.Is(err, core.ErrDecode):
		return "verification token could not be decoded"
	case errors.Is(err, core.ErrIndexOutOfRange):
		return "not enough path datums on page - refetch it"
	case errors.Is(err, core.ErrRoleNotFound):
		return "action or marker script not among candidates"
	case errors.Is(err, core.ErrPatternNotFound):
		return "bundle format changed"
	case strings.Contains(err.Error(), "proxy error"):
		return "bad proxy"
	default:
		return "internal error"
	}
}

func logTaskCompletion(task *ActionTask, err error, duration time.Duration) {
	statusColor := SuccessColor
	if err != nil {
		statusColor = ErrorColor
	}

	task.mu.Lock()
	status := task.Status
	actions := len(task.Solution.Actions)
	xsid := task.Solution.XsidScript
	task.mu.Unlock()

	separator := fmt.Sprintf("%s|%s", DarkGray, Reset)
	message := strings.Join([]string{
		fmt.Sprintf("%s%s%s", Purple, Service, Reset),
		separator,
		fmt.Sprintf("%sStatus:%s %s%s%s", LabelColor, Reset, statusColor, status, Reset),
		separator,
		fmt.Sprintf("%sActions:%s %s%d%s", LabelColor, Reset, Neutral, actions, Reset),
		separator,
		fmt.Sprintf("%sXsid:%s %s%s%s", LabelColor, Reset, Neutral, xsid, Reset),
		separator,
		fmt.Sprintf("%sTime:%s %s%.2fs%s", LabelColor, Reset, Neutral, duration.Seconds(), Reset),
	}, " ")

	entry := utils.Log.WithFields(logrus.Fields{"task_id": task.ID})
	if err != nil {
		entry.WithError(err).Error(message)
		return
	}
	entry.Info(message)
}
