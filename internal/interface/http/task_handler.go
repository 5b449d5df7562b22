package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskvault-api/config"
	"taskvault-api/internal/application"
	"taskvault-api/internal/domain/repository"
	"taskvault-api/internal/interface/middleware"
	"taskvault-api/pkg/response"
	"taskvault-api/pkg/validation"
)

// TaskHandler exposes the task CRUD resource. All routes require a bearer
// token; ownership is enforced in the service.
type TaskHandler struct {
	Tasks  *application.TaskService
	Logger *logrus.Logger
	Cfg    *config.Config
}

func NewTaskHandler(tasks *application.TaskService, logger *logrus.Logger, cfg *config.Config) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Logger: logger, Cfg: cfg}
}

func caller(c *gin.Context) application.Identity {
	return application.Identity{
		UserID: c.GetString(middleware.CtxUserIDKey),
		Role:   c.GetString(middleware.CtxUserRoleKey),
	}
}

func (h *TaskHandler) taskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrTaskNotFound):
		response.Error[any](c, http.StatusNotFound, "Task not found", nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, application.ErrForbidden):
		response.Error[any](c, http.StatusForbidden, "You are not authorized to create tasks for other users", nil)
	default:
		h.Logger.WithError(err).Error("task operation failed")
		response.Error[any](c, http.StatusInternalServerError, "An error occurred", errDetail(h.Cfg, err))
	}
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	Status      string     `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	UserID      string     `json:"user_id"`
}

// Create POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	t, err := h.Tasks.Create(c.Request.Context(), caller(c), application.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		UserID:      req.UserID,
	})
	if err != nil {
		h.taskError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, t, "Task created successfully", nil)
}

// List GET /tasks?status=&priority=&search=
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.Tasks.List(c.Request.Context(), caller(c), repository.TaskFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	})
	if err != nil {
		h.taskError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tasks, "tasks", gin.H{"count": len(tasks)})
}

// Get GET /tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	t, err := h.Tasks.Get(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.taskError(c, err)
		return
	}
	response.Success(c, http.StatusOK, t, "task", nil)
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
}

// Update PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	t, err := h.Tasks.Update(c.Request.Context(), caller(c), c.Param("id"), application.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.taskError(c, err)
		return
	}
	response.Success(c, http.StatusOK, t, "Task updated successfully", nil)
}

// Delete DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.Tasks.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		h.taskError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Task deleted successfully", nil)
}

// Search GET /tasks/search?q=
func (h *TaskHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	hits, err := h.Tasks.Search(c.Request.Context(), caller(c), q, 10)
	if err != nil {
		h.taskError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}
