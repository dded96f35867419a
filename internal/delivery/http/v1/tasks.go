package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/models"
)

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !models.IsValidTaskStatus(status) {
		h.logger.Error().
			Str("status", status).
			Msg("invalid status")
		abort(c, newBadRequestError("invalid status"))
		return
	}
	projectID := c.Query("project")

	all := h.sync.Tasks()
	tasks := make([]models.Task, 0, len(all))
	for _, task := range all {
		if status != "" && task.Status != status {
			continue
		}
		if projectID != "" && task.Project.ID != projectID {
			continue
		}
		tasks = append(tasks, task)
	}

	h.logger.Debug().
		Int("count", len(tasks)).
		Msg("listed tasks")
	c.JSON(http.StatusOK, tasks)
}

func (h *handlerImpl) HandleGetKanban(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Kanban())
}

func (h *handlerImpl) HandleSearchTasks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		abort(c, newBadRequestError("no query provided"))
		return
	}

	tasks := h.sync.SearchTasks(query)
	h.logger.Debug().
		Str("query", query).
		Int("count", len(tasks)).
		Msg("searched tasks")
	c.JSON(http.StatusOK, tasks)
}

type createTaskRequest struct {
	Title         string     `json:"title" binding:"required,max=255"`
	Code          string     `json:"code,omitempty" binding:"max=64"`
	Description   string     `json:"description,omitempty"`
	Project       string     `json:"project,omitempty"`
	Status        string     `json:"status,omitempty" binding:"omitempty,oneof=todo in-progress done"`
	Priority      string     `json:"priority,omitempty" binding:"omitempty,oneof=low normal high critical"`
	Type          string     `json:"type,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	EstimatedTime *float64   `json:"estimatedTime,omitempty" binding:"omitempty,gte=0"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.sync.CreateTask(c.Request.Context(), api.CreateTaskInput{
		Title:         req.Title,
		Code:          req.Code,
		Description:   req.Description,
		Project:       req.Project,
		Status:        req.Status,
		Priority:      req.Priority,
		Type:          req.Type,
		Deadline:      req.Deadline,
		EstimatedTime: req.EstimatedTime,
	})
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusCreated, task)
}

type updateTaskRequest struct {
	Title         *string    `json:"title,omitempty" binding:"omitempty,max=255"`
	Code          *string    `json:"code,omitempty" binding:"omitempty,max=64"`
	Description   *string    `json:"description,omitempty"`
	Project       *string    `json:"project,omitempty"`
	Priority      *string    `json:"priority,omitempty" binding:"omitempty,oneof=low normal high critical"`
	Type          *string    `json:"type,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Progress      *float64   `json:"progress,omitempty" binding:"omitempty,gte=0,lte=100"`
	EstimatedTime *float64   `json:"estimatedTime,omitempty" binding:"omitempty,gte=0"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError(errNoIDProvided.Error()))
		return
	}

	task, err := h.sync.UpdateTask(c.Request.Context(), taskID, api.UpdateTaskInput{
		Title:         req.Title,
		Code:          req.Code,
		Description:   req.Description,
		Project:       req.Project,
		Priority:      req.Priority,
		Type:          req.Type,
		Deadline:      req.Deadline,
		Progress:      req.Progress,
		EstimatedTime: req.EstimatedTime,
	})
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *handlerImpl) HandleSetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError(errNoIDProvided.Error()))
		return
	}

	status := c.Query("status")
	if status == "" {
		h.logger.Error().Msg("no status provided")
		abort(c, newBadRequestError("no status provided"))
		return
	}

	task, err := h.sync.MoveTask(c.Request.Context(), taskID, status)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError(errNoIDProvided.Error()))
		return
	}

	err := h.sync.DeleteTask(c.Request.Context(), taskID)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

type addCommitRequest struct {
	Hash    string     `json:"hash" binding:"required,hexadecimal,min=7,max=64"`
	Message string     `json:"message" binding:"required"`
	Author  string     `json:"author,omitempty"`
	URL     string     `json:"url,omitempty" binding:"omitempty,url"`
	Date    *time.Time `json:"date,omitempty"`
}

func (h *handlerImpl) HandleAddTaskCommit(c *gin.Context) {
	var req addCommitRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.sync.AddTaskCommit(c.Request.Context(), c.Param("id"), api.CommitInput{
		Hash:    req.Hash,
		Message: req.Message,
		Author:  req.Author,
		URL:     req.URL,
		Date:    req.Date,
	})
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusCreated, task)
}
