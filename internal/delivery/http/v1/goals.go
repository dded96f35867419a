package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/models"
)

func (h *handlerImpl) HandleGetGoals(c *gin.Context) {
	level := c.Query("level")
	category := c.Query("category")

	all := h.sync.Goals()
	goals := make([]models.Goal, 0, len(all))
	for _, goal := range all {
		if level != "" && goal.Level != level {
			continue
		}
		if category != "" && goal.Category != category {
			continue
		}
		goals = append(goals, goal)
	}

	c.JSON(http.StatusOK, goals)
}

func (h *handlerImpl) HandleGetCurrentGoal(c *gin.Context) {
	goal, ok := h.sync.CurrentGoal()
	if !ok {
		abort(c, newNotFoundError("no goal opened"))
		return
	}

	c.JSON(http.StatusOK, goal)
}

func (h *handlerImpl) HandleCloseCurrentGoal(c *gin.Context) {
	h.sync.CloseGoal()
	c.Status(http.StatusNoContent)
}

// HandleGetGoal fetches the goal from the backend and makes it the
// current one.
func (h *handlerImpl) HandleGetGoal(c *gin.Context) {
	goal, err := h.sync.OpenGoal(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, goal)
}

type goalRequest struct {
	Title           string        `json:"title" binding:"required,max=255"`
	Description     string        `json:"description,omitempty"`
	Type            string        `json:"type" binding:"required,oneof=numeric steps simple"`
	Category        string        `json:"category" binding:"required,oneof=financial professional learning personal health"`
	Level           string        `json:"level" binding:"required,oneof=annual quarterly monthly weekly daily"`
	Priority        string        `json:"priority,omitempty"`
	ParentGoal      string        `json:"parentGoal,omitempty"`
	ShowInHierarchy *bool         `json:"showInHierarchy,omitempty"`
	ShowInChecklist *bool         `json:"showInChecklist,omitempty"`
	AutoDecompose   *bool         `json:"autoDecompose,omitempty"`
	CurrentValue    *float64      `json:"currentValue,omitempty" binding:"omitempty,gte=0"`
	TargetValue     *float64      `json:"targetValue,omitempty" binding:"omitempty,gt=0"`
	Unit            string        `json:"unit,omitempty"`
	Steps           []models.Step `json:"steps,omitempty"`
	Completed       *bool         `json:"completed,omitempty"`
}

func (r goalRequest) input() api.GoalInput {
	return api.GoalInput{
		Title:           r.Title,
		Description:     r.Description,
		Type:            r.Type,
		Category:        r.Category,
		Level:           r.Level,
		Priority:        r.Priority,
		ParentGoal:      r.ParentGoal,
		ShowInHierarchy: r.ShowInHierarchy,
		ShowInChecklist: r.ShowInChecklist,
		AutoDecompose:   r.AutoDecompose,
		CurrentValue:    r.CurrentValue,
		TargetValue:     r.TargetValue,
		Unit:            r.Unit,
		Steps:           r.Steps,
		Completed:       r.Completed,
	}
}

func (h *handlerImpl) HandleCreateGoal(c *gin.Context) {
	var req goalRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	goal, err := h.sync.CreateGoal(c.Request.Context(), req.input())
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusCreated, goal)
}

func (h *handlerImpl) HandleUpdateGoal(c *gin.Context) {
	var req goalRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	goal, err := h.sync.UpdateGoal(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, goal)
}

func (h *handlerImpl) HandleDeleteGoal(c *gin.Context) {
	err := h.sync.DeleteGoal(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleToggleGoalStep(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		h.logger.Error().
			Str("index", c.Param("index")).
			Msg("invalid step index")
		abort(c, newBadRequestError("invalid step index"))
		return
	}

	goal, err := h.sync.ToggleGoalStep(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, goal)
}

type adjustGoalRequest struct {
	Delta float64 `json:"delta" binding:"required"`
}

func (h *handlerImpl) HandleAdjustGoalValue(c *gin.Context) {
	var req adjustGoalRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	goal, err := h.sync.AdjustGoalValue(c.Request.Context(), c.Param("id"), req.Delta)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, goal)
}

func (h *handlerImpl) HandleCompleteGoal(c *gin.Context) {
	goal, err := h.sync.CompleteGoal(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, goal)
}
