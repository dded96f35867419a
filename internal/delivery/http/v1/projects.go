package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MHC32/momentum/internal/api"
)

type projectRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty" binding:"omitempty,oneof=dev personal"`
	Status      string `json:"status,omitempty" binding:"omitempty,oneof=active on-hold completed archived"`
	Color       string `json:"color,omitempty" binding:"omitempty,hexcolor"`
	Icon        string `json:"icon,omitempty"`
}

func (r projectRequest) input() api.ProjectInput {
	return api.ProjectInput{
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		Status:      r.Status,
		Color:       r.Color,
		Icon:        r.Icon,
	}
}

func (h *handlerImpl) HandleGetProjects(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Projects())
}

// HandleGetProject refreshes the project from the backend.
func (h *handlerImpl) HandleGetProject(c *gin.Context) {
	project, err := h.sync.OpenProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *handlerImpl) HandleCreateProject(c *gin.Context) {
	var req projectRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	project, err := h.sync.CreateProject(c.Request.Context(), req.input())
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *handlerImpl) HandleUpdateProject(c *gin.Context) {
	var req projectRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	project, err := h.sync.UpdateProject(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *handlerImpl) HandleDeleteProject(c *gin.Context) {
	err := h.sync.DeleteProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleGetProjectKanban(c *gin.Context) {
	kanban, err := h.sync.LoadProjectKanban(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, kanban)
}
