package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlerImpl) HandleGetDashboard(c *gin.Context) {
	dashboard, err := h.sync.Dashboard(c.Request.Context())
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", dashboard)
}

func (h *handlerImpl) HandleRefetch(c *gin.Context) {
	err := h.sync.Refetch(c.Request.Context())
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", c.GetString(userIDCtxKey)).
			Msg("failed to refetch")
		abort(c, newServiceError(err))
		return
	}

	c.Status(http.StatusNoContent)
}
