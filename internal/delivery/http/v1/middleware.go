package v1

import (
	"net/http"

	"github.com/alexedwards/argon2id"
	"github.com/gin-gonic/gin"

	"github.com/MHC32/momentum/internal/services"
)

const (
	apiKeyHeader = "X-API-Key"
	userIDCtxKey = "user_id"
)

func (h *handlerImpl) HandleAPIKeyMiddleware(c *gin.Context) {
	if h.apiKeyHash == "" {
		c.Next()
		return
	}

	key := c.GetHeader(apiKeyHeader)
	if key == "" {
		h.logger.Warn().Msg("api key required")
		abort(c, newUnauthorizedError(errInvalidAPIKey.Error()))
		return
	}

	match, err := argon2id.ComparePasswordAndHash(key, h.apiKeyHash)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to compare api key")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}
	if !match {
		h.logger.Warn().
			Str("client_ip", c.ClientIP()).
			Msg("api key mismatch")
		abort(c, newUnauthorizedError(errInvalidAPIKey.Error()))
		return
	}

	c.Next()
}

func (h *handlerImpl) HandleSessionMiddleware(c *gin.Context) {
	session, ok := h.sessions.Current()
	if !ok {
		h.logger.Debug().Msg("no active session")
		abort(c, newUnauthorizedError(services.ErrNoSession.Error()))
		return
	}

	c.Set(userIDCtxKey, session.User.ID)
	c.Next()
}
