package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MHC32/momentum/internal/models"
	"github.com/MHC32/momentum/internal/services"
)

type sessionResponse struct {
	User      models.User `json:"user"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

func newSessionResponse(session *models.Session) sessionResponse {
	resp := sessionResponse{User: session.User}
	if !session.ExpiresAt.IsZero() {
		resp.ExpiresAt = &session.ExpiresAt
	}
	return resp
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=255"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	session, err := h.sessions.Login(c.Request.Context(), services.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(session))
}

type registerRequest struct {
	Name string `json:"name" form:"name" binding:"required,max=255"`
	loginRequest
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var req registerRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	h.logger.Info().
		Str("email", req.Email).
		Msg("register request")

	session, err := h.sessions.Register(c.Request.Context(), services.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register user")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusCreated, newSessionResponse(session))
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	err := h.sessions.Logout(c.Request.Context())
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to logout")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleGetSession(c *gin.Context) {
	session, ok := h.sessions.Current()
	if !ok {
		abort(c, newUnauthorizedError(services.ErrNoSession.Error()))
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(session))
}
