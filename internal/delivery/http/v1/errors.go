package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/models"
	"github.com/MHC32/momentum/internal/services"
	"github.com/MHC32/momentum/internal/store"
)

var (
	errInvalidRequestBody = errors.New("invalid request body")
	errInvalidAPIKey      = errors.New("invalid api key")
	errNoIDProvided       = errors.New("no id provided")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

// newServiceError maps errors of the sync and session services to the
// status local clients see.
func newServiceError(err error) apiError {
	var backendErr *api.Error
	switch {
	case errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrGoalNotFound),
		errors.Is(err, store.ErrProjectNotFound),
		errors.Is(err, api.ErrNotFound):
		return newNotFoundError(err.Error())
	case errors.Is(err, store.ErrMutationPending),
		errors.Is(err, store.ErrStaleSnapshot):
		return newConflictError(err.Error())
	case errors.Is(err, store.ErrInvalidStatus),
		errors.Is(err, store.ErrGoalTypeMismatch),
		errors.Is(err, store.ErrStepOutOfRange),
		errors.Is(err, models.ErrInvalidGoalPayload):
		return newBadRequestError(err.Error())
	case errors.Is(err, api.ErrUnauthorized),
		errors.Is(err, services.ErrNoSession),
		errors.Is(err, services.ErrSessionExpired):
		return newUnauthorizedError(err.Error())
	case errors.As(err, &backendErr) && backendErr.StatusCode < http.StatusInternalServerError:
		return newAPIError(backendErr.StatusCode, backendErr.Message)
	case errors.As(err, &backendErr):
		return newStatusTextError(http.StatusBadGateway)
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}
