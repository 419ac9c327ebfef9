package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-tasklists/internal/services"
)

var (
	errInvalidRequestBody = errors.New("invalid request body")
	errInvalidID          = errors.New("invalid id")
)

type apiError struct {
	Code    int
	Message string
	// MissingIDs is set for reorders that referenced unknown ids.
	MissingIDs []int64
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
	body := gin.H{"error": err.Message}
	if len(err.MissingIDs) > 0 {
		body["missing_ids"] = err.MissingIDs
	}
	c.AbortWithStatusJSON(err.Code, body)
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

// newServiceError maps the service error taxonomy onto http statuses.
// Internal details never reach the client.
func newServiceError(err error) apiError {
	var missing *services.MissingIDsError
	switch {
	case errors.As(err, &missing):
		apiErr := newBadRequestError(services.ErrInvalidArgument.Error())
		apiErr.MissingIDs = missing.IDs
		return apiErr
	case errors.Is(err, services.ErrUnauthenticated):
		return newUnauthorizedError(services.ErrUnauthenticated.Error())
	case errors.Is(err, services.ErrInvalidArgument):
		return newBadRequestError(err.Error())
	case errors.Is(err, services.ErrNotFound):
		return newNotFoundError(services.ErrNotFound.Error())
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}

func (h *handlerImpl) abortWithServiceError(c *gin.Context, err error, msg string) {
	apiErr := newServiceError(err)
	event := h.logger.Warn()
	if apiErr.Code >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).
		Str(requestIDCtxKey, c.GetString(requestIDCtxKey)).
		Msg(msg)
	abort(c, apiErr)
}

func (h *handlerImpl) abortWithBindError(c *gin.Context, err error) {
	h.logger.Warn().
		Err(err).
		Str(requestIDCtxKey, c.GetString(requestIDCtxKey)).
		Msg("failed to bind request body")
	abort(c, newBadRequestError(errInvalidRequestBody.Error()))
}

// idParam parses a positive int64 path parameter, aborting with 400
// otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abort(c, newBadRequestError(errInvalidID.Error()))
		return 0, false
	}
	return id, true
}
