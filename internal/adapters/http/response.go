package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
)

// ErrorResponse is the envelope of every failed request
type ErrorResponse struct {
	Success              bool                  `json:"success"`
	Message              string                `json:"message"`
	Errors               []entities.FieldError `json:"errors,omitempty"`
	RequiresRegistration bool                  `json:"requiresRegistration,omitempty"`
}

// MessageResponse is returned by operations without a payload
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(c echo.Context, status int, body echo.Map) error {
	if body == nil {
		body = echo.Map{}
	}
	body["success"] = true
	return c.JSON(status, body)
}

func message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: msg})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind entities.ErrorKind) int {
	switch kind {
	case entities.KindValidation:
		return http.StatusBadRequest
	case entities.KindUnauthenticated:
		return http.StatusUnauthorized
	case entities.KindForbidden, entities.KindQuotaExceeded:
		return http.StatusForbidden
	case entities.KindNotFound:
		return http.StatusNotFound
	case entities.KindConflict:
		return http.StatusConflict
	case entities.KindInvalidTransition, entities.KindNoDeadline:
		return http.StatusUnprocessableEntity
	case entities.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error in the response envelope. Unexpected
// errors are logged and hidden behind a generic message.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		resp := ErrorResponse{Message: "Internal server error"}

		var he *echo.HTTPError
		if de, ok := entities.AsDomainError(err); ok {
			status = StatusFor(de.Kind)
			resp.Message = de.Message
			resp.Errors = de.Fields
			resp.RequiresRegistration = de.RequiresRegistration
		} else if errors.As(err, &he) {
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				resp.Message = msg
			} else {
				resp.Message = http.StatusText(he.Code)
			}
		}

		if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
			log.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				WithError(err).
				Errorw("Request failed", "method", c.Request().Method, "path", c.Path())
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			log.Errorw("Failed to write error response", "error", err)
		}
	}
}
