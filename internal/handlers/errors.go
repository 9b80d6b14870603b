package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/socialnet/backend/internal/repositories"
	"github.com/anonto42/socialnet/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorBody is the payload of every error response: {"error": ErrorBody}
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewHTTPErrorHandler renders errors in the standard envelope. Server errors
// are logged at error level, client errors at debug.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classifyError(err)
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("code", body.Code),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Debug("request rejected", fields...)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, map[string]ErrorBody{"error": body})
		}
		if err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
	}
}

func classifyError(err error) (int, ErrorBody) {
	var verrs validator.ValidationErrors
	var he *echo.HTTPError

	switch {
	case errors.Is(err, repositories.ErrDuplicateRelationship):
		return http.StatusConflict, ErrorBody{Code: "duplicate_relationship", Message: "relationship already exists"}
	case errors.Is(err, repositories.ErrSelfReference):
		return http.StatusBadRequest, ErrorBody{Code: "self_reference", Message: "you cannot do this to yourself"}
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Code: "not_found", Message: "resource not found"}
	case errors.Is(err, repositories.ErrAlreadyExists):
		return http.StatusConflict, ErrorBody{Code: "conflict", Message: "username or email already in use"}
	case errors.Is(err, repositories.ErrConsistencyRecoveryNeeded):
		return http.StatusInternalServerError, ErrorBody{Code: "consistency_recovery_needed", Message: "the like counter could not be updated, please retry"}
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorBody{Code: "authentication_failed", Message: "invalid credentials"}
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusBadRequest, ErrorBody{Code: "invalid_token", Message: "invalid or expired token"}
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, ErrorBody{Code: "permission_denied", Message: "you do not have permission to perform this action"}
	case errors.Is(err, services.ErrFirebaseDisabled):
		return http.StatusNotImplemented, ErrorBody{Code: "not_implemented", Message: "firebase login is not enabled"}
	case errors.As(err, &verrs):
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return http.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "invalid request", Details: details}
	case errors.As(err, &he):
		return he.Code, ErrorBody{Code: codeForStatus(he.Code), Message: fmt.Sprint(he.Message)}
	}
	return http.StatusInternalServerError, ErrorBody{Code: "server_error", Message: "internal server error"}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "authentication_failed"
	case http.StatusForbidden:
		return "permission_denied"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	}
	if status >= http.StatusInternalServerError {
		return "server_error"
	}
	return "error"
}
