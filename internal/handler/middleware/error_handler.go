package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/makkenzo/sorvide-admin/internal/handler/dto"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"go.uber.org/zap"
)

func ErrorHandlerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("ErrorHandler")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, errResponse := Classify(err)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		} else {
			log.Info("Request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
		}

		c.AbortWithStatusJSON(status, errResponse)
	}
}

// Classify maps an error to its HTTP status and response body.
func Classify(err error) (int, dto.APIErrorResponse) {
	status := http.StatusInternalServerError
	errResponse := dto.APIErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "An unexpected error occurred.",
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		status = http.StatusBadRequest
		errResponse.Code = "VALIDATION_ERROR"
		errResponse.Message = "Input validation failed."
		errResponse.Details = buildValidationErrors(ve)
		return status, errResponse
	}

	switch {
	case errors.Is(err, ierr.ErrValidation):
		status = http.StatusBadRequest
		errResponse.Code = "VALIDATION_ERROR"
		errResponse.Message = ierr.Message(err)
	case errors.Is(err, ierr.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		errResponse.Code = "INVALID_CREDENTIALS"
		errResponse.Message = ierr.Message(err)
	case errors.Is(err, ierr.ErrSessionExpired):
		status = http.StatusUnauthorized
		errResponse.Code = "SESSION_EXPIRED"
		errResponse.Message = "Session expired. Please log in again."
	case errors.Is(err, ierr.ErrUnauthorized), errors.Is(err, ierr.ErrInvalidToken), errors.Is(err, ierr.ErrSessionNotFound):
		status = http.StatusUnauthorized
		errResponse.Code = "UNAUTHENTICATED"
		errResponse.Message = "Authentication required or failed."
	case errors.Is(err, ierr.ErrForbidden):
		status = http.StatusForbidden
		errResponse.Code = "FORBIDDEN"
		errResponse.Message = "Access denied."
	case errors.Is(err, ierr.ErrNotFound):
		status = http.StatusNotFound
		errResponse.Code = "NOT_FOUND"
		errResponse.Message = ierr.Message(err)
	case errors.Is(err, ierr.ErrConflict):
		status = http.StatusConflict
		errResponse.Code = "CONFLICT"
		errResponse.Message = err.Error()
	case errors.Is(err, ierr.ErrTimeout):
		status = http.StatusGatewayTimeout
		errResponse.Code = "BACKEND_TIMEOUT"
		errResponse.Message = ierr.Message(err)
	case errors.Is(err, ierr.ErrNetwork):
		status = http.StatusBadGateway
		errResponse.Code = "BACKEND_UNREACHABLE"
		errResponse.Message = "Cannot connect to backend"
	case errors.Is(err, ierr.ErrBackend):
		status = http.StatusBadGateway
		errResponse.Code = "BACKEND_ERROR"
		errResponse.Message = ierr.Message(err)
	}
	return status, errResponse
}

func buildValidationErrors(ve validator.ValidationErrors) []dto.FieldError {
	details := make([]dto.FieldError, len(ve))
	for i, fe := range ve {
		details[i] = dto.FieldError{
			Field:   fe.Field(),
			Message: getValidationErrorMsg(fe),
		}
	}
	return details
}

func getValidationErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "email":
		return fmt.Sprintf("Field '%s' must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of [%s]", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("Field '%s' must be greater than or equal to %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("Field '%s' failed validation on the '%s' tag", fe.Field(), fe.Tag())
	}
}
