package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
	"github.com/brightpixel/agency-backend/internal/metrics"
	"github.com/brightpixel/agency-backend/pkg/logger"
)

// respondError maps service errors to status codes. Anything unexpected is
// logged and answered with a generic message.
func respondError(c *gin.Context, operation string, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"
	result := "error"

	switch {
	case errors.Is(err, domain.ErrInvalidRole), errors.Is(err, domain.ErrSelfDeletion):
		status, msg = http.StatusBadRequest, rootMessage(err)
	case errors.Is(err, domain.ErrAccountNotRequested):
		status, msg = http.StatusNotFound, "User not found. Set createAccount to true to create a new account."
	case errors.Is(err, domain.ErrUserNotFound):
		status, msg = http.StatusNotFound, domain.ErrUserNotFound.Error()
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		status, msg = http.StatusConflict, domain.ErrEmailAlreadyExists.Error()
	case errors.Is(err, domain.ErrDirectoryWriteFailed):
		msg = "failed to update user directory"
		result = "compensated"
	}

	if status >= http.StatusInternalServerError {
		logger.Ctx(c.Request.Context()).Error().Err(err).Str("operation", operation).Msg("admin operation failed")
	} else {
		result = "client_error"
	}
	metrics.RecordAdminOperation(operation, result)
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func rootMessage(err error) string {
	for _, target := range []error{domain.ErrInvalidRole, domain.ErrSelfDeletion} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

// bindingMessage renders validator errors field by field.
func bindingMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fieldError(fe))
		}
		return strings.Join(msgs, "; ")
	}
	return "invalid request body"
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report json names ("idToken") instead of
// Go field names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func badRequest(c *gin.Context, operation, msg string) {
	metrics.RecordAdminOperation(operation, "client_error")
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
