// Package respond writes the API's JSON error bodies. Every failure is a
// single {"message": "..."} object; internal errors are logged, never shown.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hookline/hookline/internal/middleware"
	"github.com/hookline/hookline/internal/services"
	"github.com/hookline/hookline/internal/validation"
)

// Client-facing messages for the sentinel errors.
const (
	MsgEmailTaken         = "User with this email already exists"
	MsgUsernameTaken      = "Username already taken"
	MsgInvalidCredentials = "Invalid email or password"
	MsgUserNotFound       = "User not found"
	MsgScriptNotFound     = "Script not found"
	MsgInvalidBody        = "Invalid request body"
)

// Message aborts the request with status and {"message": msg}.
func Message(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// Error maps err to a response. Known client errors get their own status and
// message; anything else is logged with the request id and answered with 500
// and internal, which must not describe the cause.
func Error(c *gin.Context, err error, internal string) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		Message(c, http.StatusBadRequest, ve.Message)
	case errors.Is(err, services.ErrEmailTaken):
		Message(c, http.StatusBadRequest, MsgEmailTaken)
	case errors.Is(err, services.ErrUsernameTaken):
		Message(c, http.StatusBadRequest, MsgUsernameTaken)
	case errors.Is(err, services.ErrInvalidCredentials):
		Message(c, http.StatusUnauthorized, MsgInvalidCredentials)
	case errors.Is(err, services.ErrUserNotFound):
		Message(c, http.StatusNotFound, MsgUserNotFound)
	case errors.Is(err, services.ErrScriptNotFound):
		Message(c, http.StatusNotFound, MsgScriptNotFound)
	default:
		slog.ErrorContext(c.Request.Context(), internal,
			"error", err,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", middleware.RequestID(c),
		)
		Message(c, http.StatusInternalServerError, internal)
	}
}

// BindJSON decodes the request body into obj, answering 400 on malformed
// JSON. It reports whether the handler should continue.
func BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		Message(c, http.StatusBadRequest, MsgInvalidBody)
		return false
	}
	return true
}
