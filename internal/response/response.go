// Package response writes the uniform JSON envelope used by every route.
package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gamehub/backend/internal/apperr"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a successful envelope with the given status.
func JSON(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{
		Success: status < http.StatusBadRequest,
		Message: message,
		Data:    data,
	})
}

// OK writes a 200 envelope.
func OK(c *gin.Context, message string, data any) {
	JSON(c, http.StatusOK, message, data)
}

// Created writes a 201 envelope.
func Created(c *gin.Context, message string, data any) {
	JSON(c, http.StatusCreated, message, data)
}

// Fail writes an error envelope with an explicit status.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Error: message})
}

// Error converts err into an error envelope. *apperr.Error values keep their
// status and message; anything else is logged and reported as a generic 500.
func Error(c *gin.Context, err error, log *slog.Logger) {
	status, message := resolve(c, err, log)
	Fail(c, status, message)
}

// Abort is Error followed by aborting the gin handler chain.
func Abort(c *gin.Context, err error, log *slog.Logger) {
	status, message := resolve(c, err, log)
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: message})
}

func resolve(c *gin.Context, err error, log *slog.Logger) (int, string) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Code != apperr.CodeInternal {
		if log != nil {
			log.Debug("request rejected",
				"path", c.FullPath(),
				"code", appErr.Code,
				"error", appErr.Message,
			)
		}
		return appErr.HTTPStatus(), appErr.Message
	}

	if log != nil {
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
	}
	return http.StatusInternalServerError, "Internal server error"
}
