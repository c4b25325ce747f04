package middleware

import (
	"errors"
	"net/http"

	"cirqle-backend/internal/delivery/http/response"
	"cirqle-backend/pkg/apperror"
	"cirqle-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Check if there are errors appended to the context
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		requestID, _ := c.Get(RequestIDKey)

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("Request failed", "error", appErr.Err, "path", c.FullPath(), "request_id", requestID)
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Details)
			return
		}

		// Never expose internal error details to clients. Log the actual
		// error server-side and send a generic message.
		logger.Log.Error("Internal server error", "error", err, "path", c.FullPath(), "request_id", requestID)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
