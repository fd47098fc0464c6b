// api/util/http_util.go
package util

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
)

// RespondWithError logs err and aborts with {"error": message}.
func RespondWithError(c *gin.Context, code int, message string, err error) {
	RespondWithErrorFields(c, code, message, err, nil)
}

// RespondWithErrorFields is RespondWithError with extra body fields.
func RespondWithErrorFields(c *gin.Context, code int, message string, err error, fields gin.H) {
	logger.Error(message,
		zap.Error(err),
		zap.Int("status", code),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	body := gin.H{"error": message}
	for k, v := range fields {
		body[k] = v
	}
	c.AbortWithStatusJSON(code, body)
}
