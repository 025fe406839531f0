package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
)

// ErrorHandler turns the last error pushed with c.Error into a JSON response.
// Handlers that already wrote a response (e.g. a stream that failed midway) are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		kind := errs.KindOf(err)
		status := kind.Status()

		msg := "Internal server error"
		var e *errs.Error
		if errors.As(err, &e) && kind != errs.KindInternal {
			msg = e.Message
		}
		if status >= 500 {
			logger.Errorf("%s %s: %s error: %v", c.Request.Method, c.FullPath(), kind, err)
		} else {
			logger.Infof("%s %s: %s: %v", c.Request.Method, c.FullPath(), kind, err)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, gin.H{"error": msg})
	}
}
