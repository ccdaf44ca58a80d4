package middleware

import (
	"net/http"

	"camwatch/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandlerMiddleware renders the last error pushed with c.Error as
// {"error": message, "code": code}. Internal causes are logged, never returned.
func ErrorHandlerMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr := errors.GetAppError(err)
		if appErr == nil {
			appErr = errors.NewInternalError(err)
		}

		fields := []interface{}{
			"code", appErr.Code,
			"status", appErr.HTTPStatus,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		}
		if appErr.Cause != nil {
			fields = append(fields, "error", appErr.Cause.Error())
		}
		if len(appErr.Context) > 0 {
			fields = append(fields, "context", appErr.Context)
		}

		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Errorw(appErr.Message, fields...)
		} else {
			logger.Debugw(appErr.Message, fields...)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(appErr.HTTPStatus, gin.H{
			"error": appErr.PublicMessage(),
			"code":  string(appErr.Code),
		})
	}
}

// RecoveryMiddleware recovers from panics and returns proper error responses
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorw("Panic recovered",
					"panic", rec,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				abortWithError(c, errors.NewAppError(errors.ErrCodeInternal, "panic", http.StatusInternalServerError))
			}
		}()

		c.Next()
	}
}
