package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	"go.uber.org/zap"
)

// Recovery turns a panicking handler into a 500 envelope.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error("panic recovered",
				zap.Any("error", r),
				zap.Stack("stack"),
				zap.String("trace_id", GetTraceID(c)),
				zap.String("user_id", GetUserID(c)),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
			)
			abort(c, http.StatusInternalServerError, apperr.CodeInternal, "internal server error")
		}()
		c.Next()
	}
}
