// Package rest exposes the engines over JSON HTTP. Every response uses the
// envelope {success, data} or {success:false, error:{code, message}}.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	"github.com/rckrdmrd/glit-backend-sub002/audit"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
)

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func ok(c *gin.Context, data any) { respond(c, http.StatusOK, data) }

func created(c *gin.Context, data any) { respond(c, http.StatusCreated, data) }

// fail writes the error envelope. Untyped errors become INTERNAL_ERROR and
// their text is never sent to the client.
func fail(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err)
	}
	c.AbortWithStatusJSON(ae.Kind.Status(), gin.H{
		"success": false,
		"error":   gin.H{"code": ae.Code, "message": ae.Message},
	})
}

// bind decodes and validates the JSON body, answering 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) *apperr.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, len(verrs))
		for i, fe := range verrs {
			if fe.Param() != "" {
				parts[i] = fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
			} else {
				parts[i] = fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag())
			}
		}
		return apperr.Validation(apperr.CodeValidation, strings.Join(parts, "; "))
	}
	return apperr.Validation(apperr.CodeValidation, "malformed request body")
}

// requestCtx carries the trace id and client ip down to the audit log.
func requestCtx(c *gin.Context) context.Context {
	return audit.WithRequestMeta(c.Request.Context(), mw.GetTraceID(c), c.ClientIP())
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
