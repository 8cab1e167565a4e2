package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traceOf(t *testing.T, header string) string {
	t.Helper()
	r := gin.New()
	r.Use(TraceID())
	r.GET("/trace", func(c *gin.Context) { c.String(http.StatusOK, GetTraceID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	if header != "" {
		req.Header.Set(TraceIDHeader, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, w.Body.String(), w.Header().Get(TraceIDHeader))
	return w.Body.String()
}

func TestTraceID(t *testing.T) {
	generated := traceOf(t, "")
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.NotEqual(t, generated, traceOf(t, ""))

	given := uuid.NewString()
	assert.Equal(t, given, traceOf(t, given))

	replaced := traceOf(t, "not-a-uuid; drop table")
	assert.NotEqual(t, "not-a-uuid; drop table", replaced)
	assert.Len(t, replaced, 36)
}

func TestGetTraceID_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "", GetTraceID(c))
}
