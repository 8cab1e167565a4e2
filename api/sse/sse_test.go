package sse_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rckrdmrd/glit-backend-sub002/api/sse"
	"github.com/rckrdmrd/glit-backend-sub002/config"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	"github.com/rckrdmrd/glit-backend-sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var sec = config.SecurityConfig{JWTSecret: "sse-secret", JWTTTLH: time.Hour}

func TestServeSSE_RejectsWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, ps := testutil.SetupTestCache(t)
	r := gin.New()
	r.GET("/sse", sse.NewHandler(ps, c, sec, zap.NewNop()).ServeSSE)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"UNAUTHORIZED"`)

	// Signed but never logged in.
	tok, err := mw.GenerateToken("u1", "student", sec.JWTSecret, time.Hour)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse?token="+tok, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeSSE_StreamsOwnNotifications(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	me, other := testutil.NewUser(t, db), testutil.NewUser(t, db)

	r := gin.New()
	r.GET("/sse", sse.NewHandler(ps, c, sec, zap.NewNop()).ServeSSE)
	srv := httptest.NewServer(r)
	defer srv.Close()

	tok, err := mw.GenerateToken(me.ID, me.Role, sec.JWTSecret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), mw.SessionKey(tok), me.ID, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if l := lines.Text(); l != "" {
				return l
			}
		}
		return ""
	}
	require.Equal(t, "event: connected", next())
	next()

	notes := notification.NewService(db, zap.NewNop(), notification.NewPubSubPublisher(ps))
	_, err = notes.Send(ctx, other.ID, "friend_request", "not yours", "", nil)
	require.NoError(t, err)
	_, err = notes.Send(ctx, me.ID, "guild_joined", "Welcome", "you joined", nil)
	require.NoError(t, err)

	require.Equal(t, "event: notification", next())
	data := next()
	assert.True(t, strings.HasPrefix(data, "data: "))
	assert.Contains(t, data, `"Welcome"`)
	assert.NotContains(t, data, "not yours")
}
