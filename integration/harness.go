// Package integration drives the full HTTP stack end to end.
package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/rckrdmrd/glit-backend-sub002/api/rest"
	"github.com/rckrdmrd/glit-backend-sub002/api/sse"
	"github.com/rckrdmrd/glit-backend-sub002/audit"
	"github.com/rckrdmrd/glit-backend-sub002/cache"
	"github.com/rckrdmrd/glit-backend-sub002/config"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	"github.com/rckrdmrd/glit-backend-sub002/scheduler"
	"github.com/rckrdmrd/glit-backend-sub002/social/friend"
	"github.com/rckrdmrd/glit-backend-sub002/social/guild"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/assignment"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/classroom"
	"github.com/rckrdmrd/glit-backend-sub002/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// TestServer wraps a real HTTP server with every engine wired together.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	PubSub cache.PubSub
	Guilds *guild.Service
	Sched  *scheduler.Scheduler
	Audit  *audit.Service
	Server *httptest.Server
	URL    string
	Sec    config.SecurityConfig
}

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}

	auditSvc := audit.New(db, logger)
	notes := notification.NewService(db, logger, notification.NewPubSubPublisher(pubsub))
	friendSvc := friend.NewService(db, friend.Options{}, notes, logger)
	guildSvc := guild.NewService(db, guild.Options{}, notes, auditSvc, logger)
	classroomSvc := classroom.NewService(db, logger)
	assignmentSvc := assignment.NewService(db, classroomSvc, notes, auditSvc, logger)
	sched := scheduler.New(logger, 5*time.Second)

	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger), mw.Metrics("glit-test"))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	apirest.RegisterRoutes(r.Group("/api"), apirest.Handlers{
		Auth:          apirest.NewAuthHandler(db, c, sec, logger).WithBcryptCost(bcrypt.MinCost),
		Friends:       apirest.NewFriendHandler(friendSvc),
		Guilds:        apirest.NewGuildHandler(guildSvc),
		Teacher:       apirest.NewTeacherHandler(classroomSvc, assignmentSvc),
		Notifications: apirest.NewNotificationHandler(notes),
	}, mw.Auth(sec, c))
	r.GET("/sse", sse.NewHandler(pubsub, c, sec, logger).ServeSSE)

	server := httptest.NewServer(r)
	ts := &TestServer{
		DB:     db,
		Cache:  c,
		PubSub: pubsub,
		Guilds: guildSvc,
		Sched:  sched,
		Audit:  auditSvc,
		Server: server,
		URL:    server.URL,
		Sec:    sec,
	}
	t.Cleanup(ts.Close)
	return ts
}

// Close shuts down the server and the background workers.
func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Sched.Stop()
	ts.Audit.Stop(context.Background())
}

// --- HTTP helpers ---

// Envelope is the standard response wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Response is a decoded HTTP response.
type Response struct {
	Status int
	Body   Envelope
}

// ErrorCode returns the error code of a failed response.
func (r *Response) ErrorCode() string {
	if r.Body.Error == nil {
		return ""
	}
	return r.Body.Error.Code
}

// Into decodes the data of a successful response.
func (r *Response) Into(t *testing.T, target any) {
	t.Helper()
	require.True(t, r.Body.Success, "expected success, got %+v", r.Body.Error)
	require.NoError(t, json.Unmarshal(r.Body.Data, target))
}

// Do sends a request with an optional JSON body and Bearer token.
func (ts *TestServer) Do(t *testing.T, method, path string, body any, token string) *Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := &Response{Status: resp.StatusCode}
	require.NoError(t, json.Unmarshal(data, &out.Body), "body: %s", string(data))
	return out
}

// PostJSON sends a POST request.
func (ts *TestServer) PostJSON(t *testing.T, path string, body any, token string) *Response {
	t.Helper()
	return ts.Do(t, http.MethodPost, path, body, token)
}

// Get sends a GET request.
func (ts *TestServer) Get(t *testing.T, path, token string) *Response {
	t.Helper()
	return ts.Do(t, http.MethodGet, path, nil, token)
}

// Delete sends a DELETE request.
func (ts *TestServer) Delete(t *testing.T, path string, body any, token string) *Response {
	t.Helper()
	return ts.Do(t, http.MethodDelete, path, body, token)
}

// --- Auth helpers ---

// Account is a registered user with a live session.
type Account struct {
	ID       string
	Email    string
	Password string
	Token    string
}

// Register creates an account with the given role and logs it in.
func (ts *TestServer) Register(t *testing.T, role string) *Account {
	t.Helper()
	name := UniqueID(role)
	a := &Account{Email: name + "@example.com", Password: "password-" + name}
	resp := ts.PostJSON(t, "/api/auth/register", map[string]string{
		"email":    a.Email,
		"username": name,
		"password": a.Password,
		"role":     role,
	}, "")
	require.Equal(t, http.StatusCreated, resp.Status, "register: %+v", resp.Body.Error)
	a.Token, a.ID = ts.Login(t, a.Email, a.Password)
	return a
}

// Login returns a token and the user id.
func (ts *TestServer) Login(t *testing.T, email, password string) (token, userID string) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.Status, "login: %+v", resp.Body.Error)
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	resp.Into(t, &out)
	return out.Token, out.User.ID
}

// --- SSE client ---

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// Stream is an open SSE connection.
type Stream struct {
	events chan Event
	cancel context.CancelFunc
}

// Listen opens the notification stream for token and waits for the
// connected event.
func (ts *TestServer) Listen(t *testing.T, token string) *Stream {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sse?token="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	s := &Stream{events: make(chan Event, 64), cancel: cancel}
	go func() {
		defer resp.Body.Close()
		defer close(s.events)
		var ev Event
		lines := bufio.NewScanner(resp.Body)
		for lines.Scan() {
			line := lines.Text()
			switch {
			case line == "":
				if ev.Name != "" {
					s.events <- ev
				}
				ev = Event{}
			case strings.HasPrefix(line, "event: "):
				ev.Name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.Data = strings.TrimPrefix(line, "data: ")
			}
		}
	}()
	t.Cleanup(s.Close)

	first := s.Next(t, 2*time.Second)
	require.Equal(t, "connected", first.Name)
	return s
}

// Next waits for the next event.
func (s *Stream) Next(t *testing.T, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev, ok := <-s.events:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(timeout):
		t.Fatalf("no event within %s", timeout)
		return Event{}
	}
}

// Close ends the stream.
func (s *Stream) Close() {
	s.cancel()
}

var testCounter uint64

// UniqueID returns a short unique string suitable for usernames and names.
func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%100000, n)
}
